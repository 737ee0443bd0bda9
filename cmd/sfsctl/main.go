// Command sfsctl is a small CLI around a sfs filesystem image: a handful
// of subcommands backed directly by the package's public API, with no
// flag library beyond os.Args.
package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/KarpelesLab/sfs"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

const usage = `sfsctl - SFS image CLI tool

Usage:
  sfsctl init <image> <size>                 Create and initialize a new SFS image of <size> bytes
  sfsctl ls <image> [<path>]                 List files at path (default: /)
  sfsctl cat <image> <path>                  Print a file's contents to stdout
  sfsctl stat <image> <path>                 Print metadata about path
  sfsctl mkdir <image> <path>                Create a directory
  sfsctl write <image> <path>                Create or truncate path, writing stdin to it
  sfsctl bench <image> <n>                   Run n concurrent writers against a fresh image
  sfsctl help                                Show this help message

Examples:
  sfsctl init disk.img 16777216
  sfsctl mkdir disk.img /etc
  sfsctl write disk.img /etc/hostname < hostname.txt
  sfsctl ls disk.img /etc
`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = cmdInit(os.Args[2:])
	case "ls":
		err = cmdLs(os.Args[2:])
	case "cat":
		err = cmdCat(os.Args[2:])
	case "stat":
		err = cmdStat(os.Args[2:])
	case "mkdir":
		err = cmdMkdir(os.Args[2:])
	case "write":
		err = cmdWrite(os.Args[2:])
	case "bench":
		err = cmdBench(os.Args[2:])
	case "help":
		fmt.Println(usage)
		return
	default:
		fmt.Printf("Error: unknown command %q\n", os.Args[1])
		fmt.Println(usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// openImage opens an image file and mmaps it read-write. There is no
// fallback: if mmap fails, openImage returns the error. The mmap
// path exercises golang.org/x/sys/unix directly against the backing file,
// the same shared-memory-buffer story SFS is built around, rather than a
// private copy.
func openImage(path string) (*os.File, []byte, func() error, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, nil, err
	}

	buf, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, nil, nil, fmt.Errorf("mmap: %w", err)
	}

	closer := func() error {
		if err := unix.Munmap(buf); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return f, buf, closer, nil
}

func cmdInit(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: sfsctl init <image> <size>")
	}
	var size int64
	if _, err := fmt.Sscanf(args[1], "%d", &size); err != nil {
		return fmt.Errorf("bad size %q: %w", args[1], err)
	}

	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Truncate(size); err != nil {
		return err
	}

	buf := make([]byte, size)
	if _, err := sfs.Initialize(buf); err != nil {
		return err
	}
	_, err = f.WriteAt(buf, 0)
	return err
}

func attachFromFile(path string) (*sfs.Context, func() error, error) {
	_, buf, closer, err := openImage(path)
	if err != nil {
		return nil, nil, err
	}
	c, err := sfs.Attach(buf)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return c, closer, nil
}

func cmdLs(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: sfsctl ls <image> [<path>]")
	}
	dir := "."
	if len(args) > 1 {
		dir = args[1]
	}

	c, closer, err := attachFromFile(args[0])
	if err != nil {
		return err
	}
	defer closer()

	fsys := sfs.NewFS(c)
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %s: %s\n", e.Name(), err)
			continue
		}
		printEntry(e.Name(), info)
	}
	return nil
}

func printEntry(name string, info fs.FileInfo) {
	typeChar := "-"
	switch {
	case info.IsDir():
		typeChar = "d"
	case info.Mode()&fs.ModeSymlink != 0:
		typeChar = "l"
	}
	fmt.Printf("%s%s %8d %s %s\n", typeChar, info.Mode().Perm(), info.Size(), info.ModTime().Format(time.RFC822), name)
}

func cmdCat(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: sfsctl cat <image> <path>")
	}
	c, closer, err := attachFromFile(args[0])
	if err != nil {
		return err
	}
	defer closer()

	data, err := fs.ReadFile(sfs.NewFS(c), args[1])
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func cmdStat(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: sfsctl stat <image> <path>")
	}
	c, closer, err := attachFromFile(args[0])
	if err != nil {
		return err
	}
	defer closer()

	info, err := c.Lstat(args[1])
	if err != nil {
		return err
	}
	fmt.Printf("Name:    %s\n", info.Name())
	fmt.Printf("Size:    %d\n", info.Size())
	fmt.Printf("Mode:    %s\n", info.Mode())
	fmt.Printf("ModTime: %s\n", info.ModTime().Format(time.RFC1123))
	return nil
}

func cmdMkdir(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: sfsctl mkdir <image> <path>")
	}
	c, closer, err := attachFromFile(args[0])
	if err != nil {
		return err
	}
	defer closer()
	return c.Mkdir(args[1], 0755)
}

func cmdWrite(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: sfsctl write <image> <path>")
	}
	c, closer, err := attachFromFile(args[0])
	if err != nil {
		return err
	}
	defer closer()

	fd, err := c.Open(args[1], sfs.OCreat|sfs.OTrunc|sfs.OWrOnly, 0644)
	if err != nil {
		return err
	}
	defer c.Close(fd)

	buf := make([]byte, 64*1024)
	for {
		n, rerr := os.Stdin.Read(buf)
		if n > 0 {
			if _, werr := c.Write(fd, buf[:n]); werr != nil {
				return werr
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				return nil
			}
			return rerr
		}
	}
}

// cmdBench initializes a fresh in-memory image and runs n concurrent
// goroutines each creating and writing their own file, reporting how long
// the batch took under the package's lock-free allocators.
func cmdBench(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: sfsctl bench <image> <n>")
	}
	var n int
	if _, err := fmt.Sscanf(args[1], "%d", &n); err != nil {
		return fmt.Errorf("bad n %q: %w", args[1], err)
	}

	buf := make([]byte, 64*1024*1024)
	c, err := sfs.Initialize(buf)
	if err != nil {
		return err
	}
	if err := c.Mkdir("/bench", 0755); err != nil {
		return err
	}

	start := time.Now()
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			path := fmt.Sprintf("/bench/worker-%d", i)
			fd, err := c.Open(path, sfs.OCreat|sfs.OWrOnly, 0644)
			if err != nil {
				return err
			}
			defer c.Close(fd)
			_, err = c.Write(fd, []byte(fmt.Sprintf("data from worker %d\n", i)))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	elapsed := time.Since(start)
	if violations := c.CheckInvariants(); len(violations) > 0 {
		for _, v := range violations {
			fmt.Fprintln(os.Stderr, v.String())
		}
		return fmt.Errorf("%d invariant violations after bench", len(violations))
	}

	fmt.Printf("%d concurrent writers completed in %s\n", n, elapsed)
	return nil
}
