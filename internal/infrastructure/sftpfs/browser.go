package sftpfs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/pkg/sftp"

	errUtils "github.com/vivekkundariya/opskit/internal/errors"
	"github.com/vivekkundariya/opskit/internal/output"
)

// MaxInlineSize is the largest remote file Show prints.
const MaxInlineSize = 100000

// FS is the remote filesystem surface used by Browser.
type FS interface {
	ReadDir(p string) ([]os.FileInfo, error)
	Stat(p string) (os.FileInfo, error)
	Lstat(p string) (os.FileInfo, error)
	Open(p string) (io.ReadCloser, error)
	Create(p string) (io.WriteCloser, error)
	Remove(p string) error
	Mkdir(p string) error
	RemoveDirectory(p string) error
}

// Browser implements the sftp verbs on top of an FS.
type Browser struct {
	fs FS
}

func NewBrowser(fsys FS) *Browser {
	return &Browser{fs: fsys}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func size(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

// Permissions renders mode the way ls -l does, e.g. drwxr-xr-x.
func Permissions(mode fs.FileMode) string {
	var b strings.Builder
	switch {
	case mode.IsDir():
		b.WriteByte('d')
	case mode&fs.ModeSymlink != 0:
		b.WriteByte('l')
	default:
		b.WriteByte('-')
	}
	const rwx = "rwx"
	perm := mode.Perm()
	for i := 8; i >= 0; i-- {
		if perm&(1<<uint(i)) != 0 {
			b.WriteByte(rwx[(8-i)%3])
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

func wrap(op, p string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s: path not found: %s: %w", op, p, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%s: permission denied: %s: %w", op, p, err)
	}
	return fmt.Errorf("%s %s: %w", op, p, err)
}

// List shows a directory, directories first then by name.
func (b *Browser) List(p string) (*output.Result, error) {
	if p == "" {
		p = "."
	}
	entries, err := b.fs.ReadDir(p)
	if err != nil {
		return nil, wrap("list", p, err)
	}
	if len(entries) == 0 {
		return output.Message("Empty directory: %s", p), nil
	}

	sort.Slice(entries, func(i, j int) bool {
		di, dj := entries[i].IsDir(), entries[j].IsDir()
		if di != dj {
			return di
		}
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})

	var (
		rows        [][]string
		files, dirs int
		total       int64
	)
	for _, e := range entries {
		if e.IsDir() {
			rows = append(rows, []string{Permissions(e.Mode()), "<DIR>", formatDate(e.ModTime()), e.Name() + "/"})
			dirs++
			continue
		}
		rows = append(rows, []string{Permissions(e.Mode()), size(e.Size()), formatDate(e.ModTime()), e.Name()})
		files++
		total += e.Size()
	}
	return &output.Result{
		Table:  &output.Table{Columns: []string{"Permissions", "Size", "Modified", "Name"}, Rows: rows},
		Footer: fmt.Sprintf("Total: %d files (%s), %d directories", files, size(total), dirs),
	}, nil
}

func (b *Browser) regularFile(op, p string) (os.FileInfo, error) {
	info, err := b.fs.Stat(p)
	if err != nil {
		return nil, wrap(op, p, err)
	}
	if info.IsDir() {
		return nil, errUtils.WithHints(
			fmt.Errorf("%w: %s is a directory", errUtils.ErrInvalidArgument, p),
			"use 'ls' to list directory contents or 'rmdir' to remove it",
		)
	}
	return info, nil
}

// Show prints a small text file.
func (b *Browser) Show(p string) (*output.Result, error) {
	info, err := b.regularFile("get", p)
	if err != nil {
		return nil, err
	}
	hint := fmt.Sprintf("use --output to download: opskit sftp get %s --output <file>", p)
	if info.Size() > MaxInlineSize {
		return nil, errUtils.WithHints(
			fmt.Errorf("%w: large file (%s)", errUtils.ErrInvalidArgument, size(info.Size())), hint)
	}

	f, err := b.fs.Open(p)
	if err != nil {
		return nil, wrap("get", p, err)
	}
	defer f.Close()
	body, err := io.ReadAll(io.LimitReader(f, MaxInlineSize+1))
	if err != nil {
		return nil, wrap("get", p, err)
	}
	if !utf8.Valid(body) {
		return nil, errUtils.WithHints(
			fmt.Errorf("%w: binary file (%s)", errUtils.ErrInvalidArgument, size(info.Size())), hint)
	}
	return &output.Result{Text: string(body)}, nil
}

// Download copies a remote file to dest.
func (b *Browser) Download(p, dest string) (*output.Result, error) {
	if _, err := b.regularFile("get", p); err != nil {
		return nil, err
	}
	src, err := b.fs.Open(p)
	if err != nil {
		return nil, wrap("get", p, err)
	}
	defer src.Close()

	dst, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dest, err)
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return nil, wrap("download", p, err)
	}

	abs, _ := filepath.Abs(dest)
	return &output.Result{Fields: []output.Field{
		{Key: "Downloaded", Value: p},
		{Key: "To", Value: abs},
		{Key: "Size", Value: size(n)},
	}}, nil
}

// Put uploads local to remote. When remote is a directory the local file
// name is kept.
func (b *Browser) Put(local, remote string) (*output.Result, error) {
	info, err := os.Stat(local)
	if err != nil {
		return nil, fmt.Errorf("%w: local file not found: %s", errUtils.ErrInvalidArgument, local)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a file", errUtils.ErrInvalidArgument, local)
	}

	if strings.HasSuffix(remote, "/") {
		remote = path.Join(remote, filepath.Base(local))
	} else if ri, err := b.fs.Stat(remote); err == nil && ri.IsDir() {
		remote = path.Join(remote, filepath.Base(local))
	}

	src, err := os.Open(local)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst, err := b.fs.Create(remote)
	if err != nil {
		return nil, errUtils.WithHints(wrap("upload", remote, err), "check that the parent directory exists")
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, wrap("upload", remote, err)
	}

	return &output.Result{Fields: []output.Field{
		{Key: "Uploaded", Value: local},
		{Key: "To", Value: remote},
		{Key: "Size", Value: size(n)},
	}}, nil
}

// Info shows metadata without following a final symlink.
func (b *Browser) Info(p string) (*output.Result, error) {
	info, err := b.fs.Lstat(p)
	if err != nil {
		return nil, wrap("info", p, err)
	}

	kind := "File"
	switch {
	case info.IsDir():
		kind = "Directory"
	case info.Mode()&fs.ModeSymlink != 0:
		kind = "Symbolic Link"
	}
	fields := []output.Field{
		{Key: "Path", Value: p},
		{Key: "Type", Value: kind},
		{Key: "Size", Value: size(info.Size())},
		{Key: "Permissions", Value: fmt.Sprintf("%s (%03o)", Permissions(info.Mode()), info.Mode().Perm())},
	}
	st, _ := info.Sys().(*sftp.FileStat)
	if st != nil {
		fields = append(fields,
			output.Field{Key: "Owner UID", Value: fmt.Sprint(st.UID)},
			output.Field{Key: "Group GID", Value: fmt.Sprint(st.GID)},
		)
	}
	fields = append(fields, output.Field{Key: "Last Modified", Value: formatDate(info.ModTime())})
	if st != nil {
		fields = append(fields, output.Field{Key: "Last Accessed", Value: formatDate(time.Unix(int64(st.Atime), 0))})
	}
	return &output.Result{Fields: fields}, nil
}

// Remove deletes a file. Directories need Rmdir.
func (b *Browser) Remove(p string) (*output.Result, error) {
	if _, err := b.regularFile("rm", p); err != nil {
		return nil, err
	}
	if err := b.fs.Remove(p); err != nil {
		return nil, wrap("rm", p, err)
	}
	return output.Message("Deleted: %s", p), nil
}

// Mkdir creates one directory.
func (b *Browser) Mkdir(p string) (*output.Result, error) {
	if _, err := b.fs.Stat(p); err == nil {
		return nil, fmt.Errorf("%w: directory already exists: %s", errUtils.ErrInvalidArgument, p)
	}
	if err := b.fs.Mkdir(p); err != nil {
		return nil, wrap("mkdir", p, err)
	}
	return output.Message("Created directory: %s", p), nil
}

// Rmdir removes an empty directory.
func (b *Browser) Rmdir(p string) (*output.Result, error) {
	info, err := b.fs.Stat(p)
	if err != nil {
		return nil, wrap("rmdir", p, err)
	}
	if !info.IsDir() {
		return nil, errUtils.WithHints(
			fmt.Errorf("%w: %s is not a directory", errUtils.ErrInvalidArgument, p),
			"use 'rm' to remove files",
		)
	}
	if err := b.fs.RemoveDirectory(p); err != nil {
		return nil, errUtils.WithHints(wrap("rmdir", p, err), "the directory must be empty")
	}
	return output.Message("Removed directory: %s", p), nil
}
