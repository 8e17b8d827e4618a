// Copyright © 2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package socfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"

	"bazil.org/fuse"
	"github.com/platinasystems/socfs/internal/devmem"
	"github.com/platinasystems/socfs/internal/soc"
	"github.com/platinasystems/socfs/internal/test"
)

const pageSize = 4096

// ram maps pages of a byte slice that stands in for the physical memory
// from origin.
type ram struct {
	origin int64
	buf    []byte
	maps   int
}

func (m *ram) Map(base int64, size int) ([]byte, error) {
	m.maps++
	i := base - m.origin
	if i < 0 || i+int64(size) > int64(len(m.buf)) {
		return nil, syscall.EINVAL
	}
	return m.buf[i : i+int64(size)], nil
}

func (m *ram) Unmap([]byte) error { return nil }

var demo = &soc.Descriptor{
	Magic:   soc.Magic,
	Version: soc.Version,
	Chip:    "demo",
	Blocks: []soc.Block{
		{
			Name: "uart0",
			Registers: []soc.Register{
				{Name: "CTRL", Addr: 0x10000000, Width: 32},
				{Name: "FIFO", Addr: 0x10000004, Width: 8},
				{Name: "BAD", Addr: 0x10000008, Width: 12},
				{Name: "GONE", Addr: 0x20000000, Width: 32},
			},
		},
		{Name: "empty"},
	},
}

func newFS() (*FS, *ram) {
	m := &ram{origin: 0x10000000, buf: make([]byte, 2*pageSize)}
	return New(demo, &devmem.Engine{Mapper: m, PageSize: pageSize}), m
}

func TestGetattr(t *testing.T) {
	assert := test.Assert{TB: t}
	fs, _ := newFS()
	for _, path := range []string{"/", "/uart0", "/empty"} {
		attr, err := fs.Getattr(path)
		assert.Nil(err)
		assert.True(attr.Mode == os.ModeDir|0755 && attr.Nlink == 2)
	}
	attr, err := fs.Getattr("/uart0/CTRL")
	assert.Nil(err)
	assert.DeepEqual(attr, Attr{Mode: 0666, Nlink: 1, Size: RegisterSize})
	assert.False(attr.Mode.IsDir())
	for _, path := range []string{"/uart1", "/uart0/NOPE",
		"/uart0/CTRL/x", "/empty/CTRL"} {
		_, err = fs.Getattr(path)
		assert.Error(err, soc.ErrNotFound)
	}
}

func TestReaddir(t *testing.T) {
	assert := test.Assert{TB: t}
	fs, _ := newFS()
	names, err := fs.Readdir("/")
	assert.Nil(err)
	assert.DeepEqual(names, []string{".", "..", "uart0", "empty"})
	names, err = fs.Readdir("/uart0")
	assert.Nil(err)
	assert.DeepEqual(names, []string{".", "..", "CTRL", "FIFO", "BAD",
		"GONE"})
	for _, path := range []string{"/nope", "/uart0/CTRL"} {
		_, err = fs.Readdir(path)
		assert.Error(err, soc.ErrNotFound)
	}
}

func TestScenario(t *testing.T) {
	assert := test.Assert{TB: t}
	fs, m := newFS()
	m.buf[0] = 0x11
	b, err := fs.Read("/uart0/CTRL", 4096, 0)
	assert.Nil(err)
	assert.Equal(string(b), "0x10000000 -> 0x11\n")

	n, err := fs.Write("/uart0/CTRL", []byte("0x5"), 0)
	assert.Nil(err)
	assert.True(n == 3)
	assert.DeepEqual(m.buf[:4], []byte{5, 0, 0, 0})

	b, err = fs.Read("/uart0/CTRL", 4096, 0)
	assert.Nil(err)
	assert.Equal(string(b), "0x10000000 -> 0x5\n")
}

func TestReadOffset(t *testing.T) {
	assert := test.Assert{TB: t}
	fs, _ := newFS()
	const s = "0x10000004 -> 0x0\n"
	for _, x := range []struct {
		size   int
		offset int64
		want   string
	}{
		{4096, 0, s},
		{4, 0, s[:4]},
		{4096, 4, s[4:]},
		{3, 14, s[14:17]},
		{4096, int64(len(s)), ""},
		{4096, 256, ""},
	} {
		t.Run(fmt.Sprint(x.size, "@", x.offset), func(t *testing.T) {
			b, err := fs.Read("/uart0/FIFO", x.size, x.offset)
			test.Assert{TB: t}.Nil(err)
			test.Assert{TB: t}.Equal(string(b), x.want)
		})
	}
	n, err := fs.Write("/uart0/FIFO", []byte("0x7"), 100)
	assert.Nil(err)
	assert.True(n == 3)
	b, err := fs.Read("/uart0/FIFO", 4096, 0)
	assert.Nil(err)
	assert.Equal(string(b), "0x10000004 -> 0x7\n")
}

func TestErrors(t *testing.T) {
	assert := test.Assert{TB: t}
	fs, m := newFS()
	_, err := fs.Read("/uart0/NOPE", 4096, 0)
	assert.Error(err, soc.ErrNotFound)
	_, err = fs.Write("/nope/CTRL", []byte("1"), 0)
	assert.Error(err, soc.ErrNotFound)
	_, err = fs.Read("/uart0/BAD", 4096, 0)
	assert.Error(err, devmem.ErrInvalidWidth)
	_, err = fs.Read("/uart0/GONE", 4096, 0)
	assert.Error(err, devmem.ErrIO)

	maps := m.maps
	_, err = fs.Write("/uart0/CTRL", []byte("not_a_number"), 0)
	assert.Error(err, devmem.ErrParse)
	assert.True(m.maps == maps)

	assert.Nil(fs.Truncate("/uart0/CTRL", 0))
	assert.Nil(fs.Truncate("/whatever", 100))
}

func TestErrno(t *testing.T) {
	for _, x := range []struct {
		err   error
		errno fuse.Errno
	}{
		{fmt.Errorf("x: %w", soc.ErrNotFound), fuse.ENOENT},
		{devmem.ErrParse, fuse.Errno(syscall.EINVAL)},
		{devmem.ErrInvalidWidth, fuse.Errno(syscall.EFAULT)},
		{devmem.ErrIO, fuse.Errno(syscall.EFAULT)},
		{errors.New("other"), fuse.EIO},
	} {
		if got := Errno(x.err); got != x.errno {
			t.Errorf("%v: %v != %v", x.err, got, x.errno)
		}
	}
}

func TestNodes(t *testing.T) {
	assert := test.Assert{TB: t}
	ctx := context.Background()
	fs, m := newFS()
	root, err := fs.Root()
	assert.Nil(err)

	var a fuse.Attr
	assert.Nil(root.Attr(ctx, &a))
	assert.True(a.Mode.IsDir())

	ents, err := root.(*dir).ReadDirAll(ctx)
	assert.Nil(err)
	assert.DeepEqual(ents, []fuse.Dirent{
		{Name: "uart0", Type: fuse.DT_Dir},
		{Name: "empty", Type: fuse.DT_Dir},
	})

	_, err = root.(*dir).Lookup(ctx, "nope")
	assert.True(err == fuse.ENOENT)

	n, err := root.(*dir).Lookup(ctx, "uart0")
	assert.Nil(err)
	blk := n.(*dir)
	assert.Equal(blk.path, "/uart0")
	ents, err = blk.ReadDirAll(ctx)
	assert.Nil(err)
	assert.True(len(ents) == 4 && ents[0].Type == fuse.DT_File)

	n, err = blk.Lookup(ctx, "CTRL")
	assert.Nil(err)
	r := n.(*reg)
	assert.Nil(r.Attr(ctx, &a))
	assert.True(a.Mode == 0666 && a.Size == RegisterSize)

	var open fuse.OpenResponse
	h, err := r.Open(ctx, &fuse.OpenRequest{}, &open)
	assert.Nil(err)
	assert.True(h == r && open.Flags&fuse.OpenDirectIO != 0)

	var setattr fuse.SetattrResponse
	assert.Nil(r.Setattr(ctx, &fuse.SetattrRequest{
		Valid: fuse.SetattrSize,
	}, &setattr))
	assert.True(setattr.Attr.Size == RegisterSize)

	var wr fuse.WriteResponse
	assert.Nil(r.Write(ctx, &fuse.WriteRequest{Data: []byte("258\n")}, &wr))
	assert.True(wr.Size == 4)
	assert.DeepEqual(m.buf[:4], []byte{2, 1, 0, 0})

	var rd fuse.ReadResponse
	assert.Nil(r.Read(ctx, &fuse.ReadRequest{Size: 4096}, &rd))
	assert.Equal(string(rd.Data), "0x10000000 -> 0x102\n")

	err = r.Write(ctx, &fuse.WriteRequest{Data: []byte("x")}, &wr)
	assert.True(err == fuse.Errno(syscall.EINVAL))
}
