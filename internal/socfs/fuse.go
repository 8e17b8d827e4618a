// Copyright © 2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package socfs

import (
	"context"
	"path"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
	"github.com/platinasystems/log"
)

// Debug, if set, receives a trace of each fuse request and response.
var Debug func(msg interface{})

// Mount serves fs at mountpoint until it's unmounted or ctx is done.
func Mount(ctx context.Context, mountpoint string, fs *FS,
	options ...fuse.MountOption) error {
	options = append([]fuse.MountOption{
		fuse.FSName(fs.Desc.Chip),
		fuse.Subtype("socfs"),
	}, options...)
	c, err := fuse.Mount(mountpoint, options...)
	if err != nil {
		return err
	}
	defer c.Close()
	srv := fusefs.New(c, &fusefs.Config{Debug: Debug})
	done := make(chan error, 1)
	go func() { done <- srv.Serve(fs) }()
	log.Print("daemon", "info", fs.Desc.Chip, " mounted on ", mountpoint)
	select {
	case err = <-done:
	case <-ctx.Done():
		if err = fuse.Unmount(mountpoint); err != nil {
			log.Print("daemon", "err", "unmount ", mountpoint, ": ",
				err)
			return err
		}
		err = <-done
	}
	log.Print("daemon", "info", fs.Desc.Chip, " unmounted from ",
		mountpoint)
	return err
}

func (fs *FS) Root() (fusefs.Node, error) {
	return &dir{fs, "/"}, nil
}

type dir struct {
	fs   *FS
	path string
}

var (
	_ fusefs.Node               = (*dir)(nil)
	_ fusefs.NodeStringLookuper = (*dir)(nil)
	_ fusefs.HandleReadDirAller = (*dir)(nil)
)

func (d *dir) Attr(ctx context.Context, a *fuse.Attr) error {
	attr, err := d.fs.Getattr(d.path)
	if err != nil {
		return Errno(err)
	}
	setAttr(a, attr)
	return nil
}

func (d *dir) Lookup(ctx context.Context, name string) (fusefs.Node, error) {
	p := path.Join(d.path, name)
	attr, err := d.fs.Getattr(p)
	if err != nil {
		return nil, Errno(err)
	}
	if attr.Mode.IsDir() {
		return &dir{d.fs, p}, nil
	}
	return &reg{d.fs, p}, nil
}

func (d *dir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	names, err := d.fs.Readdir(d.path)
	if err != nil {
		return nil, Errno(err)
	}
	typ := fuse.DT_File
	if d.path == "/" {
		typ = fuse.DT_Dir
	}
	ents := make([]fuse.Dirent, 0, len(names))
	for _, name := range names {
		// the kernel supplies its own dot entries
		if name == "." || name == ".." {
			continue
		}
		ents = append(ents, fuse.Dirent{Name: name, Type: typ})
	}
	return ents, nil
}

type reg struct {
	fs   *FS
	path string
}

var (
	_ fusefs.Node          = (*reg)(nil)
	_ fusefs.NodeOpener    = (*reg)(nil)
	_ fusefs.NodeSetattrer = (*reg)(nil)
	_ fusefs.HandleReader  = (*reg)(nil)
	_ fusefs.HandleWriter  = (*reg)(nil)
)

func (r *reg) Attr(ctx context.Context, a *fuse.Attr) error {
	attr, err := r.fs.Getattr(r.path)
	if err != nil {
		return Errno(err)
	}
	setAttr(a, attr)
	return nil
}

// Open bypasses the page cache so that each read loads the register and the
// placeholder size doesn't clip the content.
func (r *reg) Open(ctx context.Context, req *fuse.OpenRequest,
	resp *fuse.OpenResponse) (fusefs.Handle, error) {
	resp.Flags |= fuse.OpenDirectIO
	return r, nil
}

func (r *reg) Read(ctx context.Context, req *fuse.ReadRequest,
	resp *fuse.ReadResponse) error {
	b, err := r.fs.Read(r.path, req.Size, req.Offset)
	if err != nil {
		return Errno(err)
	}
	resp.Data = b
	return nil
}

func (r *reg) Write(ctx context.Context, req *fuse.WriteRequest,
	resp *fuse.WriteResponse) error {
	n, err := r.fs.Write(r.path, req.Data, req.Offset)
	if err != nil {
		return Errno(err)
	}
	resp.Size = n
	return nil
}

func (r *reg) Setattr(ctx context.Context, req *fuse.SetattrRequest,
	resp *fuse.SetattrResponse) error {
	if req.Valid.Size() {
		if err := r.fs.Truncate(r.path, req.Size); err != nil {
			return Errno(err)
		}
	}
	return r.Attr(ctx, &resp.Attr)
}

func setAttr(a *fuse.Attr, attr Attr) {
	a.Mode = attr.Mode
	a.Nlink = attr.Nlink
	a.Size = attr.Size
}
