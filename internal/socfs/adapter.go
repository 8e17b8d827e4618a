// Copyright © 2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package socfs presents the registers of a soc descriptor as a file system
// with a directory per block and a file per register.
package socfs

import (
	"errors"
	"os"
	"syscall"

	"bazil.org/fuse"
	"github.com/platinasystems/log"
	"github.com/platinasystems/socfs/internal/devmem"
	"github.com/platinasystems/socfs/internal/soc"
)

// RegisterSize is the size reported for every register file. The content is
// shorter and only known once the register is read.
const RegisterSize = 256

type Attr struct {
	Mode  os.FileMode
	Nlink uint32
	Size  uint64
}

// FS operations take absolute paths of the form "/", "/BLOCK" and
// "/BLOCK/REGISTER".
type FS struct {
	Desc   *soc.Descriptor
	Engine *devmem.Engine
}

func New(desc *soc.Descriptor, engine *devmem.Engine) *FS {
	return &FS{Desc: desc, Engine: engine}
}

func (fs *FS) Getattr(path string) (Attr, error) {
	log.Print("getattr: ", path)
	switch seg := soc.Split(path); len(seg) {
	case 0:
		return Attr{Mode: os.ModeDir | 0755, Nlink: 2}, nil
	case 1:
		if _, err := fs.Desc.Block(seg[0]); err != nil {
			return Attr{}, err
		}
		return Attr{Mode: os.ModeDir | 0755, Nlink: 2}, nil
	case 2:
		if _, err := fs.Desc.Register(path); err != nil {
			return Attr{}, err
		}
		return Attr{Mode: 0666, Nlink: 1, Size: RegisterSize}, nil
	}
	return Attr{}, notFound(path)
}

func (fs *FS) Readdir(path string) ([]string, error) {
	log.Print("readdir: ", path)
	switch seg := soc.Split(path); len(seg) {
	case 0:
		return fs.Desc.ListRoot(), nil
	case 1:
		blk, err := fs.Desc.Block(seg[0])
		if err != nil {
			log.Print("daemon", "err", "can't find ", path)
			return nil, err
		}
		return blk.List(), nil
	}
	return nil, notFound(path)
}

// Read returns up to size bytes of the register's formatted value starting
// at offset. Every call loads the register anew.
func (fs *FS) Read(path string, size int, offset int64) ([]byte, error) {
	log.Printf("read: %s size: %d offset: %d", path, size, offset)
	r, err := fs.Desc.Register(path)
	if err != nil {
		return nil, err
	}
	s, err := fs.Engine.Read(r)
	if err != nil {
		log.Print("daemon", "err", err)
		return nil, err
	}
	if offset < 0 || offset >= int64(len(s)) {
		return nil, nil
	}
	s = s[offset:]
	if len(s) > size {
		s = s[:size]
	}
	return []byte(s), nil
}

// Write stores the value of data in the register regardless of offset.
func (fs *FS) Write(path string, data []byte, offset int64) (int, error) {
	log.Print("write: ", path)
	r, err := fs.Desc.Register(path)
	if err != nil {
		return 0, err
	}
	n, err := fs.Engine.Write(r, data)
	if err != nil {
		log.Print("daemon", "err", err)
	}
	return n, err
}

// Truncate does nothing so that shell redirection may open with O_TRUNC.
func (fs *FS) Truncate(path string, size uint64) error {
	log.Print("truncate: ", path)
	return nil
}

// Errno maps socfs errors to those returned by the file system.
func Errno(err error) fuse.Errno {
	switch {
	case errors.Is(err, soc.ErrNotFound):
		return fuse.ENOENT
	case errors.Is(err, devmem.ErrParse):
		return fuse.Errno(syscall.EINVAL)
	case errors.Is(err, devmem.ErrInvalidWidth),
		errors.Is(err, devmem.ErrIO):
		return fuse.Errno(syscall.EFAULT)
	}
	return fuse.EIO
}

func notFound(path string) error {
	return &os.PathError{Op: "resolve", Path: path, Err: soc.ErrNotFound}
}
