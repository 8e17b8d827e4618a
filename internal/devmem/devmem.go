// Copyright © 2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package devmem reads and writes memory mapped registers through a physical
// memory device like /dev/mem.
//
// Each access maps the page, or the two pages, holding the register, does
// one load or store of the register's width, then unmaps. Nothing is cached
// between accesses so an Engine is safe for concurrent use.
package devmem

import (
	"errors"
	"fmt"
	"os"

	"github.com/platinasystems/log"
	"github.com/platinasystems/socfs/internal/soc"
	"golang.org/x/sys/unix"
)

const DevMem = "/dev/mem"

var (
	ErrIO           = errors.New("can't map device memory")
	ErrInvalidWidth = errors.New("invalid register width")
	ErrParse        = errors.New("can't parse write value")
)

// A Mapper maps size bytes of device memory from the page aligned base.
type Mapper interface {
	Map(base int64, size int) ([]byte, error)
	Unmap(b []byte) error
}

// File is the Mapper of a physical memory device.
type File struct {
	*os.File
	fd int
}

// Open the named memory device for synchronous read/write mappings.
func Open(name string) (*File, error) {
	f, err := os.OpenFile(name, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}
	return &File{f, int(f.Fd())}, nil
}

func (f *File) Map(base int64, size int) ([]byte, error) {
	return unix.Mmap(f.fd, base, size, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED)
}

func (f *File) Unmap(b []byte) error { return unix.Munmap(b) }

type Engine struct {
	Mapper
	PageSize int
}

func New(m Mapper) *Engine {
	return &Engine{Mapper: m, PageSize: unix.Getpagesize()}
}

// Window returns the page aligned base, the offset of addr from base, and
// the mapping size needed to access a width bit register at addr. The size is
// two pages if the register straddles a page boundary.
func Window(addr uint64, width uint32, pageSize int) (base int64, offset, size int) {
	offset = int(addr % uint64(pageSize))
	size = pageSize
	if offset+int(width/8) > pageSize {
		size *= 2
	}
	base = int64(addr - uint64(offset))
	return
}

// Format a register value as read from its file.
func Format(addr, v uint64) string {
	return fmt.Sprintf("0x%x -> 0x%x\n", addr, v)
}

// Read the register and format its value.
func (e *Engine) Read(r *soc.Register) (string, error) {
	if r.Bytes() == 0 {
		return "", fmt.Errorf("%s: %d: %w", r.Name, r.Width,
			ErrInvalidWidth)
	}
	b, off, err := e.mmap(r)
	if err != nil {
		return "", err
	}
	v := Load(b, off, r.Width)
	e.munmap(r, b)
	return Format(r.Addr, v), nil
}

// Write parses text and stores its value, truncated to the register width.
// It returns the length of text as it's always fully consumed.
func (e *Engine) Write(r *soc.Register, text []byte) (int, error) {
	v, err := ParseValue(text)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", r.Name, err)
	}
	if r.Bytes() == 0 {
		return 0, fmt.Errorf("%s: %d: %w", r.Name, r.Width,
			ErrInvalidWidth)
	}
	b, off, err := e.mmap(r)
	if err != nil {
		return 0, err
	}
	log.Printf("daemon", "info", "writing 0x%x to %s at 0x%x",
		v, r.Name, r.Addr)
	Store(b, off, r.Width, v)
	e.munmap(r, b)
	return len(text), nil
}

func (e *Engine) mmap(r *soc.Register) ([]byte, int, error) {
	base, off, size := Window(r.Addr, r.Width, e.PageSize)
	b, err := e.Map(base, size)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: 0x%x: %v: %w", r.Name, r.Addr,
			err, ErrIO)
	}
	if len(b) < off+r.Bytes() {
		e.munmap(r, b)
		return nil, 0, fmt.Errorf("%s: 0x%x: short map: %w",
			r.Name, r.Addr, ErrIO)
	}
	log.Printf("%s mapped 0x%x bytes from 0x%x", r.Name, size, base)
	return b, off, nil
}

func (e *Engine) munmap(r *soc.Register, b []byte) {
	if err := e.Unmap(b); err != nil {
		log.Print("daemon", "err", r.Name, ": can't unmap: ", err)
	}
}
