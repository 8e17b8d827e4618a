// Copyright © 2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package soc describes a chip as blocks of memory mapped registers.
//
// A Descriptor is loaded once from its packed binary form and is never
// modified afterward so it may be shared by any number of goroutines.
package soc

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Magic   = 0x57a32bcd
	Version = 1

	MaxChipName     = 32
	MaxBlockName    = 32
	MaxRegisterName = 64
)

var (
	ErrFormat   = errors.New("unsupported soc file format")
	ErrIO       = errors.New("can't read soc file")
	ErrNotFound = errors.New("not found")
)

type Descriptor struct {
	Magic   uint32
	Version uint32
	Chip    string
	Blocks  []Block
}

type Block struct {
	Name      string
	Registers []Register
}

type Register struct {
	Name  string
	Addr  uint64
	Width uint32
}

// Bytes returns the access size of the register or zero if its width isn't
// one of 8, 16, 32 or 64.
func (r *Register) Bytes() int {
	switch r.Width {
	case 8, 16, 32, 64:
		return int(r.Width / 8)
	}
	return 0
}

func (r *Register) String() string {
	return fmt.Sprintf("%s@0x%x/%d", r.Name, r.Addr, r.Width)
}

func (d *Descriptor) String() string {
	buf := new(strings.Builder)
	fmt.Fprintf(buf, "%s: magic 0x%x version %d, %d blocks\n",
		d.Chip, d.Magic, d.Version, len(d.Blocks))
	for i := range d.Blocks {
		b := &d.Blocks[i]
		fmt.Fprintf(buf, "  %s\n", b.Name)
		for j := range b.Registers {
			fmt.Fprintf(buf, "    %s\n", b.Registers[j].String())
		}
	}
	return buf.String()
}

// checkChip rejects chip names that can't be given as a mount option.
func checkChip(name string) error {
	switch {
	case len(name) == 0:
		return fmt.Errorf("chip: empty name: %w", ErrFormat)
	case len(name) >= MaxChipName:
		return fmt.Errorf("chip: %q: name too long: %w", name, ErrFormat)
	case strings.ContainsAny(name, ",\x00"):
		return fmt.Errorf("chip: %q: invalid name: %w", name, ErrFormat)
	}
	return nil
}

func checkName(what, name string, max int) error {
	switch {
	case len(name) == 0:
		return fmt.Errorf("%s: empty name: %w", what, ErrFormat)
	case len(name) >= max:
		return fmt.Errorf("%s: %q: name too long: %w", what, name,
			ErrFormat)
	case strings.ContainsAny(name, "/\x00"):
		return fmt.Errorf("%s: %q: invalid name: %w", what, name,
			ErrFormat)
	}
	return nil
}
