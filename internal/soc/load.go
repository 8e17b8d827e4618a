// Copyright © 2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package soc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

// Packed record sizes of the soc file.
const (
	HeaderSize   = 4 + 4 + MaxChipName + 4
	BlockSize    = MaxBlockName + 4 + 4
	RegisterSize = MaxRegisterName + 8 + 4
)

var le = binary.LittleEndian

// Load reads and parses the named soc file.
func Load(filename string) (*Descriptor, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrIO)
	}
	d, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return d, nil
}

// Parse the packed soc image:
//
//	header:   magic u32, version u32, chip [32], block count u32
//	block:    name [32], register count u32, next block offset u32
//	register: name [64], address u64, width u32
//
// Registers are stored inline after their block. The first block follows
// the header and each next block offset is relative to the image start.
func Parse(b []byte) (*Descriptor, error) {
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("header: %d bytes: %w", len(b), ErrFormat)
	}
	d := &Descriptor{
		Magic:   le.Uint32(b[0:4]),
		Version: le.Uint32(b[4:8]),
	}
	if d.Magic != Magic {
		return nil, fmt.Errorf("magic 0x%x: %w", d.Magic, ErrFormat)
	}
	if d.Version != Version {
		return nil, fmt.Errorf("version %d: %w", d.Version, ErrFormat)
	}
	chip, err := cstring(b[8 : 8+MaxChipName])
	if err != nil {
		return nil, fmt.Errorf("chip: %w", err)
	}
	if err = checkChip(chip); err != nil {
		return nil, err
	}
	d.Chip = chip
	n := int(le.Uint32(b[8+MaxChipName : HeaderSize]))
	if max := (len(b) - HeaderSize) / BlockSize; n > max {
		return nil, fmt.Errorf("%d blocks in %d bytes: %w",
			n, len(b), ErrFormat)
	}
	d.Blocks = make([]Block, 0, n)
	for i, off := 0, HeaderSize; i < n; i++ {
		blk, next, err := parseBlock(b, off)
		if err != nil {
			return nil, fmt.Errorf("block[%d]: %w", i, err)
		}
		d.Blocks = append(d.Blocks, blk)
		if i == n-1 {
			break
		}
		end := off + BlockSize + len(blk.Registers)*RegisterSize
		if next < end || next > len(b)-BlockSize {
			return nil, fmt.Errorf("%s: next offset 0x%x: %w",
				blk.Name, next, ErrFormat)
		}
		off = next
	}
	return d, nil
}

func parseBlock(b []byte, off int) (blk Block, next int, err error) {
	if off < 0 || off > len(b)-BlockSize {
		err = fmt.Errorf("offset 0x%x: beyond end: %w", off, ErrFormat)
		return
	}
	rec := b[off : off+BlockSize]
	if blk.Name, err = cstring(rec[:MaxBlockName]); err != nil {
		return
	}
	if err = checkName("block", blk.Name, MaxBlockName); err != nil {
		return
	}
	n := uint64(le.Uint32(rec[MaxBlockName:]))
	next = int(le.Uint32(rec[MaxBlockName+4:]))
	off += BlockSize
	if n*RegisterSize > uint64(len(b)-off) {
		err = fmt.Errorf("%s: %d registers: beyond end: %w",
			blk.Name, n, ErrFormat)
		return
	}
	if n > 0 {
		blk.Registers = make([]Register, n)
	}
	for i := range blk.Registers {
		rec = b[off : off+RegisterSize]
		r := &blk.Registers[i]
		if r.Name, err = cstring(rec[:MaxRegisterName]); err != nil {
			err = fmt.Errorf("%s: register[%d]: %w", blk.Name, i, err)
			return
		}
		if err = checkName(blk.Name, r.Name, MaxRegisterName); err != nil {
			return
		}
		r.Addr = le.Uint64(rec[MaxRegisterName:])
		r.Width = le.Uint32(rec[MaxRegisterName+8:])
		off += RegisterSize
	}
	return
}

// cstring returns the NUL terminated string of a fixed size name field.
func cstring(field []byte) (string, error) {
	i := bytes.IndexByte(field, 0)
	if i < 0 {
		return "", fmt.Errorf("%q...: unterminated name: %w",
			field[:8], ErrFormat)
	}
	return string(field[:i]), nil
}
