// Copyright © 2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package soc

import (
	"fmt"
	"strings"
)

// Split returns the segments of a "/", "/BLOCK" or "/BLOCK/REGISTER" path.
// Empty segments are kept so "//x" doesn't resolve as "/x".
func Split(path string) []string {
	path = strings.TrimPrefix(path, "/")
	if len(path) == 0 {
		return nil
	}
	return strings.Split(path, "/")
}

// Block returns the first block with the given name.
func (d *Descriptor) Block(name string) (*Block, error) {
	for i := range d.Blocks {
		if d.Blocks[i].Name == name {
			return &d.Blocks[i], nil
		}
	}
	return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
}

// Register returns the first register named by a "/BLOCK/REGISTER" path.
func (d *Descriptor) Register(path string) (*Register, error) {
	seg := Split(path)
	if len(seg) != 2 {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	blk, err := d.Block(seg[0])
	if err != nil {
		return nil, err
	}
	return blk.Register(seg[1])
}

// Register returns the block's first register with the given name.
func (blk *Block) Register(name string) (*Register, error) {
	for i := range blk.Registers {
		if blk.Registers[i].Name == name {
			return &blk.Registers[i], nil
		}
	}
	return nil, fmt.Errorf("%s/%s: %w", blk.Name, name, ErrNotFound)
}

// ListRoot returns ".", ".." and the block names in descriptor order.
func (d *Descriptor) ListRoot() []string {
	names := make([]string, 0, 2+len(d.Blocks))
	names = append(names, ".", "..")
	for i := range d.Blocks {
		names = append(names, d.Blocks[i].Name)
	}
	return names
}

// List returns ".", ".." and the register names in descriptor order.
func (blk *Block) List() []string {
	names := make([]string, 0, 2+len(blk.Registers))
	names = append(names, ".", "..")
	for i := range blk.Registers {
		names = append(names, blk.Registers[i].Name)
	}
	return names
}
