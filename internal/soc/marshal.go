// Copyright © 2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package soc

// MarshalBinary packs the descriptor in the form read by Parse with each
// next block offset pointing at the record that immediately follows.
func (d *Descriptor) MarshalBinary() ([]byte, error) {
	if err := checkChip(d.Chip); err != nil {
		return nil, err
	}
	size := HeaderSize
	for i := range d.Blocks {
		blk := &d.Blocks[i]
		if err := checkName("block", blk.Name, MaxBlockName); err != nil {
			return nil, err
		}
		for j := range blk.Registers {
			err := checkName(blk.Name, blk.Registers[j].Name,
				MaxRegisterName)
			if err != nil {
				return nil, err
			}
		}
		size += BlockSize + len(blk.Registers)*RegisterSize
	}
	b := make([]byte, size)
	magic, version := d.Magic, d.Version
	if magic == 0 {
		magic = Magic
	}
	if version == 0 {
		version = Version
	}
	le.PutUint32(b[0:], magic)
	le.PutUint32(b[4:], version)
	copy(b[8:8+MaxChipName], d.Chip)
	le.PutUint32(b[8+MaxChipName:], uint32(len(d.Blocks)))
	off := HeaderSize
	for i := range d.Blocks {
		blk := &d.Blocks[i]
		next := off + BlockSize + len(blk.Registers)*RegisterSize
		copy(b[off:off+MaxBlockName], blk.Name)
		le.PutUint32(b[off+MaxBlockName:], uint32(len(blk.Registers)))
		le.PutUint32(b[off+MaxBlockName+4:], uint32(next))
		off += BlockSize
		for j := range blk.Registers {
			r := &blk.Registers[j]
			copy(b[off:off+MaxRegisterName], r.Name)
			le.PutUint64(b[off+MaxRegisterName:], r.Addr)
			le.PutUint32(b[off+MaxRegisterName+8:], r.Width)
			off += RegisterSize
		}
	}
	return b, nil
}
