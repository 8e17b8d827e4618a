// Copyright © 2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package devmem

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Load returns the width bit value at b[off:] with exactly one memory access.
// Width must be 8, 16, 32 or 64.
func Load(b []byte, off int, width uint32) uint64 {
	p := at(b, off, width)
	aligned := uintptr(p)&uintptr(width/8-1) == 0
	switch width {
	case 8:
		return uint64(load8((*uint8)(p)))
	case 16:
		return uint64(load16((*uint16)(p)))
	case 32:
		if aligned {
			return uint64(atomic.LoadUint32((*uint32)(p)))
		}
		return uint64(load32((*uint32)(p)))
	default:
		if aligned {
			return atomic.LoadUint64((*uint64)(p))
		}
		return load64((*uint64)(p))
	}
}

// Store writes the low width bits of v at b[off:] with exactly one memory
// access. Width must be 8, 16, 32 or 64.
func Store(b []byte, off int, width uint32, v uint64) {
	p := at(b, off, width)
	aligned := uintptr(p)&uintptr(width/8-1) == 0
	switch width {
	case 8:
		store8((*uint8)(p), uint8(v))
	case 16:
		store16((*uint16)(p), uint16(v))
	case 32:
		if aligned {
			atomic.StoreUint32((*uint32)(p), uint32(v))
		} else {
			store32((*uint32)(p), uint32(v))
		}
	default:
		if aligned {
			atomic.StoreUint64((*uint64)(p), v)
		} else {
			store64((*uint64)(p), v)
		}
	}
}

func at(b []byte, off int, width uint32) unsafe.Pointer {
	switch width {
	case 8, 16, 32, 64:
	default:
		panic(fmt.Errorf("width %d: %w", width, ErrInvalidWidth))
	}
	_ = b[off+int(width/8)-1]
	return unsafe.Pointer(&b[off])
}

// Each of these dereferences its argument exactly once and must not be
// inlined.

//go:noinline
func load8(p *uint8) uint8 { return *p }

//go:noinline
func load16(p *uint16) uint16 { return *p }

//go:noinline
func load32(p *uint32) uint32 { return *p }

//go:noinline
func load64(p *uint64) uint64 { return *p }

//go:noinline
func store8(p *uint8, v uint8) { *p = v }

//go:noinline
func store16(p *uint16, v uint16) { *p = v }

//go:noinline
func store32(p *uint32, v uint32) { *p = v }

//go:noinline
func store64(p *uint64, v uint64) { *p = v }
