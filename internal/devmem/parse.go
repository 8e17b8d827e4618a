// Copyright © 2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package devmem

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseValue returns the leading "0x" hexadecimal or decimal number of b.
// Leading blanks are skipped and anything after the number is ignored, so
// "0x5\n" and "17 apples" are fine while "apples" is not.
func ParseValue(b []byte) (uint64, error) {
	s := strings.TrimLeft(string(b), " \t\r\n")
	base, digits := 10, "0123456789"
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base, digits = 16, "0123456789abcdefABCDEF"
	}
	n := 0
	for n < len(s) && strings.IndexByte(digits, s[n]) >= 0 {
		n++
	}
	if n == 0 {
		return 0, fmt.Errorf("%q: %w", trim(b), ErrParse)
	}
	v, err := strconv.ParseUint(s[:n], base, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %v: %w", trim(b), err, ErrParse)
	}
	return v, nil
}

func trim(b []byte) []byte {
	if len(b) > 32 {
		return b[:32]
	}
	return b
}
