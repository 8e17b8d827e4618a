// Copyright © 2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

//go:build linux
// +build linux

// socfs mounts the registers of a soc as a file system.
package main

import (
	"fmt"
	"os"

	"github.com/platinasystems/socfs/cmd/socfscmd"
)

func main() {
	c := socfscmd.Command{}
	if err := c.Main(os.Args[1:]...); err != nil {
		fmt.Fprint(os.Stderr, c, ": ", err, "\n")
		os.Exit(1)
	}
}
