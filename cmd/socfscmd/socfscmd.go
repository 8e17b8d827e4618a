// Copyright © 2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

//go:build linux
// +build linux

package socfscmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"bazil.org/fuse"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/log"
	"github.com/platinasystems/parms"
	"github.com/platinasystems/socfs/internal/devmem"
	"github.com/platinasystems/socfs/internal/soc"
	"github.com/platinasystems/socfs/internal/socfs"
)

type Command struct{}

func (Command) String() string { return "socfs" }

func (Command) Usage() string {
	return "socfs --soc_file=FILE [-d] [-o OPTION[,OPTION]...] [--mem=FILE] MOUNTPOINT"
}

func (Command) Apropos() string {
	return "mount the registers of a soc as a file system"
}

func (Command) Man() string {
	return `
DESCRIPTION
	Mount a file system with a directory for each block of the soc
	described by FILE and a file for each register of the block.

	Reading a register file prints its address and current value,
		0x10000000 -> 0x5

	Writing a "0x" prefixed hexadecimal or a decimal number to the file
	stores that value in the register, e.g.
		echo 0x5 > MOUNTPOINT/uart0/CTRL

OPTIONS
	--soc_file FILE
		the soc description, mandatory
	--mem FILE
		the physical memory device, default /dev/mem
	-o OPTION[,OPTION]...
		allow_other, default_permissions, ro, or fsname=NAME
	-d	trace file system requests
	-f, -s	accepted and ignored; socfs always runs in the foreground
		and serves requests concurrently. Other unknown options are
		ignored with a warning.
	-h, --help
		print this text`
}

func (c Command) Main(args ...string) error {
	// parms and flags compact their argument slice in place
	args = append([]string(nil), args...)
	parm, args := parms.New(args, "--soc_file", "--mem", "-o")
	flag, args := flags.New(args, "-h", "--help", "-d", "-f", "-s")
	if flag.ByName["-h"] || flag.ByName["--help"] {
		fmt.Print("usage: ", c.Usage(), "\n", c.Man()[1:], "\n")
		return nil
	}
	if len(parm.ByName["--soc_file"]) == 0 {
		return fmt.Errorf("--soc_file: missing")
	}
	args = skipOptions(args)
	switch len(args) {
	case 0:
		return fmt.Errorf("MOUNTPOINT: missing")
	case 1:
	default:
		return fmt.Errorf("%v: unexpected", args[1:])
	}
	mountpoint := args[0]
	options := mountOptions(parm.ByName["-o"])
	if len(parm.ByName["--mem"]) == 0 {
		parm.ByName["--mem"] = devmem.DevMem
	}

	desc, err := soc.Load(parm.ByName["--soc_file"])
	if err != nil {
		return err
	}
	log.Print(desc)

	mem, err := devmem.Open(parm.ByName["--mem"])
	if err != nil {
		return err
	}
	defer mem.Close()

	if flag.ByName["-d"] {
		socfs.Debug = func(msg interface{}) { log.Print(msg) }
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	return socfs.Mount(ctx, mountpoint,
		socfs.New(desc, devmem.New(mem)), options...)
}

// skipOptions drops the fuse runtime options that don't apply here.
func skipOptions(args []string) []string {
	kept := args[:0]
	for _, arg := range args {
		if len(arg) > 1 && arg[0] == '-' {
			log.Print("warn", "ignored option: ", arg)
			continue
		}
		kept = append(kept, arg)
	}
	return kept
}

// mountOptions parses the comma separated -o list. Those that bazil.org/fuse
// can't express are ignored.
func mountOptions(s string) []fuse.MountOption {
	var options []fuse.MountOption
	for _, o := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' '
	}) {
		switch {
		case o == "allow_other":
			options = append(options, fuse.AllowOther())
		case o == "default_permissions":
			options = append(options, fuse.DefaultPermissions())
		case o == "ro":
			options = append(options, fuse.ReadOnly())
		case strings.HasPrefix(o, "fsname="):
			options = append(options,
				fuse.FSName(strings.TrimPrefix(o, "fsname=")))
		default:
			log.Print("warn", "ignored option: -o ", o)
		}
	}
	return options
}
