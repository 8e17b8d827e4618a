// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package test provides assertions for socfs package tests.
package test

import (
	"errors"
	"os"
	"reflect"
	"regexp"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

// Assert wraps a testing.Test or Benchmark with several assertions.
type Assert struct {
	testing.TB
}

// Nil asserts that there is no error
func (assert Assert) Nil(err error) {
	assert.Helper()
	if err != nil {
		assert.Fatal(err)
	}
}

// Error asserts that an error wraps the given error, or matches the given
// string or regex
func (assert Assert) Error(err error, v interface{}) {
	assert.Helper()
	switch t := v.(type) {
	case error:
		if !errors.Is(err, t) {
			assert.Fatalf("%v: expected %q", err, t.Error())
		}
	case string:
		if err == nil || err.Error() != t {
			assert.Fatalf("%v: expected %q", err, t)
		}
	case *regexp.Regexp:
		if err == nil || !t.MatchString(err.Error()) {
			assert.Fatalf("%v: expected %q", err, t.String())
		}
	default:
		assert.Fatal("can't match:", t)
	}
}

// Equal asserts string equality.
func (assert Assert) Equal(s, expect string) {
	assert.Helper()
	if s != expect {
		assert.Fatalf("%q\n\t!= %q", s, expect)
	}
}

// DeepEqual asserts reflect.DeepEqual and dumps both values if they differ.
func (assert Assert) DeepEqual(v, expect interface{}) {
	assert.Helper()
	if !reflect.DeepEqual(v, expect) {
		assert.Fatalf("%s\n\t!= %s", spew.Sdump(v), spew.Sdump(expect))
	}
}

// True asserts flag.
func (assert Assert) True(t bool) {
	assert.Helper()
	if !t {
		assert.Fatal("not true")
	}
}

// False is not True.
func (assert Assert) False(t bool) {
	assert.Helper()
	if t {
		assert.Fatal("not false")
	}
}

// YoureRoot skips the calling test if EUID != 0
func (assert Assert) YoureRoot() {
	assert.Helper()
	if os.Geteuid() != 0 {
		assert.Skip("you aren't root")
	}
}
