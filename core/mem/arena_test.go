// Copyright 2025 momentics@gmail.com
// Licensed under the Apache License, Version 2.0.

package mem_test

import (
	"testing"

	"github.com/momentics/hioload-rpc/core/mem"
)

func TestArenaResizeDiscardsContents(t *testing.T) {
	var a mem.Arena[byte]
	if !a.Resize(8) {
		t.Fatal("Resize(8) failed")
	}
	copy(a.Data(), "scratchy")

	if !a.Resize(16) {
		t.Fatal("Resize(16) failed")
	}
	if a.Len() != 16 {
		t.Fatalf("Len = %d, want 16", a.Len())
	}
	for i, b := range a.Data() {
		if b != 0 {
			t.Fatalf("byte %d = %q, want zero after resize", i, b)
		}
	}
}

func TestArenaRejectsNegativeSize(t *testing.T) {
	var a mem.Arena[int]
	if !a.Resize(4) {
		t.Fatal("Resize(4) failed")
	}
	if a.Resize(-1) {
		t.Error("Resize(-1) succeeded")
	}
	if a.Len() != 4 {
		t.Errorf("failed resize mutated arena: Len = %d", a.Len())
	}
}

func TestArenaSliceCarving(t *testing.T) {
	var a mem.Arena[byte]
	if !a.Resize(4096 * 2) {
		t.Fatal("Resize failed")
	}
	in := a.Slice(0, 4096)
	out := a.Slice(4096, 8192)
	in[0] = 'i'
	out[0] = 'o'
	if a.Data()[0] != 'i' || a.Data()[4096] != 'o' {
		t.Error("carved regions do not alias the arena backing store")
	}
}
