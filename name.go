// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/wad

package wad

import (
	"bytes"
	"strings"
)

// ValidateName reports whether name fits the 8-byte ASCII directory field.
func ValidateName(name string) error {
	return validateLumpName(0, name)
}

// IsMarkerName reports whether name looks like a namespace marker (S_START, FF_END, ...).
func IsMarkerName(name string) bool {
	return strings.HasSuffix(name, "_START") || strings.HasSuffix(name, "_END")
}

// validateLumpName checks one writer input name; index is reported in the error.
func validateLumpName(index int, name string) error {
	if len(name) > maxNameLen {
		return &LumpNameError{Index: index, Name: name, Reason: "longer than 8 bytes"}
	}

	for i := 0; i < len(name); i++ {
		switch {
		case name[i] == 0:
			return &LumpNameError{Index: index, Name: name, Reason: "contains NUL byte"}
		case name[i] >= 0x80:
			return &LumpNameError{Index: index, Name: name, Reason: "contains non-ASCII byte"}
		}
	}

	return nil
}

// encodeName writes name into dst, NUL-padded to 8 bytes.
// Names of exactly 8 bytes are stored without terminator.
func encodeName(dst []byte, name string) {
	n := copy(dst[:maxNameLen], name)
	clear(dst[n:maxNameLen])
}

// decodeName strips trailing NUL padding from the raw name field.
func decodeName(raw []byte) string {
	return string(bytes.TrimRight(raw, "\x00"))
}

// normalizeNameForMatching prepares a lump name or rule pattern for matcher use.
func normalizeNameForMatching(name string) string {
	return strings.TrimSpace(name)
}
