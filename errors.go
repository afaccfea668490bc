// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/wad

package wad

import (
	"errors"
	"fmt"
)

// Sentinel errors for WAD operations. Use errors.Is in callers.
var (
	// ErrInvalidFormat means the file does not start with a known WAD magic.
	ErrInvalidFormat = errors.New("invalid WAD file: unknown magic")
	// ErrTruncatedRead means fewer bytes were available than the header or directory requires.
	ErrTruncatedRead = errors.New("truncated read")
	// ErrInvalidLumpName means a lump name is longer than 8 bytes, non-ASCII, or contains NUL.
	ErrInvalidLumpName = errors.New("invalid lump name")
	// ErrInvalidDirectory means the directory or one of its entries lies outside the file.
	ErrInvalidDirectory = errors.New("invalid directory")
	// ErrSizeOverflow means the archive would exceed the uint32 offset range.
	ErrSizeOverflow = errors.New("size exceeds uint32 or 4 GiB WAD limit")
	// ErrNilReader means the reader is nil.
	ErrNilReader = errors.New("reader is nil")
	// ErrNilWriter means the writer is nil.
	ErrNilWriter = errors.New("writer is nil")
	// ErrInvalidExtractPath means a lump name cannot be mapped to a safe output file name.
	ErrInvalidExtractPath = errors.New("invalid extract path")
	// ErrInvalidSelectRules means one or more lump selection rules are invalid.
	ErrInvalidSelectRules = errors.New("invalid select rules")
)

// FormatError reports a file whose first 4 bytes are not IWAD or PWAD.
type FormatError struct {
	// Path is the file that was opened.
	Path string
	// Found holds the bytes actually read (up to 4, fewer on short files).
	Found []byte
}

// Error implements error.
func (e *FormatError) Error() string {
	return fmt.Sprintf("%q is not a valid WAD file: found type %q", e.Path, e.Found)
}

// Unwrap returns ErrInvalidFormat.
func (e *FormatError) Unwrap() error {
	return ErrInvalidFormat
}

// LumpNameError reports a lump that cannot be stored in the 8-byte name field.
type LumpNameError struct {
	// Name is the rejected name.
	Name string
	// Reason describes the violated constraint.
	Reason string
	// Index is the position of the lump in writer input.
	Index int
}

// Error implements error.
func (e *LumpNameError) Error() string {
	return fmt.Sprintf("lump %d name %q: %s", e.Index, e.Name, e.Reason)
}

// Unwrap returns ErrInvalidLumpName.
func (e *LumpNameError) Unwrap() error {
	return ErrInvalidLumpName
}
