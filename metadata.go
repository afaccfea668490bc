// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/wad

package wad

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ReadHeader opens a WAD and returns only the fixed header without parsing the directory.
func ReadHeader(path string) (Header, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return Header{}, err
	}
	defer func() { _ = f.Close() }()

	header, err := ReadHeaderFromReaderAt(f, size)
	return header, withFormatErrorPath(err, path)
}

// ReadHeaderFromReaderAt reads the fixed WAD header from a random-access source.
func ReadHeaderFromReaderAt(ra io.ReaderAt, size int64) (Header, error) {
	if ra == nil {
		return Header{}, ErrNilReader
	}

	return parseHeader(ra, size)
}

// ListEntries opens a WAD and returns directory entries without payload reads.
func ListEntries(path string) ([]Entry, error) {
	return ListEntriesWithOptions(path, ReaderOptions{})
}

// ListEntriesWithOptions opens a WAD and returns directory entries using reader options.
func ListEntriesWithOptions(path string, opts ReaderOptions) ([]Entry, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	entries, err := ListEntriesFromReaderAtWithOptions(f, size, opts)
	return entries, withFormatErrorPath(err, path)
}

// ListEntriesFromReaderAt parses directory entries from a random-access source.
func ListEntriesFromReaderAt(ra io.ReaderAt, size int64) ([]Entry, error) {
	return ListEntriesFromReaderAtWithOptions(ra, size, ReaderOptions{})
}

// ListEntriesFromReaderAtWithOptions parses directory entries from a random-access source using reader options.
// The magic is validated first, as Open does.
func ListEntriesFromReaderAtWithOptions(ra io.ReaderAt, size int64, opts ReaderOptions) ([]Entry, error) {
	if ra == nil {
		return nil, ErrNilReader
	}

	if _, err := readMagic(io.NewSectionReader(ra, 0, size), ""); err != nil {
		return nil, err
	}

	_, entries, err := parseDirectory(ra, size, opts)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// openFileWithSize opens a file and returns a handle plus current size.
func openFileWithSize(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open WAD: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("stat: %w", err)
	}

	return f, fi.Size(), nil
}

// withFormatErrorPath fills the path of a FormatError produced by a ReaderAt helper.
func withFormatErrorPath(err error, path string) error {
	var formatErr *FormatError
	if errors.As(err, &formatErr) && formatErr.Path == "" {
		formatErr.Path = path
	}

	return err
}
