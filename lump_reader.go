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

// lumpReadCloser streams one lump payload and owns the file it reads from.
type lumpReadCloser struct {
	sr   *io.SectionReader
	file *os.File
	name string
	want int64
	read int64
}

// Read implements io.Reader. A payload cut short by end of file yields ErrTruncatedRead.
func (l *lumpReadCloser) Read(p []byte) (int, error) {
	n, err := l.sr.Read(p)
	l.read += int64(n)
	if errors.Is(err, io.EOF) && l.read < l.want {
		return n, fmt.Errorf("%w: lump %q has %d of %d bytes", ErrTruncatedRead, l.name, l.read, l.want)
	}

	return n, err
}

// Close closes the underlying file.
func (l *lumpReadCloser) Close() error {
	return l.file.Close()
}

// OpenLump opens the first lump named name for streaming.
// ok is false with a nil error when no such lump exists.
func (r *Reader) OpenLump(name string) (io.ReadCloser, bool, error) {
	entry, ok, err := r.Find(name)
	if err != nil || !ok {
		return nil, false, err
	}

	rc, err := r.openEntry(entry)
	if err != nil {
		return nil, false, err
	}

	return rc, true, nil
}

// ReadLump reads the full payload of the first lump named name.
// ok is false with a nil error when no such lump exists; an empty lump
// returns a non-nil empty slice with ok set.
func (r *Reader) ReadLump(name string) ([]byte, bool, error) {
	entry, ok, err := r.Find(name)
	if err != nil || !ok {
		return nil, false, err
	}

	data, err := r.ReadEntry(entry)
	if err != nil {
		return nil, false, err
	}

	return data, true, nil
}

// ReadEntry reads the payload described by an already resolved entry.
func (r *Reader) ReadEntry(entry Entry) ([]byte, error) {
	if r == nil {
		return nil, ErrNilReader
	}

	f, size, err := openFileWithSize(r.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	// A corrupt size must not force a 4 GiB allocation.
	if entry.End() > uint64(size) { //nolint:gosec // size is non-negative file length
		return nil, fmt.Errorf("%w: lump %q needs bytes up to %d, file has %d",
			ErrTruncatedRead, entry.Name, entry.End(), size)
	}

	return readEntryAt(f, entry)
}

// openEntry opens payload stream for resolved entry metadata.
func (r *Reader) openEntry(entry Entry) (io.ReadCloser, error) {
	if r == nil {
		return nil, ErrNilReader
	}

	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open WAD: %w", err)
	}

	return &lumpReadCloser{
		sr:   io.NewSectionReader(f, int64(entry.Offset), int64(entry.Size)),
		file: f,
		name: entry.Name,
		want: int64(entry.Size),
	}, nil
}

// readEntryAt reads exactly entry.Size bytes at entry.Offset.
func readEntryAt(ra io.ReaderAt, entry Entry) ([]byte, error) {
	data := make([]byte, entry.Size)
	if len(data) == 0 {
		return data, nil
	}

	n, err := ra.ReadAt(data, int64(entry.Offset))
	if n == len(data) {
		return data, nil
	}

	if err == nil || errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: lump %q has %d of %d bytes at offset %d",
			ErrTruncatedRead, entry.Name, n, entry.Size, entry.Offset)
	}

	return nil, fmt.Errorf("read lump %q: %w", entry.Name, err)
}
