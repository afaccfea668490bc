// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/wad

package wad

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// readerDirectoryBufferSize is a sequential read buffer for directory parsing.
const readerDirectoryBufferSize = 64 * 1024

var (
	// directoryReaderPool reuses buffered readers for sequential directory parsing.
	directoryReaderPool = sync.Pool{
		New: func() any {
			return bufio.NewReaderSize(bytes.NewReader(nil), readerDirectoryBufferSize)
		},
	}
)

// Reader provides read-only access to a WAD file by path.
//
// Reader does not keep the file open. Every call reopens the archive, so each
// payload read sees the current on-disk bytes, while the directory is loaded
// once on first use and cached for the lifetime of the Reader.
type Reader struct {
	// path is the archive location reopened by every operation.
	path string
	// magic is the tag observed when the Reader was opened.
	magic Magic
	// entries is the cached directory; nil until loaded.
	entries []Entry
	// opts are directory load options.
	opts ReaderOptions
	// mu guards the directory cache.
	mu sync.Mutex
	// loaded reports whether entries holds a parsed directory.
	loaded bool
}

// Open validates the WAD magic of the file at path and returns a Reader.
func Open(path string) (*Reader, error) {
	return OpenWithOptions(path, ReaderOptions{})
}

// OpenWithOptions validates the WAD magic of the file at path and returns a Reader using explicit options.
func OpenWithOptions(path string, opts ReaderOptions) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open WAD: %w", err)
	}
	defer func() { _ = f.Close() }()

	magic, err := readMagic(f, path)
	if err != nil {
		return nil, err
	}

	return &Reader{path: path, magic: magic, opts: opts}, nil
}

// Path returns the archive path.
func (r *Reader) Path() string {
	if r == nil {
		return ""
	}

	return r.path
}

// Magic returns the magic observed at open time.
func (r *Reader) Magic() Magic {
	if r == nil {
		return ""
	}

	return r.magic
}

// Header re-reads the fixed header from disk.
func (r *Reader) Header() (Header, error) {
	if r == nil {
		return Header{}, ErrNilReader
	}

	return ReadHeader(r.path)
}

// Entries returns a copy of the directory in on-disk order.
func (r *Reader) Entries() ([]Entry, error) {
	entries, err := r.directory()
	if err != nil {
		return nil, err
	}

	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Names returns lump names in directory order. Duplicates are kept.
func (r *Reader) Names() ([]string, error) {
	entries, err := r.directory()
	if err != nil {
		return nil, err
	}

	names := make([]string, len(entries))
	for i := range entries {
		names[i] = entries[i].Name
	}

	return names, nil
}

// Find returns the first directory entry whose name equals name exactly.
func (r *Reader) Find(name string) (Entry, bool, error) {
	entries, err := r.directory()
	if err != nil {
		return Entry{}, false, err
	}

	if e := findEntryByName(entries, name); e != nil {
		return *e, true, nil
	}

	return Entry{}, false, nil
}

// directory returns the cached directory, loading it on first call.
// A failed load is not cached.
func (r *Reader) directory() ([]Entry, error) {
	if r == nil {
		return nil, ErrNilReader
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded {
		return r.entries, nil
	}

	f, size, err := openFileWithSize(r.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	_, entries, err := parseDirectory(f, size, r.opts)
	if err != nil {
		return nil, withFormatErrorPath(err, r.path)
	}

	r.entries = entries
	r.loaded = true
	return r.entries, nil
}

// readMagic reads and validates the first 4 bytes of src.
func readMagic(src io.Reader, path string) (Magic, error) {
	var buf [magicSize]byte
	n, err := io.ReadFull(src, buf[:])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("read magic: %w", err)
	}

	magic := Magic(buf[:n])
	if n < magicSize || !magic.Valid() {
		found := make([]byte, n)
		copy(found, buf[:n])
		return "", &FormatError{Path: path, Found: found}
	}

	return magic, nil
}

// parseHeader reads and decodes the fixed 12-byte header from ra.
func parseHeader(ra io.ReaderAt, size int64) (Header, error) {
	if size < magicSize {
		found := make([]byte, size)
		if size > 0 {
			_, _ = ra.ReadAt(found, 0)
		}
		return Header{}, &FormatError{Found: found}
	}

	var raw [headerSize]byte
	n, err := ra.ReadAt(raw[:], 0)
	if n >= magicSize {
		if magic := Magic(raw[:magicSize]); !magic.Valid() {
			return Header{}, &FormatError{Found: bytes.Clone(raw[:magicSize])}
		}
	}
	if n < headerSize {
		if err == nil || errors.Is(err, io.EOF) {
			return Header{}, fmt.Errorf("%w: header has %d of %d bytes", ErrTruncatedRead, n, headerSize)
		}

		return Header{}, fmt.Errorf("read header: %w", err)
	}

	return Header{
		Magic:           Magic(raw[0:4]),
		LumpCount:       binary.LittleEndian.Uint32(raw[4:8]),
		DirectoryOffset: binary.LittleEndian.Uint32(raw[8:12]),
	}, nil
}

// readDirectoryHeader decodes lump count and directory offset, skipping the magic bytes.
// The returned Header has an empty Magic.
func readDirectoryHeader(ra io.ReaderAt) (Header, error) {
	var raw [headerSize - magicSize]byte
	n, err := ra.ReadAt(raw[:], magicSize)
	if n < len(raw) {
		if err == nil || errors.Is(err, io.EOF) {
			return Header{}, fmt.Errorf("%w: header counts have %d of %d bytes", ErrTruncatedRead, n, len(raw))
		}

		return Header{}, fmt.Errorf("read header: %w", err)
	}

	return Header{
		LumpCount:       binary.LittleEndian.Uint32(raw[0:4]),
		DirectoryOffset: binary.LittleEndian.Uint32(raw[4:8]),
	}, nil
}

// parseDirectory decodes lump count, directory offset, and directory table from ra.
// The magic is not checked here; Open and ReadHeader own that check.
func parseDirectory(ra io.ReaderAt, size int64, opts ReaderOptions) (Header, []Entry, error) {
	header, err := readDirectoryHeader(ra)
	if err != nil {
		return Header{}, nil, err
	}

	if opts.ValidateBounds {
		tableEnd := int64(header.DirectoryOffset) + int64(header.LumpCount)*directoryEntrySize
		if tableEnd > size {
			return Header{}, nil, fmt.Errorf(
				"%w: table of %d entries at %d ends at %d past file size %d",
				ErrInvalidDirectory, header.LumpCount, header.DirectoryOffset, tableEnd, size,
			)
		}
	}

	entries, err := parseEntriesBuffered(ra, header, size)
	if err != nil {
		return Header{}, nil, err
	}

	if opts.ValidateBounds {
		if err := validateEntryBounds(entries, size); err != nil {
			return Header{}, nil, err
		}
	}

	return header, entries, nil
}

// parseEntriesBuffered reads header.LumpCount directory records starting at header.DirectoryOffset.
func parseEntriesBuffered(ra io.ReaderAt, header Header, size int64) ([]Entry, error) {
	tableOffset := int64(header.DirectoryOffset)
	remaining := max(size-tableOffset, 0)

	sr := io.NewSectionReader(ra, tableOffset, remaining)
	br := directoryReaderPool.Get().(*bufio.Reader) //nolint:forcetypeassert // pool contains only *bufio.Reader
	br.Reset(sr)
	defer func() {
		br.Reset(bytes.NewReader(nil))
		directoryReaderPool.Put(br)
	}()

	entries := make([]Entry, 0, estimateEntryCapacity(header.LumpCount, remaining))
	var record [directoryEntrySize]byte
	for i := uint32(0); i < header.LumpCount; i++ {
		if _, err := io.ReadFull(br, record[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: directory entry %d of %d at offset %d",
					ErrTruncatedRead, i, header.LumpCount, tableOffset+int64(i)*directoryEntrySize)
			}

			return nil, fmt.Errorf("read directory entry %d: %w", i, err)
		}

		entries = append(entries, Entry{
			Offset: binary.LittleEndian.Uint32(record[0:4]),
			Size:   binary.LittleEndian.Uint32(record[4:8]),
			Name:   decodeName(record[8:16]),
		})
	}

	return entries, nil
}

// estimateEntryCapacity returns an initial capacity that a corrupt lump count cannot inflate.
func estimateEntryCapacity(count uint32, remainingBytes int64) int {
	if remainingBytes <= 0 {
		return 0
	}

	fit := remainingBytes / directoryEntrySize
	if int64(count) < fit {
		return int(count)
	}

	return int(fit)
}

// validateEntryBounds checks that every entry payload is inside the file.
func validateEntryBounds(entries []Entry, size int64) error {
	for i := range entries {
		if end := entries[i].End(); end > uint64(size) { //nolint:gosec // size is non-negative file length
			return fmt.Errorf("%w: lump %d %q ends at %d past file size %d",
				ErrInvalidDirectory, i, entries[i].Name, end, size)
		}
	}

	return nil
}

// findEntryByName returns the first entry with exactly equal name.
func findEntryByName(entries []Entry, name string) *Entry {
	for i := range entries {
		if entries[i].Name == name {
			return &entries[i]
		}
	}

	return nil
}
