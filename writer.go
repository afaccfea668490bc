// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/wad

package wad

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	// defaultWriterPool reuses default-sized bufio writers between Write calls.
	defaultWriterPool = sync.Pool{
		New: func() any {
			return bufio.NewWriterSize(io.Discard, DefaultWriteBuffer)
		},
	}
)

// writePlan holds validated layout values computed before any byte is written.
type writePlan struct {
	lumps           []Lump
	directoryOffset uint32
}

// Write serializes lumps into out as a PWAD, in input order.
// All names are validated before the first byte is written.
func Write(ctx context.Context, out io.Writer, lumps []Lump, opts WriteOptions) (*WriteResult, error) {
	if out == nil {
		return nil, ErrNilWriter
	}

	if ctx == nil {
		ctx = context.Background()
	}

	plan, err := prepareWritePlan(lumps)
	if err != nil {
		return nil, err
	}

	return writeArchive(ctx, out, plan, opts)
}

// WriteFile writes lumps to a new PWAD at path, replacing any existing file.
// The archive is written to a temporary file in the same directory and renamed
// into place, so path never holds a partial archive after a failure.
// A replaced regular file keeps its permission bits; a new file gets 0o600.
// A symlink at path is replaced by the archive, not written through.
func WriteFile(ctx context.Context, path string, lumps []Lump, opts WriteOptions) (*WriteResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	plan, err := prepareWritePlan(lumps)
	if err != nil {
		return nil, err
	}

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	mode, err := outputFileMode(path)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp WAD file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			_ = tmp.Close()
		}
		if tmpPath != "" {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := tmp.Chmod(mode); err != nil {
		return nil, fmt.Errorf("chmod temp WAD file: %w", err)
	}

	res, err := writeArchive(ctx, tmp, plan, opts)
	if err != nil {
		return nil, err
	}

	if err := tmp.Sync(); err != nil {
		return nil, fmt.Errorf("sync WAD file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close WAD file: %w", err)
	}
	tmp = nil

	if err := os.Rename(tmpPath, path); err != nil {
		return nil, fmt.Errorf("rename WAD file: %w", err)
	}
	tmpPath = ""

	return res, nil
}

// outputFileMode returns permission bits for the archive at path:
// those of an existing regular file, or 0o600 for a new one.
func outputFileMode(path string) (os.FileMode, error) {
	fi, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0o600, nil
	}
	if err != nil {
		return 0, fmt.Errorf("stat WAD file: %w", err)
	}

	if !fi.Mode().IsRegular() {
		return 0o600, nil
	}

	return fi.Mode().Perm(), nil
}

// prepareWritePlan validates names and computes the directory offset.
func prepareWritePlan(lumps []Lump) (writePlan, error) {
	var dataSize uint64
	for i := range lumps {
		if err := validateLumpName(i, lumps[i].Name); err != nil {
			return writePlan{}, err
		}

		dataSize += uint64(len(lumps[i].Data))
	}

	directoryOffset := headerSize + dataSize
	if directoryOffset >= maxWADData {
		return writePlan{}, fmt.Errorf("%w: directory offset %d", ErrSizeOverflow, directoryOffset)
	}

	if uint64(len(lumps)) > math.MaxUint32 {
		return writePlan{}, fmt.Errorf("%w: %d lumps", ErrSizeOverflow, len(lumps))
	}

	return writePlan{
		lumps:           lumps,
		directoryOffset: uint32(directoryOffset), //nolint:gosec // checked above
	}, nil
}

// acquireWriter returns a buffered writer and release callback for Write.
func acquireWriter(out io.Writer, size int) (*bufio.Writer, func()) {
	if size == DefaultWriteBuffer {
		w := defaultWriterPool.Get().(*bufio.Writer) //nolint:forcetypeassert // pool contains only *bufio.Writer
		w.Reset(out)

		return w, func() {
			w.Reset(io.Discard)
			defaultWriterPool.Put(w)
		}
	}

	return bufio.NewWriterSize(out, size), func() {}
}

// writeArchive emits header, payloads, and directory for a validated plan.
func writeArchive(ctx context.Context, out io.Writer, plan writePlan, opts WriteOptions) (*WriteResult, error) {
	startedAt := time.Now()
	opts.applyDefaults()

	w, releaseWriter := acquireWriter(out, opts.WriterBufferSize)
	defer releaseWriter()

	var header [headerSize]byte
	copy(header[0:4], string(MagicPWAD))
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(plan.lumps))) //nolint:gosec // checked in prepareWritePlan
	binary.LittleEndian.PutUint32(header[8:12], plan.directoryOffset)
	if _, err := w.Write(header[:]); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	currentOffset := uint32(headerSize)
	for i := range plan.lumps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		lump := &plan.lumps[i]
		if _, err := w.Write(lump.Data); err != nil {
			return nil, fmt.Errorf("write lump %d %q: %w", i, lump.Name, err)
		}

		size := uint32(len(lump.Data)) //nolint:gosec // total checked in prepareWritePlan
		if opts.OnLumpDone != nil {
			opts.OnLumpDone(LumpProgress{Name: lump.Name, Offset: currentOffset, Size: size})
		}

		currentOffset += size
	}

	var record [directoryEntrySize]byte
	currentOffset = headerSize
	for i := range plan.lumps {
		lump := &plan.lumps[i]
		size := uint32(len(lump.Data)) //nolint:gosec // total checked in prepareWritePlan

		binary.LittleEndian.PutUint32(record[0:4], currentOffset)
		binary.LittleEndian.PutUint32(record[4:8], size)
		encodeName(record[8:16], lump.Name)
		if _, err := w.Write(record[:]); err != nil {
			return nil, fmt.Errorf("write directory entry %d: %w", i, err)
		}

		currentOffset += size
	}

	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("flush WAD: %w", err)
	}

	return &WriteResult{
		WrittenLumps:    len(plan.lumps),
		DataSize:        int64(plan.directoryOffset) - headerSize,
		DirectorySize:   int64(len(plan.lumps)) * directoryEntrySize,
		DirectoryOffset: plan.directoryOffset,
		Duration:        time.Since(startedAt),
	}, nil
}
