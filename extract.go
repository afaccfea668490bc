// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/wad

package wad

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// extractCopyBufferSize defines buffer size for file copy during extraction.
const extractCopyBufferSize = 64 * 1024

// Extract writes selected lumps from the WAD to dstDir, one file per lump, in directory order.
// The archive is opened once for the whole run; on failure the first error is returned.
func (r *Reader) Extract(ctx context.Context, dstDir string, opts ExtractOptions) error {
	if r == nil {
		return ErrNilReader
	}

	if ctx == nil {
		ctx = context.Background()
	}

	opts.applyDefaults()

	entries := opts.Entries
	if entries == nil {
		var err error
		entries, err = r.directory()
		if err != nil {
			return err
		}
	}

	entries, err := SelectEntries(entries, opts.Select)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		return nil
	}

	names, err := outputNames(entries, opts.RawNames)
	if err != nil {
		return err
	}

	dstRootAbs, err := filepath.Abs(dstDir)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}

	if err := os.MkdirAll(dstRootAbs, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, size, err := openFileWithSize(r.path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	copyBuf := make([]byte, extractCopyBufferSize)
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		outPath := filepath.Join(dstRootAbs, names[i]+opts.Extension)
		written, err := extractEntry(f, size, entry, outPath, opts.FileMode, copyBuf)
		if err != nil {
			return err
		}

		if opts.OnLumpDone != nil {
			opts.OnLumpDone(entry, written, outPath)
		}
	}

	return nil
}

// extractEntry copies one lump payload from src into outPath.
func extractEntry(
	src io.ReaderAt,
	size int64,
	entry Entry,
	outPath string,
	fileMode ExtractFileMode,
	copyBuf []byte,
) (int64, error) {
	if entry.End() > uint64(size) { //nolint:gosec // size is non-negative file length
		return 0, fmt.Errorf("%w: lump %q needs bytes up to %d, file has %d",
			ErrTruncatedRead, entry.Name, entry.End(), size)
	}

	file, err := openExtractFile(outPath, fileMode)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", outPath, err)
	}

	sr := io.NewSectionReader(src, int64(entry.Offset), int64(entry.Size))
	written, copyErr := io.CopyBuffer(file, sr, copyBuf)
	closeErr := file.Close()
	if copyErr != nil {
		return written, fmt.Errorf("write lump %q: %w", entry.Name, copyErr)
	}

	if closeErr != nil {
		return written, fmt.Errorf("close %s: %w", outPath, closeErr)
	}

	return written, nil
}

// openExtractFile opens output path according to selected extract file mode.
func openExtractFile(path string, mode ExtractFileMode) (*os.File, error) {
	switch mode {
	case ExtractFileModeAuto:
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			return file, nil
		}

		if !os.IsExist(err) {
			return nil, err
		}

		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	case ExtractFileModeTruncate:
		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	case ExtractFileModeCreateOnly:
		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	default:
		return nil, fmt.Errorf("unknown extract file mode %q", mode)
	}
}
