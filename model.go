// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/wad

package wad

import (
	"time"

	"github.com/woozymasta/pathrules"
)

// Internal binary layout and format limits.
const (
	magicSize          = 4       // magic tag at file start
	headerSize         = 12      // magic + lump count + directory offset
	directoryEntrySize = 16      // offset + size + name
	maxNameLen         = 8       // lump name field width
	maxWADData         = 1 << 32 // max addressable file size with uint32 offsets (4 GiB)
)

// DefaultWriteBuffer is the default buffered writer size used by Write.
const DefaultWriteBuffer = 1024 * 1024

// Magic is the 4-byte archive type tag stored at offset 0.
type Magic string

// Known WAD magic values.
const (
	// MagicIWAD marks an original game data archive.
	MagicIWAD Magic = "IWAD"
	// MagicPWAD marks a patch archive. Write always emits this tag.
	MagicPWAD Magic = "PWAD"
)

// Valid reports whether m is one of the accepted magic values.
func (m Magic) Valid() bool {
	return m == MagicIWAD || m == MagicPWAD
}

// Header is the fixed 12-byte WAD header.
type Header struct {
	// Magic is IWAD or PWAD.
	Magic Magic `json:"magic" yaml:"magic"`
	// LumpCount is the number of directory entries.
	LumpCount uint32 `json:"lump_count" yaml:"lump_count"`
	// DirectoryOffset is the absolute file offset of the first directory entry.
	DirectoryOffset uint32 `json:"directory_offset" yaml:"directory_offset"`
}

// Entry describes one directory record.
type Entry struct {
	// Name is the lump name with trailing NUL padding removed.
	Name string `json:"name" yaml:"name"`
	// Offset is the absolute file offset of the lump payload.
	Offset uint32 `json:"offset" yaml:"offset"`
	// Size is the payload size in bytes.
	Size uint32 `json:"size" yaml:"size"`
}

// End returns the offset one past the last payload byte.
func (e Entry) End() uint64 {
	return uint64(e.Offset) + uint64(e.Size)
}

// Lump is one named payload to be written into a new archive.
// Data is only read by the writer and never retained after the call.
type Lump struct {
	// Name is stored as up to 8 ASCII bytes.
	Name string `json:"name" yaml:"name"`
	// Data is the opaque payload.
	Data []byte `json:"-" yaml:"-"`
}

// LumpProgress contains one completed lump write event from write flow.
type LumpProgress struct {
	// Name is the lump name written to directory.
	Name string `json:"name" yaml:"name"`
	// Offset is payload offset in resulting archive.
	Offset uint32 `json:"offset" yaml:"offset"`
	// Size is payload size in bytes.
	Size uint32 `json:"size" yaml:"size"`
}

// WriteOptions configures write behavior.
type WriteOptions struct {
	// OnLumpDone is called after one lump payload is written.
	OnLumpDone func(lump LumpProgress) `json:"-" yaml:"-"`
	// WriterBufferSize is buffered writer size in bytes.
	WriterBufferSize int `json:"writer_buffer_size,omitempty" yaml:"writer_buffer_size,omitempty"`
}

// WriteResult contains write output statistics.
type WriteResult struct {
	// WrittenLumps is number of lumps written to archive.
	WrittenLumps int `json:"written_lumps" yaml:"written_lumps"`
	// DataSize is total payload bytes written.
	DataSize int64 `json:"data_size" yaml:"data_size"`
	// DirectorySize is total directory bytes written.
	DirectorySize int64 `json:"directory_size" yaml:"directory_size"`
	// DirectoryOffset is the value stored in the header.
	DirectoryOffset uint32 `json:"directory_offset" yaml:"directory_offset"`
	// Duration is end-to-end write duration.
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// ReaderOptions configures directory load behavior.
type ReaderOptions struct {
	// ValidateBounds rejects directories whose table or entries point past end of file.
	// When false, bad entries surface later as ErrTruncatedRead on payload reads.
	ValidateBounds bool `json:"validate_bounds,omitempty" yaml:"validate_bounds,omitempty"`
}

// SelectOptions configures lump selection by name and size.
type SelectOptions struct {
	// Rules are ordered name rules; empty means every name is selected.
	Rules []pathrules.Rule `json:"rules,omitempty" yaml:"rules,omitempty"`
	// MatcherOptions control rule matching.
	MatcherOptions pathrules.MatcherOptions `json:"matcher_options,omitzero" yaml:"matcher_options,omitzero"`
	// MinSize drops lumps smaller than this size.
	MinSize uint32 `json:"min_size,omitempty" yaml:"min_size,omitempty"`
	// MaxSize drops lumps larger than this size (zero means no limit).
	MaxSize uint32 `json:"max_size,omitempty" yaml:"max_size,omitempty"`
	// SkipMarkers drops zero-size lumps such as MAP01 and any lump named
	// *_START or *_END, whatever its size.
	SkipMarkers bool `json:"skip_markers,omitempty" yaml:"skip_markers,omitempty"`
}

// ExtractOptions configures Extract behavior.
type ExtractOptions struct {
	// OnLumpDone is called after one lump is fully written to disk.
	OnLumpDone func(entry Entry, written int64, outputPath string) `json:"-" yaml:"-"`
	// Entries limits extraction to selected entries; nil means all directory entries.
	Entries []Entry `json:"-" yaml:"-"`
	// Select filters entries before extraction.
	Select SelectOptions `json:"select,omitzero" yaml:"select,omitzero"`
	// FileMode controls output file creation policy.
	FileMode ExtractFileMode `json:"file_mode,omitempty" yaml:"file_mode,omitempty"`
	// Extension is appended to every output file name (default ".lmp").
	Extension string `json:"extension,omitempty" yaml:"extension,omitempty"`
	// RawNames disables default name sanitization during extract.
	// Duplicate lump names still get unique output names.
	RawNames bool `json:"raw_names,omitempty" yaml:"raw_names,omitempty"`
}

// ExtractFileMode controls output file open behavior during extraction.
type ExtractFileMode string

// Output file creation policies for extraction.
const (
	// ExtractFileModeAuto first tries create-only, then falls back to truncate for existing files.
	ExtractFileModeAuto ExtractFileMode = "auto"
	// ExtractFileModeTruncate opens existing files with truncate and creates missing files.
	ExtractFileModeTruncate ExtractFileMode = "truncate"
	// ExtractFileModeCreateOnly creates files only when absent and fails on existing files.
	ExtractFileModeCreateOnly ExtractFileMode = "create_only"
)

// DefaultExtractExtension is appended to extracted lump file names.
const DefaultExtractExtension = ".lmp"

// applyDefaults fills zero-valued write options with defaults.
func (opts *WriteOptions) applyDefaults() {
	if opts.WriterBufferSize < 4096 {
		opts.WriterBufferSize = DefaultWriteBuffer
	}
}

// applyDefaults fills zero-valued select options with defaults.
// Unset DefaultAction excludes unmatched names when any include rule is
// present and includes them otherwise, so exclude-only rules mean
// "everything except".
func (opts *SelectOptions) applyDefaults() {
	if opts.MatcherOptions == (pathrules.MatcherOptions{}) {
		opts.MatcherOptions.CaseInsensitive = true
	}

	if opts.MatcherOptions.DefaultAction == pathrules.ActionUnknown {
		opts.MatcherOptions.DefaultAction = defaultSelectAction(opts.Rules)
	}
}

// defaultSelectAction returns the action for names no rule matches.
func defaultSelectAction(rules []pathrules.Rule) pathrules.Action {
	for _, rule := range rules {
		if rule.Action == pathrules.ActionInclude {
			return pathrules.ActionExclude
		}
	}

	return pathrules.ActionInclude
}

// applyDefaults fills zero-valued extract options with defaults.
func (opts *ExtractOptions) applyDefaults() {
	if opts.FileMode == "" {
		opts.FileMode = ExtractFileModeAuto
	}

	if opts.Extension == "" {
		opts.Extension = DefaultExtractExtension
	}

	opts.Select.applyDefaults()
}
