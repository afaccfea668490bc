package wad

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFile_ExampleArchive(t *testing.T) {
	t.Parallel()

	data := []byte("TEST DATA FOR LUMP")
	path := filepath.Join(t.TempDir(), "output_test.wad")

	res, err := WriteFile(context.Background(), path, []Lump{{Name: "TESTLUMP", Data: data}}, WriteOptions{})
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	wantDirOffset := uint32(headerSize + len(data))
	if wantDirOffset != 30 {
		t.Fatalf("test payload length changed: dir offset %d", wantDirOffset)
	}
	if string(raw[0:4]) != "PWAD" {
		t.Fatalf("magic=%q, want PWAD", raw[0:4])
	}
	if got := binary.LittleEndian.Uint32(raw[4:8]); got != 1 {
		t.Fatalf("count=%d, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(raw[8:12]); got != wantDirOffset {
		t.Fatalf("dir offset=%d, want %d", got, wantDirOffset)
	}
	if res.DirectoryOffset != wantDirOffset || res.WrittenLumps != 1 || res.DataSize != int64(len(data)) {
		t.Fatalf("result=%+v", res)
	}
	if len(raw) != int(wantDirOffset)+directoryEntrySize {
		t.Fatalf("file size=%d, want %d", len(raw), int(wantDirOffset)+directoryEntrySize)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, ok, err := r.ReadLump("TESTLUMP")
	if err != nil || !ok {
		t.Fatalf("ReadLump: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("ReadLump=%q, want %q", got, data)
	}
}

func TestWriteFile_RoundTrip(t *testing.T) {
	t.Parallel()

	big := make([]byte, 3*DefaultWriteBuffer/2)
	for i := range big {
		big[i] = byte(i * 7)
	}

	lumps := []Lump{
		{Name: "MAP01"},
		{Name: "THINGS", Data: []byte{0x01, 0x00, 0x02}},
		{Name: "LINEDEFS", Data: []byte{}},
		{Name: "SIDEDEFS", Data: []byte("\x00\x00\x00")},
		{Name: "VILE\\1", Data: []byte("sprite")},
		{Name: "", Data: []byte("unnamed")},
		{Name: "BIGLUMP", Data: big},
	}

	path := filepath.Join(t.TempDir(), "roundtrip.wad")
	if _, err := WriteFile(context.Background(), path, lumps, WriteOptions{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if r.Magic() != MagicPWAD {
		t.Fatalf("Magic=%q, want PWAD", r.Magic())
	}

	names, err := r.Names()
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	if len(names) != len(lumps) {
		t.Fatalf("len(names)=%d, want %d", len(names), len(lumps))
	}

	for i, lump := range lumps {
		if names[i] != lump.Name {
			t.Fatalf("names[%d]=%q, want %q", i, names[i], lump.Name)
		}

		got, ok, err := r.ReadLump(lump.Name)
		if err != nil || !ok {
			t.Fatalf("ReadLump(%q): ok=%v err=%v", lump.Name, ok, err)
		}
		if !bytes.Equal(got, lump.Data) {
			t.Fatalf("ReadLump(%q) payload mismatch: len %d, want %d", lump.Name, len(got), len(lump.Data))
		}
	}
}

func TestWrite_DirectoryOffsets(t *testing.T) {
	t.Parallel()

	sizes := []int{5, 0, 17, 1, 0, 256}
	lumps := make([]Lump, len(sizes))
	for i, size := range sizes {
		lumps[i] = Lump{Name: "L" + strings.Repeat("X", i), Data: bytes.Repeat([]byte{byte(i)}, size)}
	}

	var progress []LumpProgress
	var buf bytes.Buffer
	res, err := Write(context.Background(), &buf, lumps, WriteOptions{
		OnLumpDone: func(p LumpProgress) { progress = append(progress, p) },
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	raw := buf.Bytes()
	total := 0
	for _, size := range sizes {
		total += size
	}

	dirOffset := binary.LittleEndian.Uint32(raw[8:12])
	if dirOffset != uint32(headerSize+total) {
		t.Fatalf("dir offset=%d, want %d", dirOffset, headerSize+total)
	}
	if res.DirectorySize != int64(len(sizes)*directoryEntrySize) {
		t.Fatalf("DirectorySize=%d", res.DirectorySize)
	}
	if len(progress) != len(lumps) {
		t.Fatalf("progress events=%d, want %d", len(progress), len(lumps))
	}

	running := uint32(headerSize)
	for i, size := range sizes {
		rec := raw[int(dirOffset)+i*directoryEntrySize:]
		offset := binary.LittleEndian.Uint32(rec[0:4])
		gotSize := binary.LittleEndian.Uint32(rec[4:8])
		if offset != running {
			t.Fatalf("entry %d offset=%d, want %d", i, offset, running)
		}
		if gotSize != uint32(size) {
			t.Fatalf("entry %d size=%d, want %d", i, gotSize, size)
		}
		if progress[i].Offset != running || progress[i].Name != lumps[i].Name {
			t.Fatalf("progress[%d]=%+v", i, progress[i])
		}

		running += uint32(size)
	}
}

func TestWrite_NameEncoding(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	_, err := Write(context.Background(), &buf, []Lump{
		{Name: "EIGHTCHR", Data: []byte("a")},
		{Name: "SHORT", Data: []byte("b")},
	}, WriteOptions{})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	raw := buf.Bytes()
	dir := raw[headerSize+2:]
	if got := dir[8:16]; !bytes.Equal(got, []byte("EIGHTCHR")) {
		t.Fatalf("8-char name field=%q", got)
	}
	if got := dir[16+8 : 16+16]; !bytes.Equal(got, []byte("SHORT\x00\x00\x00")) {
		t.Fatalf("short name field=%q", got)
	}

	entries, err := ListEntriesFromReaderAt(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("ListEntriesFromReaderAt: %v", err)
	}
	if entries[0].Name != "EIGHTCHR" || entries[1].Name != "SHORT" {
		t.Fatalf("decoded names = %q, %q", entries[0].Name, entries[1].Name)
	}
}

func TestWrite_EmptyArchive(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := Write(context.Background(), &buf, nil, WriteOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	want := []byte("PWAD\x00\x00\x00\x00\x0c\x00\x00\x00")
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("empty archive=%q, want %q", buf.Bytes(), want)
	}
}

func TestWrite_InvalidLumpName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		lump string
	}{
		{name: "nine chars", lump: "TOOLONGNM"},
		{name: "much longer", lump: strings.Repeat("A", 32)},
		{name: "non ascii", lump: "MÜS"},
		{name: "nul byte", lump: "A\x00B"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			_, err := Write(context.Background(), &buf, []Lump{
				{Name: "OK", Data: []byte("payload")},
				{Name: tc.lump, Data: []byte("x")},
			}, WriteOptions{})
			if !errors.Is(err, ErrInvalidLumpName) {
				t.Fatalf("expected ErrInvalidLumpName, got %v", err)
			}

			var nameErr *LumpNameError
			if !errors.As(err, &nameErr) {
				t.Fatalf("expected *LumpNameError, got %T", err)
			}
			if nameErr.Index != 1 || nameErr.Name != tc.lump {
				t.Fatalf("LumpNameError=%+v", nameErr)
			}
			if buf.Len() != 0 {
				t.Fatalf("wrote %d bytes before failing", buf.Len())
			}
		})
	}
}

func TestWriteFile_InvalidNameLeavesNoFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.wad")
	_, err := WriteFile(context.Background(), path, []Lump{
		{Name: "GOOD", Data: []byte("data")},
		{Name: "NINECHARS", Data: []byte("data")},
	}, WriteOptions{})
	if !errors.Is(err, ErrInvalidLumpName) {
		t.Fatalf("expected ErrInvalidLumpName, got %v", err)
	}

	assertDirEmpty(t, dir)
}

func TestWriteFile_CanceledKeepsExistingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "keep.wad")
	original := buildManualWAD("PWAD", []Lump{{Name: "OLD", Data: []byte("old")}})
	if err := os.WriteFile(path, original, 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WriteFile(ctx, path, []Lump{{Name: "NEW", Data: []byte("new")}}, WriteOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Fatal("existing archive was modified by failed write")
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("temp file left behind: %d entries in dir", len(files))
	}
}

func TestWriteFile_ReplacesExisting(t *testing.T) {
	t.Parallel()

	path := createManualWAD(t, "IWAD", []Lump{{Name: "OLD", Data: []byte("old")}})
	if _, err := WriteFile(context.Background(), path, []Lump{{Name: "NEW", Data: []byte("new")}}, WriteOptions{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	names, err := ListEntries(path)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(names) != 1 || names[0].Name != "NEW" {
		t.Fatalf("entries=%+v, want NEW only", names)
	}

	header, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if header.Magic != MagicPWAD {
		t.Fatalf("Magic=%q, want PWAD", header.Magic)
	}
}

func TestWriteFile_FileMode(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	lumps := []Lump{{Name: "MAP01"}}

	fresh := filepath.Join(dir, "fresh.wad")
	if _, err := WriteFile(context.Background(), fresh, lumps, WriteOptions{}); err != nil {
		t.Fatalf("WriteFile fresh: %v", err)
	}
	assertFileMode(t, fresh, 0o600)

	existing := createManualWAD(t, "PWAD", []Lump{{Name: "OLD", Data: []byte("old")}})
	if err := os.Chmod(existing, 0o640); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	if _, err := WriteFile(context.Background(), existing, lumps, WriteOptions{}); err != nil {
		t.Fatalf("WriteFile existing: %v", err)
	}
	assertFileMode(t, existing, 0o640)
}

func assertFileMode(t *testing.T, path string, want os.FileMode) {
	t.Helper()

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	if got := fi.Mode().Perm(); got != want {
		t.Fatalf("%s mode=%o, want %o", filepath.Base(path), got, want)
	}
}

func TestWrite_NilWriter(t *testing.T) {
	t.Parallel()

	if _, err := Write(context.Background(), nil, nil, WriteOptions{}); !errors.Is(err, ErrNilWriter) {
		t.Fatalf("expected ErrNilWriter, got %v", err)
	}
}

func TestWrite_CustomBufferSize(t *testing.T) {
	t.Parallel()

	lumps := []Lump{{Name: "A", Data: bytes.Repeat([]byte("a"), 10000)}}

	var small, def bytes.Buffer
	if _, err := Write(context.Background(), &small, lumps, WriteOptions{WriterBufferSize: 4096}); err != nil {
		t.Fatalf("Write small buffer: %v", err)
	}
	if _, err := Write(context.Background(), &def, lumps, WriteOptions{}); err != nil {
		t.Fatalf("Write default buffer: %v", err)
	}
	if !bytes.Equal(small.Bytes(), def.Bytes()) {
		t.Fatal("output depends on buffer size")
	}
}

func TestWrite_MatchesManualLayout(t *testing.T) {
	t.Parallel()

	lumps := []Lump{
		{Name: "DEHACKED", Data: []byte("Patch File for DeHackEd v3.0")},
		{Name: "S_START"},
		{Name: "TROOA1", Data: []byte{1, 2, 3, 4}},
		{Name: "S_END"},
	}

	var buf bytes.Buffer
	if _, err := Write(context.Background(), &buf, lumps, WriteOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if want := buildManualWAD("PWAD", lumps); !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("Write output differs from reference layout:\n got %q\nwant %q", buf.Bytes(), want)
	}
}

// assertDirEmpty fails when dir has any entries.
func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(files) != 0 {
		names := make([]string, 0, len(files))
		for _, f := range files {
			names = append(names, f.Name())
		}
		t.Fatalf("expected empty dir, found %v", names)
	}
}
