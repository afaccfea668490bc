// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/wad

/*
Package wad reads and writes WAD archives, the lump container used by the
Doom engine family. A WAD is a 12-byte header ("IWAD" or "PWAD", lump count,
directory offset), the raw lump payloads back to back, and a directory of
16-byte records (offset, size, 8-byte NUL-padded name). All integers are
little-endian uint32.

# Reading

Open validates the magic and returns a Reader. The directory is loaded on
first use and cached; payloads are read by reopening the file on every call:

	r, err := wad.Open("doom2.wad")
	if err != nil {
	    return err
	}
	names, err := r.Names()
	if err != nil {
	    return err
	}
	data, ok, err := r.ReadLump("PLAYPAL")
	if err != nil {
	    return err
	}
	if !ok {
	    // no lump with that name
	}
	_, _ = names, data

Lookup is exact and case-sensitive; when names repeat (THINGS in every map)
the first entry in directory order wins. Use Entries and ReadEntry to reach
later duplicates.

For metadata-only scans, use helpers without creating a Reader:

	header, err := wad.ReadHeader("doom2.wad")
	entries, err := wad.ListEntries("doom2.wad")

Bounds of the directory are not checked by default; a bad entry fails with
ErrTruncatedRead when its payload is read. Enable eager checks with:

	r, err := wad.OpenWithOptions("mod.wad", wad.ReaderOptions{ValidateBounds: true})

# Selecting and extracting

Lumps can be selected with github.com/woozymasta/pathrules glob rules:

	entries, err := r.Select(wad.SelectOptions{
	    Rules: []pathrules.Rule{
	        {Action: pathrules.ActionInclude, Pattern: "D_*"},
	        {Action: pathrules.ActionInclude, Pattern: "DS*"},
	    },
	    SkipMarkers: true,
	})

Extract writes selected lumps as files, with filesystem-safe names and
"~N" suffixes for duplicates:

	err := r.Extract(ctx, "out/", wad.ExtractOptions{
	    Select: wad.SelectOptions{SkipMarkers: true},
	})

# Writing

WriteFile creates a PWAD from an ordered list of lumps. Names are validated
before anything is written and the file is renamed into place only after a
complete write:

	res, err := wad.WriteFile(ctx, "mod.wad", []wad.Lump{
	    {Name: "MAP01"},
	    {Name: "THINGS", Data: things},
	}, wad.WriteOptions{})

A replaced archive keeps its permission bits and new archives are created
with mode 0600. Because of the rename, a symlink at the target path is
replaced by a regular file instead of being written through.

Write does the same into any io.Writer.

# Concurrency

A Reader may be shared between goroutines. There is no file locking:
writing a path while it is being read or written elsewhere gives undefined
results, and a Reader never notices that its file changed after the
directory was cached. Open a new Reader to observe changes.
*/
package wad
