// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/wad

package wad

import (
	"strconv"
	"strings"
	"unicode"
)

var (
	// reservedDeviceNames contains case-insensitive reserved DOS/Windows device names.
	reservedDeviceNames = map[string]struct{}{
		"aux":    {},
		"clock$": {},
		"com1":   {},
		"com2":   {},
		"com3":   {},
		"com4":   {},
		"com5":   {},
		"com6":   {},
		"com7":   {},
		"com8":   {},
		"com9":   {},
		"con":    {},
		"conin$": {},
		"lpt1":   {},
		"lpt2":   {},
		"lpt3":   {},
		"lpt4":   {},
		"lpt5":   {},
		"lpt6":   {},
		"lpt7":   {},
		"lpt8":   {},
		"lpt9":   {},
		"nul":    {},
		"prn":    {},
	}
)

// SanitizeName rewrites one lump name to a deterministic filesystem-safe file name.
// Lump names such as VILE\1 or VILE[1 keep their length; unsafe bytes become "_".
func SanitizeName(name string) (string, error) {
	return sanitizeNameSegment(name)
}

// outputNames maps entries to unique output file names (without extension).
// Duplicate lump names get "~2", "~3", ... in directory order.
func outputNames(entries []Entry, raw bool) ([]string, error) {
	out := make([]string, len(entries))
	used := make(map[string]struct{}, len(entries))
	nextSuffix := make(map[string]int, len(entries))

	for i := range entries {
		name := entries[i].Name
		if raw {
			if err := validateRawOutputName(name); err != nil {
				return nil, err
			}
		} else {
			sanitized, err := sanitizeNameSegment(name)
			if err != nil {
				return nil, err
			}

			name = sanitized
		}

		unique, err := makeNameUnique(name, used, nextSuffix)
		if err != nil {
			return nil, err
		}

		out[i] = unique
	}

	return out, nil
}

// sanitizeNameSegment sanitizes one lump name for broad filesystem compatibility.
func sanitizeNameSegment(name string) (string, error) {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		ch := name[i]
		if ch >= 0x80 || isUnsafeControlChar(rune(ch)) || strings.IndexByte(`<>:"/\|?*`, ch) >= 0 {
			b.WriteByte('_')
			continue
		}

		b.WriteByte(ch)
	}

	sanitized := strings.TrimRight(b.String(), ". ")
	sanitized = strings.TrimLeft(sanitized, " ")
	if sanitized == "" {
		sanitized = "_"
	}

	if isReservedDeviceName(sanitized) {
		sanitized = "_" + sanitized
	}

	return sanitized, nil
}

// validateRawOutputName rejects raw names that would escape or break the destination directory.
func validateRawOutputName(name string) error {
	if name == "" || name == "." || name == ".." {
		return ErrInvalidExtractPath
	}

	if strings.ContainsAny(name, "/\\\x00") {
		return ErrInvalidExtractPath
	}

	return nil
}

// isUnsafeControlChar reports whether rune is unsafe in file names.
func isUnsafeControlChar(r rune) bool {
	return unicode.IsControl(r)
}

// isReservedDeviceName reports whether name matches a reserved device identifier.
func isReservedDeviceName(name string) bool {
	candidate := strings.ToLower(strings.TrimRight(name, ". :"))
	if dot := strings.IndexByte(candidate, '.'); dot >= 0 {
		candidate = candidate[:dot]
	}

	_, ok := reservedDeviceNames[candidate]
	return ok
}

// makeNameUnique resolves case-insensitive collisions by adding deterministic numeric suffix.
func makeNameUnique(name string, used map[string]struct{}, nextSuffix map[string]int) (string, error) {
	key := strings.ToLower(name)
	if _, exists := used[key]; !exists {
		used[key] = struct{}{}
		return name, nil
	}

	startIdx := 2
	if savedIdx, exists := nextSuffix[key]; exists && savedIdx > startIdx {
		startIdx = savedIdx
	}

	for idx := startIdx; idx < 1000000; idx++ {
		candidate := name + "~" + strconv.Itoa(idx)
		candidateKey := strings.ToLower(candidate)
		if _, exists := used[candidateKey]; exists {
			continue
		}

		used[candidateKey] = struct{}{}
		nextSuffix[key] = idx + 1
		return candidate, nil
	}

	return "", ErrInvalidExtractPath
}
