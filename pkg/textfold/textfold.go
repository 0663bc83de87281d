// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

// Package textfold normalizes arbitrary Unicode strings into a canonical
// comparison form.
//
// # Usage
//
// Nickname search must match "Chloé" against "chloe" and ignore stray
// whitespace. This package handles normalization, accent removal, and
// case folding so the matcher can do a plain substring check.
package textfold

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldChain decomposes accented characters and strips the combining marks.
var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

// Fold converts a string into its canonical comparison form.
//
// # Transformation Pipeline
//
// 1. Normalizes to NFD (decomposes accented chars: é → e + combining acute).
// 2. Removes combining marks (accents).
// 3. Converts to lowercase.
// 4. Trims surrounding whitespace.
func Fold(s string) string {
	result, _, err := transform.String(foldChain, s)
	if err != nil {
		result = s
	}
	return strings.TrimSpace(strings.ToLower(result))
}

// Contains reports whether haystack contains needle after both are folded.
func Contains(haystack, needle string) bool {
	return strings.Contains(Fold(haystack), Fold(needle))
}
