// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package channels

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 50

// NormalizeID returns the trimmed id, or a slug of name when id is blank.
func NormalizeID(id, name string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	if strings.TrimSpace(name) == "" {
		return ""
	}
	return Slugify(name)
}

// NFD would otherwise reduce these to a bare vowel.
var germanReplacer = strings.NewReplacer(
	"ä", "ae",
	"ö", "oe",
	"ü", "ue",
	"ß", "ss",
)

// Slugify converts a channel name into a URL-safe, human-readable slug.
// Example: "Das Erste HD" → "das-erste-hd"
func Slugify(name string) string {
	s := germanReplacer.Replace(strings.ToLower(name))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	var b strings.Builder
	lastWasDash := true
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastWasDash = false
		} else if !lastWasDash {
			b.WriteByte('-')
			lastWasDash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLen {
		// Cut on a rune boundary; a split rune would not survive a JSON round trip.
		cut := maxSlugLen
		for cut > 0 && !utf8.RuneStart(slug[cut]) {
			cut--
		}
		slug = strings.TrimRight(slug[:cut], "-")
	}
	if slug == "" {
		return "channel"
	}
	return slug
}
