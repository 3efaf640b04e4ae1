// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package channels

import "slices"

// Dedupe collapses repeated ids. The last entry's fields win; the position is
// that of the first occurrence. The returned slice lists each repeated id once.
func Dedupe(in []Channel) ([]Channel, []string) {
	index := make(map[string]int, len(in))
	out := make([]Channel, 0, len(in))
	var dups []string

	for _, ch := range in {
		if i, seen := index[ch.ID]; seen {
			if !slices.Contains(dups, ch.ID) {
				dups = append(dups, ch.ID)
			}
			out[i] = ch
			continue
		}
		index[ch.ID] = len(out)
		out = append(out, ch)
	}
	return out, dups
}
