// SPDX-License-Identifier: MIT

// Package playlist renders cached addresses as an extended M3U playlist.
package playlist

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ManuGH/streamcache/internal/snapshot"
)

// ContentType is the media type the playlist is served with.
const ContentType = "audio/x-mpegurl"

// Item is one playlist row. An empty URL marks the channel as unresolved.
type Item struct {
	ID    string
	Name  string
	Logo  string
	Group string
	URL   string
}

// FromEntries maps snapshot entries to playlist items, keeping their order.
func FromEntries(entries []snapshot.Entry) []Item {
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		it := Item{ID: e.ID, Name: e.Name, Logo: e.Logo, Group: e.Group}
		if e.Resolved() {
			it.URL = e.Address()
		}
		items = append(items, it)
	}
	return items
}

// WriteM3U writes the playlist. Unresolved items become #UNRESOLVED comment
// lines so players skip them.
func WriteM3U(w io.Writer, items []Item) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("#EXTM3U\n")
	for _, it := range items {
		name := line(it.Name)
		if name == "" {
			name = line(it.ID)
		}
		url := line(it.URL)
		if url == "" {
			fmt.Fprintf(bw, "#UNRESOLVED:%s,%s\n", line(it.ID), name)
			continue
		}
		fmt.Fprintf(bw,
			`#EXTINF:-1 tvg-id="%s" tvg-logo="%s" group-title="%s",%s`+"\n",
			attr(it.ID), attr(it.Logo), attr(it.Group), name,
		)
		bw.WriteString(url + "\n")
	}
	return bw.Flush()
}

var lineReplacer = strings.NewReplacer("\r", " ", "\n", " ")

func line(s string) string {
	return strings.TrimSpace(lineReplacer.Replace(s))
}

func attr(s string) string {
	return strings.ReplaceAll(line(s), `"`, "'")
}
