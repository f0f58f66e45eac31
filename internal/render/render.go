// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render writes search results and journal entries for the CLI.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/newsclient/internal/events"
	"github.com/pdiddy/newsclient/pkg/types"
)

// Format selects an output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	}
	return "", fmt.Errorf("unknown format %q (want table, json, or yaml)", s)
}

// Result writes res to w in the given format. page and pageSize are used for
// the "more results" footer of the table format; pass 0 when not paginating.
func Result(w io.Writer, f Format, res types.SearchResult, page, pageSize int) error {
	switch f {
	case FormatJSON:
		return JSON(w, res)
	case FormatYAML:
		return YAML(w, res)
	default:
		Table(w, res, page, pageSize)
		return nil
	}
}

// Table writes res as a human-readable table.
func Table(w io.Writer, res types.SearchResult, page, pageSize int) {
	if len(res.Articles) == 0 {
		fmt.Fprintln(w, "No articles found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-20s\n", "#", "Title", "Source", "Published")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	offset := 0
	if page > 1 && pageSize > 0 {
		offset = (page - 1) * pageSize
	}
	for i, a := range res.Articles {
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-20s\n",
			offset+i+1, truncate(a.Title, 60), truncate(a.SourceName, 20), a.PublishedAt)
	}

	fmt.Fprintf(w, "\n%d of %d articles", len(res.Articles), res.TotalAvailable)
	if res.HasMore(page, pageSize) {
		fmt.Fprintf(w, " (next: --page %d)", page+1)
	}
	fmt.Fprintln(w)
}

// JSON writes res as indented JSON.
func JSON(w io.Writer, res types.SearchResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// YAML writes res as a YAML document.
func YAML(w io.Writer, res types.SearchResult) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

// Journal writes journal entries, newest first, in the given format.
func Journal(w io.Writer, f Format, entries []events.Entry) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No journal entries.")
		return nil
	}
	fmt.Fprintf(w, "%-24s  %-16s  %-8s  %-16s  %6s  %4s  %s\n",
		"Recorded", "Outcome", "Status", "Path", "ms", "Try", "Request")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, e := range entries {
		status := "-"
		if e.StatusCode != 0 {
			status = fmt.Sprintf("%d", e.StatusCode)
		}
		fmt.Fprintf(w, "%-24s  %-16s  %-8s  %-16s  %6d  %4d  %s\n",
			e.RecordedAt.Format("2006-01-02 15:04:05.000"), e.Outcome, status,
			truncate(e.Path, 16), e.LatencyMs, e.Attempt, e.RequestID)
	}
	return nil
}

// truncate shortens s to max runes, ending in "...".
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}
