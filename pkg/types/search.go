// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures returned by the news client
// and consumed by the CLI renderers.
package types

import (
	"fmt"
	"time"
)

// Status describes the shape of a successful provider answer.
type Status string

const (
	// StatusOK means the provider returned at least one article.
	StatusOK Status = "ok"

	// StatusPartial means the provider answered successfully with no articles.
	// "No news right now" is a valid answer, not a failure.
	StatusPartial Status = "partial"

	// StatusError is reserved for callers that record failed lookups next to
	// successful ones. The client itself reports failures as errors.
	StatusError Status = "error"
)

// Article is a single news item as reported by the provider.
// Optional provider fields are pointers; nil means the provider sent null or
// omitted the field.
type Article struct {
	// Title is the headline.
	Title string `json:"title" yaml:"title"`

	// Description is the provider's short summary, if any.
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`

	// URL links to the full article on the publisher's site.
	URL string `json:"url" yaml:"url"`

	// SourceName is the publisher name (e.g. "Reuters").
	SourceName string `json:"source_name" yaml:"source_name"`

	// PublishedAt is the ISO 8601 publication timestamp exactly as received.
	PublishedAt string `json:"published_at" yaml:"published_at"`

	// Content is the truncated article body, if any.
	Content *string `json:"content,omitempty" yaml:"content,omitempty"`

	// Author is the byline, if any.
	Author *string `json:"author,omitempty" yaml:"author,omitempty"`

	// ImageURL points at the lead image, if any.
	ImageURL *string `json:"image_url,omitempty" yaml:"image_url,omitempty"`
}

// Published parses PublishedAt as an RFC 3339 timestamp.
func (a Article) Published() (time.Time, error) {
	t, err := time.Parse(time.RFC3339, a.PublishedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing published_at %q: %w", a.PublishedAt, err)
	}
	return t, nil
}

// SearchResult is one page of articles. len(Articles) never exceeds
// TotalAvailable for ok or partial results.
type SearchResult struct {
	// Articles holds the page in provider order.
	Articles []Article `json:"articles" yaml:"articles"`

	// TotalAvailable is the provider's count of matching articles across all pages.
	TotalAvailable int `json:"total_available" yaml:"total_available"`

	// Status is ok when Articles is non-empty and partial otherwise.
	Status Status `json:"status" yaml:"status"`
}

// HasMore reports whether a page after the given one exists, assuming this
// result was fetched with the given page and pageSize.
func (r SearchResult) HasMore(page, pageSize int) bool {
	if page < 1 || pageSize < 1 {
		return false
	}
	return page*pageSize < r.TotalAvailable
}
