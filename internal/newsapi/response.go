// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package newsapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/newsclient/pkg/types"
)

// Provider JSON structures.
type apiResponse struct {
	Status       string          `json:"status"`
	TotalResults *int            `json:"totalResults"`
	Articles     json.RawMessage `json:"articles"`
	Code         string          `json:"code"`
	Message      string          `json:"message"`
}

type apiArticle struct {
	Source      apiSource `json:"source"`
	Author      *string   `json:"author"`
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	URL         *string   `json:"url"`
	URLToImage  *string   `json:"urlToImage"`
	PublishedAt *string   `json:"publishedAt"`
	Content     *string   `json:"content"`
}

type apiSource struct {
	ID   *string `json:"id"`
	Name *string `json:"name"`
}

// errorBody is the provider's error envelope, sent with 4xx and 5xx responses.
type errorBody struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

const maxPlainMessage = 512

// parseErrorBody extracts the provider's code and message from an error
// response. Non-JSON bodies yield their trimmed text as the message.
func parseErrorBody(body []byte) (code, message string) {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && (eb.Code != "" || eb.Message != "") {
		return eb.Code, eb.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxPlainMessage {
		msg = msg[:maxPlainMessage]
	}
	return "", msg
}

// rejectedBody is returned by parseResult for a 200 response whose body
// reports status "error".
type rejectedBody struct {
	code    string
	message string
}

func (r *rejectedBody) Error() string {
	return fmt.Sprintf("provider error %s: %s", r.code, r.message)
}

// parseResult turns a 200 response body into a SearchResult. It never returns
// a partially parsed result: any shape violation is an error.
func parseResult(body []byte) (types.SearchResult, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return types.SearchResult{}, fmt.Errorf("body is not a JSON object")
	}

	var raw apiResponse
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return types.SearchResult{}, fmt.Errorf("decoding body: %w", err)
	}

	if raw.Status == "error" {
		return types.SearchResult{}, &rejectedBody{code: raw.Code, message: raw.Message}
	}
	if raw.Status != "" && raw.Status != "ok" {
		return types.SearchResult{}, fmt.Errorf("unexpected status %q", raw.Status)
	}

	total := 0
	if raw.TotalResults != nil {
		if *raw.TotalResults < 0 {
			return types.SearchResult{}, fmt.Errorf("negative totalResults %d", *raw.TotalResults)
		}
		total = *raw.TotalResults
	}

	var items []apiArticle
	if len(raw.Articles) > 0 && !bytes.Equal(raw.Articles, []byte("null")) {
		if err := json.Unmarshal(raw.Articles, &items); err != nil {
			return types.SearchResult{}, fmt.Errorf("decoding articles: %w", err)
		}
	}

	if len(items) == 0 {
		return types.SearchResult{Articles: []types.Article{}, TotalAvailable: 0, Status: types.StatusPartial}, nil
	}

	articles := make([]types.Article, 0, len(items))
	for i, item := range items {
		a, err := item.toArticle()
		if err != nil {
			return types.SearchResult{}, fmt.Errorf("article %d: %w", i, err)
		}
		articles = append(articles, a)
	}

	// Keep len(Articles) <= TotalAvailable even when the provider undercounts.
	total = max(total, len(articles))

	return types.SearchResult{Articles: articles, TotalAvailable: total, Status: types.StatusOK}, nil
}

func (a apiArticle) toArticle() (types.Article, error) {
	if a.Title == nil {
		return types.Article{}, fmt.Errorf("missing title")
	}
	if a.URL == nil || *a.URL == "" {
		return types.Article{}, fmt.Errorf("missing url")
	}
	out := types.Article{
		Title:       *a.Title,
		Description: a.Description,
		URL:         *a.URL,
		Content:     a.Content,
		Author:      a.Author,
		ImageURL:    a.URLToImage,
	}
	if a.Source.Name != nil {
		out.SourceName = *a.Source.Name
	}
	if a.PublishedAt != nil {
		out.PublishedAt = *a.PublishedAt
	}
	return out, nil
}
