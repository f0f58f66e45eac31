// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package newsapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/newsclient/pkg/types"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			"rejected with provider details",
			&Error{Kind: KindRequestRejected, Op: "top-headlines", StatusCode: 401,
				ProviderCode: "apiKeyInvalid", ProviderMessage: "Your API key is invalid.", Attempts: 1},
			"top-headlines: request rejected (HTTP 401) [apiKeyInvalid]: Your API key is invalid.",
		},
		{
			"unavailable after retries",
			&Error{Kind: KindProviderUnavailable, Op: "everything", StatusCode: 503, Attempts: 3},
			"everything: provider unavailable (HTTP 503) after 3 attempts",
		},
		{
			"invalid argument",
			&Error{Kind: KindInvalidArgument, Op: "everything", Msg: "query is empty"},
			"everything: invalid argument: query is empty",
		},
		{
			"cancelled with cause",
			&Error{Kind: KindCancelled, Op: "top-headlines", Err: context.Canceled},
			"top-headlines: cancelled: context canceled",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("loading headlines: %w", &Error{Kind: KindRequestRejected, StatusCode: 429})

	assert.ErrorIs(t, err, ErrRequestRejected)
	assert.NotErrorIs(t, err, ErrProviderUnavailable)
	assert.NotErrorIs(t, err, ErrCancelled)
	assert.Equal(t, KindRequestRejected, KindOf(err))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "response malformed", KindResponseMalformed.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}

func TestRedact(t *testing.T) {
	ue := &url.Error{
		Op:  "Get",
		URL: "https://newsapi.org/v2/top-headlines?apiKey=" + testKey + "&country=us",
		Err: context.DeadlineExceeded,
	}

	got := redact(ue, testKey)
	assert.NotContains(t, got.Error(), testKey)
	assert.Contains(t, got.Error(), "https://newsapi.org/v2/top-headlines")
	assert.ErrorIs(t, got, context.DeadlineExceeded)

	// The original error is left untouched.
	assert.Contains(t, ue.URL, testKey)

	other := fmt.Errorf("proxy said no to %s", testKey)
	assert.Equal(t, "proxy said no to [REDACTED]", redact(other, testKey).Error())

	assert.Nil(t, redact(nil, testKey))
	plain := errors.New("connection reset")
	assert.Same(t, plain, redact(plain, testKey))
}

func TestRedactKeepsChain(t *testing.T) {
	wrapped := fmt.Errorf("dialing with %s: %w", testKey, context.DeadlineExceeded)
	got := redact(wrapped, testKey)
	assert.Equal(t, "dialing with [REDACTED]: context deadline exceeded", got.Error())
	assert.ErrorIs(t, got, context.DeadlineExceeded)

	inner := fmt.Errorf("token %s rejected by proxy", testKey)
	outer := fmt.Errorf("round trip: %w", inner)
	got = redact(outer, testKey)
	require.NotNil(t, errors.Unwrap(got))
	assert.NotContains(t, errors.Unwrap(got).Error(), testKey)

	ue := &url.Error{Op: "Get", URL: "https://newsapi.org/v2/everything?apiKey=" + testKey, Err: wrapped}
	got = redact(ue, testKey)
	assert.NotContains(t, got.Error(), testKey)
	assert.ErrorIs(t, got, context.DeadlineExceeded)
	var gotURL *url.Error
	require.ErrorAs(t, got, &gotURL)
	assert.Equal(t, "https://newsapi.org/v2/everything", gotURL.URL)
}

func TestParseErrorBody(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
		wantMsg  string
	}{
		{"provider envelope", rejectedPayload, "apiKeyInvalid", "Your API key is invalid or incorrect."},
		{"plain text", "Service Unavailable\n", "", "Service Unavailable"},
		{"empty", "", "", ""},
		{"json without fields", `{"error":true}`, "", `{"error":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := parseErrorBody([]byte(tt.body))
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestParseErrorBodyTruncatesText(t *testing.T) {
	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'x'
	}
	_, msg := parseErrorBody(long)
	assert.Len(t, msg, maxPlainMessage)
}

func TestParseResultKeepsProviderOrder(t *testing.T) {
	res, err := parseResult([]byte(headlinesPayload))
	require.NoError(t, err)
	require.Len(t, res.Articles, 2)
	assert.Equal(t, "Markets rally", res.Articles[0].Title)
	assert.Equal(t, "Storm warning", res.Articles[1].Title)

	published, err := res.Articles[0].Published()
	require.NoError(t, err)
	assert.Equal(t, 2026, published.Year())
}

func TestParseResultRejectedBody(t *testing.T) {
	_, err := parseResult([]byte(rejectedPayload))
	var rb *rejectedBody
	require.True(t, errors.As(err, &rb))
	assert.Equal(t, "apiKeyInvalid", rb.code)
}

func TestParseResultMissingStatusAccepted(t *testing.T) {
	res, err := parseResult([]byte(`{"totalResults":1,"articles":[{"title":"t","url":"https://e.com/x"}]}`))
	require.NoError(t, err)
	assert.Equal(t, types.StatusOK, res.Status)
	assert.Equal(t, "", res.Articles[0].SourceName)
	assert.Equal(t, "", res.Articles[0].PublishedAt)
}
