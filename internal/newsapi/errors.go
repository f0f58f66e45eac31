// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package newsapi

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Kind classifies every failure the client returns. Callers branch on Kind
// (or the matching sentinel via errors.Is), never on message text.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConfig is a bad local setup; construction fails.
	KindConfig
	// KindInvalidArgument is a bad call parameter; no request was sent.
	KindInvalidArgument
	// KindRequestRejected is a provider 4xx or an explicit provider error
	// body. It is never retried.
	KindRequestRejected
	// KindProviderUnavailable means retries were exhausted on 5xx responses
	// or transport failures.
	KindProviderUnavailable
	// KindResponseMalformed is a response that does not have the expected shape.
	KindResponseMalformed
	// KindCancelled means the caller's context ended the call.
	KindCancelled
)

var kindNames = map[Kind]string{
	KindUnknown:             "unknown",
	KindConfig:              "config error",
	KindInvalidArgument:     "invalid argument",
	KindRequestRejected:     "request rejected",
	KindProviderUnavailable: "provider unavailable",
	KindResponseMalformed:   "response malformed",
	KindCancelled:           "cancelled",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinels for errors.Is.
var (
	ErrConfig              = &Error{Kind: KindConfig}
	ErrInvalidArgument     = &Error{Kind: KindInvalidArgument}
	ErrRequestRejected     = &Error{Kind: KindRequestRejected}
	ErrProviderUnavailable = &Error{Kind: KindProviderUnavailable}
	ErrResponseMalformed   = &Error{Kind: KindResponseMalformed}
	ErrCancelled           = &Error{Kind: KindCancelled}
)

// Error is the only error type returned by the client.
type Error struct {
	Kind Kind

	// Op names the client operation, e.g. "top-headlines".
	Op string

	// StatusCode is the last HTTP status seen, 0 if none.
	StatusCode int

	// ProviderCode and ProviderMessage are copied verbatim from the provider's
	// error body when one was returned.
	ProviderCode    string
	ProviderMessage string

	// Attempts is the number of HTTP attempts made.
	Attempts int

	// Msg describes locally detected problems.
	Msg string

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	if e.ProviderCode != "" {
		fmt.Fprintf(&b, " [%s]", e.ProviderCode)
	}
	if e.ProviderMessage != "" {
		b.WriteString(": ")
		b.WriteString(e.ProviderMessage)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Attempts > 1 {
		fmt.Fprintf(&b, " after %d attempts", e.Attempts)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, ErrRequestRejected)
// works regardless of the details carried.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// redact removes the credential from err's text. net/http reports failures as
// *url.Error whose message embeds the full request URL, query string included.
// The result still unwraps to the original causes, each redacted in turn.
func redact(err error, credential string) error {
	if err == nil {
		return nil
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		clean := *ue
		if u, parseErr := url.Parse(ue.URL); parseErr == nil {
			u.RawQuery = ""
			clean.URL = u.String()
		} else {
			clean.URL = ""
		}
		clean.Err = redact(ue.Err, credential)
		return scrub(&clean, credential)
	}
	return scrub(err, credential)
}

// scrub replaces credential in err's message and redacts the rest of the chain.
func scrub(err error, credential string) error {
	if credential == "" || !strings.Contains(err.Error(), credential) {
		return err
	}
	return &redactedError{
		msg:   strings.ReplaceAll(err.Error(), credential, "[REDACTED]"),
		cause: redact(errors.Unwrap(err), credential),
	}
}

type redactedError struct {
	msg   string
	cause error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.cause }
