/*
Copyright (C) 2026 Connor Swartz

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package feed

import "fmt"

// UnavailableKind classifies whole-feed fetch failures.
type UnavailableKind string

const (
	KindNotFound  UnavailableKind = "not_found"
	KindPrivate   UnavailableKind = "private"
	KindTimeout   UnavailableKind = "timeout"
	KindMalformed UnavailableKind = "malformed"
	KindHTTP      UnavailableKind = "http"
)

// UnavailableError reports that the diary feed could not be fetched or
// parsed as a document. It is the only error class that fails a Job.
type UnavailableError struct {
	Kind    UnavailableKind
	Message string
}

func (e *UnavailableError) Error() string {
	return e.Message
}

func notFoundErr(username string) *UnavailableError {
	return &UnavailableError{Kind: KindNotFound, Message: fmt.Sprintf("user %q not found", username)}
}

func privateErr(username string) *UnavailableError {
	return &UnavailableError{Kind: KindPrivate, Message: fmt.Sprintf("user %q has private diary", username)}
}

func timeoutErr() *UnavailableError {
	return &UnavailableError{Kind: KindTimeout, Message: "request timed out - feed source may be slow"}
}

func malformedErr(cause error) *UnavailableError {
	return &UnavailableError{Kind: KindMalformed, Message: fmt.Sprintf("invalid feed format: %v", cause)}
}

func httpErr(status int) *UnavailableError {
	return &UnavailableError{Kind: KindHTTP, Message: fmt.Sprintf("HTTP error %d", status)}
}
