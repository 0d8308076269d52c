// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorKind classifies an upstream failure.
type ErrorKind int

const (
	// KindFatal is a non-retryable failure such as a malformed request.
	KindFatal ErrorKind = iota
	// KindRateLimited means the provider throttled the caller.
	KindRateLimited
	// KindOverloaded means the provider reported it is overloaded.
	KindOverloaded
	// KindUnavailable means the service was temporarily unavailable.
	KindUnavailable
	// KindTimeout means the call timed out.
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindFatal:
		return "fatal"
	case KindRateLimited:
		return "rate_limited"
	case KindOverloaded:
		return "overloaded"
	case KindUnavailable:
		return "unavailable"
	case KindTimeout:
		return "timeout"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Retryable reports whether failures of this kind are worth retrying.
func (k ErrorKind) Retryable() bool {
	return k != KindFatal
}

// ProviderError is an upstream failure with its classification.
type ProviderError struct {
	Kind ErrorKind
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (%s): %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err with an explicit kind.
func NewProviderError(kind ErrorKind, err error) *ProviderError {
	return &ProviderError{Kind: kind, Err: err}
}

// Classify wraps err in a ProviderError. Errors that already carry a
// classification are returned unchanged. Returns nil for a nil error.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Kind: kindOf(err), Err: err}
}

// KindOf returns the classification of err, computing it if err was never classified.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return kindOf(err)
}

// IsRetryable reports whether err is a transient provider failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return KindOf(err).Retryable()
}

func kindOf(err error) ErrorKind {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if k, ok := kindFromHTTP(gerr.Code); ok {
			return k
		}
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.ResourceExhausted:
			return KindRateLimited
		case codes.Unavailable:
			return KindUnavailable
		case codes.DeadlineExceeded:
			return KindTimeout
		}
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return KindTimeout
	}

	return kindFromMessage(err.Error())
}

func kindFromHTTP(code int) (ErrorKind, bool) {
	switch code {
	case http.StatusTooManyRequests:
		return KindRateLimited, true
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return KindUnavailable, true
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return KindTimeout, true
	}
	return KindFatal, false
}

// kindFromMessage recognizes the markers providers embed in error text when
// no structured status is available.
func kindFromMessage(msg string) ErrorKind {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "overloaded"):
		return KindOverloaded
	case strings.Contains(msg, "429"):
		return KindRateLimited
	case strings.Contains(msg, "503"):
		return KindUnavailable
	case strings.Contains(lower, "timeout"):
		return KindTimeout
	}
	return KindFatal
}
