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

package core

import "errors"

// Error categories surfaced to callers of the service.
var (
	// ErrNotFound indicates an unknown session id.
	ErrNotFound = errors.New("session not found")

	// ErrNoDocument indicates a question was asked before any document was ingested.
	ErrNoDocument = errors.New("no document ingested for session")

	// ErrExtraction indicates the document could not be read or held no text.
	ErrExtraction = errors.New("document extraction failed")

	// ErrIngestion indicates the document could not be embedded or stored.
	ErrIngestion = errors.New("document ingestion failed")

	// ErrGeneration indicates an answer could not be produced.
	ErrGeneration = errors.New("answer generation failed")

	// ErrProviderTransient indicates a retryable upstream fault that outlasted the retry budget.
	ErrProviderTransient = errors.New("inference provider unavailable")

	// ErrProviderFatal indicates a non-retryable upstream fault.
	ErrProviderFatal = errors.New("inference provider rejected request")

	// ErrResponseMalformed indicates the provider returned something other than text.
	ErrResponseMalformed = errors.New("malformed provider response")

	// ErrInvalidArgument indicates a required argument was missing or empty.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Validation errors
var (
	// ErrEmptySessionID indicates a session id was empty.
	ErrEmptySessionID = errors.New("session id cannot be empty")

	// ErrEmptyText indicates message or chunk text was empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrInvalidRole indicates a role other than user or model.
	ErrInvalidRole = errors.New("invalid role")

	// ErrEmptyVector indicates a chunk without an embedding.
	ErrEmptyVector = errors.New("vector cannot be empty")
)
