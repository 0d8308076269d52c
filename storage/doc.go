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

// Package storage provides the storage abstraction layer for docqa.
//
// It defines two repository interfaces that decouple storage implementation
// from the pipelines:
//
//   - SessionRepository: chat sessions, their transcripts and document markers
//   - VectorStore: embedded chunks, partitioned by namespace (the session id)
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return the interface, not the
// concrete type:
//
//	sessions, err := badger.NewSessionRepository(backend)  // storage.SessionRepository
//	vectors, err := qdrant.NewVectorStore(ctx, cfg)        // storage.VectorStore
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	sessions, vectors, backend, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// # Thread Safety
//
// All implementations must be thread-safe. SessionRepository.Lock provides
// per-session mutual exclusion for read-modify-write sequences; distinct
// sessions never contend.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support.
package storage
