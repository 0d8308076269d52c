// Package ingestion stores a session's document for retrieval.
//
// The Pipeline embeds the whole document as a single chunk, writes it to the
// vector store under the session's namespace and records it on the session.
// Ingesting into a session that already has a document replaces it: the old
// chunks are deleted before the new one is written.
//
// Jobs run on a bounded worker pool, so at most WithPoolSize documents are
// embedded at once. Ingest blocks until its job finishes or ctx is done.
package ingestion
