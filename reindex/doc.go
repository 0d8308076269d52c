// Package reindex rebuilds the vector store from the documents recorded on
// each session.
//
// Run it after changing the embedding model or moving chunks to a different
// vector backend. Sessions are visited in batches; each document is
// re-ingested through the normal ingestion path, so it replaces whatever the
// store held for that session.
package reindex
