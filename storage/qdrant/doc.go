// Package qdrant implements storage.VectorStore on a Qdrant collection.
//
// All sessions share one collection. Each point carries its namespace in the
// payload and every query and delete filters on it, so one session's chunks
// are never visible to another.
package qdrant
