// Package store opens the vector collection backend selected by configuration.
//
// The backends live in subpackages:
//   - sqlite: single file storage through mattn/go-sqlite3
//   - redis: hashes in Redis through go-redis
//   - postgres: tables in PostgreSQL through pgx
//
// The in-memory backend and the collection client are part of rag/store.
package store
