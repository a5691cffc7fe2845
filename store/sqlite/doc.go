// Package sqlite provides a SQLite-backed vector collection backend.
//
// Collections and points are kept in two tables; vectors and payloads are
// stored as JSON text. Scoring happens in the collection client, so the
// backend only persists and returns points.
//
//	backend, err := sqlite.NewSqliteBackend(sqlite.SqliteOptions{Path: "collections.db"})
//	if err != nil {
//		return err
//	}
//	client := store.NewClient(backend)
package sqlite
