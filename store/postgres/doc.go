// Package postgres provides a PostgreSQL-backed vector collection backend
// built on pgx. The DBPool interface lets tests substitute pgxmock.
package postgres
