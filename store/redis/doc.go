// Package redis provides a Redis-backed vector collection backend.
//
// Each collection uses two hashes: one for its config and one mapping point
// ids to JSON encoded points.
package redis
