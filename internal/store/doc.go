// Package store provides the in-memory caches behind the reviewer:
//
//   - EvalCache: engine evaluations keyed by position, persisted as CSV
//     (optionally .gz or .zst compressed) between runs
//   - FIFOCache: a bounded map used for finished reviews held by the API
//
// Positions are keyed by the first four FEN fields, so the same position
// reached with different move clocks shares one entry.
package store
