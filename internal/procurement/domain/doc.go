// Package domain holds the procurement entities and their validation rules.
//
// Entities are plain structs created through constructor functions that
// normalize input, enforce invariants, and stamp identity and timestamps.
// Lifecycle and uniqueness rules that require knowledge of other records
// (duplicate proposals, close/submit races) are enforced by the storage
// layer; this package owns everything that can be decided from a single
// value.
package domain
