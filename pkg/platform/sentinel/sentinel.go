package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in the store
// - ErrExpired: cache entry or token outlived its TTL
// - ErrCorrupt: persisted payload could not be decoded
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: store or peer temporarily unavailable
// - ErrClosed: component was shut down
//
// For coded failures surfaced to callers, use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrExpired      = errors.New("expired")
	ErrCorrupt      = errors.New("corrupt")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrClosed       = errors.New("closed")
)
