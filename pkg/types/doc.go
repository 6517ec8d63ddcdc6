// Package types defines the guest and tag entities, the guest collection
// arena, query request and result shapes, request payloads, backend
// configuration, and the standard error types for rumor.
package types
