// Package service implements the entity lifecycle workflows: authorize, load,
// check preconditions, mutate, diff, record the audit row, all inside a single
// transaction per request. The HTTP layer above never issues SQL and the
// repositories below never make access decisions.
package service

import (
	"errors"
	"fmt"

	"github.com/outreach-tracker/outreach-tracker/internal/policy"
)

// ErrNotFound reports that the target record does not exist. Callers that were
// denied visibility of a record also get ErrNotFound from list paths, but a
// direct fetch of an existing record the actor may not touch reports
// ForbiddenError so the two cases stay distinguishable at the boundary.
var ErrNotFound = errors.New("record not found")

// ForbiddenError reports an access policy denial with the machine-readable
// reason from the policy engine.
type ForbiddenError struct {
	Reason policy.DenyReason
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Reason)
}

// PreconditionError reports that the entity state does not admit the requested
// operation (e.g. converting an already-converted potential). Distinct from
// authorization: the actor was allowed, the state was not.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string {
	return e.Message
}

// StorageError wraps a database failure with the operation that hit it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func forbidden(reason policy.DenyReason) error {
	return &ForbiddenError{Reason: reason}
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
