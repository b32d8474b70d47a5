package resource

import (
	"fmt"

	"github.com/mickamy/ormrest/orm"
)

// NotFoundError reports a missing row looked up by primary key.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return orm.ErrNotFound }

// UnknownScopeError reports a scope name the entity does not declare.
type UnknownScopeError struct {
	Resource string
	Scope    string
}

func (e *UnknownScopeError) Error() string {
	return fmt.Sprintf("%s has no scope %q", e.Resource, e.Scope)
}

// MutationError reports the instance whose destroy or update failed during
// a fan-out. The surrounding transaction has been rolled back.
type MutationError struct {
	Op       string // "destroy" or "update"
	Resource string
	ID       int64
	Err      error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s %s %d: %v", e.Op, e.Resource, e.ID, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }
