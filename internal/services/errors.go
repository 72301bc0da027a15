package services

import (
	"errors"
	"fmt"

	"github.com/sirrryasir/edoskill360-sub000/internal/models"
)

// Sentinel errors for the concurrency and authorization guards. Callers that
// may have double-submitted due to a network retry treat the Already* errors
// as benign.
var (
	ErrAlreadySubmitted = errors.New("session already submitted")
	ErrAlreadyResolved  = errors.New("request already resolved")
	ErrOwnership        = errors.New("caller does not own this resource")
	ErrAgentRole        = errors.New("agent or admin role required")
)

// NotFoundError marks a missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// NewNotFoundError builds a NotFoundError for an entity kind and ID.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// InvalidStageError is returned when an action is not valid for the user's
// current verification stage. It carries both stages so the caller can
// explain why the action was rejected, not just that it was.
type InvalidStageError struct {
	Action   string
	Current  models.Stage
	Required models.Stage
}

func (e *InvalidStageError) Error() string {
	return fmt.Sprintf("%s requires stage %s, user is at %s", e.Action, e.Required, e.Current)
}

// DuplicatePendingRequestError is the idempotency guard for submissions: a
// new submission of a kind is rejected while one of that kind is pending.
type DuplicatePendingRequestError struct {
	Kind models.RequestKind
}

func (e *DuplicatePendingRequestError) Error() string {
	return fmt.Sprintf("a %s request is already pending for this user", e.Kind)
}

// OracleUnavailableError wraps a failure of the external question oracle.
// It is retryable and never leaves partial session state behind.
type OracleUnavailableError struct {
	Op  string
	Err error
}

func (e *OracleUnavailableError) Error() string {
	return fmt.Sprintf("question oracle unavailable during %s: %v", e.Op, e.Err)
}

func (e *OracleUnavailableError) Unwrap() error {
	return e.Err
}
