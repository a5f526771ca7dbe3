package chat

import (
	"context"
	"errors"
	"fmt"

	"chatsync/internal/client"
)

// Kind classifies a synchronization failure. The app decides presentation
// from the kind alone.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNetwork      Kind = "network"
	KindUnauthorized Kind = "unauthorized"
	KindStaleContext Kind = "stale_context"
	KindConflict     Kind = "conflict"
)

var (
	ErrEmptyMessage    = errors.New("message must have text or an attachment")
	ErrEmptyTitle      = errors.New("chat name cannot be empty")
	ErrNoSession       = errors.New("session id is required")
	ErrDuplicateTempID = errors.New("temporary id already in use")
	ErrInvalidOutcome  = errors.New("invalid send response")
	ErrPendingTimeout  = errors.New("no response from server in time")
	ErrStaleContext    = errors.New("session context is no longer active")
)

// SyncError is the only error shape the engine hands to the app.
type SyncError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *SyncError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *SyncError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Classify converts a transport error into the sync taxonomy. A 404 on
// rename or save means the session was deleted elsewhere and is reported
// as a conflict.
func Classify(op string, err error) *SyncError {
	if err == nil {
		return nil
	}
	var syncErr *SyncError
	if errors.As(err, &syncErr) {
		if syncErr.Op == "" {
			return &SyncError{Kind: syncErr.Kind, Op: op, Err: syncErr.Err}
		}
		return syncErr
	}
	kind := KindNetwork
	switch {
	case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrEmptyTitle), errors.Is(err, ErrNoSession):
		kind = KindValidation
	case errors.Is(err, ErrStaleContext), errors.Is(err, context.Canceled):
		kind = KindStaleContext
	case client.IsUnauthorized(err):
		kind = KindUnauthorized
	case client.IsConflict(err):
		kind = KindConflict
	case client.IsNotFound(err) && (op == OpRename || op == OpSave):
		kind = KindConflict
	}
	return &SyncError{Kind: kind, Op: op, Err: err}
}

// KindOf reports the kind of err, or "" when err is nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var syncErr *SyncError
	if errors.As(err, &syncErr) {
		return syncErr.Kind
	}
	return Classify("", err).Kind
}

func validationError(op string, err error) *SyncError {
	return &SyncError{Kind: KindValidation, Op: op, Err: err}
}

// UserMessage is the notification text for a failure.
func UserMessage(err *SyncError) string {
	if err == nil {
		return ""
	}
	switch err.Kind {
	case KindUnauthorized:
		return "Session expired. Sign in again to continue."
	case KindConflict:
		return "This chat changed elsewhere. Reloaded the latest version."
	case KindValidation:
		return err.Err.Error()
	}
	if apiErr := client.AsAPIError(err.Err); apiErr != nil {
		return fmt.Sprintf("%s failed: %s", opLabel(err.Op), apiErr.Message)
	}
	if errors.Is(err.Err, context.DeadlineExceeded) || errors.Is(err.Err, ErrPendingTimeout) {
		return fmt.Sprintf("%s timed out", opLabel(err.Op))
	}
	return fmt.Sprintf("%s failed: %v", opLabel(err.Op), err.Err)
}

func opLabel(op string) string {
	switch op {
	case OpSend:
		return "Send"
	case OpLoad:
		return "Loading chat"
	case OpRefresh:
		return "Refresh"
	case OpList:
		return "Loading chats"
	case OpRename:
		return "Rename"
	case OpDelete:
		return "Delete"
	case OpSave:
		return "Save"
	default:
		return "Request"
	}
}
