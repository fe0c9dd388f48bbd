package idpsync

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompleteFetch means the remote set could not be read in full.
	// Nothing local is changed when a run ends with it.
	ErrIncompleteFetch = errors.New("identity provider fetch incomplete")
	// ErrSyncInProgress is returned to a run started while another holds
	// the run lock.
	ErrSyncInProgress = errors.New("sync already in progress")
)

// RecordError is a failure confined to one remote record or one orphan.
type RecordError struct {
	ExternalID string
	Email      string
	// Op is the step that failed: validate, match, merge, create, update
	// or delete.
	Op  string
	Err error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", e.Op, e.Email, e.ExternalID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
