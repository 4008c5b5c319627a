package storage

import "errors"

var (
	ErrVoterNotFound      = errors.New("voter not found in storage")
	ErrContestantNotFound = errors.New("contestant not found in storage")
	ErrQuotaExceeded      = errors.New("daily vote quota exceeded")
	ErrDuplicateEvent     = errors.New("vote event already recorded")
	ErrItemAlreadyExists  = errors.New("item with this id already exists")
	ErrSnapshotNotFound   = errors.New("rank snapshot not found in storage")
)
