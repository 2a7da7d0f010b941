package gig

import "errors"

var (
	ErrGigNotFound          = errors.New("gig not found")
	ErrGigClosed            = errors.New("gig is closed")
	ErrOwnApplication       = errors.New("cannot apply to own gig")
	ErrDuplicateApplication = errors.New("application already exists for this gig")
	ErrApplicationNotFound  = errors.New("application not found")
	ErrNotAuthorized        = errors.New("only the gig owner can respond")
	ErrAlreadyResponded     = errors.New("application has already been responded to")
)
