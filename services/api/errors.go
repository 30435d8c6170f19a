package api

import "errors"

// Sentinel errors returned by the Store and mapped to HTTP statuses in the
// handlers. ErrInviteExpired is deliberately distinct from ErrInviteNotFound:
// an expired invite warrants "ask for a new invite" messaging rather than a
// plain 404.
var (
	ErrNotFound         = errors.New("not found")
	ErrInviteNotFound   = errors.New("invite token not found")
	ErrInviteExpired    = errors.New("invite token expired")
	ErrAlbumNotFound    = errors.New("album not found")
	ErrClassNotFound    = errors.New("class not found")
	ErrRequestNotFound  = errors.New("access request not found")
	ErrDuplicateRequest = errors.New("an active request already exists for this class")
	ErrSessionInvalid   = errors.New("session invalid or expired")
)
