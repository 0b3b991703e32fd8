package domain

import "errors"

var (
	ErrFactUnavailable        = errors.New("fact unavailable")
	ErrTemporarilyUnavailable = errors.New("temporarily unavailable")
)
