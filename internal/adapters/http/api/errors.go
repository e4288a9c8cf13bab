package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrUnknownPage = errors.New("unknown page")
	ErrRateLimited = errors.New("refresh rate limited")
)
