package models

import "errors"

var (
	ErrUnauthorized         = errors.New("not logged in")
	ErrNotFound             = errors.New("not found or unauthorized")
	ErrMalformedPreferences = errors.New("malformed preferences document")
	ErrInvalidAd            = errors.New("invalid ad")
)
