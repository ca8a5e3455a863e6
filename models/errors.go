package models

import "errors"

var (
	// ErrEventNotFound indicates the requested liquidation event does not exist
	ErrEventNotFound = errors.New("liquidation event not found")
)
