package domain

import "errors"

var (
	// ErrNoRuleRecords is returned when settings are written back before any
	// rule-record collection was loaded for the account.
	ErrNoRuleRecords = errors.New("no rule records loaded for account")

	ErrInvalidSettings = errors.New("invalid rule settings")

	// ErrStaleRange is returned for a range load superseded by a newer one.
	ErrStaleRange = errors.New("range request superseded")

	ErrInvalidRange = errors.New("invalid date range")

	ErrNotFound = errors.New("not found")
)
