package matching

import "errors"

// Structural failures propagate to the caller. Scoring-signal failures never
// do; they are logged and degrade to neutral or fallback values.
var (
	ErrValidation              = errors.New("validation failed")
	ErrDuplicateSubmission     = errors.New("a near-identical report was submitted recently")
	ErrUnauthorized            = errors.New("not a party to this report or match")
	ErrNotFound                = errors.New("not found")
	ErrExternalServiceDegraded = errors.New("external service degraded")
	ErrConcurrencyConflict     = errors.New("concurrent update conflict")
	ErrInvalidTransition       = errors.New("match is no longer pending")
	ErrReportUnavailable       = errors.New("report is no longer open for matching")
	ErrReportInUse             = errors.New("report has pending matches")
)
