package settlement

import "errors"

// Settlement errors.
var (
	// ErrAlreadySettled is returned when a batch already exists for
	// the target week. Settlement is strictly idempotent per week:
	// callers can treat this as "safe to ignore, already done".
	ErrAlreadySettled = errors.New("week already settled")

	// ErrNothingToSettle is returned when no ranked builder had a
	// single token holder, leaving no claims to commit. Nothing is
	// persisted; the week can be retried once data exists.
	ErrNothingToSettle = errors.New("no claims to settle for week")

	// ErrConservationViolated is returned when the aggregated claim
	// total does not equal the receipt total. It indicates a bug in
	// allocation or aggregation and always aborts before persistence.
	ErrConservationViolated = errors.New("claim total does not match receipt total")
)
