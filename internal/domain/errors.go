package domain

import "fmt"

// InvalidInputError rejects malformed vehicle or battery parameters before
// planning starts.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: field %q: %s", e.Field, e.Reason)
}

// InfeasibleRouteError marks a single candidate route that cannot be completed
// even with charging stops. It records where feasibility broke so the caller
// can surface the location.
type InfeasibleRouteError struct {
	SegmentIndex int
	Reason       string
}

func (e *InfeasibleRouteError) Error() string {
	return fmt.Sprintf("infeasible route at segment %d: %s", e.SegmentIndex, e.Reason)
}

// NoFeasibleRouteError is surfaced only when every candidate route turned out
// infeasible.
type NoFeasibleRouteError struct {
	Candidates int
}

func (e *NoFeasibleRouteError) Error() string {
	return fmt.Sprintf("no feasible route among %d candidates", e.Candidates)
}

// ProviderUnavailableError wraps a failed or timed-out external data source.
type ProviderUnavailableError struct {
	Source string
	Err    error
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("provider %q unavailable: %v", e.Source, e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Err }
