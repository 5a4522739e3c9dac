package enums

import "fmt"

// PriceRequestStatus maps to the price_request_status enum in Postgres.
// Pending is the only non-terminal state.
type PriceRequestStatus string

const (
	PriceRequestPending  PriceRequestStatus = "pending"
	PriceRequestApproved PriceRequestStatus = "approved"
	PriceRequestRejected PriceRequestStatus = "rejected"
)

var validPriceRequestStatuses = []PriceRequestStatus{
	PriceRequestPending,
	PriceRequestApproved,
	PriceRequestRejected,
}

// String implements fmt.Stringer.
func (s PriceRequestStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PriceRequestStatus.
func (s PriceRequestStatus) IsValid() bool {
	for _, candidate := range validPriceRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status can no longer change.
func (s PriceRequestStatus) IsTerminal() bool {
	return s == PriceRequestApproved || s == PriceRequestRejected
}

// ParsePriceRequestStatus converts raw input into a PriceRequestStatus.
func ParsePriceRequestStatus(value string) (PriceRequestStatus, error) {
	for _, candidate := range validPriceRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid price request status %q", value)
}

// PriceRequestDecision is the reviewer verdict applied to a pending request.
type PriceRequestDecision string

const (
	PriceRequestDecisionApprove PriceRequestDecision = "approve"
	PriceRequestDecisionReject  PriceRequestDecision = "reject"
)

var validPriceRequestDecisions = []PriceRequestDecision{
	PriceRequestDecisionApprove,
	PriceRequestDecisionReject,
}

// String implements fmt.Stringer.
func (d PriceRequestDecision) String() string {
	return string(d)
}

// IsValid reports whether the value is a known PriceRequestDecision.
func (d PriceRequestDecision) IsValid() bool {
	for _, candidate := range validPriceRequestDecisions {
		if candidate == d {
			return true
		}
	}
	return false
}

// Status returns the terminal status the decision resolves to.
func (d PriceRequestDecision) Status() PriceRequestStatus {
	if d == PriceRequestDecisionApprove {
		return PriceRequestApproved
	}
	return PriceRequestRejected
}

// ParsePriceRequestDecision converts raw input into a PriceRequestDecision.
func ParsePriceRequestDecision(value string) (PriceRequestDecision, error) {
	for _, candidate := range validPriceRequestDecisions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid price request decision %q", value)
}
