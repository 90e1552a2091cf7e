package domain

import "context"

// JobRequest is the wire payload handed to the external worker. It is
// built exactly once per finalized dialogue and never mutated after.
type JobRequest struct {
	Prompt string `json:"prompt"`
	Style  string `json:"style"`
	ChatID string `json:"chatId"`
}

// JobResult is the out-of-band completion notice the worker posts back.
// ChatID is the correlation id and doubles as the delivery address.
type JobResult struct {
	ChatID    string `json:"chatId"`
	ResultURL string `json:"resultUrl,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (r JobResult) Failed() bool { return r.Error != "" }

type DispatchStatus string

const (
	DispatchAccepted         DispatchStatus = "accepted"
	DispatchRejected         DispatchStatus = "rejected"
	DispatchTransportFailure DispatchStatus = "transport_failure"
)

// DispatchOutcome is the synchronous response to a job handoff. Accepted
// means the worker took the job, not that the job finished.
type DispatchOutcome struct {
	Status DispatchStatus
	// Ack is the worker's acknowledgement message, set when Accepted.
	Ack string
	// Reason explains a rejection, set when Rejected.
	Reason string
	// Cause is the transport error, set when TransportFailure.
	Cause error
}

// JobDispatcher sends a finalized JobRequest to the external worker with
// at most one delivery attempt.
type JobDispatcher interface {
	Dispatch(ctx context.Context, req JobRequest) DispatchOutcome
}
