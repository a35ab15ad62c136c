package ledger

import "fmt"

// AuthenticationError is returned when the ledger rejects the login.
type AuthenticationError struct {
	StatusCode int
	Body       string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("login rejected (status %d): %s", e.StatusCode, e.Body)
}

// TransportError covers network failures and non-success HTTP statuses
// outside of login.
type TransportError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SubmissionRejection is returned when an entry was not accepted: the request
// failed, the ledger answered with a non-success status, or the acceptance
// response did not echo an integer amount.
type SubmissionRejection struct {
	Reason string
	Err    error
}

func (e *SubmissionRejection) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("entry rejected: %s: %v", e.Reason, e.Err)
	}
	return "entry rejected: " + e.Reason
}

func (e *SubmissionRejection) Unwrap() error { return e.Err }
