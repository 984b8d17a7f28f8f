package credential

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyAccount is returned when a record or call names no account.
	ErrEmptyAccount = errors.New("credential: account must not be empty")

	// ErrInvalidQueryResult means the store reported success for a payload
	// query but returned something other than bytes.
	ErrInvalidQueryResult = errors.New("credential: invalid query result")

	// ErrInvalidAccountRetrievalResult means the store reported success for
	// an account listing but did not return attribute records.
	ErrInvalidAccountRetrievalResult = errors.New("credential: invalid account retrieval result")
)

// EncodingError wraps a failure to serialize a record.
type EncodingError struct {
	Account string
	Err     error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding record %q: %v", e.Account, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// DecodingError wraps a failure to deserialize a stored payload.
type DecodingError struct {
	Account string
	Err     error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("decoding record %q: %v", e.Account, e.Err)
}

func (e *DecodingError) Unwrap() error { return e.Err }

// FailedDelete records one account ClearAll could not remove.
type FailedDelete struct {
	Account string
	Err     error
}

// ClearError lists every account ClearAll failed to delete. Accounts not
// listed were removed.
type ClearError struct {
	Failed []FailedDelete
}

func (e *ClearError) Error() string {
	accounts := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		accounts = append(accounts, f.Account)
	}
	return fmt.Sprintf("clearing scope: %d deletes failed (%s): %v",
		len(e.Failed), strings.Join(accounts, ", "), e.Failed[0].Err)
}

// Unwrap exposes the individual delete errors to errors.Is and errors.As.
func (e *ClearError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, f := range e.Failed {
		errs = append(errs, f.Err)
	}
	return errs
}
