package keychain

import (
	"errors"
	"fmt"
)

// Status is a native status code. Zero means success.
type Status int32

const (
	StatusSuccess               Status = 0
	StatusUnimplemented         Status = -4
	StatusDiskFull              Status = -34
	StatusIO                    Status = -36
	StatusParam                 Status = -50
	StatusAllocate              Status = -108
	StatusUserCanceled          Status = -128
	StatusBadRequest            Status = -909
	StatusInternalComponent     Status = -2070
	StatusNotAvailable          Status = -25291
	StatusReadOnly              Status = -25292
	StatusAuthFailed            Status = -25293
	StatusNoSuchKeychain        Status = -25294
	StatusDuplicateItem         Status = -25299
	StatusItemNotFound          Status = -25300
	StatusInteractionNotAllowed Status = -25308
	StatusDecode                Status = -26275
	StatusMissingEntitlement    Status = -34018
)

var statusText = map[Status]string{
	StatusUnimplemented:         "function or operation not implemented",
	StatusDiskFull:              "disk full",
	StatusIO:                    "I/O error",
	StatusParam:                 "invalid parameter",
	StatusAllocate:              "failed to allocate memory",
	StatusUserCanceled:          "user canceled the operation",
	StatusBadRequest:            "bad parameter or invalid state for operation",
	StatusInternalComponent:     "internal component error",
	StatusNotAvailable:          "no keychain is available",
	StatusReadOnly:              "keychain is read only",
	StatusAuthFailed:            "authorization failed",
	StatusNoSuchKeychain:        "keychain does not exist",
	StatusDuplicateItem:         "item already exists",
	StatusItemNotFound:          "item not found",
	StatusInteractionNotAllowed: "user interaction is not allowed",
	StatusDecode:                "unable to decode the provided data",
	StatusMissingEntitlement:    "required entitlement is missing",
}

// Known reports whether s is a recognized code.
func (s Status) Known() bool {
	if s == StatusSuccess {
		return true
	}
	_, ok := statusText[s]
	return ok
}

func (s Status) String() string {
	if s == StatusSuccess {
		return "success"
	}
	if text, ok := statusText[s]; ok {
		return text
	}
	return fmt.Sprintf("unknown status %d", int32(s))
}

// Err converts s to an error. Success yields nil.
func (s Status) Err() error {
	if s == StatusSuccess {
		return nil
	}
	return &Error{Status: s}
}

// ErrUnknown matches any Error carrying an unrecognized status.
var ErrUnknown = errors.New("keychain: unknown status")

// Error is a non-success status surfaced by a Manager.
type Error struct {
	Status Status
}

func (e *Error) Error() string {
	if !e.Status.Known() {
		return fmt.Sprintf("keychain: unknown error (status %d)", int32(e.Status))
	}
	return fmt.Sprintf("keychain: %s (status %d)", e.Status, int32(e.Status))
}

// Is matches another *Error with the same status, and ErrUnknown for
// unrecognized codes.
func (e *Error) Is(target error) bool {
	if target == ErrUnknown {
		return !e.Status.Known()
	}
	var t *Error
	if errors.As(target, &t) {
		return t.Status == e.Status
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrItemNotFound          = &Error{Status: StatusItemNotFound}
	ErrDuplicateItem         = &Error{Status: StatusDuplicateItem}
	ErrAuthFailed            = &Error{Status: StatusAuthFailed}
	ErrInteractionNotAllowed = &Error{Status: StatusInteractionNotAllowed}
	ErrParam                 = &Error{Status: StatusParam}
)
