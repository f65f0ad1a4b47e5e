// Package protocol defines the server-to-server wire format: request and
// response bodies, response codes and the tagged Failure result.
package protocol

import (
	"errors"
	"fmt"
)

type ResponseCode string

const (
	CodeSuccess       ResponseCode = "SM_S888"
	CodeNotFound      ResponseCode = "SM_E001"
	CodeNotAuthorized ResponseCode = "SM_E002"
	CodeWrongOrigin   ResponseCode = "SM_E003"
	CodeHashMismatch  ResponseCode = "SM_E004"
	CodeExpired       ResponseCode = "SM_E005"
)

// Failure is the error side of every protocol operation. Message is the
// reason reported to the remote caller.
type Failure struct {
	Code    ResponseCode
	Message string
}

func (f *Failure) Error() string {
	if f.Code == "" {
		return f.Message
	}
	return fmt.Sprintf("%s (%s)", f.Message, f.Code)
}

// Is matches failures by value so that a failure decoded from a peer
// response compares equal to the local sentinel.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	if !ok {
		return false
	}
	return f.Code == t.Code && f.Message == t.Message
}

func NewFailure(code ResponseCode, message string) *Failure {
	return &Failure{Code: code, Message: message}
}

var (
	ErrInvalidRequest      = NewFailure(CodeNotFound, "INVALID_REQUEST")
	ErrUserNotFound        = NewFailure(CodeNotFound, "USER_NOT_FOUND")
	ErrInvalidPassCode     = NewFailure(CodeNotFound, "INVALID_PASS_CODE")
	ErrExpiredPassCode     = NewFailure(CodeExpired, "EXPIRED_PASS_CODE")
	ErrNotFound            = NewFailure(CodeNotFound, "NOT_FOUND")
	ErrExpired             = NewFailure(CodeExpired, "EXPIRED")
	ErrNoConnection        = NewFailure(CodeNotFound, "NO_CONNECTION")
	ErrSenderNotAuthorized = NewFailure(CodeNotAuthorized, "SENDER_NOT_AUTHORIZED")
	ErrHashMismatch        = NewFailure(CodeHashMismatch, "HASH_MISMATCH")
	ErrDecryptFailed       = NewFailure(CodeExpired, "DECRYPT_FAILED")
	ErrAlreadyReceived     = NewFailure(CodeExpired, "ALREADY_RECEIVED")
	ErrConfirmFailed       = NewFailure(CodeWrongOrigin, "CONFIRM_FAILED")
	ErrRepliesNotAllowed   = NewFailure(CodeNotAuthorized, "REPLIES_NOT_ALLOWED")
	ErrIncompleteResponse  = NewFailure("", "INCOMPLETE_RESPONSE")
	ErrRemoteUnavailable   = NewFailure("", "REMOTE_UNAVAILABLE")
)

// AsFailure extracts a *Failure from err's chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
