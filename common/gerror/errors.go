package gerror

import (
	"errors"
	"net/http"
)

const (
	ErrCodeInternal          Code = "Internal"
	ErrCodeValidationFailed  Code = "ValidationFailed"
	ErrCodeShapeViolation    Code = "ShapeViolation"
	ErrCodePlannerViolation  Code = "PlannerViolation"
	ErrCodeTimeout           Code = "Timeout"
	ErrCodeSyncSafeViolation Code = "SyncSafeViolation"
)

// ToError locates an Error in the provided error chain and returns it if it
// matches the provided code. Otherwise, returns nil.
func ToError(err error, code Code) *Error {
	if err == nil {
		return nil
	}
	var gErr Error
	if errors.As(err, &gErr) && gErr.Code() == code {
		return &gErr
	}
	return nil
}

func NewErrInternal() Error {
	return NewError(
		"An internal error occurred",
		AudienceExternal,
		ErrCodeInternal,
		http.StatusInternalServerError,
		nil,
	)
}

func ToInternal(err error) *Error {
	return ToError(err, ErrCodeInternal)
}

func IsInternal(err error) bool {
	return ToInternal(err) != nil
}

func NewErrValidationFailed(message string) Error {
	return NewError(message, AudienceExternal, ErrCodeValidationFailed, http.StatusBadRequest, nil)
}

func ToValidationFailed(err error) *Error {
	return ToError(err, ErrCodeValidationFailed)
}

func IsValidationFailed(err error) bool {
	return ToValidationFailed(err) != nil
}

// NewErrShapeViolation reports that a step returned a non-sequence, a
// sequence of the wrong length, or otherwise broke the column contract.
// This is always a programming error in the step itself. The executor
// commits it as a whole-column ErrorValue on the offending step;
// ExecuteBucket does not return it.
func NewErrShapeViolation(message string) Error {
	return NewError(message, AudienceInternal, ErrCodeShapeViolation, http.StatusInternalServerError, nil)
}

func ToShapeViolation(err error) *Error {
	return ToError(err, ErrCodeShapeViolation)
}

func IsShapeViolation(err error) bool {
	return ToShapeViolation(err) != nil
}

// NewErrSyncSafeViolation reports that a step declared IsSyncAndSafe but
// returned an unresolved or newly-errored cell anyway.
func NewErrSyncSafeViolation(message string) Error {
	return NewError(message, AudienceInternal, ErrCodeSyncSafeViolation, http.StatusInternalServerError, nil)
}

func ToSyncSafeViolation(err error) *Error {
	return ToError(err, ErrCodeSyncSafeViolation)
}

func IsSyncSafeViolation(err error) bool {
	return ToSyncSafeViolation(err) != nil
}

// NewErrPlannerViolation reports a malformed layer plan: an unknown child
// hand-off reason, or a root layer plan appearing as a child.
func NewErrPlannerViolation(message string) Error {
	return NewError(message, AudienceInternal, ErrCodePlannerViolation, http.StatusInternalServerError, nil)
}

func ToPlannerViolation(err error) *Error {
	return ToError(err, ErrCodePlannerViolation)
}

func IsPlannerViolation(err error) bool {
	return ToPlannerViolation(err) != nil
}

func NewErrTimeout(description string) Error {
	return NewError("Timeout: "+description, AudienceInternal, ErrCodeTimeout, http.StatusInternalServerError, nil)
}

func ToTimeout(err error) *Error {
	return ToError(err, ErrCodeTimeout)
}

func IsTimeout(err error) bool {
	return ToTimeout(err) != nil
}
