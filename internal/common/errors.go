package common

import (
	"errors"
	"net/http"
)

// Error codes for the enumerable rejection conditions of the tracker. Every
// core operation either succeeds and mutates state, or fails with one of
// these and leaves state unchanged.
const (
	CodeInvalidProduct      = "INVALID_PRODUCT"
	CodeOrderNotStarted     = "ORDER_NOT_STARTED"
	CodeOrderAlreadyStarted = "ORDER_ALREADY_STARTED"
	CodeInvalidLineItem     = "INVALID_LINE_ITEM"
	CodeEmptyOrder          = "EMPTY_ORDER"
	CodeEmptyCatalog        = "EMPTY_CATALOG"
	CodeInvalidDateRange    = "INVALID_DATE_RANGE"
	CodeNoOrdersToClose     = "NO_ORDERS_TO_CLOSE"
	CodeNotFound            = "NOT_FOUND"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// Rejection builds the 400-status AppError used for core operation rejections.
func Rejection(code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: http.StatusBadRequest}
}

// NotFound builds the canonical 404 AppError.
func NotFound(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message, HTTPStatus: http.StatusNotFound}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}

// WriteError renders err through the canonical error payload. Unknown errors
// collapse to a generic 500 without leaking internals.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := appErr.Code
		if code == "" {
			code = "INTERNAL"
		}
		message := appErr.Message
		if message == "" {
			message = "internal error"
		}
		JSONError(w, status, code, message, appErr.Details)
		return
	}
	JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
