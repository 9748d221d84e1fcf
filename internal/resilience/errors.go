// Copyright 2024 AI SA Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package resilience shapes failures into API responses and bounds how long
// a unit of work may run.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestIDKey is the gin context key holding the request id
const RequestIDKey = "request_id"

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code,omitempty"`
	Field     string    `json:"field,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorCode is the machine-readable kind of a failure
type ErrorCode string

// Client-side codes
const (
	ErrorCodeBadRequest       ErrorCode = "BAD_REQUEST"
	ErrorCodeValidation       ErrorCode = "VALIDATION_FAILED"
	ErrorCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrorCodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"
	ErrorCodePayloadTooLarge  ErrorCode = "PAYLOAD_TOO_LARGE"
)

// Server-side codes
const (
	ErrorCodeInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrorCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrorCodeTimeout            ErrorCode = "TIMEOUT"
)

var statusByCode = map[ErrorCode]int{
	ErrorCodeBadRequest:         http.StatusBadRequest,
	ErrorCodeValidation:         http.StatusBadRequest,
	ErrorCodeNotFound:           http.StatusNotFound,
	ErrorCodeMethodNotAllowed:   http.StatusMethodNotAllowed,
	ErrorCodePayloadTooLarge:    http.StatusRequestEntityTooLarge,
	ErrorCodeInternalError:      http.StatusInternalServerError,
	ErrorCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrorCodeTimeout:            http.StatusGatewayTimeout,
}

// Status returns the HTTP status a code is served with
func (c ErrorCode) Status() int {
	if status, ok := statusByCode[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ServiceError is a failure the API can show to a client. Message is safe to
// display; Internal keeps the cause for logs and errors.Is.
type ServiceError struct {
	Message    string
	Code       ErrorCode
	StatusCode int
	Field      string
	Internal   error
}

func (e *ServiceError) Error() string { return e.Message }

func (e *ServiceError) Unwrap() error { return e.Internal }

// ToErrorResponse renders the error body for one request
func (e *ServiceError) ToErrorResponse(requestID string) ErrorResponse {
	return ErrorResponse{
		Error:     e.Message,
		Code:      string(e.Code),
		Field:     e.Field,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
	}
}

// NewServiceError builds a ServiceError with an explicit status
func NewServiceError(message string, code ErrorCode, statusCode int, internal error) *ServiceError {
	return &ServiceError{Message: message, Code: code, StatusCode: statusCode, Internal: internal}
}

func newCoded(code ErrorCode, message string, internal error) *ServiceError {
	return NewServiceError(message, code, code.Status(), internal)
}

// NewBadRequestError reports a request that could not be read
func NewBadRequestError(message string, internal error) *ServiceError {
	return newCoded(ErrorCodeBadRequest, message, internal)
}

// NewValidationError reports an invalid request field
func NewValidationError(field, message string, internal error) *ServiceError {
	err := newCoded(ErrorCodeValidation, message, internal)
	err.Field = field
	return err
}

func NewNotFoundError(message string, internal error) *ServiceError {
	return newCoded(ErrorCodeNotFound, message, internal)
}

func NewMethodNotAllowedError(message string, internal error) *ServiceError {
	return newCoded(ErrorCodeMethodNotAllowed, message, internal)
}

func NewPayloadTooLargeError(message string, internal error) *ServiceError {
	return newCoded(ErrorCodePayloadTooLarge, message, internal)
}

// NewInternalError hides internal from the client behind message
func NewInternalError(message string, internal error) *ServiceError {
	return newCoded(ErrorCodeInternalError, message, internal)
}

func NewServiceUnavailableError(message string, internal error) *ServiceError {
	return newCoded(ErrorCodeServiceUnavailable, message, internal)
}

func NewTimeoutError(message string, internal error) *ServiceError {
	return newCoded(ErrorCodeTimeout, message, internal)
}

// ErrorHandler logs failures and writes them as ErrorResponse bodies
type ErrorHandler struct {
	logger *zap.Logger
}

// NewErrorHandler returns an ErrorHandler; a nil logger discards output
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorHandler{logger: logger}
}

// WrapError classifies err. A ServiceError anywhere in the chain is returned
// as is; context errors become timeout or unavailable; anything else is an
// internal error whose message names only the operation.
func (eh *ErrorHandler) WrapError(err error, operation string) *ServiceError {
	if err == nil {
		return nil
	}

	var known *ServiceError
	if errors.As(err, &known) {
		return known
	}

	var wrapped *ServiceError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		wrapped = NewTimeoutError("The operation is taking longer than expected. Please try again.", err)
	case errors.Is(err, context.Canceled):
		wrapped = NewServiceUnavailableError("The request was cancelled before it completed.", err)
	default:
		wrapped = NewInternalError(fmt.Sprintf("An error occurred while %s. Please try again.", operation), err)
	}

	eh.logger.Error("Operation failed",
		zap.String("operation", operation),
		zap.String("error_code", string(wrapped.Code)),
		zap.String("user_message", wrapped.Message),
		zap.Error(err))

	return wrapped
}

// Respond writes err for the current request and aborts the handler chain
func (eh *ErrorHandler) Respond(c *gin.Context, err error, operation string) {
	serviceErr := eh.WrapError(err, operation)
	if serviceErr == nil {
		serviceErr = NewInternalError("An error occurred while "+operation, nil)
	}

	if serviceErr.StatusCode < http.StatusInternalServerError {
		eh.logger.Debug("Request rejected",
			zap.String("operation", operation),
			zap.String("error_code", string(serviceErr.Code)),
			zap.String("field", serviceErr.Field),
			zap.String("message", serviceErr.Message))
	}

	c.AbortWithStatusJSON(serviceErr.StatusCode, serviceErr.ToErrorResponse(c.GetString(RequestIDKey)))
}
