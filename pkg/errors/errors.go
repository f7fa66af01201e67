package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// AppError is the base interface for all application errors
type AppError interface {
	error
	HTTPStatus() int
	Code() string
}

// NotFoundError represents a resource that was not found
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) HTTPStatus() int {
	return http.StatusNotFound
}

func (e *NotFoundError) Code() string {
	return "NOT_FOUND"
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents invalid input
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

func (e *ValidationError) Code() string {
	return "VALIDATION_ERROR"
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// FieldErrors is a failed form validation: control name -> error tags.
// It never reaches storage.
type FieldErrors map[string]map[string]bool

func (e FieldErrors) Error() string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		tags := make([]string, 0, len(e[name]))
		for tag := range e[name] {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		parts = append(parts, fmt.Sprintf("%s(%s)", name, strings.Join(tags, ",")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e FieldErrors) HTTPStatus() int {
	return http.StatusUnprocessableEntity
}

func (e FieldErrors) Code() string {
	return "VALIDATION_FAILED"
}

// PermissionError represents insufficient permissions
type PermissionError struct {
	Action   string
	Resource string
	UserID   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: cannot %s %s", e.Action, e.Resource)
}

func (e *PermissionError) HTTPStatus() int {
	return http.StatusForbidden
}

func (e *PermissionError) Code() string {
	return "PERMISSION_DENIED"
}

// NewPermissionError creates a new PermissionError
func NewPermissionError(action, resource string) *PermissionError {
	return &PermissionError{Action: action, Resource: resource}
}

// UnauthorizedError represents authentication failures
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unauthorized: %s", e.Reason)
	}
	return "unauthorized"
}

func (e *UnauthorizedError) HTTPStatus() int {
	return http.StatusUnauthorized
}

func (e *UnauthorizedError) Code() string {
	return "UNAUTHORIZED"
}

// NewUnauthorizedError creates a new UnauthorizedError
func NewUnauthorizedError(reason string) *UnauthorizedError {
	return &UnauthorizedError{Reason: reason}
}

// ConflictError represents a conflict with existing data
type ConflictError struct {
	Resource string
	Field    string
	Value    string
}

func (e *ConflictError) Error() string {
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("%s already exists with %s='%s'", e.Resource, e.Field, e.Value)
	}
	return fmt.Sprintf("%s already exists", e.Resource)
}

func (e *ConflictError) HTTPStatus() int {
	return http.StatusConflict
}

func (e *ConflictError) Code() string {
	return "CONFLICT"
}

// NewConflictError creates a new ConflictError
func NewConflictError(resource, field, value string) *ConflictError {
	return &ConflictError{Resource: resource, Field: field, Value: value}
}

// ConfigUnavailableError signals that a module configuration could not be
// loaded and built-in defaults are in use. It is a warning, not a failure.
type ConfigUnavailableError struct {
	Module string
	Cause  error
}

func (e *ConfigUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration for '%s' unavailable, using defaults: %v", e.Module, e.Cause)
	}
	return fmt.Sprintf("configuration for '%s' unavailable, using defaults", e.Module)
}

func (e *ConfigUnavailableError) HTTPStatus() int {
	return http.StatusServiceUnavailable
}

func (e *ConfigUnavailableError) Code() string {
	return "CONFIG_UNAVAILABLE"
}

func (e *ConfigUnavailableError) Unwrap() error {
	return e.Cause
}

// NewConfigUnavailableError creates a new ConfigUnavailableError
func NewConfigUnavailableError(module string, cause error) *ConfigUnavailableError {
	return &ConfigUnavailableError{Module: module, Cause: cause}
}

// MutationFailedError represents a rejected persistence write
type MutationFailedError struct {
	Operation string
	Resource  string
	Cause     error
}

func (e *MutationFailedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s on %s failed: %v", e.Operation, e.Resource, e.Cause)
	}
	return fmt.Sprintf("%s on %s failed", e.Operation, e.Resource)
}

func (e *MutationFailedError) HTTPStatus() int {
	return http.StatusBadGateway
}

func (e *MutationFailedError) Code() string {
	return "MUTATION_FAILED"
}

func (e *MutationFailedError) Unwrap() error {
	return e.Cause
}

// NewMutationFailedError creates a new MutationFailedError
func NewMutationFailedError(operation, resource string, cause error) *MutationFailedError {
	return &MutationFailedError{Operation: operation, Resource: resource, Cause: cause}
}

// InternalError represents unexpected server errors
type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("internal error: %s (caused by: %v)", e.Message, e.Cause)
	}
	return fmt.Sprintf("internal error: %s", e.Message)
}

func (e *InternalError) HTTPStatus() int {
	return http.StatusInternalServerError
}

func (e *InternalError) Code() string {
	return "INTERNAL_ERROR"
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

// NewInternalError creates a new InternalError
func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{Message: message, Cause: cause}
}

// RateLimitError rejects a request over the caller's request budget
type RateLimitError struct {
	Key string
}

func (e *RateLimitError) Error() string {
	return "rate limit exceeded"
}

func (e *RateLimitError) HTTPStatus() int {
	return http.StatusTooManyRequests
}

func (e *RateLimitError) Code() string {
	return "RATE_LIMITED"
}

// NewRateLimitError creates a new RateLimitError
func NewRateLimitError(key string) *RateLimitError {
	return &RateLimitError{Key: key}
}

// Helper functions for error checking

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// IsValidation checks if an error is a ValidationError or FieldErrors
func IsValidation(err error) bool {
	var validation *ValidationError
	if errors.As(err, &validation) {
		return true
	}
	var fieldErrs FieldErrors
	return errors.As(err, &fieldErrs)
}

// IsPermission checks if an error is a PermissionError
func IsPermission(err error) bool {
	var permission *PermissionError
	return errors.As(err, &permission)
}

// IsUnauthorized checks if an error is an UnauthorizedError
func IsUnauthorized(err error) bool {
	var unauthorized *UnauthorizedError
	return errors.As(err, &unauthorized)
}

// IsConflict checks if an error is a ConflictError
func IsConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}

// IsMutationFailed checks if an error is a MutationFailedError
func IsMutationFailed(err error) bool {
	var mutation *MutationFailedError
	return errors.As(err, &mutation)
}

// IsConfigUnavailable checks if an error is a ConfigUnavailableError
func IsConfigUnavailable(err error) bool {
	var unavailable *ConfigUnavailableError
	return errors.As(err, &unavailable)
}

// GetHTTPStatus returns the HTTP status code for an error
// Returns 500 if the error doesn't implement AppError
func GetHTTPStatus(err error) int {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// GetErrorCode returns the error code for an error
// Returns "UNKNOWN_ERROR" if the error doesn't implement AppError
func GetErrorCode(err error) string {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return "UNKNOWN_ERROR"
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ToResponse converts an error to an ErrorResponse
func ToResponse(err error) ErrorResponse {
	resp := ErrorResponse{
		Code:    GetErrorCode(err),
		Message: err.Error(),
	}
	var fieldErrs FieldErrors
	if errors.As(err, &fieldErrs) {
		resp.Details = fieldErrs
	}
	return resp
}
