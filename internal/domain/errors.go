package domain

import "fmt"

// Error types for consistent error handling across the report pipelines.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrInvalidCredential indicates the upstream rejected the API token (401).
// Surfaced to the caller as "check your API key" — never retried.
type ErrInvalidCredential struct {
	Service string
}

func (e *ErrInvalidCredential) Error() string {
	return fmt.Sprintf("invalid or expired API token for %s", e.Service)
}

// ErrBadRequest indicates the upstream rejected the request itself (400),
// usually a date-range violation.
type ErrBadRequest struct {
	Service string
	Message string
}

func (e *ErrBadRequest) Error() string {
	return fmt.Sprintf("bad request to %s: %s", e.Service, e.Message)
}

// ErrRetryBudgetExhausted indicates repeated 429 responses consumed the
// whole retry budget.
type ErrRetryBudgetExhausted struct {
	Service  string
	Attempts int
}

func (e *ErrRetryBudgetExhausted) Error() string {
	return fmt.Sprintf("rate limit retry budget exhausted for %s after %d attempts", e.Service, e.Attempts)
}

// ErrUpstreamUnavailable indicates 5xx or network failures that persisted
// through the retry budget.
type ErrUpstreamUnavailable struct {
	Service string
	Err     error
}

func (e *ErrUpstreamUnavailable) Error() string {
	return fmt.Sprintf("upstream unavailable [%s]: %v", e.Service, e.Err)
}

func (e *ErrUpstreamUnavailable) Unwrap() error {
	return e.Err
}

// ErrMalformedResponse indicates the upstream returned a body that could not
// be decoded into the expected shape.
type ErrMalformedResponse struct {
	Service string
	Err     error
}

func (e *ErrMalformedResponse) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.Service, e.Err)
}

func (e *ErrMalformedResponse) Unwrap() error {
	return e.Err
}

// ErrJobCreationFailed indicates the report-generation job call returned no
// task id.
type ErrJobCreationFailed struct {
	Kind string
}

func (e *ErrJobCreationFailed) Error() string {
	return fmt.Sprintf("failed to create %s report task: no task id returned", e.Kind)
}

// ErrUpstreamJobFailed indicates the upstream marked a report task as failed.
type ErrUpstreamJobFailed struct {
	Kind   string
	TaskID string
	Status string
}

func (e *ErrUpstreamJobFailed) Error() string {
	return fmt.Sprintf("%s report task %s failed upstream (status %q)", e.Kind, e.TaskID, e.Status)
}

// ErrJobTimeout indicates a report task did not finish within the poll budget.
type ErrJobTimeout struct {
	Kind  string
	Polls int
}

func (e *ErrJobTimeout) Error() string {
	return fmt.Sprintf("%s report task still pending after %d polls", e.Kind, e.Polls)
}

// ErrTooManyPages indicates pagination exceeded its safety bound; this is a
// fatal condition, never a silent truncation.
type ErrTooManyPages struct {
	Endpoint string
	Pages    int
}

func (e *ErrTooManyPages) Error() string {
	return fmt.Sprintf("pagination of %s aborted after %d pages", e.Endpoint, e.Pages)
}

// ErrExternalService indicates a failure in an external collaborator call
// (credential store, cost-price store).
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open for an upstream host.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}
