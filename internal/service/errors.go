package service

import (
	"errors"
	"net/http"

	"github.com/KaramelBytes/wavepeak-cli/internal/dataset"
	"github.com/KaramelBytes/wavepeak-cli/internal/wave"
)

// Error codes reported to CLI and HTTP callers.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeUnitNotFound     = "UNIT_NOT_FOUND"
	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeNoExtremum       = "NO_EXTREMUM"
	CodeNoTrough         = "NO_TROUGH"
	CodeFetchFailed      = "FETCH_FAILED"
	CodeInvalidDataset   = "INVALID_DATASET"
)

// ServiceError is a classified failure with a stable code.
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.Err }

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{Code: code, Message: message}
}

// HTTPStatus maps the error code to a response status.
func (e *ServiceError) HTTPStatus() int {
	switch e.Code {
	case CodeInvalidRequest:
		return http.StatusBadRequest
	case CodeUnitNotFound:
		return http.StatusNotFound
	case CodeInsufficientData, CodeNoExtremum, CodeNoTrough, CodeInvalidDataset:
		return http.StatusUnprocessableEntity
	case CodeFetchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// classify wraps err in a ServiceError carrying unit context.
func classify(err error, unit string, kind dataset.Kind) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	details := map[string]interface{}{}
	if unit != "" {
		details["unit"] = unit
		details["kind"] = string(kind)
	}
	code := CodeInvalidDataset
	var (
		nf  *dataset.UnitNotFoundError
		ide *wave.InsufficientDataError
		nve *wave.NoValidExtremumError
		nte *wave.NoTroughFoundError
	)
	switch {
	case errors.As(err, &nf):
		code = CodeUnitNotFound
	case errors.As(err, &ide):
		code = CodeInsufficientData
		details["points"] = ide.Points
	case errors.As(err, &nte):
		code = CodeNoTrough
		details["reason"] = nte.Reason
	case errors.As(err, &nve):
		code = CodeNoExtremum
		details["mode"] = nve.Mode.String()
	}
	msg := err.Error()
	if unit != "" && code != CodeUnitNotFound {
		msg = unit + ": " + msg
	}
	if len(details) == 0 {
		details = nil
	}
	return &ServiceError{Code: code, Message: msg, Details: details, Err: err}
}
