package app

import (
	"errors"
	"fmt"
	"net/http"

	"picksheet/api/internal/archive"
	"picksheet/api/internal/document"
	"picksheet/api/internal/export"
	"picksheet/api/internal/persist"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}

	var formatErr *document.FormatError
	if errors.As(err, &formatErr) {
		return http.StatusUnprocessableEntity, "FORMAT_ERROR", formatErr.Error(), nil
	}
	var validationErr *document.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", validationErr.Error(), nil
	}
	var duplicateErr *document.DuplicatePickError
	if errors.As(err, &duplicateErr) {
		return http.StatusConflict, "DUPLICATE_PICK", duplicateErr.Error(), map[string]any{
			"rowIndex": duplicateErr.RowIndex,
			"area":     duplicateErr.Area,
			"src":      duplicateErr.Ref,
		}
	}
	var preconditionErr *document.PreconditionError
	if errors.As(err, &preconditionErr) {
		return http.StatusConflict, "PRECONDITION_FAILED", preconditionErr.Error(), nil
	}
	var storageErr *persist.StorageError
	if errors.As(err, &storageErr) {
		return http.StatusServiceUnavailable, "STORAGE_ERROR", "State storage unavailable", nil
	}

	switch {
	case errors.Is(err, export.ErrNoStats):
		return http.StatusConflict, "STATS_EMPTY", "No committed entries for the active stage", nil
	case errors.Is(err, export.ErrPDFDependencyMissing):
		return http.StatusNotImplemented, "PDF_UNAVAILABLE", "PDF rendering is not available on this server", nil
	case errors.Is(err, archive.ErrDisabled):
		return http.StatusNotImplemented, "ARCHIVE_DISABLED", "Snapshot archive is not configured", nil
	case errors.Is(err, ErrLocked):
		return http.StatusUnauthorized, "LOCKED", "Editor is locked", nil
	case errors.Is(err, ErrBadPassphrase):
		return http.StatusUnauthorized, "BAD_PASSPHRASE", "Wrong passphrase", nil
	}

	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
