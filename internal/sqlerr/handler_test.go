package sqlerr

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/deppfellow/greedy/internal/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handle(t *testing.T, err error) *errs.HTTPError {
	t.Helper()
	var httpErr *errs.HTTPError
	require.ErrorAs(t, HandleError(err), &httpErr)
	return httpErr
}

func TestHandleError_NoRows(t *testing.T) {
	got := handle(t, fmt.Errorf("updating desire: %w", WithTable("desires", pgx.ErrNoRows)))
	assert.Equal(t, http.StatusNotFound, got.Status)
	assert.Equal(t, "Desire not found", got.Message)
	assert.Equal(t, "DESIRE_NOT_FOUND", got.Code)

	got = handle(t, sql.ErrNoRows)
	assert.Equal(t, "Resource not found", got.Message)
	assert.Equal(t, "NOT_FOUND", got.Code)
}

func TestHandleError_CheckViolation(t *testing.T) {
	got := handle(t, fmt.Errorf("creating desire: %w", &pgconn.PgError{
		Code:           "23514",
		Severity:       "ERROR",
		TableName:      "desires",
		ConstraintName: "desires_importance_check",
	}))

	assert.Equal(t, http.StatusBadRequest, got.Status)
	assert.Equal(t, "DESIRE_INVALID", got.Code)
	assert.Equal(t, "The Importance value does not meet required conditions", got.Message)
	assert.Equal(t, []errs.FieldError{{Field: "importance", Error: "is invalid"}}, got.Errors)
}

func TestHandleError_NotNullViolation(t *testing.T) {
	got := handle(t, &pgconn.PgError{Code: "23502", TableName: "desires", ColumnName: "name"})

	assert.Equal(t, http.StatusBadRequest, got.Status)
	assert.Equal(t, "DESIRE_REQUIRED", got.Code)
	assert.Equal(t, "The Name is required", got.Message)
	require.Len(t, got.Errors, 1)
	assert.Equal(t, "name", got.Errors[0].Field)
}

func TestHandleError_UniqueViolation(t *testing.T) {
	got := handle(t, &pgconn.PgError{Code: "23505", TableName: "desires", ConstraintName: "desires_pkey"})
	assert.Equal(t, http.StatusBadRequest, got.Status)
	assert.Equal(t, "DESIRE_ALREADY_EXISTS", got.Code)
}

func TestHandleError_InvalidTextRepresentation(t *testing.T) {
	got := handle(t, &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "42"`})
	assert.Equal(t, http.StatusBadRequest, got.Status)
	assert.NotContains(t, got.Message, "uuid")
}

func TestHandleError_Generic(t *testing.T) {
	for _, err := range []error{
		errors.New("connection reset by peer"),
		&pgconn.PgError{Code: "53300"},
	} {
		got := handle(t, err)
		assert.Equal(t, http.StatusInternalServerError, got.Status)
		assert.Equal(t, "Internal Server Error", got.Message)
	}
}

func TestHandleError_KeepsHTTPError(t *testing.T) {
	original := errs.NewNotFoundError("Desire not found", true, nil)
	assert.Same(t, original, HandleError(original))
}

func TestExtractColumnForCheckViolation(t *testing.T) {
	assert.Equal(t, "urgency", extractColumnForCheckViolation("desires", "desires_urgency_check"))
	assert.Equal(t, "image_url", extractColumnForCheckViolation("desires", "desires_image_url_check"))
	assert.Equal(t, "", extractColumnForCheckViolation("desires", "desires_pkey"))
}

func TestMapCodeAndSeverity(t *testing.T) {
	assert.Equal(t, CheckViolation, MapCode("23514"))
	assert.Equal(t, Other, MapCode("XX000"))
	assert.Equal(t, SeverityFatal, MapSeverity("FATAL"))
	assert.Equal(t, SeverityError, MapSeverity("whatever"))

	converted := ConvertPgError(&pgconn.PgError{Code: "23505", Severity: "ERROR"})
	assert.Equal(t, UniqueViolation, ErrCode(fmt.Errorf("wrapped: %w", converted)))
	assert.Equal(t, Other, ErrCode(errors.New("plain")))
}
