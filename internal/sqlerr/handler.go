package sqlerr

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/deppfellow/greedy/internal/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// tableError records which table a "no rows" error came from.
type tableError struct {
	table string
	err   error
}

func (e *tableError) Error() string {
	return "table " + e.table + ": " + e.err.Error()
}

func (e *tableError) Unwrap() error {
	return e.err
}

// WithTable annotates err with the table it came from so HandleError can
// produce "<Entity> not found" messages:
//
//	return sqlerr.WithTable("desires", pgx.ErrNoRows) // -> "Desire not found"
func WithTable(table string, err error) error {
	return &tableError{table: table, err: err}
}

// ErrCode returns the Code of the first *Error in err's chain, or Other.
func ErrCode(err error) Code {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code
	}
	return Other
}

// ConvertPgError normalizes a raw Postgres error.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// generateErrorCode builds machine readable codes of the form
// <ENTITY>_<ACTION>, e.g. desires + CheckViolation -> DESIRE_INVALID.
func generateErrorCode(tableName string, errType Code) string {
	domain := "RECORD"
	if tableName != "" {
		domain = strings.ToUpper(singular(tableName))
	}

	action := "ERROR"
	switch errType {
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case UniqueViolation:
		action = "ALREADY_EXISTS"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation:
		action = "INVALID"
	case InvalidTextRep:
		action = "MALFORMED"
	}

	return domain + "_" + action
}

// formatUserFriendlyMessage phrases a constraint failure for API clients.
func formatUserFriendlyMessage(sqlErr *Error) string {
	entityName := getEntityName(sqlErr.TableName, sqlErr.ColumnName)

	switch sqlErr.Code {
	case ForeignKeyViolation:
		return fmt.Sprintf("The referenced %s does not exist", entityName)

	case UniqueViolation:
		// "identifier" is swapped for the column when it can be inferred.
		return fmt.Sprintf("A %s with this identifier already exists", entityName)

	case NotNullViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName == "" {
			fieldName = "field"
		}
		return fmt.Sprintf("The %s is required", fieldName)

	case CheckViolation:
		if fieldName := humanizeText(sqlErr.ColumnName); fieldName != "" {
			return fmt.Sprintf("The %s value does not meet required conditions", fieldName)
		}
		return "One or more values do not meet required conditions"

	default:
		return "An error occurred while processing your request"
	}
}

// getEntityName prefers a "<entity>_id" column, then the singular table
// name, then "record".
func getEntityName(tableName, columnName string) string {
	if col := strings.ToLower(columnName); strings.HasSuffix(col, "_id") {
		return humanizeText(strings.TrimSuffix(col, "_id"))
	}
	if tableName != "" {
		return humanizeText(singular(tableName))
	}
	return "record"
}

// singular drops one trailing "s"; enough for the tables this service owns.
func singular(table string) string {
	if len(table) > 1 {
		return strings.TrimSuffix(table, "s")
	}
	return table
}

// humanizeText turns "image_url" into "Image Url".
func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

var uniqueKeyPattern = regexp.MustCompile(`_([^_]+)_(?:key|ukey)$`)

// extractColumnForUniqueViolation understands "unique_<table>_<column>"
// and Postgres' default "<table>_<column>_key".
func extractColumnForUniqueViolation(constraintName string) string {
	if strings.HasPrefix(constraintName, "unique_") {
		if parts := strings.Split(constraintName, "_"); len(parts) >= 3 {
			return parts[len(parts)-1]
		}
	}
	if m := uniqueKeyPattern.FindStringSubmatch(constraintName); len(m) > 1 {
		return m[1]
	}
	return ""
}

// extractColumnForCheckViolation infers the column from Postgres' default
// CHECK constraint naming: "<table>_<column>_check".
//
//	desires_importance_check -> "importance"
func extractColumnForCheckViolation(tableName, constraintName string) string {
	if !strings.HasSuffix(constraintName, "_check") {
		return ""
	}
	column := strings.TrimSuffix(constraintName, "_check")
	if tableName != "" {
		column = strings.TrimPrefix(column, tableName+"_")
	}
	return column
}

// HandleError converts a database error into an *errs.HTTPError.
//
//   - *errs.HTTPError: returned unchanged
//   - constraint violations and malformed values: 400
//   - pgx.ErrNoRows / sql.ErrNoRows: 404, named and coded after the
//     WithTable table ("Desire not found", DESIRE_NOT_FOUND)
//   - anything else: a generic 500
func HandleError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		return handlePgError(ConvertPgError(pgerr))
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		var tErr *tableError
		if errors.As(err, &tErr) {
			code := generateErrorCode(tErr.table, ForeignKeyViolation)
			return errs.NewNotFoundError(getEntityName(tErr.table, "")+" not found", true, &code)
		}
		return errs.NewNotFoundError("Resource not found", false, nil)
	}

	return errs.NewInternalServerError()
}

func handlePgError(sqlErr *Error) error {
	// Postgres leaves ColumnName empty for CHECK violations.
	if sqlErr.Code == CheckViolation && sqlErr.ColumnName == "" {
		sqlErr.ColumnName = extractColumnForCheckViolation(sqlErr.TableName, sqlErr.ConstraintName)
	}

	errorCode := generateErrorCode(sqlErr.TableName, sqlErr.Code)
	userMessage := formatUserFriendlyMessage(sqlErr)

	switch sqlErr.Code {
	case ForeignKeyViolation:
		return errs.NewBadRequestError(userMessage, false, &errorCode, nil)

	case UniqueViolation:
		if column := extractColumnForUniqueViolation(sqlErr.ConstraintName); column != "" {
			userMessage = strings.ReplaceAll(userMessage, "identifier", humanizeText(column))
		}
		return errs.NewBadRequestError(userMessage, true, &errorCode, nil)

	case NotNullViolation:
		fieldErrors := []errs.FieldError{{Field: strings.ToLower(sqlErr.ColumnName), Error: "is required"}}
		return errs.NewBadRequestError(userMessage, true, &errorCode, fieldErrors)

	case CheckViolation:
		var fieldErrors []errs.FieldError
		if sqlErr.ColumnName != "" {
			fieldErrors = []errs.FieldError{{Field: sqlErr.ColumnName, Error: "is invalid"}}
		}
		return errs.NewBadRequestError(userMessage, true, &errorCode, fieldErrors)

	case InvalidTextRep:
		// e.g. a malformed uuid or timestamp literal reaching the database.
		return errs.NewBadRequestError("One or more values have an invalid format", true, &errorCode, nil)

	default:
		return errs.NewInternalServerError()
	}
}
