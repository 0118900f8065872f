package validation

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/greedy/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wishPayload struct {
	Name     string  `json:"name" validate:"required"`
	ImageURL *string `json:"imageUrl" validate:"omitnil,url"`
	Count    int     `json:"count" validate:"min=0,max=3"`
	Nickname *string `json:"nickname,omitempty" validate:"omitnil,min=1,max=1"`
	Secret   string  `json:"-" validate:"max=2"`
}

var testValidator = NewValidator()

func (p *wishPayload) Validate() error {
	return testValidator.Struct(p)
}

type customPayload struct {
	X float64 `json:"x"`
}

func (p *customPayload) Validate() error {
	if p.X > 1 {
		return CustomValidationErrors{{Field: "x", Message: "must be at most 1"}}
	}
	return nil
}

func bind(t *testing.T, body string, payload Validatable) *errs.HTTPError {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := echo.New().NewContext(req, httptest.NewRecorder())

	err := BindAndValidate(c, payload)
	if err == nil {
		return nil
	}
	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr))
	return httpErr
}

func TestBindAndValidate_OK(t *testing.T) {
	var p wishPayload
	assert.Nil(t, bind(t, `{"name":"Kayak","imageUrl":"https://example.com","count":2}`, &p))
	assert.Equal(t, "Kayak", p.Name)
}

func TestBindAndValidate_FieldErrors(t *testing.T) {
	got := bind(t, `{"name":"","imageUrl":"not a url","count":9}`, &wishPayload{})
	require.NotNil(t, got)

	assert.Equal(t, http.StatusBadRequest, got.Status)
	assert.Equal(t, []errs.FieldError{
		{Field: "name", Error: "is required"},
		{Field: "imageUrl", Error: "must be a valid URL"},
		{Field: "count", Error: "must not exceed 3"},
	}, got.Errors)
	assert.Equal(t,
		"Validation failed: name is required; imageUrl must be a valid URL; count must not exceed 3",
		got.Message)
}

func TestBindAndValidate_StringLengthMessages(t *testing.T) {
	got := bind(t, `{"name":"Kayak","nickname":""}`, &wishPayload{})
	require.NotNil(t, got)
	assert.Equal(t, []errs.FieldError{{Field: "nickname", Error: "must not be empty"}}, got.Errors)

	got = bind(t, `{"name":"Kayak","nickname":"kk"}`, &wishPayload{})
	require.NotNil(t, got)
	assert.Equal(t, []errs.FieldError{{Field: "nickname", Error: "must not exceed 1 character"}}, got.Errors)
}

func TestNewValidator_UntaggedNameFallsBack(t *testing.T) {
	err := testValidator.Struct(&wishPayload{Name: "Kayak", Secret: "abc"})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, "Secret", verrs[0].Field())
}

func TestBindAndValidate_CustomErrors(t *testing.T) {
	got := bind(t, `{"x":2}`, &customPayload{})
	require.NotNil(t, got)
	assert.Equal(t, "Validation failed: x must be at most 1", got.Message)
}

func TestBindAndValidate_MalformedJSON(t *testing.T) {
	got := bind(t, `{"name":`, &wishPayload{})
	require.NotNil(t, got)
	assert.Equal(t, http.StatusBadRequest, got.Status)
	assert.Empty(t, got.Errors)
	assert.NotEmpty(t, got.Message)
}

func TestBindAndValidate_TypeMismatch(t *testing.T) {
	got := bind(t, `{"name":"Kayak","count":"two"}`, &wishPayload{})
	require.NotNil(t, got)
	assert.Contains(t, got.Message, "count")
}
