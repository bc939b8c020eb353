package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-exchange/library"
)

func formRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestDecodeFormFillsFields(t *testing.T) {
	var f listForm
	err := decodeForm(formRequest(url.Values{
		"title":    {"Dune"},
		"author":   {"Frank Herbert"},
		"coverUrl": {"http://x/y.jpg"},
	}), &f)
	require.NoError(t, err)
	assert.Equal(t, "Dune", value(f.Title))
	assert.Equal(t, "Frank Herbert", value(f.Author))
	assert.Equal(t, "http://x/y.jpg", f.CoverURL)
}

func TestDecodeFormReportsMissingFields(t *testing.T) {
	var f registerForm
	err := decodeForm(formRequest(url.Values{"username": {"x"}}), &f)
	require.ErrorIs(t, err, library.ErrInvalidInput)
	assert.Contains(t, err.Error(), "missing password, confirm")
}

func TestDecodeFormEmptyValueIsPresent(t *testing.T) {
	var f contactForm
	err := decodeForm(formRequest(url.Values{"email": {""}, "message": {"hi"}}), &f)
	require.NoError(t, err)
	require.NotNil(t, f.Email)
	assert.Equal(t, "", *f.Email)
	assert.Equal(t, "hi", value(f.Message))
}

func TestRateFormStars(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"5", 5, false},
		{" 3 ", 3, false},
		{"-2", -2, false},
		{"99", 99, false},
		{"4.5", 0, true},
		{"five", 0, true},
	}
	for _, tt := range tests {
		got, err := rateForm{Stars: &tt.in}.stars()
		if tt.wantErr {
			assert.ErrorIs(t, err, library.ErrInvalidInput, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, httpStatus(library.ErrInvalidInput))
	assert.Equal(t, http.StatusNotFound, httpStatus(library.ErrBookNotFound))
	assert.Equal(t, http.StatusConflict, httpStatus(library.ErrUsernameTaken))
	assert.Equal(t, http.StatusUnauthorized, httpStatus(library.ErrInvalidCredentials))
	assert.Equal(t, http.StatusInternalServerError, httpStatus(assert.AnError))
}

func TestDecodeFormKeepsWhitespace(t *testing.T) {
	var f loginForm
	err := decodeForm(formRequest(url.Values{"username": {"   "}, "password": {" pw "}}), &f)
	require.NoError(t, err)
	assert.Equal(t, "   ", value(f.Username))
	assert.Equal(t, " pw ", value(f.Password))
}

func TestRateFormMissingStars(t *testing.T) {
	_, err := rateForm{}.stars()
	assert.ErrorIs(t, err, library.ErrInvalidInput)
}
