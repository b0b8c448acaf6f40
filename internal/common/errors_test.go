package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindAndStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		kind   string
		status int
	}{
		{Invalid("title is required"), KindValidation, http.StatusBadRequest},
		{fmt.Errorf("goal 3: %w", ErrNotFound), KindNotFound, http.StatusNotFound},
		{fmt.Errorf("email taken: %w", ErrConflict), KindDuplicate, http.StatusConflict},
		{&PrerequisiteError{Missing: []int64{4}}, KindPrecondition, http.StatusBadRequest},
		{ErrUnauthorized, KindAuth, http.StatusUnauthorized},
		{fmt.Errorf("conn reset: %w", ErrTransient), KindTransient, http.StatusServiceUnavailable},
		{&pgconn.PgError{Code: "23505"}, KindDuplicate, http.StatusConflict},
		{errors.New("boom"), KindInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, KindOf(tc.err), tc.err.Error())
		assert.Equal(t, tc.status, HTTPStatusFromError(tc.err), tc.err.Error())
	}
}

func TestPrerequisiteErrorMessage(t *testing.T) {
	err := error(&PrerequisiteError{Missing: []int64{3, 9}})
	assert.Equal(t, "Complete prerequisite challenge(s) first: 3, 9", err.Error())
	assert.True(t, errors.Is(err, ErrPrecondition))
}

func TestRespondWithDomainError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithDomainError(rec, fmt.Errorf("wrap: %w", &PrerequisiteError{Missing: []int64{5}}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	assert.Equal(t, KindPrecondition, body.Error.Kind)
	assert.Equal(t, []int64{5}, body.Error.Missing)

	rec = httptest.NewRecorder()
	RespondWithDomainError(rec, Invalid("title is required"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Title is required", body.Message)

	rec = httptest.NewRecorder()
	RespondWithDomainError(rec, fmt.Errorf("invalid password: %w", ErrUnauthorized))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid password", body.Message)

	rec = httptest.NewRecorder()
	RespondWithDomainError(rec, errors.New("pq: relation does not exist"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", body.Message)
}
