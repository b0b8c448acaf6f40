package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Envelope is the single response shape for every endpoint.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Kind    string  `json:"kind"`
	Missing []int64 `json:"missing,omitempty"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	kind := KindInternal
	switch code {
	case http.StatusBadRequest:
		kind = KindValidation
	case http.StatusUnauthorized:
		kind = KindAuth
	case http.StatusForbidden:
		kind = KindForbidden
	case http.StatusNotFound:
		kind = KindNotFound
	case http.StatusConflict:
		kind = KindDuplicate
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		kind = KindTransient
	}
	RespondWithJSON(w, code, Envelope{Success: false, Message: message, Error: &ErrorBody{Kind: kind}})
}

// RespondWithDomainError writes err with the status and kind derived from it.
// Internal errors are reported without their message.
func RespondWithDomainError(w http.ResponseWriter, err error) {
	kind := KindOf(err)
	body := &ErrorBody{Kind: kind}
	var prereq *PrerequisiteError
	if errors.As(err, &prereq) {
		body.Missing = prereq.Missing
	}
	message := err.Error()
	switch kind {
	case KindInternal:
		message = "Internal server error"
	case KindTransient:
		message = "Service temporarily unavailable, please retry"
	default:
		message = capitalize(trimKindSuffix(message))
	}
	RespondWithJSON(w, HTTPStatusFromError(err), Envelope{Success: false, Message: message, Error: body})
}

func RespondWithData(w http.ResponseWriter, code int, message string, data interface{}) {
	RespondWithJSON(w, code, Envelope{Success: true, Message: message, Data: data})
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"message":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// trimKindSuffix drops the trailing ": <sentinel text>" added by %w wrapping.
func trimKindSuffix(message string) string {
	for _, sentinel := range []error{ErrValidation, ErrNotFound, ErrConflict, ErrUnauthorized, ErrForbidden, ErrBadRequest} {
		suffix := ": " + sentinel.Error()
		if strings.HasSuffix(message, suffix) {
			return strings.TrimSuffix(message, suffix)
		}
	}
	return message
}

// capitalize upper-cases the first rune; error strings stay lower-case internally.
func capitalize(message string) string {
	r, size := utf8.DecodeRuneInString(message)
	if r == utf8.RuneError {
		return message
	}
	return string(unicode.ToUpper(r)) + message[size:]
}
