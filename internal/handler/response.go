package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/eventsphere/api/internal/model"
)

// DataResponse wraps a successful response
type DataResponse struct {
	Data interface{} `json:"data"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteData writes a successful data response
func WriteData(w http.ResponseWriter, status int, data interface{}) {
	WriteJSON(w, status, DataResponse{Data: data})
}

// WriteError writes an error response using RFC 9457 Problem Details
func WriteError(w http.ResponseWriter, err *model.ProblemDetails) {
	err.WriteJSON(w)
}

// DecodeJSON decodes a JSON request body into the given struct
func DecodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// decodeBody decodes the request body and writes the error response itself
// when decoding fails. Unparseable timestamps are reported as a date
// validation failure rather than a malformed body.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := DecodeJSON(r, v)
	if err == nil {
		return true
	}
	var perr *time.ParseError
	if errors.As(err, &perr) {
		WriteError(w, model.NewValidationError([]model.FieldError{{Field: "dates", Message: "invalid date format"}}))
		return false
	}
	WriteError(w, model.NewBadRequestError("invalid request body"))
	return false
}

// WriteNoContent writes a 204 No Content response
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
