// Package httpapi exposes the order system over JSON/HTTP plus the SSE
// event stream.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/remyvnkhiemtruong/12a6/internal/order/domain"
)

type errorBody struct {
	Kind    domain.Kind `json:"kind"`
	Message string      `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the domain error taxonomy onto HTTP statuses. The
// client-facing message comes from the domain error; internal errors are
// masked.
func writeError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	msg := err.Error()
	var de *domain.Error
	if errors.As(err, &de) {
		msg = de.Message
	}

	status := http.StatusInternalServerError
	switch kind {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindForbidden:
		status = http.StatusForbidden
	case domain.KindInvalidTransition:
		status = http.StatusUnprocessableEntity
	case domain.KindConflict:
		status = http.StatusConflict
	case domain.KindStoreClosed:
		status = http.StatusServiceUnavailable
	case domain.KindInternal:
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: errorBody{Kind: kind, Message: msg}})
}

// decode parses the JSON body into v. An empty body is fine; every
// request type here has usable zero values.
func decode(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return domain.Validationf("invalid request body: %v", err)
	}
	return nil
}
