package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/doodlesbykumbi/orchard/pkg/logger"
	"github.com/doodlesbykumbi/orchard/pkg/server/store"
	"github.com/doodlesbykumbi/orchard/pkg/trees"
)

// Error codes in error response bodies
const (
	codeInvalidRequest = "invalid_request"
	codeNotFound       = "not_found"
	codeInternal       = "internal"
)

// ErrorBody is the payload of the "error" member of an error response
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondWithError(w http.ResponseWriter, code int, payload interface{}) {
	respondWithJSON(w, code, map[string]interface{}{"error": payload})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func badRequest(w http.ResponseWriter, format string, args ...interface{}) {
	respondWithError(w, http.StatusBadRequest, ErrorBody{Code: codeInvalidRequest, Message: fmt.Sprintf(format, args...)})
}

// writeServiceError maps service errors to responses: invalid requests are
// 400, missing entities 404, anything else 500.
func writeServiceError(w http.ResponseWriter, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, trees.ErrInvalidRequest):
		respondWithError(w, http.StatusBadRequest, ErrorBody{Code: codeInvalidRequest, Message: err.Error()})
	case errors.Is(err, trees.ErrNotFound):
		respondWithError(w, http.StatusNotFound, ErrorBody{Code: codeNotFound, Message: err.Error()})
	default:
		log.Error("request failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, ErrorBody{Code: codeInternal, Message: "internal server error"})
	}
}

// pathID parses the numeric path variable name.
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return id, nil
}

// decodeBody reads a JSON request body into v.
func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	return nil
}

// pageFromQuery reads limit and offset query parameters. A limit above max
// is lowered to max; without a limit every row is returned.
func pageFromQuery(r *http.Request, max int) (store.Page, error) {
	var page store.Page
	query := r.URL.Query()

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return page, fmt.Errorf("limit must be a positive integer, got %q", raw)
		}
		if max > 0 && limit > max {
			limit = max
		}
		page.Limit = limit
	}
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return page, fmt.Errorf("offset must be a non-negative integer, got %q", raw)
		}
		page.Offset = offset
	}
	return page, nil
}
