// Package respond provides helpers for writing uniform JSON responses.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/wb-go/wbf/zlog"
)

type successResponse struct {
	Result any `json:"result"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail any    `json:"detail,omitempty"`
}

// JSON writes a success envelope with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(successResponse{Result: data}); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to encode response")
	}
}

// OK writes a 200 success envelope.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 success envelope.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// Fail writes an error envelope with the given status code.
func Fail(w http.ResponseWriter, status int, err error) {
	FailWithDetail(w, status, err, nil)
}

// FailWithDetail writes an error envelope carrying structured detail, used
// for validation violation lists.
func FailWithDetail(w http.ResponseWriter, status int, err error, detail any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if encErr := json.NewEncoder(w).Encode(errorResponse{Error: err.Error(), Detail: detail}); encErr != nil {
		zlog.Logger.Error().Err(encErr).Msg("failed to encode response")
	}
}
