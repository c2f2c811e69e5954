// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package respond provides HTTP response helpers used by all API handlers.
//
// # Architecture
//
// This package centralizes the presentation logic for HTTP responses.
// Every response (Success or Error) across the entire application follows one
// JSON envelope:
//
//	{"statusCode": 200, "data": {...}, "message": "...", "success": true}
//	{"statusCode": 401, "message": "...", "success": false, "errors": [...]}
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/taibuivan/vidstream/internal/platform/apperr"
	"github.com/taibuivan/vidstream/internal/platform/constants"
	"github.com/taibuivan/vidstream/internal/platform/ctxutil"
	"github.com/taibuivan/vidstream/pkg/pagination"
)

// SuccessEnvelope is the JSON envelope for successful responses.
type SuccessEnvelope struct {
	StatusCode int              `json:"statusCode"`
	Data       any              `json:"data"`
	Meta       *pagination.Meta `json:"meta,omitempty"`
	Message    string           `json:"message"`
	Success    bool             `json:"success"`
}

// ErrorEnvelope is the JSON envelope for error responses.
type ErrorEnvelope struct {
	StatusCode int                 `json:"statusCode"`
	Code       apperr.Code         `json:"code"`
	Message    string              `json:"message"`
	Success    bool                `json:"success"`
	Errors     []apperr.FieldError `json:"errors"`
}

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload any) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// Success writes data wrapped in the standard success envelope.
func Success(writer http.ResponseWriter, statusCode int, data any, message string) {
	JSON(writer, statusCode, SuccessEnvelope{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// OK writes a 200 OK response.
func OK(writer http.ResponseWriter, data any, message string) {
	Success(writer, http.StatusOK, data, message)
}

// Created writes a 201 Created response.
func Created(writer http.ResponseWriter, data any, message string) {
	Success(writer, http.StatusCreated, data, message)
}

// Paginated writes a 200 OK response with a pagination metadata block.
func Paginated(writer http.ResponseWriter, data any, metadata pagination.Meta, message string) {
	JSON(writer, http.StatusOK, SuccessEnvelope{
		StatusCode: http.StatusOK,
		Data:       data,
		Meta:       &metadata,
		Message:    message,
		Success:    true,
	})
}

// Error converts any Go error into a standardized JSON API error response.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	logger := ctxutil.GetLogger(request.Context())

	var appError *apperr.AppError
	if !errors.As(err, &appError) {
		// Unexpected internal error: log full details but hide them from the client.
		logger.ErrorContext(request.Context(), "unhandled_error_swallowed",
			slog.String("error", err.Error()),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
		)
		appError = apperr.Internal(err)
	}

	// Always log 5xx errors as they indicate server-side issues.
	if appError.HTTPStatus >= http.StatusInternalServerError {
		logger.ErrorContext(request.Context(), "api_server_error",
			slog.String("code", string(appError.Code)),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
			slog.Any("cause", appError.Cause),
		)
	}

	if appError.Retryable && writer.Header().Get(constants.HeaderRetryAfter) == "" {
		writer.Header().Set(constants.HeaderRetryAfter, "1")
	}

	details := appError.Details
	if details == nil {
		details = []apperr.FieldError{}
	}

	JSON(writer, appError.HTTPStatus, ErrorEnvelope{
		StatusCode: appError.HTTPStatus,
		Code:       appError.Code,
		Message:    appError.Message,
		Success:    false,
		Errors:     details,
	})
}
