// Copyright 2026 The Datagov Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/datagov/datagov/internal/apikey"
	"github.com/datagov/datagov/internal/authz"
	"github.com/datagov/datagov/internal/dataset"
	"github.com/datagov/datagov/internal/identity"
	"github.com/datagov/datagov/internal/job"
	"github.com/datagov/datagov/internal/observability/logger"
	"github.com/datagov/datagov/internal/session"
	"github.com/datagov/datagov/internal/tenant"
	"github.com/datagov/datagov/internal/validation"
)

const (
	msgValidation    = "Validation error"
	msgConflict      = "resource already exists"
	msgReference     = "referenced resource not found"
	msgNotFound      = "resource not found"
	msgTooLarge      = "request body too large"
	msgInternalError = "internal server error"
)

var errRateLimited = errors.New("too many requests")

// Postgres SQLSTATE codes surfaced to clients.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidTextRepr     = "22P02"
)

type errorResponse struct {
	Error   string                  `json:"error"`
	Details []validation.FieldError `json:"details,omitempty"`
}

type sentinel struct {
	err    error
	status int
}

// Domain errors whose message is safe to show as is. Order matters only for
// errors that wrap one another.
var sentinels = []sentinel{
	{authz.ErrUnauthenticated, http.StatusUnauthorized},
	{identity.ErrInvalidCredentials, http.StatusUnauthorized},
	{session.ErrSessionNotFound, http.StatusUnauthorized},
	{session.ErrSessionExpired, http.StatusUnauthorized},
	{session.ErrSessionInvalid, http.StatusUnauthorized},

	{authz.ErrTenantRequired, http.StatusBadRequest},
	{tenant.ErrInvalidRole, http.StatusBadRequest},

	{authz.ErrAccessDenied, http.StatusForbidden},
	{authz.ErrInsufficientPermissions, http.StatusForbidden},
	{tenant.ErrCannotRemoveOwner, http.StatusForbidden},
	{tenant.ErrInvitationEmailMismatch, http.StatusForbidden},

	{tenant.ErrTenantNotFound, http.StatusNotFound},
	{tenant.ErrMemberNotFound, http.StatusNotFound},
	{tenant.ErrInvitationNotFound, http.StatusNotFound},
	{dataset.ErrDatasetNotFound, http.StatusNotFound},
	{job.ErrJobNotFound, http.StatusNotFound},
	{job.ErrRunNotFound, http.StatusNotFound},
	{apikey.ErrAPIKeyNotFound, http.StatusNotFound},
	{identity.ErrUserNotFound, http.StatusNotFound},

	{identity.ErrUserAlreadyExists, http.StatusConflict},
	{tenant.ErrAlreadyMember, http.StatusConflict},
	{tenant.ErrLastOwner, http.StatusConflict},
	{tenant.ErrSlugTaken, http.StatusConflict},

	{errRateLimited, http.StatusTooManyRequests},
}

// panicError carries a recovered panic and the stack it was raised on.
type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

// classify maps err to a status code and client body. It is the only place
// where failures are translated for clients.
func classify(err error) (int, errorResponse) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return http.StatusBadRequest, errorResponse{Error: msgValidation, Details: verr.Details}
	}

	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.status, errorResponse{Error: s.err.Error()}
		}
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, errorResponse{Error: msgTooLarge}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return http.StatusConflict, errorResponse{Error: msgConflict}
		case pgForeignKeyViolation:
			return http.StatusNotFound, errorResponse{Error: msgReference}
		case pgInvalidTextRepr:
			return http.StatusNotFound, errorResponse{Error: msgNotFound}
		}
	}

	return http.StatusInternalServerError, errorResponse{Error: msgInternalError}
}

// respondErr logs err and writes its normalized response. Server errors always
// carry a stack; client errors carry one when debug logging is on.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	ctx := r.Context()

	attrs := []any{
		logger.RequestID(middleware.GetReqID(ctx)),
		logger.Method(r.Method),
		logger.Path(r.URL.Path),
		logger.StatusCode(status),
		logger.Error(err),
	}

	if status >= http.StatusInternalServerError {
		var pe *panicError
		if errors.As(err, &pe) {
			attrs = append(attrs, logger.Stack(pe.stack))
		} else {
			attrs = append(attrs, logger.Stack(debug.Stack()))
		}
		slog.ErrorContext(ctx, "request_failed", attrs...)
	} else {
		if slog.Default().Enabled(ctx, slog.LevelDebug) {
			attrs = append(attrs, logger.Stack(debug.Stack()))
		}
		slog.WarnContext(ctx, "request_rejected", attrs...)
	}

	respondJSON(w, status, body)
}

// handle adapts an error returning handler to http.HandlerFunc.
func handle(fn func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			respondErr(w, r, err)
		}
	}
}
