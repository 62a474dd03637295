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
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/datagov/datagov/internal/audit"
	"github.com/datagov/datagov/internal/identity"
	"github.com/datagov/datagov/internal/observability/logger"
	"github.com/datagov/datagov/internal/tenant"
)

// RegisterRequest represents registration data
type RegisterRequest struct {
	Email         string  `json:"email" example:"user@example.com"`
	Password      string  `json:"password" example:"secret123"`
	Name          string  `json:"name" example:"Jane Doe"`
	WorkspaceName *string `json:"workspaceName" example:"Acme"`
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"secret123"`
}

type userResponse struct {
	User identity.Summary `json:"user"`
}

// Register handles user registration
// @Summary Register a new user
// @Description Creates the user, optionally a workspace owned by them, and signs them in
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration Data"
// @Success 200 {object} userResponse
// @Failure 400 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) error {
	var req RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}

	if req.WorkspaceName != nil {
		if err := h.tenantService.CheckName(r.Context(), *req.WorkspaceName); err != nil {
			return err
		}
	}

	user, err := h.identityService.Register(r.Context(), identity.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		return err
	}

	if req.WorkspaceName != nil {
		t, err := h.tenantService.CreateTenant(r.Context(), *req.WorkspaceName, nil, user.ID)
		if err != nil {
			return err
		}
		slog.InfoContext(r.Context(), "workspace created at registration",
			logger.UserID(user.ID),
			logger.TenantID(t.ID),
		)
	}

	if err := h.startSession(w, r, user); err != nil {
		return err
	}

	respondJSON(w, http.StatusOK, userResponse{User: user.Summary()})
	return nil
}

// Login handles user login
// @Summary Login
// @Description Authenticate user and create a session
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} userResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) error {
	var req LoginRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}

	user, err := h.identityService.Authenticate(r.Context(), req.Email, req.Password)
	h.metrics.Login(r.Context(), err == nil)
	if err != nil {
		return err
	}

	if err := h.startSession(w, r, user); err != nil {
		return err
	}

	respondJSON(w, http.StatusOK, userResponse{User: user.Summary()})
	return nil
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, user *identity.User) error {
	sess, err := h.sessions.Create(r.Context(), user, getClientIP(r), r.UserAgent())
	if err != nil {
		return err
	}
	h.setSessionCookie(w, sess.ID)
	return nil
}

// Logout handles user logout
// @Summary Logout
// @Description Destroy the current session. Succeeds without a session too.
// @Tags Auth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) error {
	if sessionID := h.getSessionFromCookie(r); sessionID != "" {
		if err := h.sessions.Destroy(r.Context(), sessionID); err != nil {
			return err
		}
	}

	if p := PrincipalFrom(r.Context()); p != nil {
		h.auditLogger.Log(r.Context(), audit.Event{
			Type:      audit.TypeLogout,
			ActorID:   p.UserID,
			Resource:  "session",
			IPAddress: getClientIP(r),
			UserAgent: r.UserAgent(),
		})
	}

	h.clearSessionCookie(w)
	respondMessage(w, "Logged out successfully")
	return nil
}

// CurrentUser returns the authenticated user
// @Summary Get Current User
// @Tags Auth
// @Produce json
// @Success 200 {object} userResponse
// @Failure 401 {object} errorResponse
// @Router /auth/user [get]
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) error {
	p := PrincipalFrom(r.Context())
	respondJSON(w, http.StatusOK, userResponse{User: identity.Summary{
		ID:    p.UserID,
		Name:  p.Name,
		Email: p.Email,
	}})
	return nil
}

// AcceptInvitation redeems an invitation token for the signed in user.
func (h *Handler) AcceptInvitation(w http.ResponseWriter, r *http.Request) error {
	p := PrincipalFrom(r.Context())
	m, err := h.tenantService.AcceptInvitation(r.Context(), chi.URLParam(r, "token"), p.UserID, p.Email)
	if err != nil {
		if errors.Is(err, tenant.ErrInvitationEmailMismatch) {
			slog.WarnContext(r.Context(), "invitation redeemed by another account", logger.UserID(p.UserID))
		}
		return err
	}

	respondJSON(w, http.StatusOK, map[string]any{"member": m})
	return nil
}
