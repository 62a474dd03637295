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
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// CreateAPIKeyRequest names a new API key
type CreateAPIKeyRequest struct {
	Name      string     `json:"name"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// ListAPIKeys lists the tenant's keys in masked form.
// @Summary List API Keys
// @Description List the tenant's keys in masked form
// @Tags API Keys
// @Produce json
// @Security CookieAuth
// @Param tenantId path string true "Tenant ID"
// @Success 200 {object} map[string]any
// @Failure 403 {object} errorResponse
// @Router /tenants/{tenantId}/api-keys [get]
func (h *Handler) ListAPIKeys(w http.ResponseWriter, r *http.Request) error {
	keys, err := h.apiKeyService.List(r.Context(), TenantIDFrom(r.Context()))
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, map[string]any{"apiKeys": keys})
	return nil
}

// CreateAPIKey issues a key. The response is the only one that carries the
// full key.
// @Summary Create API Key
// @Description Issue a key; the full key is returned only once
// @Tags API Keys
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param tenantId path string true "Tenant ID"
// @Param request body CreateAPIKeyRequest true "Key Data"
// @Success 201 {object} map[string]any
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Router /tenants/{tenantId}/api-keys [post]
func (h *Handler) CreateAPIKey(w http.ResponseWriter, r *http.Request) error {
	var req CreateAPIKeyRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}

	ctx := r.Context()
	created, err := h.apiKeyService.Create(ctx, TenantIDFrom(ctx), UserIDFrom(ctx), req.Name, req.ExpiresAt)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusCreated, map[string]any{"apiKey": created})
	return nil
}

// RevokeAPIKey deletes a key.
// @Summary Delete API Key
// @Description Delete a key
// @Tags API Keys
// @Produce json
// @Security CookieAuth
// @Param tenantId path string true "Tenant ID"
// @Param id path string true "API Key ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /tenants/{tenantId}/api-keys/{id} [delete]
func (h *Handler) RevokeAPIKey(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	if err := h.apiKeyService.Revoke(ctx, TenantIDFrom(ctx), UserIDFrom(ctx), chi.URLParam(r, "id")); err != nil {
		return err
	}
	respondMessage(w, "API key deleted successfully")
	return nil
}
