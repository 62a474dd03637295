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

	"github.com/go-chi/chi/v5"

	"github.com/datagov/datagov/internal/authz"
	"github.com/datagov/datagov/internal/tenant"
)

// CreateTenantRequest represents tenant creation data
type CreateTenantRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// UpdateTenantRequest carries optional tenant changes
type UpdateTenantRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// InviteMemberRequest represents a member invitation
type InviteMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UpdateRoleRequest carries a new member role
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// ListTenants lists the caller's tenants with the role held in each.
// @Summary List Tenants
// @Description List the caller's tenants with their role
// @Tags Tenant
// @Produce json
// @Security CookieAuth
// @Success 200 {object} map[string]any
// @Failure 401 {object} errorResponse
// @Router /tenants [get]
func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) error {
	tenants, err := h.tenantService.ListTenants(r.Context(), UserIDFrom(r.Context()))
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, map[string]any{"tenants": tenants})
	return nil
}

// CreateTenant creates a tenant owned by the caller.
// @Summary Create Tenant
// @Description Create a tenant owned by the caller
// @Tags Tenant
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body CreateTenantRequest true "Tenant Data"
// @Success 201 {object} map[string]any
// @Failure 400 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /tenants [post]
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) error {
	var req CreateTenantRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}

	t, err := h.tenantService.CreateTenant(r.Context(), req.Name, req.Description, UserIDFrom(r.Context()))
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusCreated, map[string]any{"tenant": t})
	return nil
}

// GetTenant returns the tenant.
// @Summary Get Tenant
// @Description Get a tenant
// @Tags Tenant
// @Produce json
// @Security CookieAuth
// @Param tenantId path string true "Tenant ID"
// @Success 200 {object} map[string]any
// @Failure 403 {object} errorResponse
// @Router /tenants/{tenantId} [get]
func (h *Handler) GetTenant(w http.ResponseWriter, r *http.Request) error {
	t, err := h.tenantService.GetTenant(r.Context(), TenantIDFrom(r.Context()))
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, map[string]any{"tenant": t})
	return nil
}

// UpdateTenant renames or re-describes the tenant.
// @Summary Update Tenant
// @Description Rename or re-describe a tenant
// @Tags Tenant
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param tenantId path string true "Tenant ID"
// @Param request body UpdateTenantRequest true "Tenant Changes"
// @Success 200 {object} map[string]any
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /tenants/{tenantId} [patch]
func (h *Handler) UpdateTenant(w http.ResponseWriter, r *http.Request) error {
	var req UpdateTenantRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}

	ctx := r.Context()
	t, err := h.tenantService.UpdateTenant(ctx, TenantIDFrom(ctx), UserIDFrom(ctx), req.Name, req.Description)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, map[string]any{"tenant": t})
	return nil
}

// DeleteTenant deletes the tenant and everything it owns.
// @Summary Delete Tenant
// @Description Delete a tenant and everything it owns
// @Tags Tenant
// @Produce json
// @Security CookieAuth
// @Param tenantId path string true "Tenant ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} errorResponse
// @Router /tenants/{tenantId} [delete]
func (h *Handler) DeleteTenant(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	if err := h.tenantService.DeleteTenant(ctx, TenantIDFrom(ctx), UserIDFrom(ctx)); err != nil {
		return err
	}
	respondMessage(w, "Tenant deleted successfully")
	return nil
}

// ListMembers lists the tenant's members.
// @Summary List Members
// @Description List tenant members
// @Tags Members
// @Produce json
// @Security CookieAuth
// @Param tenantId path string true "Tenant ID"
// @Success 200 {object} map[string]any
// @Failure 403 {object} errorResponse
// @Router /tenants/{tenantId}/members [get]
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) error {
	members, err := h.tenantService.ListMembers(r.Context(), TenantIDFrom(r.Context()))
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, map[string]any{"members": members})
	return nil
}

// InviteMember adds an existing user to the tenant or invites a new one.
// @Summary Invite Member
// @Description Add an existing user or create an invitation
// @Tags Members
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param tenantId path string true "Tenant ID"
// @Param request body InviteMemberRequest true "Invitation"
// @Success 200 {object} map[string]any
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /tenants/{tenantId}/members/invite [post]
func (h *Handler) InviteMember(w http.ResponseWriter, r *http.Request) error {
	var req InviteMemberRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}

	role, ok := authz.ParseRole(req.Role)
	if !ok {
		return tenant.ErrInvalidRole
	}

	ctx := r.Context()
	res, err := h.tenantService.InviteMember(ctx, TenantIDFrom(ctx), UserIDFrom(ctx), req.Email, role)
	if err != nil {
		return err
	}

	if res.Invitation == nil {
		respondMessage(w, "User added to workspace")
		return nil
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message":   "Invitation sent",
		"token":     res.Invitation.Token,
		"expiresAt": res.Invitation.ExpiresAt,
	})
	return nil
}

// RemoveMember removes a non-owner member.
// @Summary Remove Member
// @Description Remove a non-owner member
// @Tags Members
// @Produce json
// @Security CookieAuth
// @Param tenantId path string true "Tenant ID"
// @Param userId path string true "User ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /tenants/{tenantId}/members/{userId} [delete]
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	if err := h.tenantService.RemoveMember(ctx, TenantIDFrom(ctx), UserIDFrom(ctx), chi.URLParam(r, "userId")); err != nil {
		return err
	}
	respondMessage(w, "Member removed successfully")
	return nil
}

// ChangeMemberRole sets a member's role.
// @Summary Change Member Role
// @Description Set a member's role
// @Tags Members
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param tenantId path string true "Tenant ID"
// @Param userId path string true "User ID"
// @Param request body UpdateRoleRequest true "Role"
// @Success 200 {object} map[string]any
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /tenants/{tenantId}/members/{userId}/role [patch]
func (h *Handler) ChangeMemberRole(w http.ResponseWriter, r *http.Request) error {
	var req UpdateRoleRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}

	role, ok := authz.ParseRole(req.Role)
	if !ok {
		return tenant.ErrInvalidRole
	}

	ctx := r.Context()
	m, err := h.tenantService.ChangeRole(ctx, TenantIDFrom(ctx), UserIDFrom(ctx), chi.URLParam(r, "userId"), role)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, map[string]any{"member": m})
	return nil
}

// ListInvitations lists pending invitations. Tokens are never included.
func (h *Handler) ListInvitations(w http.ResponseWriter, r *http.Request) error {
	invitations, err := h.tenantService.ListInvitations(r.Context(), TenantIDFrom(r.Context()))
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, map[string]any{"invitations": invitations})
	return nil
}
