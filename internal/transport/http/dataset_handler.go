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

	"github.com/datagov/datagov/internal/dataset"
)

// ListDatasets lists the tenant's datasets.
// @Summary List Datasets
// @Description List the tenant's datasets
// @Tags Datasets
// @Produce json
// @Security CookieAuth
// @Param tenantId path string true "Tenant ID"
// @Success 200 {object} map[string]any
// @Failure 403 {object} errorResponse
// @Router /tenants/{tenantId}/datasets [get]
func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) error {
	datasets, err := h.datasetService.List(r.Context(), TenantIDFrom(r.Context()))
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, map[string]any{"datasets": datasets})
	return nil
}

// CreateDataset creates a dataset in the tenant.
// @Summary Create Dataset
// @Description Create a dataset
// @Tags Datasets
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param tenantId path string true "Tenant ID"
// @Param request body dataset.CreateParams true "Dataset Data"
// @Success 201 {object} map[string]any
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Router /tenants/{tenantId}/datasets [post]
func (h *Handler) CreateDataset(w http.ResponseWriter, r *http.Request) error {
	var req dataset.CreateParams
	if err := decodeBody(r, &req); err != nil {
		return err
	}

	ctx := r.Context()
	d, err := h.datasetService.Create(ctx, TenantIDFrom(ctx), UserIDFrom(ctx), req)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusCreated, map[string]any{"dataset": d})
	return nil
}

// GetDataset returns one dataset of the tenant.
// @Summary Get Dataset
// @Description Get a dataset
// @Tags Datasets
// @Produce json
// @Security CookieAuth
// @Param tenantId path string true "Tenant ID"
// @Param id path string true "Dataset ID"
// @Success 200 {object} map[string]any
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /tenants/{tenantId}/datasets/{id} [get]
func (h *Handler) GetDataset(w http.ResponseWriter, r *http.Request) error {
	d, err := h.datasetService.Get(r.Context(), TenantIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, map[string]any{"dataset": d})
	return nil
}

// UpdateDataset applies a partial update.
// @Summary Update Dataset
// @Description Partially update a dataset
// @Tags Datasets
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param tenantId path string true "Tenant ID"
// @Param id path string true "Dataset ID"
// @Param request body dataset.UpdateParams true "Dataset Changes"
// @Success 200 {object} map[string]any
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /tenants/{tenantId}/datasets/{id} [patch]
func (h *Handler) UpdateDataset(w http.ResponseWriter, r *http.Request) error {
	var req dataset.UpdateParams
	if err := decodeBody(r, &req); err != nil {
		return err
	}

	d, err := h.datasetService.Update(r.Context(), TenantIDFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, map[string]any{"dataset": d})
	return nil
}

// DeleteDataset deletes a dataset.
// @Summary Delete Dataset
// @Description Delete a dataset
// @Tags Datasets
// @Produce json
// @Security CookieAuth
// @Param tenantId path string true "Tenant ID"
// @Param id path string true "Dataset ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /tenants/{tenantId}/datasets/{id} [delete]
func (h *Handler) DeleteDataset(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	if err := h.datasetService.Delete(ctx, TenantIDFrom(ctx), UserIDFrom(ctx), chi.URLParam(r, "id")); err != nil {
		return err
	}
	respondMessage(w, "Dataset deleted successfully")
	return nil
}
