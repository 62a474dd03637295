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

	"github.com/datagov/datagov/internal/job"
)

// ListJobs lists the tenant's jobs.
// @Summary List Jobs
// @Description List the tenant's jobs
// @Tags Jobs
// @Produce json
// @Security CookieAuth
// @Param tenantId path string true "Tenant ID"
// @Success 200 {object} map[string]any
// @Failure 403 {object} errorResponse
// @Router /tenants/{tenantId}/jobs [get]
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) error {
	jobs, err := h.jobService.List(r.Context(), TenantIDFrom(r.Context()))
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
	return nil
}

// CreateJob creates a job in the tenant.
// @Summary Create Job
// @Description Create a job
// @Tags Jobs
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param tenantId path string true "Tenant ID"
// @Param request body job.CreateParams true "Job Data"
// @Success 201 {object} map[string]any
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Router /tenants/{tenantId}/jobs [post]
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) error {
	var req job.CreateParams
	if err := decodeBody(r, &req); err != nil {
		return err
	}

	ctx := r.Context()
	j, err := h.jobService.Create(ctx, TenantIDFrom(ctx), UserIDFrom(ctx), req)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusCreated, map[string]any{"job": j})
	return nil
}

// GetJob returns one job of the tenant.
// @Summary Get Job
// @Description Get a job
// @Tags Jobs
// @Produce json
// @Security CookieAuth
// @Param tenantId path string true "Tenant ID"
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]any
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /tenants/{tenantId}/jobs/{id} [get]
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) error {
	j, err := h.jobService.Get(r.Context(), TenantIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, map[string]any{"job": j})
	return nil
}

// UpdateJob applies a partial update.
// @Summary Update Job
// @Description Partially update a job
// @Tags Jobs
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param tenantId path string true "Tenant ID"
// @Param id path string true "Job ID"
// @Param request body job.UpdateParams true "Job Changes"
// @Success 200 {object} map[string]any
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /tenants/{tenantId}/jobs/{id} [patch]
func (h *Handler) UpdateJob(w http.ResponseWriter, r *http.Request) error {
	var req job.UpdateParams
	if err := decodeBody(r, &req); err != nil {
		return err
	}

	j, err := h.jobService.Update(r.Context(), TenantIDFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, map[string]any{"job": j})
	return nil
}

// DeleteJob deletes a job and its runs.
// @Summary Delete Job
// @Description Delete a job and its runs
// @Tags Jobs
// @Produce json
// @Security CookieAuth
// @Param tenantId path string true "Tenant ID"
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /tenants/{tenantId}/jobs/{id} [delete]
func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	if err := h.jobService.Delete(ctx, TenantIDFrom(ctx), UserIDFrom(ctx), chi.URLParam(r, "id")); err != nil {
		return err
	}
	respondMessage(w, "Job deleted successfully")
	return nil
}

// RunJob starts a run. The response shows the run as running; it completes
// in the background.
// @Summary Run Job
// @Description Start a run that completes in the background
// @Tags Jobs
// @Produce json
// @Security CookieAuth
// @Param tenantId path string true "Tenant ID"
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]any
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /tenants/{tenantId}/jobs/{id}/run [post]
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	run, err := h.jobService.Run(ctx, TenantIDFrom(ctx), UserIDFrom(ctx), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, map[string]any{"run": run})
	return nil
}

// ListJobRuns lists a job's runs, newest first.
// @Summary List Job Runs
// @Description List a job's runs, newest first
// @Tags Jobs
// @Produce json
// @Security CookieAuth
// @Param tenantId path string true "Tenant ID"
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]any
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /tenants/{tenantId}/jobs/{id}/runs [get]
func (h *Handler) ListJobRuns(w http.ResponseWriter, r *http.Request) error {
	runs, err := h.jobService.ListRuns(r.Context(), TenantIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, map[string]any{"runs": runs})
	return nil
}
