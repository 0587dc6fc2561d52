// internal/handler/lead_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leadvault/leadvault-backend/internal/model"
	"github.com/leadvault/leadvault-backend/internal/repository"
)

type LeadHandler struct {
	Leads   repository.LeadRepositoryInterface
	Imports repository.ImportRepositoryInterface
	Audits  repository.AuditLogRepositoryInterface
	Log     *zap.Logger
}

// ListLeads handles GET /api/leads with pagination and a free-text filter.
func (h *LeadHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	page := 1
	pageSize := 50
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if ps, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && ps > 0 {
		pageSize = ps
	}
	if pageSize > 200 {
		pageSize = 200
	}

	leads, total, err := h.Leads.List(r.Context(),
		r.URL.Query().Get("user_id"),
		r.URL.Query().Get("q"),
		(page-1)*pageSize, pageSize,
	)
	if err != nil {
		writeError(w, h.Log, err, "Failed to fetch leads")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": leads,
		"pagination": map[string]int{
			"page":        page,
			"page_size":   pageSize,
			"total_count": total,
			"total_pages": (total + pageSize - 1) / pageSize,
		},
	})
}

// CreateLead handles POST /api/leads.
func (h *LeadHandler) CreateLead(w http.ResponseWriter, r *http.Request) {
	var lead model.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if lead.Email == "" && lead.Phone == "" {
		writeErrorMessage(w, http.StatusBadRequest, "lead needs an email or a phone number")
		return
	}

	lead.ID = uuid.NewString()
	if err := h.Leads.Create(r.Context(), &lead); err != nil {
		writeError(w, h.Log, err, "Failed to create lead")
		return
	}
	writeJSON(w, http.StatusCreated, lead)
}

// UpdateLead handles PUT /api/leads/{id}.
func (h *LeadHandler) UpdateLead(w http.ResponseWriter, r *http.Request) {
	var lead model.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	lead.ID = chi.URLParam(r, "id")

	if err := h.Leads.Update(r.Context(), &lead); err != nil {
		writeError(w, h.Log, err, "Failed to update lead")
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// DeleteLead handles DELETE /api/leads/{id}.
func (h *LeadHandler) DeleteLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Leads.Delete(r.Context(), id); err != nil {
		writeError(w, h.Log, err, "Failed to delete lead")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Import handles POST /api/imports: records the import, bulk-inserts the
// already-parsed leads and appends an audit row. Parsing and dedupe happen
// upstream.
func (h *LeadHandler) Import(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Leads       []model.Lead `json:"leads"`
		FileName    string       `json:"file_name"`
		WorkspaceID string       `json:"workspace_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Leads == nil {
		writeErrorMessage(w, http.StatusBadRequest, "leads must be an array")
		return
	}

	fileName := payload.FileName
	if fileName == "" {
		fileName = "api-import"
	}

	imp := &model.Import{
		ID:        uuid.NewString(),
		FileName:  fileName,
		TotalRows: len(payload.Leads),
		Status:    "processing",
		UserID:    payload.WorkspaceID,
	}
	if err := h.Imports.Create(r.Context(), imp); err != nil {
		writeError(w, h.Log, err, "Failed to record import")
		return
	}

	for i := range payload.Leads {
		payload.Leads[i].ID = uuid.NewString()
		payload.Leads[i].ImportID = &imp.ID
		payload.Leads[i].SourceFile = fileName
		payload.Leads[i].UserID = payload.WorkspaceID
		payload.Leads[i].CreatedAt = imp.CreatedAt
		payload.Leads[i].UpdatedAt = imp.CreatedAt
	}
	if err := h.Leads.InsertBatch(r.Context(), payload.Leads); err != nil {
		writeError(w, h.Log, err, "Failed to import leads")
		return
	}

	if err := h.Imports.Finalize(r.Context(), imp.ID, len(payload.Leads), 0, "completed"); err != nil {
		h.Log.Error("failed to finalize import", zap.String("import_id", imp.ID), zap.Error(err))
	}

	details, _ := json.Marshal(map[string]int{"count": len(payload.Leads)})
	audit := &model.AuditLog{
		ID:          uuid.NewString(),
		Action:      "import",
		TableName:   "leads",
		WorkspaceID: payload.WorkspaceID,
		Details:     details,
	}
	if err := h.Audits.Insert(r.Context(), audit); err != nil {
		h.Log.Error("failed to write audit log", zap.String("import_id", imp.ID), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "imported": len(payload.Leads)})
}
