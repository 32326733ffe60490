// Package handlers provides HTTP handlers for the Course Creator API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spherical-ai/course-creator/cmd/course-creator-api/middleware"
	"github.com/spherical-ai/course-creator/internal/domain"
	"github.com/spherical-ai/course-creator/internal/observability"
	"github.com/spherical-ai/course-creator/internal/pipeline"
)

const maxBodyBytes = 1 << 20

// CourseHandler serves the pipeline actions for the caller's session.
type CourseHandler struct {
	logger     *observability.Logger
	controller *pipeline.Controller
	store      domain.SessionStore
	exporter   domain.Exporter
	filename   string
}

// NewCourseHandler creates a new course handler.
func NewCourseHandler(logger *observability.Logger, controller *pipeline.Controller, store domain.SessionStore, exporter domain.Exporter, filename string) *CourseHandler {
	if filename == "" {
		filename = domain.ExportFilename
	}
	return &CourseHandler{
		logger:     logger,
		controller: controller,
		store:      store,
		exporter:   exporter,
		filename:   filename,
	}
}

// SubmitRequestDTO is the body of POST /outline.
type SubmitRequestDTO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// EditRequestDTO is the body of PUT /outline.
type EditRequestDTO struct {
	Outline string `json:"outline"`
}

// ResultDTO represents generated text, or the error message standing in for it.
type ResultDTO struct {
	Text   string `json:"text"`
	Failed bool   `json:"failed"`
	Step   string `json:"step,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// StateResponseDTO represents the session's pipeline state.
type StateResponseDTO struct {
	Stage        string            `json:"stage"`
	Actions      []string          `json:"actions"`
	Request      *SubmitRequestDTO `json:"request,omitempty"`
	Outline      *ResultDTO        `json:"outline,omitempty"`
	Course       *ResultDTO        `json:"course,omitempty"`
	ExportError  string            `json:"exportError,omitempty"`
	OutlineEdits int               `json:"outlineEdits"`
	UpdatedAt    string            `json:"updatedAt,omitempty"`
}

// GetSession handles GET /session.
func (h *CourseHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	state, ok := h.load(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, toStateDTO(state))
}

// ResetSession handles DELETE /session.
func (h *CourseHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	id := middleware.SessionFromContext(r.Context())
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("Failed to reset session")
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toStateDTO(h.controller.Reset()))
}

// SubmitOutline handles POST /outline.
func (h *CourseHandler) SubmitOutline(w http.ResponseWriter, r *http.Request) {
	var body SubmitRequestDTO
	if !h.decode(w, r, &body) {
		return
	}

	state, ok := h.load(w, r)
	if !ok {
		return
	}

	next, err := h.controller.Submit(r.Context(), state, domain.CourseRequest{
		Title:       body.Title,
		Description: body.Description,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.save(w, r, next)
}

// EditOutline handles PUT /outline.
func (h *CourseHandler) EditOutline(w http.ResponseWriter, r *http.Request) {
	var body EditRequestDTO
	if !h.decode(w, r, &body) {
		return
	}

	state, ok := h.load(w, r)
	if !ok {
		return
	}

	next, err := h.controller.Edit(state, body.Outline)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.save(w, r, next)
}

// GenerateCourse handles POST /course.
func (h *CourseHandler) GenerateCourse(w http.ResponseWriter, r *http.Request) {
	state, ok := h.load(w, r)
	if !ok {
		return
	}

	next, err := h.controller.Expand(r.Context(), state)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.save(w, r, next)
}

// Download handles GET /course/download.
func (h *CourseHandler) Download(w http.ResponseWriter, r *http.Request) {
	state, ok := h.load(w, r)
	if !ok {
		return
	}

	if state.ExportProblem != "" {
		h.writeError(w, http.StatusConflict, "course cannot be exported", state.ExportProblem)
		return
	}
	if !state.Allows(domain.ActionDownload) {
		h.writeError(w, http.StatusConflict, "course not ready", "generate the full course before downloading")
		return
	}

	data, err := h.exporter.Export(state.CourseText())
	if err != nil {
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("Failed to generate PDF")
		h.writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *CourseHandler) load(w http.ResponseWriter, r *http.Request) (domain.SessionState, bool) {
	id := middleware.SessionFromContext(r.Context())
	state, err := h.store.Load(r.Context(), id)
	if err != nil {
		h.logger.WithContext(r.Context()).WithSession(id).Error().Err(err).Msg("Failed to load session")
		h.writeDomainError(w, err)
		return domain.SessionState{}, false
	}
	return state, true
}

func (h *CourseHandler) save(w http.ResponseWriter, r *http.Request, state domain.SessionState) {
	id := middleware.SessionFromContext(r.Context())
	if err := h.store.Save(r.Context(), id, state); err != nil {
		h.logger.WithContext(r.Context()).WithSession(id).Error().Err(err).Msg("Failed to save session")
		h.writeDomainError(w, err)
		return
	}

	dto := toStateDTO(state)
	h.logger.WithContext(r.Context()).WithSession(id).Debug().
		Str("stage", dto.Stage).
		Strs("actions", dto.Actions).
		Msg("Session saved")
	h.writeJSON(w, http.StatusOK, dto)
}

func (h *CourseHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	return true
}

func toStateDTO(state domain.SessionState) StateResponseDTO {
	resp := StateResponseDTO{
		Stage:        string(state.Stage()),
		Actions:      make([]string, 0, 3),
		Outline:      toResultDTO(state.Outline),
		Course:       toResultDTO(state.Course),
		ExportError:  state.ExportProblem,
		OutlineEdits: state.OutlineEdits,
	}
	for _, a := range state.Actions() {
		resp.Actions = append(resp.Actions, string(a))
	}
	if state.Request != nil {
		resp.Request = &SubmitRequestDTO{
			Title:       state.Request.Title,
			Description: state.Request.Description,
		}
	}
	if !state.UpdatedAt.IsZero() {
		resp.UpdatedAt = state.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}

func toResultDTO(res *domain.Result) *ResultDTO {
	if res == nil {
		return nil
	}
	dto := &ResultDTO{Text: res.Text, Failed: res.Failed}
	if res.Failure != nil {
		dto.Step = string(res.Failure.Step)
		dto.Reason = res.Failure.Reason
	}
	return dto
}

func (h *CourseHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *CourseHandler) writeDomainError(w http.ResponseWriter, err error) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		h.writeError(w, http.StatusInternalServerError, "internal error", err.Error())
		return
	}

	status := http.StatusInternalServerError
	switch de.Type {
	case domain.ErrorTypeValidation:
		status = http.StatusBadRequest
	case domain.ErrorTypeState:
		status = http.StatusConflict
	case domain.ErrorTypeExport:
		status = http.StatusUnprocessableEntity
	case domain.ErrorTypeStore:
		status = http.StatusServiceUnavailable
	}

	detail := ""
	if de.Err != nil {
		detail = de.Err.Error()
	}
	h.writeError(w, status, de.Message, detail)
}

func (h *CourseHandler) writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	h.writeJSON(w, status, resp)
}
