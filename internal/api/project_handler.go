package api

import (
	"log/slog"
	"net/http"

	"github.com/tasktrackhq/tasktrack-api/internal/api/shared"
	"github.com/tasktrackhq/tasktrack-api/internal/platform/logger"
	"github.com/tasktrackhq/tasktrack-api/internal/service"
)

// ProjectHandler handles project CRUD requests.
type ProjectHandler struct {
	projectService service.ProjectService
	logger         *slog.Logger
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService service.ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		logger:         logger.With("component", "project_handler"),
	}
}

// Create handles POST /projects requests.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req ProjectCreateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	project, err := h.projectService.Create(r.Context(), userID, req.Title, req.Description)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, newProjectResponse(project))
}

// List handles GET /projects requests. Only projects owned by the
// authenticated user are returned.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	projects, err := h.projectService.List(r.Context(), userID)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newProjectResponses(projects))
}

// Get handles GET /projects/{id} requests.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	projectID, ok := getPathID(w, r, "Project not found")
	if !ok {
		return
	}

	project, err := h.projectService.Get(r.Context(), userID, projectID)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newProjectResponse(project))
}

// Update handles PATCH /projects/{id} requests. Absent fields are left
// unchanged.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	projectID, ok := getPathID(w, r, "Project not found")
	if !ok {
		return
	}

	var req ProjectUpdateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	update := service.ProjectUpdate{
		Title:       req.Title,
		Description: req.Description,
	}
	project, err := h.projectService.Update(r.Context(), userID, projectID, update)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newProjectResponse(project))
}

// Delete handles DELETE /projects/{id} requests. The project's tasks
// are removed with it.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	projectID, ok := getPathID(w, r, "Project not found")
	if !ok {
		return
	}

	if err := h.projectService.Delete(r.Context(), userID, projectID); err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	log.Debug("project deleted via API",
		"project_id", projectID,
		"user_id", userID)
	shared.RespondWithJSON(w, r, http.StatusOK, DetailResponse{Detail: "Project deleted successfully"})
}
