package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/tasktrackhq/tasktrack-api/internal/api/shared"
	"github.com/tasktrackhq/tasktrack-api/internal/domain"
	"github.com/tasktrackhq/tasktrack-api/internal/platform/logger"
	"github.com/tasktrackhq/tasktrack-api/internal/service"
	"github.com/tasktrackhq/tasktrack-api/internal/store"
)

// TaskHandler handles task CRUD requests.
type TaskHandler struct {
	taskService service.TaskService
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger.With("component", "task_handler"),
	}
}

// Create handles POST /tasks requests.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req TaskCreateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	in := service.TaskCreate{
		ProjectID:      req.ProjectID,
		Title:          req.Title,
		Description:    req.Description,
		AssignedUserID: req.AssignedUserID,
	}

	// Empty status and priority fall back to the domain defaults.
	if req.Status != "" {
		status, err := domain.ParseTaskStatus(req.Status)
		if err != nil {
			RespondWithMappedError(w, r, err)
			return
		}
		in.Status = status
	}
	if req.Priority != "" {
		priority, err := domain.ParseTaskPriority(req.Priority)
		if err != nil {
			RespondWithMappedError(w, r, err)
			return
		}
		in.Priority = priority
	}
	if req.DueDate != nil {
		due, err := parseDueDate(*req.DueDate)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, invalidDueDateMessage)
			return
		}
		in.DueDate = &due
	}

	task, err := h.taskService.Create(r.Context(), userID, in)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newTaskResponse(task))
}

// List handles GET /tasks requests. Results cover tasks in projects the
// user owns plus tasks assigned to the user, narrowed by the query
// parameters status, priority, due_date, project_id, assigned_user_id,
// sort_by, limit, and offset.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	opts, ok := parseTaskListOptions(w, r)
	if !ok {
		return
	}

	tasks, err := h.taskService.List(r.Context(), userID, opts)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newTaskResponses(tasks))
}

// Get handles GET /tasks/{id} requests.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	taskID, ok := getPathID(w, r, "Task not found")
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), userID, taskID)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newTaskResponse(task))
}

// Update handles PATCH /tasks/{id} requests. Absent fields are left
// unchanged; an explicit null clears due_date or assigned_user_id.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	taskID, ok := getPathID(w, r, "Task not found")
	if !ok {
		return
	}

	update, ok := decodeTaskUpdate(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Update(r.Context(), userID, taskID, update)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newTaskResponse(task))
}

// Delete handles DELETE /tasks/{id} requests.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	taskID, ok := getPathID(w, r, "Task not found")
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), userID, taskID); err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	log.Debug("task deleted via API",
		"task_id", taskID,
		"user_id", userID)
	shared.RespondWithJSON(w, r, http.StatusOK, DetailResponse{Detail: "Task deleted successfully"})
}

// parseTaskListOptions reads the list query parameters. On a bad value
// it writes the 400 response and returns false.
func parseTaskListOptions(w http.ResponseWriter, r *http.Request) (store.TaskListOptions, bool) {
	var opts store.TaskListOptions
	query := r.URL.Query()

	if raw := query.Get("status"); raw != "" {
		status, err := domain.ParseTaskStatus(raw)
		if err != nil {
			RespondWithMappedError(w, r, err)
			return opts, false
		}
		opts.Status = &status
	}
	if raw := query.Get("priority"); raw != "" {
		priority, err := domain.ParseTaskPriority(raw)
		if err != nil {
			RespondWithMappedError(w, r, err)
			return opts, false
		}
		opts.Priority = &priority
	}
	if raw := query.Get("due_date"); raw != "" {
		// The filter matches a calendar day, so only the bare date form
		// is accepted here.
		due, err := time.Parse("2006-01-02", raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, invalidDueDateMessage)
			return opts, false
		}
		opts.DueDate = &due
	}
	if raw := query.Get("project_id"); raw != "" {
		projectID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid project_id")
			return opts, false
		}
		opts.ProjectID = &projectID
	}
	if raw := query.Get("assigned_user_id"); raw != "" {
		assigneeID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid assigned_user_id")
			return opts, false
		}
		opts.AssignedUserID = &assigneeID
	}

	opts.SortBy = query.Get("sort_by")

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit")
			return opts, false
		}
		opts.Limit = limit
	}
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid offset")
			return opts, false
		}
		opts.Offset = offset
	}

	return opts, true
}

// decodeTaskUpdate reads a partial task update from the request body.
// The body is decoded twice: once into the typed request and once into
// a raw field map, because for the nullable columns due_date and
// assigned_user_id a nil pointer alone cannot distinguish "not sent"
// from "sent as null". On a bad payload it writes the 400 response and
// returns false.
func decodeTaskUpdate(w http.ResponseWriter, r *http.Request) (service.TaskUpdate, bool) {
	var update service.TaskUpdate

	body, err := io.ReadAll(r.Body)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return update, false
	}

	var req TaskUpdateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return update, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return update, false
	}

	update.Title = req.Title
	update.Description = req.Description

	if req.Status != nil {
		status, err := domain.ParseTaskStatus(*req.Status)
		if err != nil {
			RespondWithMappedError(w, r, err)
			return update, false
		}
		update.Status = &status
	}
	if req.Priority != nil {
		priority, err := domain.ParseTaskPriority(*req.Priority)
		if err != nil {
			RespondWithMappedError(w, r, err)
			return update, false
		}
		update.Priority = &priority
	}

	if _, present := fields["due_date"]; present {
		update.DueDateSet = true
		if req.DueDate != nil {
			due, err := parseDueDate(*req.DueDate)
			if err != nil {
				shared.RespondWithError(w, r, http.StatusBadRequest, invalidDueDateMessage)
				return update, false
			}
			update.DueDate = &due
		}
	}
	if _, present := fields["assigned_user_id"]; present {
		update.AssignedUserIDSet = true
		update.AssignedUserID = req.AssignedUserID
	}

	return update, true
}
