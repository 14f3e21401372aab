package handlers

import (
	"net/http"

	"github.com/geocoder89/clocktrack/internal/config"
	"github.com/geocoder89/clocktrack/internal/domain/task"
	"github.com/geocoder89/clocktrack/internal/domain/timeentry"
	"github.com/gin-gonic/gin"
)

type TasksHandler struct {
	owners  OwnershipResolver
	tasks   TasksStore
	entries EntriesService
	running RunningInvalidator
}

func NewTasksHandler(owners OwnershipResolver, tasks TasksStore, entries EntriesService, running RunningInvalidator) *TasksHandler {
	return &TasksHandler{
		owners:  owners,
		tasks:   tasks,
		entries: entries,
		running: orNop(running),
	}
}

type taskWithEntries struct {
	task.Task
	TimeEntries []timeentry.TimeEntry `json:"timeEntries"`
}

// GET /projects/:id/tasks
func (h *TasksHandler) List(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	p, err := h.owners.ResolveProject(cctx, userID, ctx.Param("id"))
	if err != nil {
		respondDomainError(ctx, err, "Failed to fetch tasks")
		return
	}

	tasks, err := h.tasks.ListTasks(cctx, p.ID)
	if err != nil {
		respondDomainError(ctx, err, "Failed to fetch tasks")
		return
	}

	ctx.JSON(http.StatusOK, tasks)
}

// POST /projects/:id/tasks
func (h *TasksHandler) Create(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	p, err := h.owners.ResolveProject(cctx, userID, ctx.Param("id"))
	if err != nil {
		respondDomainError(ctx, err, "Failed to create task")
		return
	}

	var req task.CreateTaskRequest
	if !BindJSONMessage(ctx, &req, "Task name is required") {
		return
	}
	req.ProjectID = p.ID

	created, err := h.tasks.CreateTask(cctx, task.NewFromCreateRequest(req))
	if err != nil {
		respondDomainError(ctx, err, "Failed to create task")
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// Get returns the task with its time entries, newest first.
func (h *TasksHandler) Get(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	t, err := h.owners.ResolveTask(cctx, userID, ctx.Param("id"))
	if err != nil {
		respondDomainError(ctx, err, "Failed to fetch task")
		return
	}

	entries, err := h.entries.List(cctx, userID, timeentry.ListFilter{TaskID: &t.ID})
	if err != nil {
		respondDomainError(ctx, err, "Failed to fetch task")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, taskWithEntries{Task: t, TimeEntries: entries})
}

func (h *TasksHandler) Update(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	t, err := h.owners.ResolveTask(cctx, userID, ctx.Param("id"))
	if err != nil {
		respondDomainError(ctx, err, "Failed to update task")
		return
	}

	var req task.UpdateTaskRequest
	if !BindJSONMessage(ctx, &req, "Task name is required") {
		return
	}

	updated, err := h.tasks.RenameTask(cctx, t.ID, req.Name)
	if err != nil {
		respondDomainError(ctx, err, "Failed to update task")
		return
	}

	h.running.Invalidate(cctx, userID)

	ctx.JSON(http.StatusOK, updated)
}

// Delete removes the task. Its time entries stay, without a task.
func (h *TasksHandler) Delete(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	t, err := h.owners.ResolveTask(cctx, userID, ctx.Param("id"))
	if err != nil {
		respondDomainError(ctx, err, "Failed to delete task")
		return
	}

	if err := h.tasks.DeleteTask(cctx, t.ID); err != nil {
		respondDomainError(ctx, err, "Failed to delete task")
		return
	}

	h.running.Invalidate(cctx, userID)

	RespondSuccess(ctx)
}
