package handlers

import (
	"net/http"

	"github.com/geocoder89/clocktrack/internal/config"
	"github.com/geocoder89/clocktrack/internal/domain/project"
	"github.com/geocoder89/clocktrack/internal/domain/task"
	"github.com/gin-gonic/gin"
)

type ProjectsHandler struct {
	owners   OwnershipResolver
	projects ProjectsStore
	tasks    TasksStore
	running  RunningInvalidator
}

func NewProjectsHandler(owners OwnershipResolver, projects ProjectsStore, tasks TasksStore, running RunningInvalidator) *ProjectsHandler {
	return &ProjectsHandler{
		owners:   owners,
		projects: projects,
		tasks:    tasks,
		running:  orNop(running),
	}
}

type projectWithTasks struct {
	project.Project
	Tasks []task.Task `json:"tasks"`
}

// GET /clients/:id/projects
func (h *ProjectsHandler) List(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	c, err := h.owners.ResolveClient(cctx, userID, ctx.Param("id"))
	if err != nil {
		respondDomainError(ctx, err, "Failed to fetch projects")
		return
	}

	projects, err := h.projects.ListProjects(cctx, c.ID)
	if err != nil {
		respondDomainError(ctx, err, "Failed to fetch projects")
		return
	}

	ctx.JSON(http.StatusOK, projects)
}

// POST /clients/:id/projects
func (h *ProjectsHandler) Create(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	c, err := h.owners.ResolveClient(cctx, userID, ctx.Param("id"))
	if err != nil {
		respondDomainError(ctx, err, "Failed to create project")
		return
	}

	var req project.CreateProjectRequest
	if !BindJSONMessage(ctx, &req, "Project name is required") {
		return
	}
	req.ClientID = c.ID

	created, err := h.projects.CreateProject(cctx, project.NewFromCreateRequest(req))
	if err != nil {
		respondDomainError(ctx, err, "Failed to create project")
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (h *ProjectsHandler) Get(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	p, err := h.owners.ResolveProject(cctx, userID, ctx.Param("id"))
	if err != nil {
		respondDomainError(ctx, err, "Failed to fetch project")
		return
	}

	tasks, err := h.tasks.ListTasks(cctx, p.ID)
	if err != nil {
		respondDomainError(ctx, err, "Failed to fetch project")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, projectWithTasks{Project: p, Tasks: tasks})
}

func (h *ProjectsHandler) Update(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	p, err := h.owners.ResolveProject(cctx, userID, ctx.Param("id"))
	if err != nil {
		respondDomainError(ctx, err, "Failed to update project")
		return
	}

	var req project.UpdateProjectRequest
	if !BindJSONMessage(ctx, &req, "Project name is required") {
		return
	}

	updated, err := h.projects.RenameProject(cctx, p.ID, req.Name)
	if err != nil {
		respondDomainError(ctx, err, "Failed to update project")
		return
	}

	h.running.Invalidate(cctx, userID)

	ctx.JSON(http.StatusOK, updated)
}

func (h *ProjectsHandler) Delete(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	p, err := h.owners.ResolveProject(cctx, userID, ctx.Param("id"))
	if err != nil {
		respondDomainError(ctx, err, "Failed to delete project")
		return
	}

	if err := h.projects.DeleteProject(cctx, p.ID); err != nil {
		respondDomainError(ctx, err, "Failed to delete project")
		return
	}

	h.running.Invalidate(cctx, userID)

	RespondSuccess(ctx)
}
