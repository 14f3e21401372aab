package handlers

import (
	"net/http"

	"github.com/geocoder89/clocktrack/internal/config"
	"github.com/geocoder89/clocktrack/internal/domain/client"
	"github.com/geocoder89/clocktrack/internal/domain/project"
	"github.com/gin-gonic/gin"
)

type ClientsHandler struct {
	owners   OwnershipResolver
	clients  ClientsStore
	projects ProjectsStore
	running  RunningInvalidator
}

func NewClientsHandler(owners OwnershipResolver, clients ClientsStore, projects ProjectsStore, running RunningInvalidator) *ClientsHandler {
	return &ClientsHandler{
		owners:   owners,
		clients:  clients,
		projects: projects,
		running:  orNop(running),
	}
}

type clientWithProjects struct {
	client.Client
	Projects []project.Project `json:"projects"`
}

func (h *ClientsHandler) List(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	clients, err := h.clients.ListClients(cctx, userID)
	if err != nil {
		respondDomainError(ctx, err, "Failed to fetch clients")
		return
	}

	ctx.JSON(http.StatusOK, clients)
}

func (h *ClientsHandler) Create(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req client.CreateClientRequest
	if !BindJSONMessage(ctx, &req, "Client name is required") {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	created, err := h.clients.CreateClient(cctx, client.NewFromCreateRequest(userID, req))
	if err != nil {
		respondDomainError(ctx, err, "Failed to create client")
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

func (h *ClientsHandler) Get(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	c, err := h.owners.ResolveClient(cctx, userID, ctx.Param("id"))
	if err != nil {
		respondDomainError(ctx, err, "Failed to fetch client")
		return
	}

	projects, err := h.projects.ListProjects(cctx, c.ID)
	if err != nil {
		respondDomainError(ctx, err, "Failed to fetch client")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, clientWithProjects{Client: c, Projects: projects})
}

func (h *ClientsHandler) Update(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	c, err := h.owners.ResolveClient(cctx, userID, ctx.Param("id"))
	if err != nil {
		respondDomainError(ctx, err, "Failed to update client")
		return
	}

	var req client.UpdateClientRequest
	if !BindJSONMessage(ctx, &req, "Client name is required") {
		return
	}

	updated, err := h.clients.RenameClient(cctx, c.ID, req.Name)
	if err != nil {
		respondDomainError(ctx, err, "Failed to update client")
		return
	}

	h.running.Invalidate(cctx, userID)

	ctx.JSON(http.StatusOK, updated)
}

// Delete removes the client with its projects and tasks.
func (h *ClientsHandler) Delete(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	c, err := h.owners.ResolveClient(cctx, userID, ctx.Param("id"))
	if err != nil {
		respondDomainError(ctx, err, "Failed to delete client")
		return
	}

	if err := h.clients.DeleteClient(cctx, c.ID); err != nil {
		respondDomainError(ctx, err, "Failed to delete client")
		return
	}

	h.running.Invalidate(cctx, userID)

	RespondSuccess(ctx)
}
