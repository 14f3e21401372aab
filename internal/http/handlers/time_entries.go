package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/clocktrack/internal/config"
	"github.com/geocoder89/clocktrack/internal/domain/timeentry"
	"github.com/geocoder89/clocktrack/internal/http/middlewares"
	"github.com/geocoder89/clocktrack/internal/temporal"
	"github.com/gin-gonic/gin"
)

const requestTimeout = 2 * time.Second

// EntriesService is the subset of tracking.Manager the handlers depend on.
type EntriesService interface {
	List(ctx context.Context, userID string, filter timeentry.ListFilter) ([]timeentry.TimeEntry, error)
	Running(ctx context.Context, userID string) (*timeentry.TimeEntry, error)
	CreateManual(ctx context.Context, userID string, req timeentry.CreateManualRequest) (timeentry.TimeEntry, error)
	Update(ctx context.Context, userID, entryID string, req timeentry.UpdateRequest) (timeentry.TimeEntry, error)
	Delete(ctx context.Context, userID, entryID string) error
}

type TimeEntriesHandler struct {
	entries EntriesService
}

func NewTimeEntriesHandler(entries EntriesService) *TimeEntriesHandler {
	return &TimeEntriesHandler{entries: entries}
}

// currentUser reads the principal set by RequireAuth. A missing principal
// here means the route was mounted outside the auth group.
func currentUser(ctx *gin.Context) (string, bool) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "Authentication required")
		return "", false
	}
	return userID, true
}

// GET /time-entries?from=&to=&taskId=
func (h *TimeEntriesHandler) List(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	// unparseable bounds are ignored rather than rejected
	filter := timeentry.ListFilter{
		From: temporal.ParseFilterBound(ctx.Query("from")),
		To:   temporal.ParseFilterBound(ctx.Query("to")),
	}

	if taskID := strings.TrimSpace(ctx.Query("taskId")); taskID != "" {
		filter.TaskID = &taskID
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	entries, err := h.entries.List(cctx, userID, filter)
	if err != nil {
		respondDomainError(ctx, err, "Failed to fetch time entries")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, entries)
}

// GET /time-entries/running responds with null when no timer is running.
func (h *TimeEntriesHandler) Running(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	running, err := h.entries.Running(cctx, userID)
	if err != nil {
		respondDomainError(ctx, err, "Failed to fetch running timer")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, running)
}

func (h *TimeEntriesHandler) Create(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req timeentry.CreateManualRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	entry, err := h.entries.CreateManual(cctx, userID, req)
	if err != nil {
		respondDomainError(ctx, err, "Failed to create time entry")
		return
	}

	ctx.JSON(http.StatusCreated, entry)
}

func (h *TimeEntriesHandler) Update(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req timeentry.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	entry, err := h.entries.Update(cctx, userID, ctx.Param("id"), req)
	if err != nil {
		respondDomainError(ctx, err, "Failed to update time entry")
		return
	}

	ctx.JSON(http.StatusOK, entry)
}

func (h *TimeEntriesHandler) Delete(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.entries.Delete(cctx, userID, ctx.Param("id")); err != nil {
		respondDomainError(ctx, err, "Failed to delete time entry")
		return
	}

	RespondSuccess(ctx)
}
