package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/clocktrack/internal/config"
	"github.com/geocoder89/clocktrack/internal/domain/timeentry"
	"github.com/gin-gonic/gin"
)

type TimerService interface {
	Start(ctx context.Context, userID string, req timeentry.StartTimerRequest) (timeentry.TimeEntry, error)
	Stop(ctx context.Context, userID string) (timeentry.TimeEntry, error)
}

type TimerHandler struct {
	timer TimerService
}

func NewTimerHandler(timer TimerService) *TimerHandler {
	return &TimerHandler{timer: timer}
}

// POST /timer/start; the body is optional.
func (h *TimerHandler) Start(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req timeentry.StartTimerRequest
	if !BindOptionalJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	entry, err := h.timer.Start(cctx, userID, req)
	if err != nil {
		respondDomainError(ctx, err, "Failed to start timer")
		return
	}

	ctx.JSON(http.StatusCreated, entry)
}

func (h *TimerHandler) Stop(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), requestTimeout)
	defer cancel()

	entry, err := h.timer.Stop(cctx, userID)
	if err != nil {
		respondDomainError(ctx, err, "Failed to stop timer")
		return
	}

	ctx.JSON(http.StatusOK, entry)
}
