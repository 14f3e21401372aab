package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/clocktrack/internal/domain/client"
	"github.com/geocoder89/clocktrack/internal/domain/project"
	"github.com/geocoder89/clocktrack/internal/domain/task"
	"github.com/geocoder89/clocktrack/internal/domain/timeentry"
	"github.com/geocoder89/clocktrack/internal/domain/user"
	"github.com/geocoder89/clocktrack/internal/temporal"
	"github.com/geocoder89/clocktrack/internal/tracking"
	"github.com/gin-gonic/gin"
)

const (
	MsgTimerAlreadyRunning = "You already have a timer running. Please stop it before starting a new one."
	MsgNoRunningTimer      = "No running timer found"
	MsgEntryNotFound       = "Time entry not found"
	MsgTaskNotFound        = "Task not found"
	MsgProjectNotFound     = "Project not found"
	MsgClientNotFound      = "Client not found"
	MsgUnknownUser         = "Unknown user"
)

// respondDomainError maps a service error onto the response envelope.
// Anything unrecognised is logged and answered with the fallback message.
func respondDomainError(ctx *gin.Context, err error, fallback string) {
	var verr *tracking.ValidationError

	switch {
	case errors.As(err, &verr):
		RespondError(ctx, http.StatusBadRequest, "validation_error", verr.Message, gin.H{"field": verr.Field})
	case errors.Is(err, temporal.ErrInvalidRange):
		// a store constraint tripped without a ValidationError in front of it
		RespondError(ctx, http.StatusBadRequest, "validation_error", tracking.MsgInvalidRange, nil)
	case errors.Is(err, timeentry.ErrTimerAlreadyRunning):
		RespondError(ctx, http.StatusBadRequest, "timer_running", MsgTimerAlreadyRunning, nil)
	case errors.Is(err, timeentry.ErrNoRunningTimer):
		RespondError(ctx, http.StatusNotFound, "no_running_timer", MsgNoRunningTimer, nil)
	case errors.Is(err, timeentry.ErrNotFound):
		RespondNotFound(ctx, MsgEntryNotFound)
	case errors.Is(err, task.ErrNotFound):
		RespondNotFound(ctx, MsgTaskNotFound)
	case errors.Is(err, project.ErrNotFound):
		RespondNotFound(ctx, MsgProjectNotFound)
	case errors.Is(err, client.ErrNotFound):
		RespondNotFound(ctx, MsgClientNotFound)
	case errors.Is(err, user.ErrNotFound):
		// a well-formed token whose subject was never provisioned
		RespondUnAuthorized(ctx, MsgUnknownUser)
	default:
		slog.Default().ErrorContext(ctx.Request.Context(), "request failed",
			"route", ctx.FullPath(),
			"err", err,
		)
		RespondInternal(ctx, fallback)
	}
}
