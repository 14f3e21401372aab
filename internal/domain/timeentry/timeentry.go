package timeentry

import (
	"errors"
	"time"

	"github.com/geocoder89/clocktrack/internal/optional"
)

// TimeEntry is a span of tracked work. A nil EndTime means the timer is still running.
type TimeEntry struct {
	ID          string       `json:"id"`
	StartTime   time.Time    `json:"startTime"`
	EndTime     *time.Time   `json:"endTime"`
	Description *string      `json:"description"`
	TaskID      *string      `json:"taskId"`
	UserID      string       `json:"userId"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Task        *TaskDetails `json:"task"`
}

func (e TimeEntry) Running() bool {
	return e.EndTime == nil
}

// TaskDetails is the task -> project -> client chain attached to entries on reads.
type TaskDetails struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	ProjectID string         `json:"projectId"`
	Project   ProjectDetails `json:"project"`
}

type ProjectDetails struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	ClientID string        `json:"clientId"`
	Client   ClientDetails `json:"client"`
}

type ClientDetails struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	UserID string `json:"userId"`
}

// with pointers if optional, nil means the filter is not applied
type ListFilter struct {
	From   *time.Time
	To     *time.Time
	TaskID *string
}

var (
	ErrNotFound            = errors.New("time entry not found")
	ErrTimerAlreadyRunning = errors.New("timer already running")
	ErrNoRunningTimer      = errors.New("no running timer")
)

type StartTimerRequest struct {
	TaskID      *string `json:"taskId"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

// Timestamps stay raw strings so parsing errors can carry the exact field message.
type CreateManualRequest struct {
	StartTime   string  `json:"startTime"`
	EndTime     *string `json:"endTime"`
	TaskID      *string `json:"taskId"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

type UpdateRequest struct {
	StartTime   optional.Field[string] `json:"startTime"`
	EndTime     optional.Field[string] `json:"endTime"`
	TaskID      optional.Field[string] `json:"taskId"`
	Description optional.Field[string] `json:"description"`
}

// Patch is an UpdateRequest after parsing and ownership checks.
type Patch struct {
	StartTime   *time.Time
	EndTime     optional.Field[time.Time]
	TaskID      optional.Field[string]
	Description optional.Field[string]
}

// Apply returns current with every present patch field overwritten.
func (p Patch) Apply(current TimeEntry) TimeEntry {
	next := current

	if p.StartTime != nil {
		next.StartTime = *p.StartTime
	}

	if p.EndTime.Present {
		next.EndTime = p.EndTime.Value
	}

	if p.TaskID.Present {
		next.TaskID = p.TaskID.Value
		if p.TaskID.Value == nil || current.TaskID == nil || *current.TaskID != *p.TaskID.Value {
			next.Task = nil
		}
	}

	if p.Description.Present {
		next.Description = p.Description.Value
	}

	return next
}
