package timeentry

import (
	"time"

	"github.com/google/uuid"
)

func New(userID string, start time.Time, end *time.Time, taskID, description *string, now time.Time) TimeEntry {
	return TimeEntry{
		ID:          uuid.NewString(),
		StartTime:   start,
		EndTime:     end,
		Description: description,
		TaskID:      taskID,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
