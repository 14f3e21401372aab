package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/clocktrack/internal/auth"
	"github.com/geocoder89/clocktrack/internal/domain/task"
	"github.com/geocoder89/clocktrack/internal/domain/timeentry"
	"github.com/geocoder89/clocktrack/internal/domain/user"
	"github.com/geocoder89/clocktrack/internal/http/handlers"
	"github.com/geocoder89/clocktrack/internal/http/middlewares"
	"github.com/geocoder89/clocktrack/internal/tracking"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Make sure Gin does not spam the console during the test
func init() {
	gin.SetMode(gin.TestMode)
}

const testUserID = "7d0c5e0b-6a7e-4b36-9d2c-1f1f3b1f0a01"

type staticVerifier struct{}

func (staticVerifier) VerifyAccessToken(string) (*auth.Claims, error) {
	return &auth.Claims{UserID: testUserID, Email: "alice@example.com"}, nil
}

// setupRouter mounts one handler behind the real auth middleware.
func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.RequestID())
	r.Handle(method, path, middlewares.NewAuthMiddleware(staticVerifier{}).RequireAuth(), h)
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer test")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) handlers.APIError {
	t.Helper()
	var resp handlers.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body=%s", w.Body.String())
	return resp
}

// Fake implementations of the service interfaces

type fakeEntries struct {
	listFn    func(ctx context.Context, userID string, filter timeentry.ListFilter) ([]timeentry.TimeEntry, error)
	runningFn func(ctx context.Context, userID string) (*timeentry.TimeEntry, error)
	createFn  func(ctx context.Context, userID string, req timeentry.CreateManualRequest) (timeentry.TimeEntry, error)
	updateFn  func(ctx context.Context, userID, id string, req timeentry.UpdateRequest) (timeentry.TimeEntry, error)
	deleteFn  func(ctx context.Context, userID, id string) error
}

func (f *fakeEntries) List(ctx context.Context, userID string, filter timeentry.ListFilter) ([]timeentry.TimeEntry, error) {
	if f.listFn != nil {
		return f.listFn(ctx, userID, filter)
	}
	return []timeentry.TimeEntry{}, nil
}

func (f *fakeEntries) Running(ctx context.Context, userID string) (*timeentry.TimeEntry, error) {
	if f.runningFn != nil {
		return f.runningFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeEntries) CreateManual(ctx context.Context, userID string, req timeentry.CreateManualRequest) (timeentry.TimeEntry, error) {
	if f.createFn != nil {
		return f.createFn(ctx, userID, req)
	}
	return timeentry.TimeEntry{}, nil
}

func (f *fakeEntries) Update(ctx context.Context, userID, id string, req timeentry.UpdateRequest) (timeentry.TimeEntry, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, userID, id, req)
	}
	return timeentry.TimeEntry{}, nil
}

func (f *fakeEntries) Delete(ctx context.Context, userID, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, userID, id)
	}
	return nil
}

type fakeTimer struct {
	startFn func(ctx context.Context, userID string, req timeentry.StartTimerRequest) (timeentry.TimeEntry, error)
	stopFn  func(ctx context.Context, userID string) (timeentry.TimeEntry, error)
}

func (f *fakeTimer) Start(ctx context.Context, userID string, req timeentry.StartTimerRequest) (timeentry.TimeEntry, error) {
	if f.startFn != nil {
		return f.startFn(ctx, userID, req)
	}
	return timeentry.TimeEntry{}, nil
}

func (f *fakeTimer) Stop(ctx context.Context, userID string) (timeentry.TimeEntry, error) {
	if f.stopFn != nil {
		return f.stopFn(ctx, userID)
	}
	return timeentry.TimeEntry{}, nil
}

func sampleEntry() timeentry.TimeEntry {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	return timeentry.TimeEntry{
		ID:        uuid.NewString(),
		StartTime: start,
		UserID:    testUserID,
		CreatedAt: start,
		UpdatedAt: start,
	}
}

func TestStartTimerHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		startErr   error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{name: "created without body", wantStatus: http.StatusCreated},
		{name: "created with task", body: `{"taskId":"` + uuid.NewString() + `","description":"focus"}`, wantStatus: http.StatusCreated},
		{
			name:       "already running",
			startErr:   timeentry.ErrTimerAlreadyRunning,
			wantStatus: http.StatusBadRequest,
			wantCode:   "timer_running",
			wantMsg:    "You already have a timer running. Please stop it before starting a new one.",
		},
		{
			name:       "task not found",
			body:       `{"taskId":"nope"}`,
			startErr:   errTaskNotFound(),
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
			wantMsg:    "Task not found",
		},
		{
			name:       "subject without a user row",
			startErr:   fmt.Errorf("insert entry: %w", user.ErrNotFound),
			wantStatus: http.StatusUnauthorized,
			wantCode:   "unauthorized",
			wantMsg:    "Unknown user",
		},
		{
			name:       "store failure is not leaked",
			startErr:   errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
			wantMsg:    "Failed to start timer",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotUser string
			timer := &fakeTimer{
				startFn: func(_ context.Context, userID string, _ timeentry.StartTimerRequest) (timeentry.TimeEntry, error) {
					gotUser = userID
					if tc.startErr != nil {
						return timeentry.TimeEntry{}, tc.startErr
					}
					return sampleEntry(), nil
				},
			}

			r := setupRouter(http.MethodPost, "/timer/start", handlers.NewTimerHandler(timer).Start)
			w := doJSON(r, http.MethodPost, "/timer/start", tc.body)

			require.Equal(t, tc.wantStatus, w.Code, "body=%s", w.Body.String())
			assert.Equal(t, testUserID, gotUser)

			if tc.wantCode != "" {
				resp := decodeError(t, w)
				assert.Equal(t, tc.wantCode, resp.Code)
				assert.Equal(t, tc.wantMsg, resp.Error)
				assert.NotEmpty(t, resp.RequestID)
			}
		})
	}
}

func TestStopTimerHandler_NoRunningTimer(t *testing.T) {
	timer := &fakeTimer{
		stopFn: func(context.Context, string) (timeentry.TimeEntry, error) {
			return timeentry.TimeEntry{}, timeentry.ErrNoRunningTimer
		},
	}

	r := setupRouter(http.MethodPost, "/timer/stop", handlers.NewTimerHandler(timer).Stop)
	w := doJSON(r, http.MethodPost, "/timer/stop", "")

	require.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "no_running_timer", resp.Code)
	assert.Equal(t, "No running timer found", resp.Error)
}

func TestRunningHandler_IdleIsNull(t *testing.T) {
	r := setupRouter(http.MethodGet, "/time-entries/running", handlers.NewTimeEntriesHandler(&fakeEntries{}).Running)
	w := doJSON(r, http.MethodGet, "/time-entries/running", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())
}

func TestListHandler_FiltersAndETag(t *testing.T) {
	var got timeentry.ListFilter
	entry := sampleEntry()
	entries := &fakeEntries{
		listFn: func(_ context.Context, _ string, filter timeentry.ListFilter) ([]timeentry.TimeEntry, error) {
			got = filter
			return []timeentry.TimeEntry{entry}, nil
		},
	}

	r := setupRouter(http.MethodGet, "/time-entries", handlers.NewTimeEntriesHandler(entries).List)
	w := doJSON(r, http.MethodGet, "/time-entries?from=2024-01-01T00:00:00Z&to=garbage&taskId=abc", "")

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got.From)
	assert.True(t, got.From.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Nil(t, got.To, "unparseable bound is ignored")
	require.NotNil(t, got.TaskID)
	assert.Equal(t, "abc", *got.TaskID)

	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/time-entries", nil)
	req.Header.Set("Authorization", "Bearer test")
	req.Header.Set("If-None-Match", etag)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)
	assert.Equal(t, http.StatusNotModified, w2.Code)
}

func errTaskNotFound() error {
	return fmt.Errorf("resolve task: %w", task.ErrNotFound)
}

func TestCreateHandler_ValidationMessages(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "bad ordering",
			err:     &tracking.ValidationError{Field: "endTime", Message: tracking.MsgInvalidRange},
			status:  http.StatusBadRequest,
			message: "Start time must be before end time",
		},
		{
			name:    "bad start",
			err:     &tracking.ValidationError{Field: "startTime", Message: tracking.MsgInvalidStartTime},
			status:  http.StatusBadRequest,
			message: "Invalid start time",
		},
		{
			name:    "foreign task",
			err:     errTaskNotFound(),
			status:  http.StatusNotFound,
			message: "Task not found",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entries := &fakeEntries{
				createFn: func(context.Context, string, timeentry.CreateManualRequest) (timeentry.TimeEntry, error) {
					return timeentry.TimeEntry{}, tc.err
				},
			}

			r := setupRouter(http.MethodPost, "/time-entries", handlers.NewTimeEntriesHandler(entries).Create)
			w := doJSON(r, http.MethodPost, "/time-entries", `{"startTime":"2024-01-01T10:00:00Z","endTime":"2024-01-01T09:00:00Z"}`)

			require.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.message, decodeError(t, w).Error)
		})
	}
}

func TestUpdateHandler_PassesAbsentAndNull(t *testing.T) {
	var got timeentry.UpdateRequest
	var gotID string
	entries := &fakeEntries{
		updateFn: func(_ context.Context, _ string, id string, req timeentry.UpdateRequest) (timeentry.TimeEntry, error) {
			got, gotID = req, id
			return sampleEntry(), nil
		},
	}

	r := setupRouter(http.MethodPut, "/time-entries/:id", handlers.NewTimeEntriesHandler(entries).Update)
	w := doJSON(r, http.MethodPut, "/time-entries/e1", `{"taskId":null,"description":"x"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "e1", gotID)
	assert.True(t, got.TaskID.Present)
	assert.Nil(t, got.TaskID.Value)
	assert.False(t, got.StartTime.Present)
	assert.False(t, got.EndTime.Present)
	require.True(t, got.Description.Present)
	assert.Equal(t, "x", *got.Description.Value)
}

func TestDeleteHandler(t *testing.T) {
	entries := &fakeEntries{
		deleteFn: func(_ context.Context, _ string, id string) error {
			if id == "missing" {
				return timeentry.ErrNotFound
			}
			return nil
		},
	}

	r := setupRouter(http.MethodDelete, "/time-entries/:id", handlers.NewTimeEntriesHandler(entries).Delete)

	w := doJSON(r, http.MethodDelete, "/time-entries/ok", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	w = doJSON(r, http.MethodDelete, "/time-entries/missing", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Time entry not found", decodeError(t, w).Error)
}
