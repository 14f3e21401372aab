package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/clocktrack/internal/domain/client"
	"github.com/geocoder89/clocktrack/internal/domain/timeentry"
	"github.com/geocoder89/clocktrack/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

type bindErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details struct {
		JSON   string                `json:"json"`
		Field  string                `json:"field"`
		Fields []handlers.FieldError `json:"fields"`
	} `json:"details"`
}

func TestBindJSONMessage_BlankNameUsesCallerMessage(t *testing.T) {
	r := gin.New()
	r.POST("/clients", func(ctx *gin.Context) {
		var req client.CreateClientRequest
		if !handlers.BindJSONMessage(ctx, &req, "Client name is required") {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	for _, body := range []string{`{}`, `{"name":""}`, `{"name":"   "}`} {
		req := httptest.NewRequest(http.MethodPost, "/clients", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: got status %d, want %d", body, w.Code, http.StatusBadRequest)
		}

		var resp bindErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
		}

		if resp.Error != "Client name is required" {
			t.Fatalf("body %s: unexpected message %q", body, resp.Error)
		}
		if resp.Code != "invalid_request" {
			t.Fatalf("unexpected code: %s", resp.Code)
		}
		if len(resp.Details.Fields) == 0 || resp.Details.Fields[0].Field != "name" {
			t.Fatalf("expected a field error for name, got %+v", resp.Details.Fields)
		}
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	r := gin.New()
	r.POST("/timer/start", func(ctx *gin.Context) {
		var req timeentry.StartTimerRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/timer/start", bytes.NewBufferString(`{"taskId":42}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
	}

	if resp.Error != "Invalid request body" {
		t.Fatalf("unexpected message %q", resp.Error)
	}
	if resp.Details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", resp.Details.JSON)
	}
	if resp.Details.Field != "taskId" {
		t.Fatalf("expected detail field to be taskId, got %q", resp.Details.Field)
	}
	if len(resp.Details.Fields) == 0 || resp.Details.Fields[0].Rule != "type" {
		t.Fatalf("expected a type rule in details.fields, got %+v", resp.Details.Fields)
	}
}

func TestBindJSON_SyntaxError(t *testing.T) {
	r := gin.New()
	r.POST("/x", func(ctx *gin.Context) {
		var req timeentry.StartTimerRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/x", bytes.NewBufferString(`{"taskId":`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestBindOptionalJSON_EmptyBody(t *testing.T) {
	r := gin.New()
	r.POST("/timer/start", func(ctx *gin.Context) {
		var req timeentry.StartTimerRequest
		if !handlers.BindOptionalJSON(ctx, &req) {
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"hasTask": req.TaskID != nil})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/timer/start", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}
}
