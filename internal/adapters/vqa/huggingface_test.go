package vqa

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/visionask/visionask-go/internal/domain/entities"
)

func TestHuggingFace_Answer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer hf_secret" {
			t.Errorf("unexpected auth header: %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("unexpected content type: %q", got)
		}

		var req inferenceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.Inputs.Image != "aW1hZ2U=" || req.Inputs.Question != "what is this?" {
			t.Errorf("unexpected inputs: %+v", req.Inputs)
		}

		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"answer": "red", "score": 0.92},
			{"answer": "blue", "score": 0.04},
		})
	}))
	defer server.Close()

	adapter := NewHuggingFaceAdapter(server.URL)
	answer, err := adapter.Answer(context.Background(), "aW1hZ2U=", "what is this?", "hf_secret")

	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if answer != "red" {
		t.Errorf("expected first answer, got %q", answer)
	}
}

func TestHuggingFace_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Authorization header is correct, but the token seems invalid"}`))
	}))
	defer server.Close()

	adapter := NewHuggingFaceAdapter(server.URL)
	_, err := adapter.Answer(context.Background(), "aW1hZ2U=", "q", "bad")

	var reqErr *entities.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %v", err)
	}
	if reqErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", reqErr.StatusCode)
	}
	if reqErr.Message == "" || reqErr.Message == entities.MalformedResponse {
		t.Errorf("error should carry the body, got %q", reqErr.Message)
	}
}

func TestHuggingFace_EmptyErrorBodyFallsBackToStatusText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	adapter := NewHuggingFaceAdapter(server.URL)
	_, err := adapter.Answer(context.Background(), "aW1hZ2U=", "q", "tok")

	var reqErr *entities.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %v", err)
	}
	if reqErr.Message != http.StatusText(http.StatusServiceUnavailable) {
		t.Errorf("expected status text fallback, got %q", reqErr.Message)
	}
}

func TestHuggingFace_MalformedResponses(t *testing.T) {
	// object instead of array, empty array, missing field, not JSON, wrong type
	bodies := []string{
		`{"answer":"red"}`,
		`[]`,
		`[{"score":0.9}]`,
		`not json at all`,
		`[{"answer": 42}]`,
	}

	for _, body := range bodies {
		body := body
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		adapter := NewHuggingFaceAdapter(server.URL)
		_, err := adapter.Answer(context.Background(), "aW1hZ2U=", "q", "tok")
		server.Close()

		var reqErr *entities.RequestError
		if !errors.As(err, &reqErr) || reqErr.Message != entities.MalformedResponse {
			t.Errorf("body %q: expected malformed-response, got %v", body, err)
		}
	}
}

func TestHuggingFace_DefaultEndpoint(t *testing.T) {
	adapter := NewHuggingFaceAdapter("")
	if adapter.endpoint != DefaultEndpoint {
		t.Errorf("expected default endpoint, got %s", adapter.endpoint)
	}
}
