package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/visionask/visionask-go/internal/domain/entities"
	"github.com/visionask/visionask-go/internal/domain/ports"
	"github.com/visionask/visionask-go/internal/domain/usecases"
)

// mockAnswerer implements ports.AnswerService for testing
type mockAnswerer struct {
	answer string
	err    error
	calls  int
}

func (m *mockAnswerer) Answer(ctx context.Context, imageB64, question, token string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

// mockGallery implements ports.GalleryStore for testing
type mockGallery struct {
	files map[string][]byte
}

func (m *mockGallery) List() []entities.GalleryImage {
	var images []entities.GalleryImage
	for name, data := range m.files {
		images = append(images, entities.GalleryImage{Name: name, Size: int64(len(data))})
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Name < images[j].Name })
	return images
}

func (m *mockGallery) Open(name string) (io.ReadCloser, int64, error) {
	data, ok := m.files[name]
	if !ok {
		return nil, 0, fmt.Errorf("unknown sample image: %s", name)
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func newTestServer(answerer *mockAnswerer, gallery *mockGallery, maxBytes int64) (*Server, *httptest.Server) {
	controller := usecases.NewSessionController(answerer, maxBytes)
	var store ports.GalleryStore
	if gallery != nil {
		store = gallery
	}
	s := NewServer(controller, store, zap.NewNop().Sugar(), ":0", "https://example.com/tokens")
	return s, httptest.NewServer(s.routes())
}

func postJSON(t *testing.T, url string, body map[string]string) stateResponse {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	defer resp.Body.Close()

	var state stateResponse
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	return state
}

func uploadImage(t *testing.T, url, filename string, data []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", filename)
	if err != nil {
		t.Fatalf("multipart setup failed: %v", err)
	}
	fw.Write(data)
	mw.Close()

	resp, err := http.Post(url+"/api/session/image", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	return resp
}

func TestServer_FullSubmissionFlow(t *testing.T) {
	answerer := &mockAnswerer{answer: "red"}
	_, ts := newTestServer(answerer, nil, 0)
	defer ts.Close()

	resp := uploadImage(t, ts.URL, "cat.jpg", []byte("imagebytes"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status %d", resp.StatusCode)
	}
	resp.Body.Close()

	postJSON(t, ts.URL+"/api/session/question", map[string]string{"question": "what color?"})
	postJSON(t, ts.URL+"/api/session/credential", map[string]string{"token": "hf_secret"})

	state := postJSON(t, ts.URL+"/api/session/submit", nil)

	if state.Status != "succeeded" {
		t.Fatalf("expected succeeded, got %s (%s)", state.Status, state.Error)
	}
	if state.Answer != "red" {
		t.Errorf("expected answer red, got %q", state.Answer)
	}
	if !state.Configured {
		t.Error("session should be configured after a success")
	}
	if answerer.calls != 1 {
		t.Errorf("expected one inference call, got %d", answerer.calls)
	}
}

func TestServer_SubmitWithoutInputs(t *testing.T) {
	answerer := &mockAnswerer{answer: "red"}
	_, ts := newTestServer(answerer, nil, 0)
	defer ts.Close()

	state := postJSON(t, ts.URL+"/api/session/submit", nil)

	if state.Status != "failed" {
		t.Fatalf("expected failed, got %s", state.Status)
	}
	if !strings.Contains(state.Error, entities.ReasonMissingInput) {
		t.Errorf("expected missing-input error, got %q", state.Error)
	}
	if answerer.calls != 0 {
		t.Error("no inference call may be issued")
	}
}

func TestServer_OversizedUploadRejected(t *testing.T) {
	_, ts := newTestServer(&mockAnswerer{}, nil, 16)
	defer ts.Close()

	resp := uploadImage(t, ts.URL, "big.jpg", make([]byte, 64))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), entities.ReasonSize) {
		t.Errorf("expected size error, got %s", body)
	}

	var state stateResponse
	json.Unmarshal(mustGet(t, ts.URL+"/api/session"), &state)
	if state.HasImage {
		t.Error("rejected upload must not leave an image behind")
	}
}

func TestServer_ResetPreservesCredential(t *testing.T) {
	answerer := &mockAnswerer{answer: "red"}
	_, ts := newTestServer(answerer, nil, 0)
	defer ts.Close()

	uploadImage(t, ts.URL, "cat.jpg", []byte("img")).Body.Close()
	postJSON(t, ts.URL+"/api/session/question", map[string]string{"question": "q"})
	postJSON(t, ts.URL+"/api/session/credential", map[string]string{"token": "hf_secret"})
	postJSON(t, ts.URL+"/api/session/submit", nil)

	state := postJSON(t, ts.URL+"/api/session/reset", nil)

	if state.HasImage || state.Question != "" || state.Answer != "" || state.Error != "" {
		t.Errorf("reset left state behind: %+v", state)
	}
	if !state.HasCredential || !state.Configured {
		t.Error("reset must preserve credential and configured flag")
	}
}

func TestServer_GalleryListAndIngest(t *testing.T) {
	gallery := &mockGallery{files: map[string][]byte{
		"beach.jpg": []byte("sand"),
		"city.png":  []byte("lights"),
	}}
	_, ts := newTestServer(&mockAnswerer{}, gallery, 0)
	defer ts.Close()

	var listing struct {
		Images []struct {
			Name string `json:"name"`
			Size int64  `json:"size"`
		} `json:"images"`
	}
	json.Unmarshal(mustGet(t, ts.URL+"/api/gallery"), &listing)
	if len(listing.Images) != 2 || listing.Images[0].Name != "beach.jpg" {
		t.Fatalf("unexpected listing: %+v", listing)
	}

	state := postJSON(t, ts.URL+"/api/session/image/gallery", map[string]string{"name": "city.png"})
	if !state.HasImage || state.ImageName != "city.png" {
		t.Errorf("sample ingest failed: %+v", state)
	}
}

func TestServer_GalleryImageServesBytes(t *testing.T) {
	gallery := &mockGallery{files: map[string][]byte{"beach.jpg": []byte("sand")}}
	_, ts := newTestServer(&mockAnswerer{}, gallery, 0)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/gallery/image?name=beach.jpg")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "sand" {
		t.Errorf("unexpected bytes: %q", body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "image/jpeg") {
		t.Errorf("unexpected content type: %q", ct)
	}
}

func TestServer_NoGalleryConfigured(t *testing.T) {
	controller := usecases.NewSessionController(&mockAnswerer{}, 0)
	s := NewServer(controller, nil, zap.NewNop().Sugar(), ":0", "https://example.com/tokens")
	ts := httptest.NewServer(s.routes())
	defer ts.Close()

	var listing struct {
		Images []interface{} `json:"images"`
	}
	json.Unmarshal(mustGet(t, ts.URL+"/api/gallery"), &listing)
	if len(listing.Images) != 0 {
		t.Errorf("expected empty listing, got %+v", listing)
	}

	resp, err := http.Post(ts.URL+"/api/session/image/gallery", "application/json", strings.NewReader(`{"name":"x"}`))
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 without a gallery, got %d", resp.StatusCode)
	}
}

func TestServer_JSONBodyWithCharset(t *testing.T) {
	_, ts := newTestServer(&mockAnswerer{}, nil, 0)
	defer ts.Close()

	resp, err := http.Post(
		ts.URL+"/api/session/question",
		"application/json; charset=utf-8",
		strings.NewReader(`{"question":"what breed is the dog?"}`),
	)
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	defer resp.Body.Close()

	var state stateResponse
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if state.Question != "what breed is the dog?" {
		t.Errorf("JSON body with charset parameter not parsed, got question %q", state.Question)
	}
}

func TestServer_IndexPage(t *testing.T) {
	_, ts := newTestServer(&mockAnswerer{}, nil, 0)
	defer ts.Close()

	body := string(mustGet(t, ts.URL+"/"))
	if !strings.Contains(body, "https://example.com/tokens") {
		t.Error("page should link the token help URL")
	}
	if !strings.Contains(body, `accept="image/*"`) {
		t.Error("file input should accept image MIME types")
	}
	if !strings.Contains(body, "10 MiB") {
		t.Error("page should state the upload ceiling")
	}
}

func TestServer_Health(t *testing.T) {
	_, ts := newTestServer(&mockAnswerer{}, nil, 0)
	defer ts.Close()

	var health map[string]string
	json.Unmarshal(mustGet(t, ts.URL+"/api/health"), &health)
	if health["status"] != "ok" {
		t.Errorf("unexpected health: %+v", health)
	}
}

func mustGet(t *testing.T, url string) []byte {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return body
}
