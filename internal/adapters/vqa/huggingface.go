// Package vqa provides the hosted visual-question-answering adapter.
// Clean Architecture: Adapter implementing ports.AnswerService.
package vqa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/visionask/visionask-go/internal/domain/entities"
)

// DefaultEndpoint is the hosted inference endpoint for the VQA model.
const DefaultEndpoint = "https://api-inference.huggingface.co/models/dandelin/vilt-b32-finetuned-vqa"

// maxErrorBody caps how much of a failed response we echo back to the user.
const maxErrorBody = 1024

// HuggingFaceAdapter implements ports.AnswerService against the hosted
// inference API. One request per call, no retries; the transport timeout is
// the only deadline.
type HuggingFaceAdapter struct {
	endpoint string
	client   *http.Client
}

// NewHuggingFaceAdapter creates a new adapter for the given endpoint.
func NewHuggingFaceAdapter(endpoint string) *HuggingFaceAdapter {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &HuggingFaceAdapter{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 120 * time.Second, // Hosted models can cold-start
		},
	}
}

// inferenceRequest is the hosted inference API request.
type inferenceRequest struct {
	Inputs inferenceInputs `json:"inputs"`
}

type inferenceInputs struct {
	Image    string `json:"image"` // base64, no data-URL prefix
	Question string `json:"question"`
}

// inferenceAnswer is one scored candidate in the response array.
// Only the answer field matters here; a missing field marks the body malformed.
type inferenceAnswer struct {
	Answer *string `json:"answer"`
}

// Answer sends the image and question, authenticated by the bearer token.
// A non-success status yields a RequestError carrying the body (or status
// text); a success body without an answer string in its first element
// yields a malformed-response RequestError.
func (a *HuggingFaceAdapter) Answer(ctx context.Context, imageB64, question, token string) (string, error) {
	reqBody := inferenceRequest{
		Inputs: inferenceInputs{
			Image:    imageB64,
			Question: question,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling inference endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		message := strings.TrimSpace(string(data))
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return "", &entities.RequestError{StatusCode: resp.StatusCode, Message: message}
	}

	var parsed []inferenceAnswer
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &entities.RequestError{StatusCode: resp.StatusCode, Message: entities.MalformedResponse}
	}
	if len(parsed) == 0 || parsed[0].Answer == nil {
		return "", &entities.RequestError{StatusCode: resp.StatusCode, Message: entities.MalformedResponse}
	}

	return *parsed[0].Answer, nil
}
