// Package usecases contains application business rules.
// Clean Architecture: Usecases orchestrate entities and depend on port interfaces.
// They contain NO framework code - just the request lifecycle logic.
package usecases

import (
	"context"
	"encoding/base64"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/visionask/visionask-go/internal/domain/entities"
	"github.com/visionask/visionask-go/internal/domain/ports"
)

// DefaultMaxImageBytes is the upload ceiling enforced before any encoding work.
const DefaultMaxImageBytes = 10 << 20 // 10 MiB

// invalidTokenSignature is the provider's phrasing for a rejected bearer
// token. A failure carrying it drops the configured flag so the form shows
// the credential entry again.
const invalidTokenSignature = "token seems invalid"

// SessionController owns the transient session state and enforces the valid
// sequencing of user actions into exactly one outbound inference call per
// submission: Idle -> InFlight -> {Succeeded, Failed} -> Idle on next edit
// or reset.
//
// The HTTP layer is concurrent, so the controller guards its state with a
// mutex; the single-flight check on status preserves the at-most-one
// outstanding request guarantee.
type SessionController struct {
	mu       sync.Mutex
	answerer ports.AnswerService
	maxBytes int64

	imageName    string
	imageB64     string // raw bytes as base64, no data-URL prefix
	question     string
	credential   string
	status       entities.Status
	answer       string
	errMsg       string
	configured   bool
	submissionID string
	generation   uint64 // bumped by Reset; completions from an older generation are discarded
}

// NewSessionController creates a controller with injected dependencies.
// Dependency Injection: the inference adapter is passed in, not created here.
func NewSessionController(answerer ports.AnswerService, maxBytes int64) *SessionController {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &SessionController{
		answerer: answerer,
		maxBytes: maxBytes,
	}
}

// IngestImage validates and encodes a user-selected file into the session.
// Files over the ceiling fail with ValidationError("size") and leave any
// previously ingested image untouched; read failures fail with
// ValidationError("decode") carrying the reader's message.
func (c *SessionController) IngestImage(name string, r io.Reader, size int64) error {
	if size > c.maxBytes {
		return &entities.ValidationError{Reason: entities.ReasonSize}
	}

	// Some callers cannot report a size up front; read one byte past the
	// ceiling to catch oversized payloads either way.
	data, err := io.ReadAll(io.LimitReader(r, c.maxBytes+1))
	if err != nil {
		return &entities.ValidationError{Reason: entities.ReasonDecode, Err: err}
	}
	if int64(len(data)) > c.maxBytes {
		return &entities.ValidationError{Reason: entities.ReasonSize}
	}

	encoded := base64.StdEncoding.EncodeToString(data)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.imageName = name
	c.imageB64 = encoded
	c.touchLocked()
	return nil
}

// SetQuestion updates the question text. Pure state update; presence is
// checked at submission time.
func (c *SessionController) SetQuestion(question string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.question = question
	c.touchLocked()
}

// SetCredential updates the bearer token. The credential persists across
// submissions and survives Reset; it is never written anywhere durable.
func (c *SessionController) SetCredential(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credential = token
	c.touchLocked()
}

// Submit issues exactly one outbound inference call for the current inputs.
// Invoking it while a request is in flight is a no-op returning the current
// snapshot. Every failure branch clears any previously displayed answer.
func (c *SessionController) Submit(ctx context.Context) entities.SessionState {
	c.mu.Lock()

	// 1. Re-entrancy guard: at most one outstanding request.
	if c.status == entities.StatusInFlight {
		defer c.mu.Unlock()
		return c.snapshotLocked()
	}

	// 2. Validate inputs; no network call is issued on failure.
	if c.imageB64 == "" || c.question == "" {
		c.failLocked(&entities.ValidationError{Reason: entities.ReasonMissingInput})
		defer c.mu.Unlock()
		return c.snapshotLocked()
	}
	if c.credential == "" {
		c.failLocked(&entities.ValidationError{Reason: entities.ReasonMissingCredential})
		defer c.mu.Unlock()
		return c.snapshotLocked()
	}

	// 3. Transition to in-flight, clearing any prior error.
	c.status = entities.StatusInFlight
	c.errMsg = ""
	c.submissionID = uuid.NewString()
	gen := c.generation
	imageB64, question, token := c.imageB64, c.question, c.credential
	c.mu.Unlock()

	// 4. The single suspension point. No retries; a failed request requires
	// explicit user resubmission.
	answer, err := c.answerer.Answer(ctx, imageB64, question, token)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		// A reset happened while the call was outstanding; its result no
		// longer belongs to the session. Discard it and go back to idle.
		c.status = entities.StatusIdle
		return c.snapshotLocked()
	}
	if err != nil {
		c.failLocked(err)
		return c.snapshotLocked()
	}
	c.status = entities.StatusSucceeded
	c.answer = answer
	c.errMsg = ""
	// A successful call is the only thing that marks the session configured;
	// nothing validates the token up front.
	c.configured = true
	return c.snapshotLocked()
}

// Reset unconditionally clears image, question, answer and error. The
// credential and the configured flag are preserved. Idempotent.
//
// An outstanding request keeps its in-flight status so the single-flight
// guard holds until it resolves; its completion is then discarded.
func (c *SessionController) Reset() entities.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.imageName = ""
	c.imageB64 = ""
	c.question = ""
	c.answer = ""
	c.errMsg = ""
	c.generation++
	if c.status != entities.StatusInFlight {
		c.status = entities.StatusIdle
	}
	return c.snapshotLocked()
}

// Snapshot returns the current session state.
func (c *SessionController) Snapshot() entities.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// ImageBase64 returns the encoded payload, for callers that need to verify
// what would be sent. The payload never appears in snapshots.
func (c *SessionController) ImageBase64() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.imageB64
}

// failLocked records a failure: the answer is cleared, the error message is
// surfaced verbatim, and a provider "invalid token" signature drops the
// configured flag so the credential entry reappears.
func (c *SessionController) failLocked(err error) {
	c.status = entities.StatusFailed
	c.answer = ""
	c.errMsg = err.Error()
	if strings.Contains(c.errMsg, invalidTokenSignature) {
		c.configured = false
	}
}

// touchLocked returns a terminal state to Idle on a user edit.
// Answer and error stay visible until the next submission or reset.
func (c *SessionController) touchLocked() {
	if c.status == entities.StatusSucceeded || c.status == entities.StatusFailed {
		c.status = entities.StatusIdle
	}
}

func (c *SessionController) snapshotLocked() entities.SessionState {
	return entities.SessionState{
		Status:        c.status,
		HasImage:      c.imageB64 != "",
		ImageName:     c.imageName,
		Question:      c.question,
		Answer:        c.answer,
		Error:         c.errMsg,
		Configured:    c.configured,
		HasCredential: c.credential != "",
		SubmissionID:  c.submissionID,
	}
}

// MaxImageBytes reports the configured upload ceiling.
func (c *SessionController) MaxImageBytes() int64 {
	return c.maxBytes
}
