// Package ports defines interfaces for external dependencies.
// Clean Architecture: These are the boundaries - usecases depend on these abstractions,
// not concrete implementations. Adapters implement these interfaces.
package ports

import (
	"context"
	"io"

	"github.com/visionask/visionask-go/internal/domain/entities"
)

// AnswerService asks a hosted visual-question-answering model one question
// about one image.
// Single Responsibility: Only inference, no state, no retries.
type AnswerService interface {
	// Answer sends the base64 image payload (no data-URL prefix) and the
	// question, authenticated by the bearer token. Returns the answer text.
	// Failures are *entities.RequestError.
	Answer(ctx context.Context, imageB64, question, token string) (string, error)
}

// GalleryStore lists sample images the form can offer instead of an upload.
type GalleryStore interface {
	// List returns the currently known sample images, sorted by name.
	List() []entities.GalleryImage

	// Open opens a sample image by name for reading, returning its size.
	Open(name string) (io.ReadCloser, int64, error)
}
