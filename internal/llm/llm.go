package llm

import (
	"context"
	"errors"
	"fmt"
)

// Client abstracts multimodal LLM providers for repair diagnosis.
type Client interface {
	// Diagnose sends the prompt and images and returns the raw reply text.
	Diagnose(ctx context.Context, input DiagnoseInput) (string, error)
}

// Image is an accepted upload ready to be sent to the model.
type Image struct {
	Content  []byte
	MimeType string
}

// DiagnoseInput captures the inputs needed for one diagnosis call.
type DiagnoseInput struct {
	Prompt string
	Images []Image
}

// Category classifies remote failures.
type Category string

const (
	CategoryRateLimited Category = "rate_limited"
	CategoryAuthFailed  Category = "auth_failed"
	CategoryOther       Category = "other"
)

// ErrNotConfigured is wrapped by the error returned when no API key is set.
var ErrNotConfigured = errors.New("OpenAI API key is not configured")

// RemoteError is returned by clients for every failed call.
type RemoteError struct {
	Category   Category
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("remote call failed (%s)", e.Category)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// CategoryOf returns the category of a RemoteError in err's chain, or
// CategoryOther.
func CategoryOf(err error) Category {
	var remote *RemoteError
	if errors.As(err, &remote) && remote.Category != "" {
		return remote.Category
	}
	return CategoryOther
}
