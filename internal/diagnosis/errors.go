package diagnosis

import "fmt"

const (
	msgUserIDRequired     = "user_id is required and cannot be empty"
	msgDescriptionTooLong = "Description too long. Maximum 2000 characters allowed."
	msgInputRequired      = "At least one input is required: either images or description"
	msgTooManyImages      = "Too many images. Maximum 10 images allowed."
)

// ValidationError is a request rejected before any upload is read.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UploadError aggregates every rejected upload of a request.
type UploadError struct {
	Rejections []Rejection
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("Failed to process %d file(s)", len(e.Rejections))
}
