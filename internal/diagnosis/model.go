package diagnosis

import (
	"io"

	"fixme-backend/internal/llm"
)

const (
	MaxImages            = 10
	MaxFileSize          = 20 * 1024 * 1024
	MaxDescriptionLength = 2000
)

// Request is one diagnosis request as received from a caller.
type Request struct {
	UserID      string
	Description string
	Images      []Upload
}

// Upload is a file supplied by the caller. Open is called once.
type Upload struct {
	Filename    string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// ProcessedImage is an accepted upload.
type ProcessedImage struct {
	Filename  string
	Content   []byte
	MimeType  string
	SizeBytes int
}

func (p ProcessedImage) image() llm.Image {
	return llm.Image{Content: p.Content, MimeType: p.MimeType}
}

// Rejection describes why an upload was refused.
type Rejection struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// Price is an estimated repair cost range in USD.
type Price struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Result is a normalized model diagnosis.
type Result struct {
	DetectedIssue  string
	Severity       string
	Description    string
	EstimatedPrice Price
	Confidence     int
}

// Envelope is the JSON object returned to callers of /analyze.
type Envelope struct {
	UserID              string `json:"user_id"`
	DetectedIssue       string `json:"detected_issue"`
	Severity            string `json:"severity"`
	Description         string `json:"description"`
	EstimatedPrice      Price  `json:"estimated_price"`
	Accuracy            int    `json:"accuracy"`
	Success             bool   `json:"success"`
	RequestID           string `json:"request_id"`
	AnalysisTimestamp   string `json:"analysis_timestamp"`
	ImagesAnalyzed      int    `json:"images_analyzed"`
	HasUserDescription  bool   `json:"has_user_description"`
	ImagesAnalyzedCount int    `json:"images_analyzed_count"`
	ErrorMessage        string `json:"error_message,omitempty"`
}
