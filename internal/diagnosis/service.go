package diagnosis

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"fixme-backend/internal/llm"
	"fixme-backend/internal/shared/metrics"
	"fixme-backend/internal/shared/telemetry"
	"fixme-backend/internal/shared/util"
)

// Service validates diagnosis requests, calls the model and shapes the
// envelope returned to callers.
type Service struct {
	LLM     llm.Client
	Timeout time.Duration
	Now     func() time.Time
	NewID   func() string
}

// NewService constructs a Service with the given client and per-call timeout.
func NewService(client llm.Client, timeout time.Duration) *Service {
	return &Service{LLM: client, Timeout: timeout}
}

// Analyze runs one diagnosis. Validation and upload problems are returned as
// *ValidationError or *UploadError. Remote failures are not errors: they
// produce an envelope with Success false.
func (s *Service) Analyze(ctx context.Context, req Request) (Envelope, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return Envelope{}, &ValidationError{Field: "user_id", Message: msgUserIDRequired}
	}
	if utf8.RuneCountInString(req.Description) > MaxDescriptionLength {
		return Envelope{}, &ValidationError{Field: "description", Message: msgDescriptionTooLong}
	}
	hasDescription := strings.TrimSpace(req.Description) != ""
	if len(req.Images) == 0 && !hasDescription {
		return Envelope{}, &ValidationError{Message: msgInputRequired}
	}
	if len(req.Images) > MaxImages {
		return Envelope{}, &ValidationError{Field: "files", Message: msgTooManyImages}
	}

	var processed []ProcessedImage
	if len(req.Images) > 0 {
		var rejections []Rejection
		processed, rejections = ValidateUploads(req.Images)
		if len(rejections) > 0 {
			metrics.AddUploadRejected(len(rejections))
			names := make([]string, 0, len(rejections))
			for _, r := range rejections {
				names = append(names, util.LogSafeName(r.Filename))
			}
			telemetry.Warn("diagnosis.uploads.rejected", map[string]any{
				"user_key":  util.Fingerprint(req.UserID, 16),
				"rejected":  len(rejections),
				"filenames": names,
			})
			return Envelope{}, &UploadError{Rejections: rejections}
		}
	}

	description := ""
	if hasDescription {
		description = req.Description
	}
	input := llm.DiagnoseInput{Prompt: BuildPrompt(req.UserID, description, len(processed))}
	for _, p := range processed {
		input.Images = append(input.Images, p.image())
	}

	attemptID := s.newID()
	logFields := map[string]any{
		"diagnosis_id": attemptID,
		"user_key":     util.Fingerprint(req.UserID, 16),
		"images":       len(processed),
		"description":  hasDescription,
	}
	telemetry.Info("diagnosis.started", logFields)
	metrics.IncDiagnosisStarted()

	callCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	start := s.now()
	raw, err := s.client().Diagnose(callCtx, input)
	durationMs := float64(s.now().Sub(start).Microseconds()) / 1000.0
	metrics.ObserveDiagnosisDurationMs(durationMs)
	logFields["duration_ms"] = durationMs

	if err != nil {
		category := llm.CategoryOf(err)
		metrics.IncDiagnosisFailed(string(category))
		logFields["category"] = string(category)
		logFields["error"] = err.Error()
		telemetry.Error("diagnosis.failed", logFields)
		return s.failureEnvelope(req.UserID, hasDescription, len(processed), category, err), nil
	}

	result, fellBack := normalize(raw)
	if fellBack {
		metrics.IncDiagnosisFallback()
		logFields["reply_length"] = len(raw)
		telemetry.Warn("diagnosis.reply.unparsed", logFields)
	}
	metrics.IncDiagnosisCompleted(len(processed))
	logFields["accuracy"] = result.Confidence
	telemetry.Info("diagnosis.completed", logFields)

	return Envelope{
		UserID:              req.UserID,
		DetectedIssue:       result.DetectedIssue,
		Severity:            result.Severity,
		Description:         result.Description,
		EstimatedPrice:      result.EstimatedPrice,
		Accuracy:            result.Confidence,
		Success:             true,
		RequestID:           attemptID,
		AnalysisTimestamp:   s.timestamp(),
		ImagesAnalyzed:      len(processed),
		HasUserDescription:  hasDescription,
		ImagesAnalyzedCount: len(processed),
	}, nil
}

func (s *Service) failureEnvelope(userID string, hasDescription bool, imageCount int, category llm.Category, err error) Envelope {
	env := Envelope{
		UserID:              userID,
		Severity:            "Low Severity",
		Success:             false,
		RequestID:           s.newID(),
		AnalysisTimestamp:   s.timestamp(),
		HasUserDescription:  hasDescription,
		ImagesAnalyzedCount: imageCount,
	}
	switch category {
	case llm.CategoryRateLimited:
		env.DetectedIssue = "Service Error"
		env.Description = "Rate limit exceeded. Please try again later."
		env.ErrorMessage = "Rate limit exceeded"
	case llm.CategoryAuthFailed:
		env.DetectedIssue = "Service Error"
		env.Description = "Server configuration issue. Please contact support."
		env.ErrorMessage = "Authentication error"
	default:
		msg := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "request timed out"
		}
		env.DetectedIssue = "Analysis Failed"
		env.Description = "AI analysis failed: " + msg
		env.ErrorMessage = msg
	}
	return env
}

func (s *Service) client() llm.Client {
	if s.LLM == nil {
		return unconfiguredClient{}
	}
	return s.LLM
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// newID returns the short request token exposed as request_id.
func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()[:8]
}

type unconfiguredClient struct{}

func (unconfiguredClient) Diagnose(context.Context, llm.DiagnoseInput) (string, error) {
	return "", &llm.RemoteError{
		Category: llm.CategoryAuthFailed,
		Message:  llm.ErrNotConfigured.Error(),
		Err:      llm.ErrNotConfigured,
	}
}
