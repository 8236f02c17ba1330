package health

import "time"

const (
	ServiceName = "fixme-ai"
	Version     = "4.0.0"
)

// Service encapsulates health-related checks.
type Service struct {
	openAIConfigured bool
	now              func() time.Time
}

// NewService constructs a new health service.
func NewService(openAIConfigured bool) *Service {
	return &Service{openAIConfigured: openAIConfigured, now: time.Now}
}

// Status is the /health payload.
type Status struct {
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
	Service      string `json:"service"`
	OpenAIStatus string `json:"openai_status"`
}

// Status reports liveness and whether the remote API key is configured.
func (s *Service) Status() Status {
	openAI := "not_configured"
	if s.openAIConfigured {
		openAI = "configured"
	}
	return Status{
		Status:       "healthy",
		Timestamp:    s.now().UTC().Format(time.RFC3339),
		Service:      ServiceName,
		OpenAIStatus: openAI,
	}
}

// Limits describes the request limits advertised on the root endpoint.
type Limits struct {
	MaxImages            int    `json:"max_images"`
	MaxFileSize          string `json:"max_file_size"`
	DescriptionMaxLength string `json:"description_max_length"`
}

// Info is the GET / payload.
type Info struct {
	Message       string            `json:"message"`
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	Endpoints     map[string]string `json:"endpoints"`
	InputOptions  []string          `json:"input_options"`
	AccuracyScale map[string]string `json:"accuracy_scale"`
	Limits        Limits            `json:"limits"`
}

// Info returns the service metadata.
func (s *Service) Info() Info {
	return Info{
		Message: "Welcome to FixMe AI Repair Assistant",
		Status:  "active",
		Version: Version,
		Endpoints: map[string]string{
			"analyze": "POST /analyze - Send user_id, optional description, and optional image files",
			"health":  "GET /health",
			"metrics": "GET /metrics",
		},
		InputOptions: []string{
			"Only images (up to 10)",
			"Only text description",
			"Both images and text",
		},
		AccuracyScale: map[string]string{
			"90-100": "Very high confidence (clear visual evidence and detailed description)",
			"70-89":  "High confidence (good evidence but some ambiguity)",
			"50-69":  "Medium confidence (reasonable evidence but could be multiple possibilities)",
			"30-49":  "Low confidence (limited or unclear information)",
			"0-29":   "Very low confidence (insufficient or contradictory information)",
		},
		Limits: Limits{
			MaxImages:            10,
			MaxFileSize:          "20MB",
			DescriptionMaxLength: "2000 characters",
		},
	}
}
