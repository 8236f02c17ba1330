package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	svc := NewService(true)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("X", 3600)) }

	st := svc.Status()
	assert.Equal(t, "healthy", st.Status)
	assert.Equal(t, "2024-05-01T11:00:00Z", st.Timestamp)
	assert.Equal(t, ServiceName, st.Service)
	assert.Equal(t, "configured", st.OpenAIStatus)

	assert.Equal(t, "not_configured", NewService(false).Status().OpenAIStatus)
}

func TestInfo(t *testing.T) {
	info := NewService(false).Info()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, 10, info.Limits.MaxImages)
	assert.Contains(t, info.Endpoints, "analyze")
	assert.Contains(t, info.AccuracyScale, "90-100")
	assert.Contains(t, info.AccuracyScale, "0-29")
}
