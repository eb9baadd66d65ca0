package notifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sfsync/sfsync-api/internal/models"
	"github.com/sfsync/sfsync-api/pkg/logger"
)

func init() {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

func TestBuildMessage_AllFieldsPresent(t *testing.T) {
	record := models.CrmRecord{
		"Id":       "001xx000003DHPGAA4",
		"Name":     "Acme Corp",
		"Industry": "Tech",
		"Phone":    "555-1234",
	}

	msg := BuildMessage(record, []string{"ops@example.com"})

	assert.Equal(t, "New Salesforce Record Created/Updated: Acme Corp", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "<p><strong>Record Name:</strong> Acme Corp</p>")
	assert.Contains(t, msg.HTMLBody, "<p><strong>Record ID:</strong> 001xx000003DHPGAA4</p>")
	assert.Contains(t, msg.HTMLBody, "<p><strong>Industry:</strong> Tech</p>")
	assert.Contains(t, msg.HTMLBody, "<p><strong>Phone:</strong> 555-1234</p>")
	assert.Equal(t, []string{"ops@example.com"}, msg.Recipients)
}

func TestBuildMessage_MissingFieldsRenderPlaceholder(t *testing.T) {
	record := models.CrmRecord{
		"Id":   "001xx000003DHPGAA4",
		"Name": "Acme Corp",
	}

	msg := BuildMessage(record, []string{"ops@example.com"})

	assert.Contains(t, msg.HTMLBody, "<p><strong>Industry:</strong> N/A</p>")
	assert.Contains(t, msg.HTMLBody, "<p><strong>Phone:</strong> N/A</p>")
}

func TestBuildMessage_NullNameRendersPlaceholderSubject(t *testing.T) {
	record := models.CrmRecord{
		"Id":   "001xx000003DHPGAA4",
		"Name": nil,
	}

	msg := BuildMessage(record, []string{"ops@example.com"})

	assert.Equal(t, "New Salesforce Record Created/Updated: N/A", msg.Subject)
}
