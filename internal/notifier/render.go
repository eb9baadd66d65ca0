package notifier

import (
	"fmt"

	"github.com/sfsync/sfsync-api/internal/models"
)

const htmlBodyTemplate = `<h3>A Salesforce record has been processed and added to BigQuery.</h3>
<p><strong>Record Name:</strong> %s</p>
<p><strong>Record ID:</strong> %s</p>
<p><strong>Industry:</strong> %s</p>
<p><strong>Phone:</strong> %s</p>`

// BuildMessage renders the notification email for a record. Absent fields
// render as the N/A placeholder rather than failing the message.
func BuildMessage(record models.CrmRecord, recipients []string) models.NotificationMessage {
	name := record.StringField("Name")

	return models.NotificationMessage{
		Subject: fmt.Sprintf("New Salesforce Record Created/Updated: %s", name),
		HTMLBody: fmt.Sprintf(htmlBodyTemplate,
			name,
			record.StringField("Id"),
			record.StringField("Industry"),
			record.StringField("Phone")),
		Recipients: recipients,
	}
}
