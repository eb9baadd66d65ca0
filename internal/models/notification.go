package models

// SyncNotification is the inbound trigger payload sent by a Salesforce Flow
// HTTP callout when a record changes.
type SyncNotification struct {
	RecordID string `json:"recordId"`
}

// NotificationMessage is the rendered confirmation email, independent of the
// notifier variant that ends up delivering it.
type NotificationMessage struct {
	Subject    string
	HTMLBody   string
	Recipients []string
}
