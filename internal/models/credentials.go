package models

// SalesforceCredentials authenticate the SOAP login that precedes REST calls.
type SalesforceCredentials struct {
	Username      string
	Password      string
	SecurityToken string
	InstanceURL   string
}

// NotifierCredentials hold the secrets of whichever notifier variant is
// deployed; only the fields of the active variant are populated.
type NotifierCredentials struct {
	SendGridAPIKey    string
	GmailClientID     string
	GmailClientSecret string
	GmailRefreshToken string
}

// CredentialBundle is the full set of secrets one pipeline invocation needs.
// Resolution is all-or-nothing: a bundle either carries every required secret
// or is never constructed.
type CredentialBundle struct {
	Salesforce SalesforceCredentials
	Notifier   NotifierCredentials
}
