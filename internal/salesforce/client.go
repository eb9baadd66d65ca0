package salesforce

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sfsync/sfsync-api/internal/models"
	apperrors "github.com/sfsync/sfsync-api/pkg/errors"
	"github.com/sfsync/sfsync-api/pkg/httpclient"
	"github.com/sfsync/sfsync-api/pkg/logger"
	"github.com/sfsync/sfsync-api/pkg/metrics"
	"go.uber.org/zap"
)

// Client fetches Salesforce records over the partner SOAP login followed by
// the sObject REST API. Credentials are supplied per call because they are
// resolved fresh by the secret provider on every pipeline invocation.
type Client struct {
	httpClient httpclient.Client
	objectType string
	apiVersion string
}

// NewClient creates a Salesforce client for one sObject type
func NewClient(httpClient httpclient.Client, objectType, apiVersion string) *Client {
	return &Client{
		httpClient: httpClient,
		objectType: objectType,
		apiVersion: apiVersion,
	}
}

// loginEnvelope is the partner API login request. Username and password are
// XML-escaped before interpolation.
const loginEnvelope = `<?xml version="1.0" encoding="utf-8"?>` +
	`<env:Envelope xmlns:env="http://schemas.xmlsoap.org/soap/envelope/">` +
	`<env:Body>` +
	`<n1:login xmlns:n1="urn:partner.soap.sforce.com">` +
	`<n1:username>%s</n1:username>` +
	`<n1:password>%s</n1:password>` +
	`</n1:login>` +
	`</env:Body>` +
	`</env:Envelope>`

type loginResponse struct {
	SessionID string `xml:"Body>loginResponse>result>sessionId"`
	ServerURL string `xml:"Body>loginResponse>result>serverUrl"`
}

type soapFault struct {
	Code    string `xml:"Body>Fault>faultcode"`
	Message string `xml:"Body>Fault>faultstring"`
}

// restError is one element of the JSON error array the REST API returns
type restError struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

// FetchRecord authenticates with the supplied credentials and retrieves one
// record by id. Failures are classified; no retry is attempted, transient
// faults surface immediately.
func (c *Client) FetchRecord(ctx context.Context, creds models.SalesforceCredentials, recordID string) (models.CrmRecord, error) {
	sessionID, err := c.login(ctx, creds)
	if err != nil {
		return nil, err
	}

	return c.getRecord(ctx, creds.InstanceURL, sessionID, recordID)
}

// login performs the SOAP username/password+token login and returns a session id
func (c *Client) login(ctx context.Context, creds models.SalesforceCredentials) (string, error) {
	start := time.Now()
	operation := "login"

	body := fmt.Sprintf(loginEnvelope,
		xmlEscape(creds.Username),
		xmlEscape(creds.Password+creds.SecurityToken),
	)

	url := fmt.Sprintf("%s/services/Soap/u/%s", strings.TrimRight(creds.InstanceURL, "/"), c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, apperrors.ErrCRMTransport)
	}
	req.Header.Set("Content-Type", "text/xml; charset=UTF-8")
	req.Header.Set("SOAPAction", "login")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.LogAPICall("salesforce", operation, "error", metrics.MeasureDuration(start), zap.Error(err))
		return "", fmt.Errorf("%v: %w", err, apperrors.ErrCRMTransport)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, apperrors.ErrCRMTransport)
	}

	if resp.StatusCode != http.StatusOK {
		var fault soapFault
		_ = xml.Unmarshal(raw, &fault) //nolint:errcheck // fall through to transport error on parse failure

		logger.LogAPICall("salesforce", operation, "error", metrics.MeasureDuration(start),
			zap.Int("status_code", resp.StatusCode),
			zap.String("fault_code", fault.Code))

		if strings.Contains(fault.Code, "INVALID_LOGIN") {
			return "", fmt.Errorf("%s: %w", fault.Message, apperrors.ErrCRMAuth)
		}
		return "", fmt.Errorf("login returned status %d: %w", resp.StatusCode, apperrors.ErrCRMTransport)
	}

	var login loginResponse
	if err := xml.Unmarshal(raw, &login); err != nil {
		return "", fmt.Errorf("%v: %w", err, apperrors.ErrCRMTransport)
	}
	if login.SessionID == "" {
		return "", fmt.Errorf("login response carried no session id: %w", apperrors.ErrCRMTransport)
	}

	logger.LogAPICall("salesforce", operation, "success", metrics.MeasureDuration(start))
	return login.SessionID, nil
}

// getRecord fetches one sObject by id over REST
func (c *Client) getRecord(ctx context.Context, instanceURL, sessionID, recordID string) (models.CrmRecord, error) {
	start := time.Now()
	operation := "getRecord"

	url := fmt.Sprintf("%s/services/data/v%s/sobjects/%s/%s",
		strings.TrimRight(instanceURL, "/"), c.apiVersion, c.objectType, recordID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperrors.ErrCRMTransport)
	}
	req.Header.Set("Authorization", "Bearer "+sessionID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.LogAPICall("salesforce", operation, "error", metrics.MeasureDuration(start), zap.Error(err))
		return nil, fmt.Errorf("%v: %w", err, apperrors.ErrCRMTransport)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := classifyRESTError(resp, recordID)
		logger.LogAPICall("salesforce", operation, "error", metrics.MeasureDuration(start),
			zap.Int("status_code", resp.StatusCode),
			zap.String("record_id", recordID),
			zap.Error(err))
		return nil, err
	}

	var record models.CrmRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperrors.ErrCRMTransport)
	}

	logger.LogAPICall("salesforce", operation, "success", metrics.MeasureDuration(start),
		zap.String("record_id", recordID))

	return record, nil
}

// classifyRESTError maps a non-200 REST response onto the fetch error taxonomy
func classifyRESTError(resp *http.Response, recordID string) error {
	var restErrs []restError
	_ = json.NewDecoder(resp.Body).Decode(&restErrs) //nolint:errcheck // classification falls back to status code

	errorCode := ""
	if len(restErrs) > 0 {
		errorCode = restErrs[0].ErrorCode
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", recordID, apperrors.ErrRecordNotFound)
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("session rejected: %w", apperrors.ErrCRMAuth)
	case resp.StatusCode == http.StatusTooManyRequests,
		errorCode == "REQUEST_LIMIT_EXCEEDED":
		return fmt.Errorf("api limit reached: %w", apperrors.ErrRateLimited)
	default:
		return fmt.Errorf("salesforce returned status %d (%s): %w", resp.StatusCode, errorCode, apperrors.ErrCRMTransport)
	}
}

// xmlEscape escapes a credential for embedding in the login envelope
func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s)) //nolint:errcheck // bytes.Buffer writes cannot fail
	return buf.String()
}
