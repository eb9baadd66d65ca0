package secrets

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	gax "github.com/googleapis/gax-go/v2"
	gocache "github.com/patrickmn/go-cache"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sfsync/sfsync-api/config"
	"github.com/sfsync/sfsync-api/internal/models"
	apperrors "github.com/sfsync/sfsync-api/pkg/errors"
	"github.com/sfsync/sfsync-api/pkg/logger"
	"github.com/sfsync/sfsync-api/pkg/metrics"
	"go.uber.org/zap"
)

// Logical secret names expected in Google Secret Manager.
const (
	SecretSalesforceUsername    = "salesforce-username"
	SecretSalesforcePassword    = "salesforce-password"
	SecretSalesforceToken       = "salesforce-token"
	SecretSalesforceInstanceURL = "salesforce-instance-url"
	SecretSendGridAPIKey        = "sendgrid-api-key"
	SecretGmailClientID         = "gmail-client-id"
	SecretGmailClientSecret     = "gmail-client-secret"
	SecretGmailRefreshToken     = "gmail-refresh-token"
)

const bundleCacheKey = "credential-bundle"

// Accessor is the slice of the Secret Manager client the provider needs.
// *secretmanager.Client satisfies it.
type Accessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// Provider resolves the credential bundle from Google Secret Manager.
// Resolution is all-or-nothing: if any required secret cannot be read, no
// bundle is returned. An optional TTL cache holds complete bundles only, so
// the contract survives caching.
type Provider struct {
	client    Accessor
	projectID string
	variant   string
	cache     *gocache.Cache
}

// NewProvider creates a secret provider. A non-zero cacheTTL enables the
// in-process bundle cache; zero keeps the source behavior of re-resolving
// every invocation.
func NewProvider(client Accessor, projectID, variant string, cacheTTL time.Duration) *Provider {
	p := &Provider{
		client:    client,
		projectID: projectID,
		variant:   variant,
	}
	if cacheTTL > 0 {
		p.cache = gocache.New(cacheTTL, 2*cacheTTL)
		logger.Info("Secret bundle cache enabled", zap.Duration("ttl", cacheTTL))
	}
	return p
}

// requiredNames returns the secret names the deployed notifier variant needs.
func (p *Provider) requiredNames() []string {
	names := []string{
		SecretSalesforceUsername,
		SecretSalesforcePassword,
		SecretSalesforceToken,
		SecretSalesforceInstanceURL,
	}
	if p.variant == config.NotifierGmail {
		return append(names, SecretGmailClientID, SecretGmailClientSecret, SecretGmailRefreshToken)
	}
	return append(names, SecretSendGridAPIKey)
}

// Resolve fetches the latest version of every required secret and assembles
// the credential bundle.
func (p *Provider) Resolve(ctx context.Context) (*models.CredentialBundle, error) {
	if p.cache != nil {
		if cached, ok := p.cache.Get(bundleCacheKey); ok {
			metrics.SecretResolutions.WithLabelValues("cache_hit").Inc()
			return cached.(*models.CredentialBundle), nil
		}
	}

	start := time.Now()

	values := make(map[string]string, 8)
	for _, name := range p.requiredNames() {
		value, err := p.access(ctx, name)
		if err != nil {
			metrics.SecretResolutions.WithLabelValues("error").Inc()
			logger.LogAPICall("secretmanager", "accessSecretVersion", "error",
				metrics.MeasureDuration(start), zap.String("secret", name), zap.Error(err))
			return nil, err
		}
		values[name] = value
	}

	metrics.SecretResolutions.WithLabelValues("success").Inc()
	logger.LogAPICall("secretmanager", "accessSecretVersion", "success",
		metrics.MeasureDuration(start), zap.Int("count", len(values)))

	bundle := &models.CredentialBundle{
		Salesforce: models.SalesforceCredentials{
			Username:      values[SecretSalesforceUsername],
			Password:      values[SecretSalesforcePassword],
			SecurityToken: values[SecretSalesforceToken],
			InstanceURL:   values[SecretSalesforceInstanceURL],
		},
		Notifier: models.NotifierCredentials{
			SendGridAPIKey:    values[SecretSendGridAPIKey],
			GmailClientID:     values[SecretGmailClientID],
			GmailClientSecret: values[SecretGmailClientSecret],
			GmailRefreshToken: values[SecretGmailRefreshToken],
		},
	}

	if p.cache != nil {
		p.cache.Set(bundleCacheKey, bundle, gocache.DefaultExpiration)
	}

	return bundle, nil
}

// access reads the latest version of one secret and classifies failures.
func (p *Provider) access(ctx context.Context, name string) (string, error) {
	resourceName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", p.projectID, name)

	resp, err := p.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resourceName,
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", apperrors.SecretMissingError(name)
		}
		return "", apperrors.SecretStoreError(err)
	}

	return string(resp.GetPayload().GetData()), nil
}
