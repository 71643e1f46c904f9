package secrets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/kevin07696/payment-experience/internal/adapters/ports"
	"go.uber.org/zap"
)

// AWSSecretsManagerConfig configures the AWS Secrets Manager adapter.
type AWSSecretsManagerConfig struct {
	Region string

	// Profile selects a shared-config profile for local development.
	// Empty uses the default credentials chain (IAM role in production).
	Profile string

	// Endpoint overrides the service endpoint, for LocalStack.
	Endpoint string

	// CacheTTL bounds how long a fetched secret is reused before the
	// next call goes back to AWS. Zero disables caching.
	CacheTTL time.Duration
}

// DefaultAWSSecretsManagerConfig returns a config with a 5 minute cache.
func DefaultAWSSecretsManagerConfig(region string) *AWSSecretsManagerConfig {
	return &AWSSecretsManagerConfig{
		Region:   region,
		CacheTTL: 5 * time.Minute,
	}
}

type awsSecretsManagerAdapter struct {
	client   *secretsmanager.Client
	cacheTTL time.Duration
	logger   *zap.Logger

	mu    sync.Mutex
	cache map[string]cachedSecret
}

type cachedSecret struct {
	secret    *ports.Secret
	expiresAt time.Time
}

// NewAWSSecretsManagerAdapter builds a SecretManagerAdapter backed by
// AWS Secrets Manager.
func NewAWSSecretsManagerAdapter(ctx context.Context, cfg *AWSSecretsManagerConfig, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*secretsmanager.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	logger.Info("AWS Secrets Manager adapter initialized",
		zap.String("region", cfg.Region),
		zap.Duration("cache_ttl", cfg.CacheTTL),
	)

	return &awsSecretsManagerAdapter{
		client:   secretsmanager.NewFromConfig(awsConfig, clientOpts...),
		cacheTTL: cfg.CacheTTL,
		logger:   logger,
		cache:    make(map[string]cachedSecret),
	}, nil
}

// GetSecret fetches a secret by name or full ARN, serving from the
// in-memory cache while the entry is fresh.
func (a *awsSecretsManagerAdapter) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	if secret := a.cached(path); secret != nil {
		return secret, nil
	}

	start := time.Now()
	result, err := a.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(path),
	})
	if err != nil {
		return nil, fmt.Errorf("get secret %s: %w", path, err)
	}

	a.logger.Info("Secret retrieved",
		zap.String("path", path),
		zap.Duration("elapsed", time.Since(start)),
	)

	secret := &ports.Secret{
		Value:    aws.ToString(result.SecretString),
		Version:  aws.ToString(result.VersionId),
		Metadata: map[string]string{},
	}
	if result.CreatedDate != nil {
		secret.CreatedAt = result.CreatedDate.Format(time.RFC3339)
	}
	if result.ARN != nil {
		secret.Metadata["arn"] = *result.ARN
	}
	if result.Name != nil {
		secret.Metadata["name"] = *result.Name
	}

	a.store(path, secret)
	return secret, nil
}

func (a *awsSecretsManagerAdapter) cached(path string) *ports.Secret {
	if a.cacheTTL <= 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	entry, ok := a.cache[path]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(a.cache, path)
		return nil
	}
	return entry.secret
}

func (a *awsSecretsManagerAdapter) store(path string, secret *ports.Secret) {
	if a.cacheTTL <= 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.cache[path] = cachedSecret{
		secret:    secret,
		expiresAt: time.Now().Add(a.cacheTTL),
	}
}
