package main

import (
	"context"
	"os"

	"github.com/kevin07696/payment-experience/internal/adapters/mock"
	"github.com/kevin07696/payment-experience/internal/adapters/ports"
	"github.com/kevin07696/payment-experience/internal/adapters/secrets"
	"go.uber.org/zap"
)

// initSecretManager initializes the appropriate secret manager based on environment
// Supports:
//   - AWS Secrets Manager (production): Set SECRET_MANAGER=aws and AWS_REGION
//   - Local filesystem (development): Set SECRET_MANAGER=local and SECRETS_BASE_PATH
//   - Mock (testing): Default when SECRET_MANAGER is not set
func initSecretManager(ctx context.Context, logger *zap.Logger) ports.SecretManagerAdapter {
	secretManagerType := os.Getenv("SECRET_MANAGER")

	switch secretManagerType {
	case "aws":
		return initAWSSecretManager(ctx, logger)
	case "local":
		return initLocalSecretManager(logger)
	case "", "mock":
		return mock.NewSecretManager(logger)
	default:
		logger.Warn("Unknown SECRET_MANAGER type, falling back to mock",
			zap.String("secret_manager", secretManagerType),
		)
		return mock.NewSecretManager(logger)
	}
}

// initAWSSecretManager initializes AWS Secrets Manager
func initAWSSecretManager(ctx context.Context, logger *zap.Logger) ports.SecretManagerAdapter {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		logger.Fatal("AWS_REGION environment variable is required when SECRET_MANAGER=aws")
	}

	cfg := secrets.DefaultAWSSecretsManagerConfig(region)
	cfg.Profile = os.Getenv("AWS_PROFILE")
	cfg.Endpoint = os.Getenv("AWS_SECRETS_ENDPOINT")

	sm, err := secrets.NewAWSSecretsManagerAdapter(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize AWS Secrets Manager",
			zap.Error(err),
			zap.String("region", region),
		)
	}

	return sm
}

// initLocalSecretManager initializes the filesystem secret manager for development
func initLocalSecretManager(logger *zap.Logger) ports.SecretManagerAdapter {
	basePath := os.Getenv("SECRETS_BASE_PATH")
	if basePath == "" {
		basePath = "./secrets"
	}

	logger.Warn("Using local filesystem secret manager - NOT for production use!",
		zap.String("base_path", basePath),
	)
	return secrets.NewLocalSecretManager(basePath, logger)
}
