package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kevin07696/payment-experience/internal/adapters/ports"
	"go.uber.org/zap"
)

// localSecretManager reads secrets from plain files for development.
// Not for production; there is no encryption at rest.
type localSecretManager struct {
	basePath string
	logger   *zap.Logger
}

// NewLocalSecretManager serves secrets from files under basePath. The
// secret path maps to a relative file path.
func NewLocalSecretManager(basePath string, logger *zap.Logger) ports.SecretManagerAdapter {
	return &localSecretManager{
		basePath: basePath,
		logger:   logger,
	}
}

// GetSecret reads the secret file. JSON files with a "value" field keep
// their tags as metadata; anything else is treated as the raw value.
func (m *localSecretManager) GetSecret(ctx context.Context, secretPath string) (*ports.Secret, error) {
	data, err := os.ReadFile(filepath.Join(m.basePath, secretPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("secret not found: %s", secretPath)
		}
		return nil, fmt.Errorf("read secret %s: %w", secretPath, err)
	}

	m.logger.Debug("Secret read from filesystem", zap.String("path", secretPath))

	var structured struct {
		Value     string            `json:"value"`
		Tags      map[string]string `json:"tags"`
		CreatedAt string            `json:"created_at"`
	}
	if err := json.Unmarshal(data, &structured); err == nil && structured.Value != "" {
		return &ports.Secret{
			Value:     structured.Value,
			Version:   "local",
			Metadata:  structured.Tags,
			CreatedAt: structured.CreatedAt,
		}, nil
	}

	return &ports.Secret{
		Value:   strings.TrimSpace(string(data)),
		Version: "local",
	}, nil
}
