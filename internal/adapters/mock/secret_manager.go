package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/kevin07696/payment-experience/internal/adapters/ports"
	"go.uber.org/zap"
)

// SecretManager is an in-memory SecretManagerAdapter for development and
// testing.
type SecretManager struct {
	mu      sync.RWMutex
	secrets map[string]string
	logger  *zap.Logger
}

// NewSecretManager creates a mock secret manager
func NewSecretManager(logger *zap.Logger) *SecretManager {
	logger.Warn("Using MOCK secret manager - NOT for production use!")
	return &SecretManager{
		secrets: make(map[string]string),
		logger:  logger,
	}
}

// Seed stores a secret value for later retrieval
func (m *SecretManager) Seed(path, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[path] = value
}

// GetSecret retrieves a seeded secret
func (m *SecretManager) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.secrets[path]
	if !ok {
		return nil, fmt.Errorf("secret not found: %s", path)
	}
	return &ports.Secret{Value: value, Version: "v1"}, nil
}
