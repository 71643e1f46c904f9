package ports

import (
	"context"
)

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value     string            // The secret value (e.g., database password)
	Version   string            // Secret version identifier
	Metadata  map[string]string // Additional secret metadata
	CreatedAt string            // When this version was created
}

// SecretManagerAdapter defines the port for retrieving secrets from a
// secret management service. Implementations are responsible for
// authentication, caching with TTL, and graceful handling of rotation.
type SecretManagerAdapter interface {
	// GetSecret retrieves a secret by its path/name.
	// Path format depends on implementation:
	//   - AWS: "payment-experience/database/password" or a full ARN
	//   - Local: a file path relative to the configured base directory
	// Returns error if the secret does not exist, permissions are
	// insufficient, or the secret manager service is unavailable.
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
