package config

import "context"

// SecretProvider resolves secret values by key. SSMProvider is the deployed
// implementation backed by AWS SSM Parameter Store.
type SecretProvider interface {
	// GetParametersBatch returns key -> plaintext for every key it could
	// resolve. Keys it cannot resolve are omitted from the map.
	GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error)
}
