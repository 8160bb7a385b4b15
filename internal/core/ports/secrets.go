package ports

import "context"

// SecretStore abstracts the durable secret backend (e.g. a vault service).
// GetSecret may fail transiently; callers are expected to retry.
type SecretStore interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// SecretProvider hands out the current signing secret, caching it between
// store fetches. Invalidate drops the cached value so the next call refetches
// (used on secret rotation).
type SecretProvider interface {
	GetSecret(ctx context.Context, name string) (string, error)
	Invalidate()
}
