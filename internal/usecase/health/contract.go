package health

import "context"

// DBPinger checks storage availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks AI provider availability.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
