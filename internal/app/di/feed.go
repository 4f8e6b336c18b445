// Package di provides dependency injection factories for creating application components.
package di

import (
	"futures_backend/internal/feature/feed/adapters/gateway"
	"futures_backend/internal/feature/feed/domain/entity"
)

// NewFeedGateway creates a fully configured gateway client and the
// subscription request derived from the same configuration.
func NewFeedGateway() (*gateway.Client, entity.Subscription) {
	cfg := gateway.LoadConfig()
	client := gateway.NewClient(cfg)
	return client, client.Subscription()
}
