package api

import (
	"context"

	"dispatch-gateway/internal/config"
	"dispatch-gateway/internal/model"
	"dispatch-gateway/internal/namespace"
	"dispatch-gateway/internal/registry"
)

// Store is the slice of the metadata store the HTTP layer needs directly:
// token resolution for the auth middleware, reset for /init, and the table
// dumps for the debug page. Satisfied by *storage.Storage.
type Store interface {
	CustomerByToken(ctx context.Context, token string) (*model.Customer, error)
	Reset(ctx context.Context, seed []model.Customer) error
	ListCustomers(ctx context.Context) ([]model.Customer, error)
	ListDispatchLimits(ctx context.Context) ([]model.DispatchLimits, error)
	ListOutboundWorkers(ctx context.Context) ([]model.OutboundWorker, error)
}

type API struct {
	Registry  *registry.Registry
	Storage   Store
	Namespace namespace.Client
	Cfg       *config.Config
}

func NewAPI(reg *registry.Registry, db Store, ns namespace.Client, cfg *config.Config) *API {
	return &API{
		Registry:  reg,
		Storage:   db,
		Namespace: ns,
		Cfg:       cfg,
	}
}
