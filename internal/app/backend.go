package app

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/purchase-insights/internal/platform/db"
	"github.com/odyssey-erp/purchase-insights/internal/purchase"
	"github.com/odyssey-erp/purchase-insights/internal/purchase/odata"
	"github.com/odyssey-erp/purchase-insights/internal/purchase/pgstore"
)

// NewQueryBackend builds the query service selected by QUERY_BACKEND. The
// returned close function releases the connection pool, if any.
func NewQueryBackend(ctx context.Context, cfg *Config) (purchase.QueryService, func(), error) {
	switch cfg.QueryBackend {
	case BackendPostgres:
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, err
		}
		return pgstore.New(pool), pool.Close, nil
	case BackendOData:
		client, err := odata.NewClient(odata.Config{
			BaseURL:  cfg.ODataBaseURL,
			Username: cfg.ODataUsername,
			Password: cfg.ODataPassword,
			Timeout:  cfg.ODataTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown query backend %q", cfg.QueryBackend)
	}
}
