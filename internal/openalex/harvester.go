package openalex

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/pubharvest/internal/harvest"
	"github.com/JakeFAU/pubharvest/internal/metrics"
)

// Harvester resolves one author and collects their works.
type Harvester struct {
	client   *Client
	identity Identity
	maxItems int
	logger   *zap.Logger
}

// NewHarvester builds a Harvester capped at maxItems records.
func NewHarvester(client *Client, identity Identity, maxItems int, logger *zap.Logger) (*Harvester, error) {
	if client == nil {
		return nil, fmt.Errorf("openalex client is required")
	}
	if maxItems <= 0 {
		return nil, fmt.Errorf("max items must be > 0")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harvester{client: client, identity: identity, maxItems: maxItems, logger: logger}, nil
}

// Harvest runs identity resolution then the works walk. Errors are fatal for the run;
// an author with no works yields a confirmed empty result.
func (h *Harvester) Harvest(ctx context.Context) (harvest.Result, error) {
	authorID, err := h.client.ResolveAuthor(ctx, h.identity)
	if err != nil {
		return harvest.Result{}, fmt.Errorf("resolve author: %w", err)
	}
	items, err := h.client.Works(ctx, authorID, h.maxItems)
	if err != nil {
		return harvest.Result{}, fmt.Errorf("fetch works for %s: %w", authorID, err)
	}
	metrics.ObserveItems(sourceName, len(items))
	return harvest.Result{
		Source:         sourceName,
		Author:         authorID,
		Items:          items,
		ConfirmedEmpty: true,
	}, nil
}
