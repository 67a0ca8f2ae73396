// Package catalog fetches and caches the remote catalog index: the list of
// gear units available for placement. Individual unit schemas are not
// loaded here; the schema pipeline hydrates a descriptor after placement.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/rackworks/gearrack/internal/gear"
	"github.com/rackworks/gearrack/internal/netfetch"
	"github.com/rackworks/gearrack/internal/resolver"
)

// Wire shape of the catalog index document.
type indexDoc struct {
	Units []unitDoc `json:"units"`
}

type unitDoc struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
	Schema    string   `json:"schema"`
	Thumbnail string   `json:"thumbnail"`
	Faceplate string   `json:"faceplate"`
}

type Catalog struct {
	fetcher   netfetch.TextFetcher
	resolver  *resolver.Resolver
	indexPath string
	logger    *zap.Logger

	mu    sync.RWMutex
	units map[string]*gear.GearDescriptor
	order []string
}

func New(fetcher netfetch.TextFetcher, res *resolver.Resolver, indexPath string, logger *zap.Logger) *Catalog {
	if indexPath == "" {
		indexPath = "catalog.json"
	}
	return &Catalog{
		fetcher:   fetcher,
		resolver:  res,
		indexPath: indexPath,
		logger:    logger,
		units:     make(map[string]*gear.GearDescriptor),
	}
}

// Refresh fetches and replaces the catalog index. Unlike per-unit schema
// and asset failures, a failed catalog fetch is surfaced to the caller:
// it is the one failure a user actually sees.
func (c *Catalog) Refresh(ctx context.Context) error {
	url := c.resolver.Resolve(c.indexPath)
	raw, err := c.fetcher.FetchText(ctx, url)
	if err != nil {
		return fmt.Errorf("fetch catalog index: %w", err)
	}

	var doc indexDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return fmt.Errorf("parse catalog index: %w", err)
	}

	units := make(map[string]*gear.GearDescriptor, len(doc.Units))
	order := make([]string, 0, len(doc.Units))
	for _, u := range doc.Units {
		if u.ID == "" || units[u.ID] != nil {
			c.logger.Warn("catalog entry skipped",
				zap.String("id", u.ID),
				zap.String("name", u.Name))
			continue
		}
		units[u.ID] = &gear.GearDescriptor{
			UnitID:        u.ID,
			Name:          u.Name,
			Type:          u.Type,
			Category:      u.Category,
			Tags:          u.Tags,
			SchemaPath:    u.Schema,
			ThumbnailPath: u.Thumbnail,
			FaceplatePath: u.Faceplate,
		}
		order = append(order, u.ID)
	}

	c.mu.Lock()
	c.units = units
	c.order = order
	c.mu.Unlock()

	c.logger.Info("catalog refreshed", zap.Int("units", len(order)))
	return nil
}

// Units returns clones of all catalog descriptors in index order.
func (c *Catalog) Units() []*gear.GearDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*gear.GearDescriptor, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.units[id].Clone())
	}
	return out
}

// Unit returns a clone of one catalog descriptor, safe for the caller to
// personalize and place.
func (c *Catalog) Unit(unitID string) (*gear.GearDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.units[unitID]
	if !ok {
		return nil, false
	}
	return d.Clone(), true
}

// Size returns the number of catalog units.
func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.units)
}
