// Package schema fetches and parses gear unit schemas: the JSON documents
// describing a unit's controls and faceplate. Fetching happens on a worker
// goroutine per call; parsing and descriptor mutation happen on the model
// loop the result is posted back to.
package schema

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rackworks/gearrack/internal/gear"
	"github.com/rackworks/gearrack/internal/netfetch"
	"github.com/rackworks/gearrack/internal/resolver"
)

// Poster marshals work back onto the single-threaded model context.
type Poster interface {
	Post(func())
}

// AssetFetcher is the downstream asset manager the parse step hands
// faceplate and control image fetches to.
type AssetFetcher interface {
	FetchFaceplate(d *gear.GearDescriptor)
	FetchControlAsset(d *gear.GearDescriptor, controlIndex int)
}

type Pipeline struct {
	fetcher   netfetch.TextFetcher
	resolver  *resolver.Resolver
	assets    AssetFetcher
	loop      Poster
	validator *Validator
	logger    *zap.Logger
}

func NewPipeline(fetcher netfetch.TextFetcher, res *resolver.Resolver, assets AssetFetcher, loop Poster, logger *zap.Logger) (*Pipeline, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}
	return &Pipeline{
		fetcher:   fetcher,
		resolver:  res,
		assets:    assets,
		loop:      loop,
		validator: validator,
		logger:    logger,
	}, nil
}

// FetchSchema resolves and fetches the descriptor's schema, parses it on
// the model loop, and hands dependent asset fetches to the asset manager.
// A descriptor without a schema path is a silent skip: catalog entries may
// legitimately lack schemas. onComplete runs exactly once after a
// successful parse, even when zero controls were parsed.
func (p *Pipeline) FetchSchema(d *gear.GearDescriptor, onComplete func()) {
	if d.SchemaPath == "" {
		p.logger.Debug("descriptor has no schema path, skipping",
			zap.String("unit_id", d.UnitID))
		return
	}

	url := p.resolver.Resolve(d.SchemaPath)

	// One worker per fetch. Concurrency is bounded by the handful of
	// fetches a single unit fans out to, so no pool is needed.
	go func() {
		raw, err := p.fetcher.FetchText(context.Background(), url)

		p.loop.Post(func() {
			if err != nil {
				p.logger.Warn("schema fetch failed",
					zap.String("unit_id", d.UnitID),
					zap.String("url", url),
					zap.Error(err))
				return
			}

			if parseErr := p.Parse([]byte(raw), d); parseErr != nil {
				p.logger.Warn("schema parse failed",
					zap.String("unit_id", d.UnitID),
					zap.String("url", url),
					zap.Error(parseErr))
				return
			}

			p.logger.Info("schema applied",
				zap.String("unit_id", d.UnitID),
				zap.Int("controls", len(d.Controls)))

			if onComplete != nil {
				onComplete()
			}
		})
	}()
}
