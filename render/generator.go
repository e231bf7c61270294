// render/generator.go
package render

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Generator builds, renders and caches the summary after each refresh.
type Generator struct {
	source   Source
	renderer Renderer
	cache    *FileCache
	logger   *zap.Logger
}

func NewGenerator(source Source, renderer Renderer, cache *FileCache, logger *zap.Logger) *Generator {
	return &Generator{
		source:   source,
		renderer: renderer,
		cache:    cache,
		logger:   logger.Named("summary"),
	}
}

func (g *Generator) Generate(ctx context.Context, generatedAt time.Time) error {
	s, err := BuildSummary(ctx, g.source, generatedAt)
	if err != nil {
		return err
	}
	data, err := g.renderer.Render(s)
	if err != nil {
		return err
	}
	if err := g.cache.Save(g.renderer.Format(), data); err != nil {
		return err
	}
	g.logger.Info("summary generated",
		zap.String("format", string(g.renderer.Format())),
		zap.Int("bytes", len(data)),
		zap.Int("total_countries", s.TotalCountries),
	)
	return nil
}
