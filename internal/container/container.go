// Package container wires the application's dependency graph.
package container

import (
	"context"
	"fmt"
	"net/http"

	"github.com/apexscan/ingredient-scanner-go/internal/config"
	"github.com/apexscan/ingredient-scanner-go/internal/factory"
	"github.com/apexscan/ingredient-scanner-go/internal/logger"
	"github.com/apexscan/ingredient-scanner-go/internal/lookup"
	"github.com/apexscan/ingredient-scanner-go/internal/observer"
	"github.com/apexscan/ingredient-scanner-go/internal/ocr"
	"github.com/apexscan/ingredient-scanner-go/internal/pipeline"
	"github.com/apexscan/ingredient-scanner-go/internal/scoring"
	"github.com/apexscan/ingredient-scanner-go/internal/source"
	"github.com/apexscan/ingredient-scanner-go/internal/transport"
)

// Container holds all application dependencies.
type Container struct {
	config    *config.Config
	extractor ocr.TextExtractor
	scorer    scoring.Scorer
	lookup    *lookup.Client
	images    source.ImageSource
	pipeline  *pipeline.Pipeline
	metrics   *observer.MetricsObserver
	handler   http.Handler
}

// NewContainer builds the dependency graph from configuration.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	extractor, err := factory.NewExtractor(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	scorer, err := factory.NewScorer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create scorer: %w", err)
	}

	sourceType := factory.HTTPSource
	if cfg.AzureStorageAccount != "" && cfg.AzureStorageKey != "" {
		sourceType = factory.AzureSource
	}
	images, err := factory.NewImageSource(sourceType, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create image source: %w", err)
	}

	metrics := observer.NewMetricsObserver()
	publisher := observer.NewEventPublisher()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	pipe := pipeline.New(extractor, scorer,
		pipeline.WithSettleDelay(cfg.SettleDelay),
		pipeline.WithPublisher(publisher),
	)

	lookupClient := lookup.NewClient(cfg.OFFBaseURL, cfg.LookupTimeout)
	handler := transport.NewHandler(pipe, scorer, lookupClient, images, cfg)

	return &Container{
		config:    cfg,
		extractor: extractor,
		scorer:    scorer,
		lookup:    lookupClient,
		images:    images,
		pipeline:  pipe,
		metrics:   metrics,
		handler:   handler,
	}, nil
}

// Handler returns the HTTP handler.
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Pipeline returns the analysis pipeline.
func (c *Container) Pipeline() *pipeline.Pipeline {
	return c.pipeline
}

// Metrics returns the run metrics observer.
func (c *Container) Metrics() *observer.MetricsObserver {
	return c.metrics
}

// Close releases backend resources (the OCR worker pool).
func (c *Container) Close() error {
	if c.extractor != nil {
		return c.extractor.Close()
	}
	return nil
}
