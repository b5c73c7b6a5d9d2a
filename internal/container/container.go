// Package container provides dependency injection for the keiridocs
// application. It centralizes the creation and wiring of all
// dependencies, making them explicit and testable.
package container

import (
	"context"
	"fmt"
	"time"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/config"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/documents"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/export"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/logging"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/mailintake"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/notify"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/ocr"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/pathbuilder"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/storage"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/store"
)

// Container holds all application dependencies. It is immutable after
// creation; components are reached through getter methods only.
type Container struct {
	logger    logging.Logger
	config    *config.Config
	store     *store.Store
	storage   storage.Storage
	ocrClient *ocr.GeminiClient

	documents  *documents.Service
	mailintake *mailintake.Service
	export     *export.Aggregator
	notifier   notify.Notifier
}

// NewContainer creates and wires all application dependencies.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	logger := logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)

	st, err := store.Open(cfg.Database.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	pace := time.Duration(cfg.Storage.PaceMillis) * time.Millisecond
	fs, err := storage.NewFS(cfg.Storage.Dir, pace, logger)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to create storage backend: %w", err)
	}

	var ocrClient *ocr.GeminiClient
	if cfg.AI.Enabled && cfg.AI.APIKey != "" {
		timeout := time.Duration(cfg.AI.TimeoutSeconds) * time.Second
		ocrClient, err = ocr.NewGeminiClient(ctx, cfg.AI.APIKey, cfg.AI.Model, timeout, logger)
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("failed to create OCR client: %w", err)
		}
		logger.Info("AI document analysis enabled")
	} else {
		logger.Info("AI document analysis disabled")
	}

	paths := pathbuilder.Builder{Root: cfg.Storage.DocumentsRoot}
	notifier := &notify.LogNotifier{Logger: logger}

	// The nil-interface dance matters: passing a typed nil pointer
	// through an interface value would defeat the ocr == nil checks.
	var ocrIface ocr.Client
	if ocrClient != nil {
		ocrIface = ocrClient
	}

	c := &Container{
		logger:     logger,
		config:     cfg,
		store:      st,
		storage:    fs,
		ocrClient:  ocrClient,
		notifier:   notifier,
		documents:  documents.NewService(st, fs, ocrIface, paths, logger),
		mailintake: mailintake.NewService(st, fs, ocrIface, paths, logger),
		export:     export.NewAggregator(st, fs, notifier, cfg.Export.Root, logger),
	}
	return c, nil
}

// Close releases held resources.
func (c *Container) Close() error {
	if c.ocrClient != nil {
		if err := c.ocrClient.Close(); err != nil {
			c.logger.WithError(err).Warn("Failed to close OCR client")
		}
	}
	return c.store.Close()
}

// Logger returns the application logger.
func (c *Container) Logger() logging.Logger { return c.logger }

// Config returns the application configuration.
func (c *Container) Config() *config.Config { return c.config }

// Store returns the relational store.
func (c *Container) Store() *store.Store { return c.store }

// Storage returns the object-storage backend.
func (c *Container) Storage() storage.Storage { return c.storage }

// Documents returns the document lifecycle service.
func (c *Container) Documents() *documents.Service { return c.documents }

// MailIntake returns the mail approval service.
func (c *Container) MailIntake() *mailintake.Service { return c.mailintake }

// Export returns the monthly export aggregator.
func (c *Container) Export() *export.Aggregator { return c.export }

// Notifier returns the notification backend.
func (c *Container) Notifier() notify.Notifier { return c.notifier }
