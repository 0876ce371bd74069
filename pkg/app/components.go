// Package app wires the assistant's components from configuration so every
// entry point (one-shot CLI, TUI) initializes the same way.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ilkoid/aiops-assistant/pkg/config"
	"github.com/ilkoid/aiops-assistant/pkg/conversation"
	"github.com/ilkoid/aiops-assistant/pkg/events"
	"github.com/ilkoid/aiops-assistant/pkg/factory"
	"github.com/ilkoid/aiops-assistant/pkg/llm"
	"github.com/ilkoid/aiops-assistant/pkg/probes/database"
	"github.com/ilkoid/aiops-assistant/pkg/probes/storage"
	"github.com/ilkoid/aiops-assistant/pkg/tools"
	"github.com/ilkoid/aiops-assistant/pkg/utils"
)

// Components holds everything a session needs.
type Components struct {
	Config       *config.AppConfig
	Registry     *tools.Registry
	LLM          llm.Provider
	Conversation *conversation.Conversation

	closers []func() error
}

// ExecutionResult is the outcome of one Execute call.
type ExecutionResult struct {
	Response      string
	FunctionCalls int
	Truncated     bool
	History       []llm.Message
	Duration      time.Duration
}

// Initialize registers the configured probes, creates the provider and
// starts a primed conversation. Every error is a configuration error:
// the caller must not start the prompt loop.
func Initialize(ctx context.Context, cfg *config.AppConfig, emitter events.Emitter) (*Components, error) {
	c := &Components{
		Config:   cfg,
		Registry: tools.NewRegistry(),
	}

	if err := c.setupProbes(ctx); err != nil {
		c.Close()
		return nil, err
	}

	provider, err := factory.NewProvider(cfg.OpenAI)
	if err != nil {
		c.Close()
		utils.Error("LLM provider creation failed", "error", err)
		return nil, err
	}
	c.LLM = provider
	utils.Info("LLM provider created", "provider", cfg.OpenAI.Provider, "model", cfg.OpenAI.Model)

	conv, err := conversation.New(conversation.Config{
		Provider:               provider,
		Registry:               c.Registry,
		SystemPrompt:           cfg.Conversation.SystemPrompt,
		MaxFunctionCalls:       cfg.Conversation.MaxFunctionCalls,
		FollowUpWithoutCatalog: cfg.Conversation.FollowUpWithoutCatalog,
		Emitter:                emitter,
	})
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Conversation = conv

	return c, nil
}

// setupProbes registers the database probe (unless disabled) and the
// storage probe (when an endpoint is configured).
func (c *Components) setupProbes(ctx context.Context) error {
	probesCfg := c.Config.Probes

	if !probesCfg.Database.Disabled {
		dbProbe, err := database.FromConfig(ctx, probesCfg.Database)
		if err != nil {
			utils.Error("Database probe creation failed", "error", err)
			return err
		}
		c.closers = append(c.closers, dbProbe.Close)
		if err := c.Registry.Register(dbProbe); err != nil {
			return err
		}
	}

	if probesCfg.Storage.Enabled() {
		s3Probe, err := storage.FromConfig(probesCfg.Storage)
		if err != nil {
			utils.Error("Storage probe creation failed", "error", err)
			return err
		}
		if err := c.Registry.Register(s3Probe); err != nil {
			return err
		}
	}

	utils.Info("Probes registered", "functions", c.Registry.Len())
	return nil
}

// Execute runs one prompt with a timeout.
func Execute(ctx context.Context, c *Components, query string, timeout time.Duration) (*ExecutionResult, error) {
	startTime := time.Now()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := c.Conversation.RunPrompt(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("prompt failed: %w", err)
	}

	return &ExecutionResult{
		Response:      resp.Content,
		FunctionCalls: resp.FunctionCalls,
		Truncated:     resp.Truncated,
		History:       c.Conversation.History(),
		Duration:      time.Since(startTime),
	}, nil
}

// Close releases probe resources. Safe to call more than once.
func (c *Components) Close() error {
	var firstErr error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.closers = nil
	return firstErr
}
