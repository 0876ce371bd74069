// AIOps assistant: a terminal chat with an LLM that can call probe
// functions against the environment (database inventory, object storage).
//
// Usage:
//
//	assistant                                # interactive TUI
//	assistant -prompt "which servers run mysql?"
//	assistant -config /etc/assistant.yaml -log-level debug
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ilkoid/aiops-assistant/internal/app"
	"github.com/ilkoid/aiops-assistant/internal/ui"
	appcomponents "github.com/ilkoid/aiops-assistant/pkg/app"
	"github.com/ilkoid/aiops-assistant/pkg/config"
	"github.com/ilkoid/aiops-assistant/pkg/conversation"
	"github.com/ilkoid/aiops-assistant/pkg/events"
	"github.com/ilkoid/aiops-assistant/pkg/utils"
)

func main() {
	if err := run(); err != nil {
		var turnErr *conversation.TurnError
		if errors.As(err, &turnErr) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", turnErr.UserMessage())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to assistant.yaml (default: search the current directory)")
	prompt := flag.String("prompt", "", "ask a single question, print the answer and exit")
	logLevel := flag.String("log-level", "", "override log_level (debug, info, warn, error)")
	flag.Parse()

	// 1. Configuration errors are fatal before anything else starts.
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	level, err := utils.ParseLevel(cfg.LogLevel)
	if err != nil {
		return config.Errorf("log_level", "%v", err)
	}

	// 2. Logger
	if err := utils.InitLogger(cfg.LogFile, level); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logger: %v\n", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer utils.SetupGracefulShutdown(cancel)()

	utils.Info("Application started", "config", *configPath, "model", cfg.OpenAI.Model)
	logKeysInfo(cfg)

	// 3. One-shot mode
	if *prompt != "" {
		return runOnce(ctx, cfg, *prompt)
	}

	// 4. Interactive mode
	return runTUI(ctx, cfg)
}

func runOnce(ctx context.Context, cfg *config.AppConfig, prompt string) error {
	components, err := appcomponents.Initialize(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer components.Close()

	result, err := appcomponents.Execute(ctx, components, prompt, 0)
	if err != nil {
		return err
	}

	fmt.Println(result.Response)
	utils.Info("One-shot prompt completed",
		"function_calls", result.FunctionCalls,
		"truncated", result.Truncated,
		"duration_ms", result.Duration.Milliseconds())
	return nil
}

func runTUI(ctx context.Context, cfg *config.AppConfig) error {
	emitter := events.NewChanEmitter(100)
	defer emitter.Close()

	components, err := appcomponents.Initialize(ctx, cfg, emitter)
	if err != nil {
		return err
	}
	defer components.Close()

	state := app.NewAppState(components.Conversation, cfg.OpenAI.Model)
	model := ui.InitialModel(ctx, state, emitter.Subscribe())

	utils.Info("Starting TUI", "session", components.Conversation.ID())
	p := tea.NewProgram(model, tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		utils.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	if dropped := emitter.Dropped(); dropped > 0 {
		utils.Warn("Progress events dropped", "count", dropped)
	}
	utils.Info("Application exited normally")
	return nil
}

// logKeysInfo records which secrets were loaded, masked.
func logKeysInfo(cfg *config.AppConfig) {
	utils.Info("API keys status",
		"openai_token", utils.MaskKey(cfg.OpenAI.Token),
		"base_url", cfg.OpenAI.BaseURL,
		"s3_access_key", utils.MaskKey(cfg.Probes.Storage.AccessKey),
		"mysql_connections", len(cfg.Probes.Database.Connections))
}
