// Command scoop-mcp exposes the voice-entry engine as an MCP server over
// stdio, so LLM assistants can drive flavor counts with the same parse,
// confirm, and undo semantics as the interactive session endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/LBKdotdev/the-scoop/internal/catalog"
	"github.com/LBKdotdev/the-scoop/internal/config"
	"github.com/LBKdotdev/the-scoop/internal/voice"
	"github.com/LBKdotdev/the-scoop/internal/voice/session"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// stdout carries the MCP protocol, so logs must go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		cfg = config.Default()
	case err != nil:
		fmt.Fprintf(os.Stderr, "scoop-mcp: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := catalog.NewMemStore()
	for _, s := range cfg.Catalog.SeedFlavors {
		if _, err := store.Create(ctx, s.Name, s.Category); err != nil {
			slog.Error("seed flavor failed", "name", s.Name, "err", err)
			return 1
		}
	}
	flavors, err := store.List(ctx, true)
	if err != nil {
		slog.Error("list flavors failed", "err", err)
		return 1
	}

	engine := session.New(flavors, session.WithLogger(logger))
	server := newServer(engine)

	slog.Info("scoop-mcp serving on stdio", "flavors", len(flavors))
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("mcp server error", "err", err)
		return 1
	}
	return 0
}

type parseInput struct {
	Transcript string `json:"transcript" jsonschema:"natural-language inventory phrase, e.g. 'two and a half tubs of vanilla'"`
}

type entryOutput struct {
	FlavorID   int64   `json:"flavor_id"`
	FlavorName string  `json:"flavor_name"`
	Type       string  `json:"product_type"`
	Quantity   float64 `json:"quantity"`
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
}

type parseOutput struct {
	Status      string        `json:"status"`
	Auto        bool          `json:"auto"`
	Boosted     bool          `json:"boosted"`
	Entries     []entryOutput `json:"entries,omitempty"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

type applyInput struct{}

type changeOutput struct {
	FlavorName string  `json:"flavor_name"`
	Type       string  `json:"product_type"`
	OldValue   float64 `json:"old_value"`
	NewValue   float64 `json:"new_value"`
}

type applyOutput struct {
	Updates  []changeOutput `json:"updates"`
	Failures []string       `json:"failures,omitempty"`
}

type undoInput struct{}

type undoOutput struct {
	Undone  bool           `json:"undone"`
	Changes []changeOutput `json:"changes,omitempty"`
}

type listInput struct{}

type listOutput struct {
	Flavors []catalog.Flavor `json:"flavors"`
}

// newServer builds the MCP server with the four voice-entry tools.
func newServer(engine *session.Engine) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "scoop-mcp", Version: "1.0.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "parse_voice_command",
		Description: "Parse a natural-language ice cream inventory phrase into flavor count entries. High-confidence parses are staged; call apply_entries to commit them.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in parseInput) (*mcp.CallToolResult, parseOutput, error) {
		outcome, err := engine.Interpret(ctx, in.Transcript)
		if err != nil {
			if errors.Is(err, session.ErrNoPending) {
				return nil, parseOutput{Status: "nothing_pending"}, nil
			}
			return nil, parseOutput{}, err
		}
		out := parseOutput{
			Status:      string(outcome.Status),
			Auto:        outcome.Auto,
			Boosted:     outcome.Boosted,
			Suggestions: outcome.Suggestions,
		}
		for _, e := range outcome.Result.Entries {
			out.Entries = append(out.Entries, toEntryOutput(e))
		}
		return nil, out, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "apply_entries",
		Description: "Commit the currently staged parse result to the edit state.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, _ applyInput) (*mcp.CallToolResult, applyOutput, error) {
		report, err := engine.Commit()
		if err != nil {
			if errors.Is(err, session.ErrNoPending) {
				return nil, applyOutput{}, nil
			}
			return nil, applyOutput{}, err
		}
		out := applyOutput{}
		for _, c := range report.Updates {
			out.Updates = append(out.Updates, toChangeOutput(c))
		}
		for _, f := range report.Failures {
			out.Failures = append(out.Failures, fmt.Sprintf("%s %s: %s", f.Entry.FlavorName, f.Entry.Type, f.Reason))
		}
		return nil, out, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "undo_last",
		Description: "Reverse the most recently applied batch of entries.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, _ undoInput) (*mcp.CallToolResult, undoOutput, error) {
		changes, ok := engine.Undo()
		out := undoOutput{Undone: ok}
		for _, c := range changes {
			out.Changes = append(out.Changes, toChangeOutput(c))
		}
		return nil, out, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_flavors",
		Description: "List the active flavor catalog visible to the parser.",
	}, func(_ context.Context, _ *mcp.CallToolRequest, _ listInput) (*mcp.CallToolResult, listOutput, error) {
		return nil, listOutput{Flavors: engine.Flavors()}, nil
	})

	return server
}

func toEntryOutput(e voice.Entry) entryOutput {
	return entryOutput{
		FlavorID:   e.FlavorID,
		FlavorName: e.FlavorName,
		Type:       string(e.Type),
		Quantity:   e.Quantity,
		Action:     string(e.Action),
		Confidence: e.Confidence,
	}
}

func toChangeOutput(c session.Change) changeOutput {
	return changeOutput{
		FlavorName: c.FlavorName,
		Type:       string(c.Key.Type),
		OldValue:   c.OldValue,
		NewValue:   c.NewValue,
	}
}
