// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package agentcore defines the public interface for agentcore, a
// fuzzy-match text editing tool server exposed to LLM coding agents over
// stdio JSON-RPC.
package agentcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wrenhollow/agentcore/internal/editor"
	"github.com/wrenhollow/agentcore/internal/matcher"
	"github.com/wrenhollow/agentcore/internal/pathguard"
	"github.com/wrenhollow/agentcore/internal/rpcserver"
	"github.com/wrenhollow/agentcore/internal/shelltool"
)

// Error types for the Agent API.
var (
	ErrInvalidConfig = errors.New("invalid config")
)

// Config configures an Agent instance.
type Config struct {
	WorkspaceRoot         string // Directory all tool calls are confined to (required)
	Name                  string // Self-reported server name (default "agentcore")
	Version               string // Self-reported server version (default "dev")
	ShellTimeout          int    // Default shell command timeout in seconds (default 60)
	EditTimeout           int    // Matcher cascade wall-clock budget in seconds (default 2)
	FuzzyBlockThreshold   float64
	FuzzyContextThreshold float64
	Logger                zerolog.Logger
}

// Agent serves the fuzzy-edit tool surface over stdio until ctx is
// canceled or the transport closes.
type Agent interface {
	Serve(ctx context.Context) error
}

const defaultShellTimeout = 60

// New validates cfg, confines WorkspaceRoot, and returns a ready-to-serve
// Agent. It does not start serving; call Serve to begin processing
// requests.
func New(cfg Config) (Agent, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	applyDefaults(&cfg)

	root, err := pathguard.NewWorkspaceRoot(cfg.WorkspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if cfg.FuzzyBlockThreshold > 0 || cfg.FuzzyContextThreshold > 0 {
		matcher.SetThresholds(cfg.FuzzyBlockThreshold, cfg.FuzzyContextThreshold)
	}

	shell := shelltool.New().WithDefaultTimeout(time.Duration(cfg.ShellTimeout) * time.Second)
	textEditor := editor.NewWithBudget(time.Duration(cfg.EditTimeout) * time.Second)

	server, err := rpcserver.New(rpcserver.Deps{
		WorkspaceRoot: root,
		Editor:        textEditor,
		Shell:         shell,
		Logger:        cfg.Logger,
		Implementation: rpcserver.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("constructing rpc server: %w", err)
	}

	return &agentAdapter{server: server}, nil
}

// agentAdapter adapts internal/rpcserver.Server to the public Agent
// interface.
type agentAdapter struct {
	server *rpcserver.Server
}

func (a *agentAdapter) Serve(ctx context.Context) error {
	return a.server.Serve(ctx)
}

// validateConfig checks that required fields are present.
func validateConfig(cfg Config) error {
	if cfg.WorkspaceRoot == "" {
		return fmt.Errorf("WorkspaceRoot is required")
	}
	if cfg.ShellTimeout < 0 {
		return fmt.Errorf("ShellTimeout must not be negative")
	}
	if cfg.EditTimeout < 0 {
		return fmt.Errorf("EditTimeout must not be negative")
	}
	return nil
}

// applyDefaults fills in zero-value fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Name == "" {
		cfg.Name = "agentcore"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.ShellTimeout == 0 {
		cfg.ShellTimeout = defaultShellTimeout
	}
}
