// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wrenhollow/agentcore/pkg/agentcore"
)

// newServeCmd creates the "serve" command.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the stdio JSON-RPC tool server",
		Long:  "Serve starts the fuzzy-edit tool server and blocks, exchanging JSON-RPC 2.0 requests over stdin/stdout until stdin closes or it receives SIGINT.",
		RunE:  runServe,
	}
}

// runServe starts the agent and blocks until ctx is canceled.
func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger(viper.GetString("log-level"))

	cfg := agentcore.Config{
		WorkspaceRoot:         viper.GetString("workspace"),
		Name:                  "agentcore",
		Version:               version,
		FuzzyBlockThreshold:   viper.GetFloat64("fuzzy-block-threshold"),
		FuzzyContextThreshold: viper.GetFloat64("fuzzy-context-threshold"),
		EditTimeout:           viper.GetInt("edit-timeout"),
		Logger:                logger,
	}

	agent, err := agentcore.New(cfg)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger.Info().Str("workspace", cfg.WorkspaceRoot).Msg("agentcore serving")

	if err := agent.Serve(ctx); err != nil {
		logger.Error().Err(err).Msg("agentcore exited with error")
		return err
	}
	return nil
}

// newLogger builds a stderr zerolog.Logger at the requested level, since
// stdout is reserved for JSON-RPC protocol traffic. An unparseable level
// falls back to info rather than erroring on a typo'd level.
func newLogger(level string) zerolog.Logger {
	lvl := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil {
		lvl = parsed
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}
