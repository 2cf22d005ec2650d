// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Command agentcore is a stdio JSON-RPC tool server exposing a
// fuzzy-match text editor, shell, and search tools to an LLM-driven
// coding agent.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "agentcore",
		Short: "Fuzzy-match text editing tool server",
		Long:  "agentcore exposes a fuzzy search/replace text editor, shell, and search tools to an LLM coding agent over stdio JSON-RPC.",
	}

	// Global flags.
	rootCmd.PersistentFlags().String("workspace", ".", "Workspace root directory all tool calls are confined to")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Float64("fuzzy-block-threshold", 0.8, "Block-anchor matcher acceptance threshold")
	rootCmd.PersistentFlags().Float64("fuzzy-context-threshold", 0.85, "Context-aware matcher acceptance threshold")
	rootCmd.PersistentFlags().Int("edit-timeout", 2, "Matcher cascade wall-clock budget in seconds")

	// Bind flags to viper.
	viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("fuzzy-block-threshold", rootCmd.PersistentFlags().Lookup("fuzzy-block-threshold"))
	viper.BindPFlag("fuzzy-context-threshold", rootCmd.PersistentFlags().Lookup("fuzzy-context-threshold"))
	viper.BindPFlag("edit-timeout", rootCmd.PersistentFlags().Lookup("edit-timeout"))

	// Env vars: AGENTCORE_WORKSPACE, AGENTCORE_LOG_LEVEL, etc.
	viper.SetEnvPrefix("AGENTCORE")
	viper.AutomaticEnv()

	// Config file.
	viper.SetConfigName(".agentcore")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.ReadInConfig() // Ignore error; config file is optional.

	// Add commands.
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newVersionCmd creates the "version" command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print agentcore version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("agentcore " + version)
		},
	}
}
