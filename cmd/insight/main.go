// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/SensoryInsight/pkg/logging"
	"github.com/AleutianAI/SensoryInsight/services/insight"
)

var rootCmd = &cobra.Command{
	Use:   "insight",
	Short: "Behavioral analysis service with hallucination validation",
	Long: "insight analyzes behavioral observation logs with a local or remote\n" +
		"language model and validates every numeric claim in the generated\n" +
		"narrative against statistics computed from the source records.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the insight HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.New(logging.Config{
			Level:   logging.LevelInfo,
			LogDir:  os.Getenv("INSIGHT_LOG_DIR"),
			Service: "insight",
			JSON:    true,
		})
		defer logger.Close()
		slog.SetDefault(logger.Slog())

		cfg := insight.ConfigFromEnv()

		cleanup, err := insight.InitTracer(cfg)
		if err != nil {
			return err
		}
		defer cleanup(context.Background())

		orch := insight.BuildOrchestrator(cfg, logger.Slog())
		router := insight.NewRouter(orch)

		slog.Info("starting the insight service", "port", cfg.Port)
		return router.Run(":" + cfg.Port)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
