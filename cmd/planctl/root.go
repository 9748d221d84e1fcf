// Copyright 2024 AI SA Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/your-org/arch-planner/internal/catalog"
	"github.com/your-org/arch-planner/internal/config"
	"github.com/your-org/arch-planner/internal/engine"
)

// Output formats
const (
	formatText = "text"
	formatJSON = "json"
)

type rootOptions struct {
	configPath  string
	catalogPath string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "planctl",
		Short: "Plan cost-bounded AWS architectures",
		Long: `planctl recommends an AWS architecture for an application from its
type, traffic, storage, operational effort and monthly budget.

Examples:
  planctl recommend --type static-website --traffic low --effort low --budget 50
  planctl recommend -t backend-api --traffic medium --effort medium --budget 120 --database -o json
  planctl catalog services --category compute
  planctl decide`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.PersistentFlags().StringVar(&opts.catalogPath, "catalog", "", "Path to a catalog file (overrides the configured catalog)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log engine decisions to stderr")

	cmd.AddCommand(newRecommendCmd(opts))
	cmd.AddCommand(newCatalogCmd(opts))
	cmd.AddCommand(newDecideCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "planctl version 1.0.0")
		},
	}
}

// loadConfig reads the optional config file. Without one the defaults apply.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ConfigPath:       o.configPath,
		Environment:      "development",
		ValidateRequired: true,
	})
	if err != nil {
		return nil, err
	}
	if o.catalogPath != "" {
		cfg.Catalog.Path = o.catalogPath
	}
	return cfg, nil
}

func (o *rootOptions) logger() *zap.Logger {
	if !o.verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func (o *rootOptions) loadCatalog() (*catalog.Catalog, *config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load service catalog: %w", err)
	}
	return cat, cfg, nil
}

func (o *rootOptions) newEngine() (*engine.Engine, error) {
	cat, cfg, err := o.loadCatalog()
	if err != nil {
		return nil, err
	}
	return engine.New(cat, engine.Options{
		MaxAlternatives:      cfg.Engine.MaxAlternatives,
		MaxUpgrades:          cfg.Engine.MaxUpgrades,
		TightBudgetThreshold: cfg.Engine.TightBudgetThreshold,
	}, o.logger()), nil
}

func checkFormat(format string) error {
	if format != formatText && format != formatJSON {
		return fmt.Errorf("unsupported output format %q (use %s or %s)", format, formatText, formatJSON)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
