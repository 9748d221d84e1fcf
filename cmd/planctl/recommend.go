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
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/your-org/arch-planner/internal/api"
	"github.com/your-org/arch-planner/internal/engine"
)

type recommendOptions struct {
	applicationType string
	traffic         string
	storageGB       int
	databaseNeeded  bool
	effort          string
	budget          float64
	output          string
}

func newRecommendCmd(root *rootOptions) *cobra.Command {
	opts := &recommendOptions{}

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend an architecture for an application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(opts.output); err != nil {
				return err
			}

			req, err := engine.ParseRequirements(opts.input(cmd))
			if err != nil {
				return err
			}

			eng, err := root.newEngine()
			if err != nil {
				return err
			}

			rec, err := eng.Recommend(req)
			if err != nil {
				return err
			}

			if opts.output == formatJSON {
				return writeJSON(cmd.OutOrStdout(), api.NewRecommendationResponse(rec))
			}
			return printRecommendation(cmd.OutOrStdout(), rec)
		},
	}

	cmd.Flags().StringVarP(&opts.applicationType, "type", "t", "", "Application type ("+strings.Join(engine.ApplicationTypes, ", ")+")")
	cmd.Flags().StringVar(&opts.traffic, "traffic", "", "Expected traffic (low, medium, high)")
	cmd.Flags().IntVar(&opts.storageGB, "storage", 0, "Storage needed in GB")
	cmd.Flags().BoolVar(&opts.databaseNeeded, "database", false, "The application needs a database")
	cmd.Flags().StringVar(&opts.effort, "effort", "", "Acceptable operational effort (low, medium, high)")
	cmd.Flags().Float64Var(&opts.budget, "budget", 0, "Monthly budget in USD")
	cmd.Flags().StringVarP(&opts.output, "output", "o", formatText, "Output format (text, json)")

	return cmd
}

// input leaves flags the user did not set nil so validation reports them
// the same way the HTTP API does.
func (o *recommendOptions) input(cmd *cobra.Command) engine.RequirementsInput {
	var in engine.RequirementsInput
	flags := cmd.Flags()
	if flags.Changed("type") {
		in.ApplicationType = &o.applicationType
	}
	if flags.Changed("traffic") {
		in.Traffic = &o.traffic
	}
	if flags.Changed("storage") {
		in.StorageGB = &o.storageGB
	}
	if flags.Changed("database") {
		in.DatabaseNeeded = &o.databaseNeeded
	}
	if flags.Changed("effort") {
		in.OperationalEffort = &o.effort
	}
	if flags.Changed("budget") {
		in.MonthlyBudget = &o.budget
	}
	return in
}

func printRecommendation(w io.Writer, rec engine.Recommendation) error {
	p := &printer{w: w}

	p.printf("%s\n\n", rec.Message)
	p.architecture(rec.Primary)
	p.printf("Budget: $%.2f/month (within budget: %t)\n", rec.Budget, rec.WithinBudget)

	if len(rec.Primary.OptionalUpgrades) > 0 {
		p.printf("\nOptional upgrades:\n")
		for _, u := range rec.Primary.OptionalUpgrades {
			p.printf("  - %s\n", u)
		}
	}

	for _, alt := range rec.Alternatives {
		p.printf("\n")
		p.architecture(alt)
	}

	sections := []struct {
		title      string
		statements []engine.Statement
	}{
		{"Rejected options", rec.Narrative.RejectedOptions},
		{"Trade-offs", rec.Narrative.TradeOffs},
		{"Constraint impacts", rec.Narrative.ConstraintImpacts},
		{"Omitted categories", rec.Narrative.OmittedCategories},
		{"Assumptions", rec.Narrative.Assumptions},
	}
	for _, s := range sections {
		if len(s.statements) == 0 {
			continue
		}
		p.printf("\n%s:\n", s.title)
		for _, st := range s.statements {
			p.printf("  - %s: %s\n", st.Title, st.Detail)
		}
	}

	return p.err
}

// printer remembers the first write error so callers check once
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) architecture(arch engine.Architecture) {
	p.printf("%s: %s\n", arch.Name, arch.Description)
	if p.err != nil {
		return
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  CATEGORY\tSERVICE\tCOST/MONTH\tNOTES")
	for _, s := range arch.Selections {
		var notes []string
		if s.Fallback {
			notes = append(notes, "fallback")
		}
		if s.BudgetFit {
			notes = append(notes, "budget fit")
		}
		fmt.Fprintf(tw, "  %s\t%s\t$%s\t%s\n", s.Entry.Category, s.Entry.Name, s.Cost.StringFixed(2), strings.Join(notes, ", "))
	}
	if err := tw.Flush(); err != nil {
		p.err = err
		return
	}

	p.printf("  Total: $%s/month\n", arch.TotalCost.StringFixed(2))
	if len(arch.Trimmed) > 0 {
		trimmed := make([]string, len(arch.Trimmed))
		for i, c := range arch.Trimmed {
			trimmed[i] = string(c)
		}
		p.printf("  Left out to fit the budget: %s\n", strings.Join(trimmed, ", "))
	}
}
