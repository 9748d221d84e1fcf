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
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/your-org/arch-planner/internal/catalog"
)

func newCatalogCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the service catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newCatalogServicesCmd(root))
	cmd.AddCommand(newCatalogUseCasesCmd(root))
	return cmd
}

func newCatalogServicesCmd(root *rootOptions) *cobra.Command {
	var category, output string

	cmd := &cobra.Command{
		Use:   "services",
		Short: "List catalog services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(output); err != nil {
				return err
			}
			cat, _, err := root.loadCatalog()
			if err != nil {
				return err
			}

			entries := cat.Entries()
			if category != "" {
				c := catalog.Category(strings.ToLower(category))
				if !c.Valid() {
					return fmt.Errorf("unknown category %q", category)
				}
				entries = cat.ByCategory(c)
			}

			if output == formatJSON {
				if entries == nil {
					entries = []catalog.Entry{}
				}
				return writeJSON(cmd.OutOrStdout(), entries)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tSCALABILITY\tEFFORT\tUSE CASES")
			for _, e := range entries {
				useCases := "any"
				if !e.Agnostic() {
					useCases = strings.Join(e.UseCases, ",")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", e.ID, e.Name, e.Category, e.Scalability, e.OperationalEffort, useCases)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only list services in this category")
	cmd.Flags().StringVarP(&output, "output", "o", formatText, "Output format (text, json)")
	return cmd
}

func newCatalogUseCasesCmd(root *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "use-cases",
		Short: "List supported application types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(output); err != nil {
				return err
			}
			cat, _, err := root.loadCatalog()
			if err != nil {
				return err
			}

			types := cat.ApplicationTypes()
			if output == formatJSON {
				useCases := make(map[string]string, len(types))
				for _, t := range types {
					useCases[t.ID] = t.Label
				}
				return writeJSON(cmd.OutOrStdout(), useCases)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tLABEL\tREQUIRED CATEGORIES")
			for _, t := range types {
				required := make([]string, len(t.RequiredCategories))
				for i, c := range t.RequiredCategories {
					required[i] = string(c)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.Label, strings.Join(required, ","))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", formatText, "Output format (text, json)")
	return cmd
}
