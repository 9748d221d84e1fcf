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

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/your-org/arch-planner/internal/decide"
)

// confirmFunc asks one yes/no question
type confirmFunc func(q decide.Question) (bool, error)

func surveyConfirm(q decide.Question) (bool, error) {
	var answer bool
	err := survey.AskOne(&survey.Confirm{
		Message: q.Prompt,
		Help:    q.Help,
		Default: false,
	}, &answer)
	return answer, err
}

func newDecideCmd(root *rootOptions) *cobra.Command {
	return newDecideCmdWith(root, surveyConfirm)
}

func newDecideCmdWith(root *rootOptions, confirm confirmFunc) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Answer three questions to find your application type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(output); err != nil {
				return err
			}

			answers := make(map[string]bool, len(decide.Questions))
			for _, q := range decide.Questions {
				yes, err := confirm(q)
				if err != nil {
					return fmt.Errorf("failed to read answer: %w", err)
				}
				answers[q.Key] = yes
			}

			result := decide.Suggest(decide.Answers{
				UserFacing: answers["userFacing"],
				Instant:    answers["instant"],
				StoresData: answers["storesData"],
			})

			if output == formatJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}

			label := result.ApplicationType
			if cat, _, err := root.loadCatalog(); err == nil {
				if t, ok := cat.ApplicationType(result.ApplicationType); ok {
					label = t.Label
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\nSuggested application type: %s (%s)\n", label, result.ApplicationType)
			fmt.Fprintf(out, "%s\n\n", result.Reason)
			fmt.Fprintf(out, "Next: planctl recommend --type %s --traffic <low|medium|high> --effort <low|medium|high> --budget <usd>\n", result.ApplicationType)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", formatText, "Output format (text, json)")
	return cmd
}
