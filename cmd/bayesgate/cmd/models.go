// Copyright 2026 Bayesgate, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/bayesgate/bayesgate/lib/engine"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the built-in model catalog",
	Long: `List the built-in probabilistic models the gateway can serve.

Every model in the catalog is registered at startup unless disabled in
the config file.

Examples:
  # List models
  bayesgate models

  # Full specs as JSON, including default hyperparameters
  bayesgate models --json`,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)

	// Models command flags
	modelsCmd.Flags().Bool("json", false, "Output full model specs as JSON")
}

func runModels(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	models := engine.Builtins()
	if asJSON {
		specs := make([]engine.ModelSpec, 0, len(models))
		for _, m := range models {
			specs = append(specs, m.Spec())
		}
		data, err := sonic.MarshalIndent(specs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tDESCRIPTION")
	for _, m := range models {
		spec := m.Spec()
		fmt.Fprintf(w, "%s\t%s\t%s\n", spec.ID, spec.Version, spec.Description)
	}
	return w.Flush()
}
