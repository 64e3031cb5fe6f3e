// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"fmt"
	"os"

	"github.com/consensys/go-measure/pkg/term"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval [flags] term...",
	Short: "construct (and optionally evaluate) one or more terms.",
	Long: `Parse and construct each term under a given interpretation, and print
	the resulting term.  Free variables must be declared, either with --var or in
	the configuration file.  For example:

	measure eval --var x:int(3) "(reduce + (x) (* x x))"`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		//
		config := loadConfig(cmd)
		//
		if changed(cmd, "interpretation") {
			config.Interpretation = GetString(cmd, "interpretation")
		}
		//
		if err := config.Declare(GetStringArray(cmd, "var")...); err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		validate(&config)
		//
		if !evalTerms(config, GetFlag(cmd, "evaluate"), args...) {
			os.Exit(1)
		}
	},
}

// Construct each term in turn using a single arena, returning false if any
// could not be constructed.
func evalTerms(config Config, evaluate bool, terms ...string) bool {
	var (
		registry = prometheus.NewRegistry()
		options  = []term.Option{term.WithInterpretation(config.interpretation())}
		width    = outputWidth(config)
		ok       = true
	)
	//
	if config.Metrics {
		options = append(options, term.WithMetrics(term.NewMetrics(registry)))
	}
	//
	env, err := config.Environment()
	if err != nil {
		fmt.Println(err)
		return false
	}
	//
	arena := term.NewArena(options...)
	//
	for i, text := range terms {
		t, err := term.Parse(arena, env, text)
		//
		if err == nil && evaluate {
			t, err = arena.Evaluate(t)
		}
		//
		if err != nil {
			printError(fmt.Sprintf("term %d", i+1), text, err)
			ok = false
			//
			continue
		}
		//
		if log.IsLevelEnabled(log.DebugLevel) {
			log.Debugf("term %d has inputs %s and output %s", i+1, t.Inputs().String(), t.Output().String())
		}
		//
		fmt.Println(truncate(t.String(), width))
	}
	//
	log.Debugf("arena holds %d terms", arena.Size())
	//
	if config.Metrics {
		printMetrics(registry)
	}
	//
	return ok
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringP("interpretation", "i", "eager", "interpretation to construct under (reflect, eager or optimize)")
	evalCmd.Flags().StringArrayP("var", "d", []string{}, "declare a free variable (e.g. x:real or i:int(3))")
	evalCmd.Flags().BoolP("evaluate", "e", false, "evaluate each term to a value")
}
