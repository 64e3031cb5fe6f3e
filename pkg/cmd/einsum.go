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
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/consensys/go-measure/pkg/einsum"
	"github.com/consensys/go-measure/pkg/ops"
	"github.com/consensys/go-measure/pkg/term"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var einsumCmd = &cobra.Command{
	Use:   "einsum [flags] equation...",
	Short: "contract random operands both symbolically and directly.",
	Long: `For each einsum equation (e.g. "ab,bc->ac"), generate random operands
	and contract them both symbolically (by integrating against a counting
	measure) and directly.  Reports the largest difference between the two.
	Indices have size 2 unless given with --size.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		//
		config := loadConfig(cmd)
		//
		if changed(cmd, "backend") {
			config.Backend = GetString(cmd, "backend")
		}
		//
		if changed(cmd, "parallel") {
			config.Parallelism = int(GetUint(cmd, "parallel"))
		}
		//
		if changed(cmd, "seed") {
			config.Seed = int64(GetUint(cmd, "seed"))
		}
		//
		if err := config.Resize(GetStringArray(cmd, "size")...); err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		validate(&config)
		//
		reports, err := contractAll(context.Background(), config, args...)
		//
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		//
		width := outputWidth(config)
		//
		for _, report := range reports {
			fmt.Println(truncate(report, width))
		}
	},
}

// Contract each equation concurrently, with one arena per equation.  Reports
// are returned in the order of the equations.
func contractAll(ctx context.Context, config Config, equations ...string) ([]string, error) {
	var (
		registry = prometheus.NewRegistry()
		metrics  *term.Metrics
		reports  = make([]string, len(equations))
	)
	//
	backend, err := einsum.ParseBackend(config.Backend)
	if err != nil {
		return nil, err
	}
	//
	if config.Metrics {
		metrics = term.NewMetrics(registry)
	}
	//
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(config.Parallelism)
	//
	for i, text := range equations {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			//
			report, err := contract(config, backend, metrics, int64(i), text)
			if err != nil {
				return fmt.Errorf("%s: %w", text, err)
			}
			//
			reports[i] = report
			//
			return nil
		})
	}
	//
	if err := g.Wait(); err != nil {
		return nil, err
	}
	//
	if config.Metrics {
		printMetrics(registry)
	}
	//
	return reports, nil
}

// Contract a single equation over random operands.
func contract(config Config, backend einsum.Backend, metrics *term.Metrics, offset int64,
	text string) (string, error) {
	var (
		options []term.Option
		rng     = rand.New(rand.NewSource(config.Seed + offset))
		sizes   = make(map[string]uint)
	)
	//
	if metrics != nil {
		options = append(options, term.WithMetrics(metrics))
	}
	//
	arena := term.NewArena(options...)
	//
	equation, err := einsum.Parse(text)
	if err != nil {
		return "", err
	}
	//
	for _, indices := range equation.Inputs {
		for _, index := range indices {
			if sizes[index] = config.Sizes[index]; sizes[index] == 0 {
				sizes[index] = 2
			}
		}
	}
	//
	operands, err := einsum.Example(arena, equation, sizes, rng)
	if err != nil {
		return "", err
	}
	//
	direct, err := einsum.Direct(arena, backend, equation, operands...)
	if err != nil {
		return "", err
	}
	//
	naive, err := einsum.Naive(arena, backend, equation, operands...)
	//
	if err != nil {
		// Symbolic contraction is not available for all backends
		log.Debugf("%s: %s", equation.String(), err)
		//
		return fmt.Sprintf("%s %s = %s", equation.String(), backend, direct.String()), nil
	}
	//
	diff, err := maxDifference(arena, direct, naive)
	if err != nil {
		return "", err
	}
	//
	log.Debugf("%s: arena holds %d terms", equation.String(), arena.Size())
	//
	return fmt.Sprintf("%s %s = %s (max difference %g)", equation.String(), backend, direct.String(), diff), nil
}

// Determine the largest absolute difference between two values.
func maxDifference(arena *term.Arena, lhs term.Term, rhs term.Term) (float64, error) {
	var result term.Term
	//
	err := arena.Interpret(term.Eager, func() error {
		diff, err := arena.Binary(ops.Sub, lhs, rhs)
		//
		if err == nil {
			diff, err = arena.Unary(ops.Abs, diff)
		}
		//
		if err == nil {
			result, err = arena.ReduceAll(ops.Max, diff)
		}
		//
		return err
	})
	//
	if err != nil {
		return math.NaN(), err
	} else if number, ok := result.(*term.Number); ok {
		return number.Value(), nil
	}
	//
	return math.NaN(), fmt.Errorf("%w: %s", term.ErrUnsupportedOperator, result.String())
}

func init() {
	rootCmd.AddCommand(einsumCmd)
	einsumCmd.Flags().StringP("backend", "b", "sum-product", "semiring to contract over (sum-product or max-product)")
	einsumCmd.Flags().StringArrayP("size", "s", []string{}, "size of an index (e.g. a=3)")
	einsumCmd.Flags().UintP("parallel", "p", 4, "number of equations to contract concurrently")
	einsumCmd.Flags().Uint("seed", 1, "seed for generating random operands")
}
