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
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/consensys/go-measure/pkg/util/sexp"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// GetFlag gets an expected flag, or exits if an error arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetUint gets an expected unsigned integer flag, or exits if an error arises.
func GetUint(cmd *cobra.Command, flag string) uint {
	r, err := cmd.Flags().GetUint(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetString gets an expected string flag, or exits if an error arises.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetStringArray gets an expected string array flag, or exits if an error
// arises.
func GetStringArray(cmd *cobra.Command, flag string) []string {
	r, err := cmd.Flags().GetStringArray(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// changed determines whether a flag was explicitly given on the command line.
func changed(cmd *cobra.Command, flag string) bool {
	f := cmd.Flags().Lookup(flag)
	return f != nil && f.Changed
}

// loadConfig configures logging, and reads the configuration file (if one was
// given).  Exits if the file cannot be read.
func loadConfig(cmd *cobra.Command) Config {
	var config = DefaultConfig()
	// Configure log level
	if GetFlag(cmd, "verbose") {
		log.SetLevel(log.DebugLevel)
	}
	//
	if filename := GetString(cmd, "config"); filename != "" {
		var err error
		//
		if config, err = ReadConfig(filename); err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		log.Debugf("read configuration from %s", filename)
	}
	//
	if changed(cmd, "width") {
		config.Width = GetUint(cmd, "width")
	}
	//
	if changed(cmd, "metrics") {
		config.Metrics = GetFlag(cmd, "metrics")
	}
	//
	return config
}

// validate a configuration after flags have been applied, or exit.
func validate(config *Config) {
	if err := config.Validate(); err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
}

// Determine the width at which to truncate output.  Output to something other
// than a terminal is not truncated, unless a width is configured.
func outputWidth(config Config) uint {
	if config.Width != 0 {
		return config.Width
	}
	//
	fd := int(os.Stdout.Fd())
	//
	if term.IsTerminal(fd) {
		if width, _, err := term.GetSize(fd); err == nil && width > 0 {
			return uint(width)
		}
	}
	//
	return 0
}

// truncate a line to a given width (if non-zero), marking where text was
// removed.
func truncate(line string, width uint) string {
	var runes = []rune(line)
	//
	if width == 0 || uint(len(runes)) <= width {
		return line
	} else if width <= 3 {
		return string(runes[:width])
	}
	//
	return string(runes[:width-3]) + "..."
}

// Print an error arising from some input text.  Errors carrying a source span
// are highlighted within the text.
func printError(source string, text string, err error) {
	var spanned interface{ Span() sexp.Span }
	//
	if errors.As(err, &spanned) {
		span := spanned.Span()
		printSyntaxError(source, err.Error(), span.Start(), span.End(), text)
	} else {
		fmt.Printf("%s: %s\n", source, err)
	}
}

// Print a syntax error with appropriate highlighting.
func printSyntaxError(source string, msg string, start int, end int, text string) {
	line, offset, num := findEnclosingLine(start, text)
	// Print error + line number
	fmt.Printf("%s:%d: %s\n", source, num, msg)
	// Print line
	fmt.Println(line)
	// Print indent
	fmt.Print(strings.Repeat(" ", max(start-offset, 0)))
	// Print highlight
	fmt.Println(strings.Repeat("^", max(end-start, 1)))
}

// Determine the enclosing line for the given index in a string.
func findEnclosingLine(index int, text string) (string, int, int) {
	num := 1
	start := 0
	// Handle case where we've reached the end-of-file unexpectedly.  This
	// essentially means the error is reported at the end of the last physical
	// line.
	if index >= len(text) {
		index = len(text) - 1
	}
	//
	for i := 0; i < len(text); i++ {
		if i == index {
			return text[start:findEndOfLine(index, text)], start, num
		} else if text[i] == '\n' {
			num++
			start = i + 1
		}
	}
	// Empty text
	return text, 0, num
}

// Find the end of the enclosing line
func findEndOfLine(index int, text string) int {
	for i := index; i < len(text); i++ {
		if text[i] == '\n' {
			return i
		}
	}
	// No end in sight!
	return len(text)
}

// Print the counters held in a metrics registry.
func printMetrics(registry *prometheus.Registry) {
	families, err := registry.Gather()
	//
	if err != nil {
		fmt.Println(err)
		return
	}
	//
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			var labels []string
			//
			for _, label := range metric.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%s", label.GetName(), label.GetValue()))
			}
			//
			if len(labels) > 0 {
				fmt.Printf("%s{%s} %v\n", family.GetName(), strings.Join(labels, ","), metric.GetCounter().GetValue())
			} else {
				fmt.Printf("%s %v\n", family.GetName(), metric.GetCounter().GetValue())
			}
		}
	}
}
