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
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/consensys/go-measure/pkg/domain"
	"github.com/consensys/go-measure/pkg/einsum"
	"github.com/consensys/go-measure/pkg/term"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var configValidate = validator.New()

// Config holds the settings shared by all commands.  These are read from an
// optional YAML file, with command-line flags taking precedence.
type Config struct {
	// Interpretation under which terms are constructed.
	Interpretation string `yaml:"interpretation" validate:"oneof=reflect eager optimize"`
	// Semiring for einsum contractions.
	Backend string `yaml:"backend" validate:"oneof=sum-product max-product"`
	// Maximum number of equations processed concurrently.
	Parallelism int `yaml:"parallelism" validate:"gte=1,lte=256"`
	// Seed for generating random einsum operands.
	Seed int64 `yaml:"seed"`
	// Width at which output lines are truncated (zero for the terminal width).
	Width uint `yaml:"width"`
	// Size of each einsum index.
	Sizes map[string]uint `yaml:"sizes" validate:"dive,keys,len=1,alpha,endkeys,gt=0"`
	// Domains of the free variables available to parsed terms.
	Variables map[string]string `yaml:"variables" validate:"dive,keys,required,endkeys,required"`
	// Report engine metrics after each command.
	Metrics bool `yaml:"metrics"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Interpretation: "eager",
		Backend:        string(einsum.SumProduct),
		Parallelism:    4,
		Seed:           1,
		Sizes:          make(map[string]uint),
		Variables:      make(map[string]string),
	}
}

// ReadConfig reads a configuration file, where settings not given in the file
// retain their default values.
func ReadConfig(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	//
	if err != nil {
		return Config{}, err
	}
	//
	return ParseConfig(data)
}

// ParseConfig parses a configuration from YAML, rejecting unknown fields.
func ParseConfig(data []byte) (Config, error) {
	var (
		config  = DefaultConfig()
		decoder = yaml.NewDecoder(bytes.NewReader(data))
	)
	//
	decoder.KnownFields(true)
	//
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	// explicit nulls clear the default maps
	if config.Variables == nil {
		config.Variables = make(map[string]string)
	}
	//
	if config.Sizes == nil {
		config.Sizes = make(map[string]uint)
	}
	//
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	//
	return config, nil
}

// Validate checks the configuration is well-formed.
func (p *Config) Validate() error {
	if err := configValidate.Struct(p); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	//
	_, err := p.Environment()
	//
	return err
}

// Environment returns the variable domains declared by this configuration.
func (p *Config) Environment() (term.Environment, error) {
	var env = make(term.Environment)
	//
	for name, text := range p.Variables {
		dom, err := domain.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("invalid configuration: variable %s: %w", name, err)
		}
		//
		env[name] = dom
	}
	//
	return env, nil
}

// Declare adds variable declarations of the form "name:domain" (e.g.
// "x:real" or "i:int(3)").
func (p *Config) Declare(declarations ...string) error {
	for _, decl := range declarations {
		name, text, ok := strings.Cut(decl, ":")
		//
		if !ok || name == "" {
			return fmt.Errorf("invalid declaration \"%s\" (expected name:domain)", decl)
		} else if _, err := domain.Parse(text); err != nil {
			return err
		}
		//
		p.Variables[name] = text
	}
	//
	return nil
}

// Resize sets index sizes from declarations of the form "a=3".
func (p *Config) Resize(declarations ...string) error {
	for _, decl := range declarations {
		index, text, ok := strings.Cut(decl, "=")
		//
		if !ok || len(index) != 1 {
			return fmt.Errorf("invalid size \"%s\" (expected index=size)", decl)
		}
		//
		size, err := strconv.ParseUint(text, 10, 32)
		//
		if err != nil || size == 0 {
			return fmt.Errorf("invalid size \"%s\"", decl)
		}
		//
		p.Sizes[index] = uint(size)
	}
	//
	return nil
}

// interpretation returns the interpretation named by this configuration.
func (p *Config) interpretation() term.Interpretation {
	switch p.Interpretation {
	case "reflect":
		return term.Reflect
	case "optimize":
		return term.Optimize
	default:
		return term.Eager
	}
}
