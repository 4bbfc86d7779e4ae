// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Definition is an Agent's YAML-loadable static configuration: the parts of
// New's argument list that are plain data rather than live Go values
// (a *policy.Registry and an llm.Client still have to be constructed and
// passed in code). cmd/agexctl reads one of these to run a task against an
// agent described entirely by a config file.
type Definition struct {
	Name          string   `yaml:"name"`
	Primer        string   `yaml:"primer"`
	MaxIterations int      `yaml:"max_iterations"`
	LLMMaxRetries int      `yaml:"llm_max_retries"`
	SubAgents     []string `yaml:"sub_agents"`
}

// LoadDefinition parses a Definition from r.
func LoadDefinition(r io.Reader) (*Definition, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("agent: read definition: %w", err)
	}
	var def Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("agent: parse definition: %w", err)
	}
	if def.Name == "" {
		return nil, fmt.Errorf("agent: definition missing required field %q", "name")
	}
	return &def, nil
}

// Options returns the constructor Options this definition implies, letting
// a caller splice them in alongside code-only options like WithLimits.
func (d *Definition) Options() []Option {
	var opts []Option
	if d.MaxIterations > 0 {
		opts = append(opts, WithMaxIterations(d.MaxIterations))
	}
	if d.LLMMaxRetries > 0 {
		opts = append(opts, WithLLMMaxRetries(d.LLMMaxRetries))
	}
	return opts
}
