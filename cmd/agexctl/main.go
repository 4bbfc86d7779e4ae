// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

// Command agexctl is a tiny CLI mirroring the teacher's example/ programs
// and adk.go entry point: describe a registered namespace, inspect a
// Versioned store's commit history, or run a task against an agent loaded
// from a YAML Definition using the dummy LLM client.
//
// Usage:
//
//	agexctl describe --namespace <name>
//	agexctl history --dir <path>
//	agexctl run --config agent.yaml --input '{"question": "..."}'
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/agexrun/agex/agent"
	"github.com/agexrun/agex/llm"
	"github.com/agexrun/agex/pkg/logging"
	"github.com/agexrun/agex/policy"
	"github.com/agexrun/agex/render"
	"github.com/agexrun/agex/state"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx := logging.NewContext(context.Background(), slog.New(slog.NewTextHandler(os.Stderr, nil)))

	var err error
	switch os.Args[1] {
	case "describe":
		err = runDescribe(ctx, os.Args[2:])
	case "history":
		err = runHistory(ctx, os.Args[2:])
	case "run":
		err = runTask(ctx, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "agexctl:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: agexctl <describe|history|run> [flags]")
}

// runDescribe prints a single registered namespace's definition text. It
// operates on an empty registry plus whatever a future --manifest flag
// loads; for now it reports "not found" for anything not registered by the
// calling program, since this binary has no host capabilities of its own
// to register.
func runDescribe(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("describe", flag.ExitOnError)
	namespace := fs.String("namespace", "", "registered namespace to describe")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *namespace == "" {
		return fmt.Errorf("--namespace is required")
	}
	reg := policy.New()
	text, err := render.DescribeNamespace(reg, *namespace)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

// runHistory prints a Versioned store's commit chain, newest first, then
// every key recorded in the DiskKV manifest (state/kvstore.go); the keys
// are printed once, not grouped by commit.
func runHistory(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	dir := fs.String("dir", "", "directory backing a DiskKV store")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dir == "" {
		return fmt.Errorf("--dir is required")
	}
	kv, err := state.NewDiskKV(*dir)
	if err != nil {
		return err
	}
	v := state.NewVersioned(kv)
	for _, commit := range v.History() {
		fmt.Println(commit)
	}
	for _, key := range kv.Index() {
		fmt.Println("  key:", key)
	}
	return nil
}

// runTask loads an agent.Definition from --config, wires it to the dummy
// LLM client (a real provider adapter needs code, not YAML, to construct),
// and runs a single task against --input.
func runTask(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a YAML agent.Definition")
	input := fs.String("input", "{}", "JSON-encoded task input")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" {
		return fmt.Errorf("--config is required")
	}

	f, err := os.Open(*configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	def, err := agent.LoadDefinition(f)
	if err != nil {
		return err
	}

	client := llm.NewDummy(llm.LLMResponse{Thinking: "no provider configured", Code: "task_fail('agexctl run needs a real LLM client wired in code')"})
	a, err := agent.New(def.Name, def.Primer, policy.New(), client, def.Options()...)
	if err != nil {
		return err
	}

	var inputs map[string]any
	if err := json.Unmarshal([]byte(*input), &inputs); err != nil {
		return fmt.Errorf("parse --input: %w", err)
	}

	task := agent.NewTask[map[string]any, any](def.Name, a)
	result, err := task.Run(ctx, inputs)
	if err != nil {
		return err
	}
	enc, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(enc))
	return nil
}
