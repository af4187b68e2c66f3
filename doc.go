/*
Package roteiro is a script-graph engine for guided call-center
attendance: operators walk a product's script step by step, following
buttons, while the engine tracks history, renders placeholder-aware
content, and keeps every edit durably persisted.

It separates the script graph (steps, buttons, annotations) from the
navigation state (current step, back-stack) and from the hosts that
drive it (CLI, HTTP API, MCP). This hexagonal layout lets the same core
serve an interactive terminal, a JSON API with live change events, and
AI-agent tooling without the core knowing about any of them.

# Key Features

  - Deterministic navigation: given the same state and button, the
    transition is always reproducible, including the terminal "fim"
    sentinel and dead-end handling for deleted steps.
  - Durable edits: repository writes coalesce through a debounced
    persistence queue, so bursts of editing cost few storage writes.
  - Pluggable persistence: in-memory, JSON files, or SQLite for the
    script; in-memory or Redis for sessions.
  - Script bundles: JSON import with per-item validation reports, plus
    export and a CSV report for audits.

# Usage

Initialize the engine, import a bundle, and drive a state through it:

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/roteiro"
		"github.com/aretw0/roteiro/pkg/render"
	)

	func main() {
		ctx := context.Background()
		eng, err := roteiro.New(ctx)
		if err != nil {
			log.Fatal(err)
		}
		defer eng.Close()

		if _, err := eng.Import(bundleJSON); err != nil {
			log.Fatal(err)
		}

		state, err := eng.Start("acme-fibra")
		if err != nil {
			log.Fatal(err)
		}

		for !state.Terminal {
			view, err := eng.View(state, render.Placeholders{CustomerFirstName: "Maria"})
			if err != nil {
				log.Fatal(err)
			}
			for _, node := range view.Nodes {
				fmt.Print(node.Text)
			}

			// In a real host the button comes from the operator.
			state, err = eng.Advance(state, view.Buttons[0].ID)
			if err != nil {
				log.Fatal(err)
			}
		}
	}
*/
package roteiro
