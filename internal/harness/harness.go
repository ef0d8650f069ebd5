// Package harness runs scripted command scenarios against a fully
// deterministic document engine: fixed id sequences, a counting
// logical clock, a pinned wall clock, and an in-memory store. The
// captured export document plus event trace make stable golden
// fixtures.
package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fathom-notes/fathom/internal/cryptobox"
	"github.com/fathom-notes/fathom/internal/document"
	"github.com/fathom-notes/fathom/internal/event"
	"github.com/fathom-notes/fathom/internal/ident"
	"github.com/fathom-notes/fathom/internal/lock"
	"github.com/fathom-notes/fathom/internal/store"
)

// WorkspaceID is the id the scenario workspace always receives.
const WorkspaceID = "ws_0001"

// maxBullets bounds how many bullet ids one scenario may consume.
const maxBullets = 64

// baseTime pins the wall clock for every scenario run.
var baseTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// Scenario is a named sequence of commands. The engine starts freshly
// bootstrapped: one default workspace holding one empty bullet with
// id blt_0001; bullets created by steps receive blt_0002, blt_0003,
// and so on in order.
type Scenario struct {
	Name  string
	Steps []Step
}

// Step is one scripted command against the engine.
type Step func(ctx context.Context, doc *document.Store) error

// TraceEvent is one event-log entry in a Result, stripped of the
// store-assigned sequence number.
type TraceEvent struct {
	Type      event.Kind      `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Result captures everything a scenario produced: the final export
// document and the full event trace of the workspace.
type Result struct {
	Scenario string                  `json:"scenario"`
	Document document.ExportDocument `json:"document"`
	Events   []TraceEvent            `json:"events"`
}

// Run bootstraps a deterministic engine, executes the scenario's
// steps in order, and captures the result.
func Run(scenario *Scenario) (*Result, error) {
	bulletIDs := make([]string, maxBullets)
	for i := range bulletIDs {
		bulletIDs[i] = fmt.Sprintf("blt_%04d", i+1)
	}
	now := func() time.Time { return baseTime }

	mem := store.NewMemory(ident.NewFixed(WorkspaceID), now)
	doc := document.New(document.Deps{
		Store:  mem,
		Locker: lock.NewManager(mem, cryptobox.New(), zerolog.Nop()),
		IDs:    ident.NewFixed(bulletIDs...),
		Clock:  event.NewFixedClock(1),
		Now:    now,
		Logger: zerolog.Nop(),
	})

	ctx := context.Background()
	if err := doc.Init(ctx); err != nil {
		return nil, fmt.Errorf("harness init: %w", err)
	}
	for i, step := range scenario.Steps {
		if err := step(ctx, doc); err != nil {
			return nil, fmt.Errorf("scenario %q step %d: %w", scenario.Name, i, err)
		}
	}

	export, err := doc.Export()
	if err != nil {
		return nil, fmt.Errorf("scenario %q export: %w", scenario.Name, err)
	}
	events, err := mem.WorkspaceEvents(ctx, doc.Current().ID)
	if err != nil {
		return nil, fmt.Errorf("scenario %q events: %w", scenario.Name, err)
	}
	trace := make([]TraceEvent, len(events))
	for i, e := range events {
		trace[i] = TraceEvent{Type: e.Kind, Timestamp: e.Timestamp, Payload: e.Payload}
	}
	return &Result{Scenario: scenario.Name, Document: export, Events: trace}, nil
}
