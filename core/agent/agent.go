package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/sunpeak/dispatchd/core/forecast"
	"github.com/sunpeak/dispatchd/core/horizon"
	"github.com/sunpeak/dispatchd/core/logger"
	"github.com/sunpeak/dispatchd/core/metrics"
	"github.com/sunpeak/dispatchd/core/model"
	"github.com/sunpeak/dispatchd/internal/eventbus"
)

// maxTurns bounds the tool-calling loop per run.
const maxTurns = 8

const systemPrompt = "You are an agentic system specializing in curtailment and BESS dispatch optimization.\n" +
	"Follow this strict sequence for EVERY request:\n" +
	"  1. Call get_solar_forecast\n" +
	"  2. Call get_rag_insights with the user query\n" +
	"  3. Call solve_dispatch\n" +
	"Only after all THREE tool outputs are available may you craft a final answer.\n" +
	"Your answer must explicitly reference the forecast, retrieved insights, and dispatch recommendation."

// Agent wires the forecast, retrieval and optimization subsystems behind a
// language-model tool loop.
type Agent struct {
	forecaster forecast.Engine
	retriever  Retriever
	builder    horizon.Builder
	solver     Solver
	llm        LLM
	telemetry  TelemetrySource
	sink       metrics.Sink
	bus        *eventbus.Bus
	log        logger.Logger

	plantDefaults model.PlantState
}

// Option configures an Agent.
type Option func(*Agent)

// WithLLM sets the narration model. Without it the agent answers offline.
func WithLLM(llm LLM) Option { return func(a *Agent) { a.llm = llm } }

// WithTelemetry sets the live telemetry source for the trusted merge.
func WithTelemetry(src TelemetrySource) Option { return func(a *Agent) { a.telemetry = src } }

// WithMetrics sets the sink receiving solve events.
func WithMetrics(sink metrics.Sink) Option { return func(a *Agent) { a.sink = sink } }

// WithEventBus publishes solve events for in-process subscribers.
func WithEventBus(bus *eventbus.Bus) Option { return func(a *Agent) { a.bus = bus } }

// New creates an Agent. forecaster, retriever and solver are required; the
// plant defaults anchor the trusted merge when neither telemetry nor caller
// config provides a value.
func New(forecaster forecast.Engine, retriever Retriever, builder horizon.Builder, solver Solver,
	plantDefaults model.PlantState, log logger.Logger, opts ...Option) (*Agent, error) {
	if forecaster == nil || retriever == nil || solver == nil {
		return nil, fmt.Errorf("agent requires forecaster, retriever and solver")
	}
	a := &Agent{
		forecaster:    forecaster,
		retriever:     retriever,
		builder:       builder,
		solver:        solver,
		plantDefaults: plantDefaults,
		log:           log,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.Nop()
	}
	return a, nil
}

// Run answers one operator query. plantMeta optionally carries explicit
// plant configuration from the caller; it ranks below live telemetry in the
// trusted merge.
func (a *Agent) Run(ctx context.Context, query string, plantMeta *model.PlantOverride) (string, error) {
	st := &runState{runID: uuid.NewString(), plant: plantMeta}
	a.log.Debugw("agent run", map[string]any{"run_id": st.runID})

	if a.llm == nil {
		return a.runOffline(ctx, st, query)
	}
	return a.runToolLoop(ctx, st, query)
}

// runToolLoop drives the model conversation until it produces a final text
// answer or the turn budget runs out.
func (a *Agent) runToolLoop(ctx context.Context, st *runState, query string) (string, error) {
	msgs := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: query},
	}
	tools := a.toolDefs()

	for turn := 0; turn < maxTurns; turn++ {
		resp, err := a.llm.Chat(ctx, msgs, tools)
		if err != nil {
			return "", fmt.Errorf("llm turn %d: %w", turn, err)
		}
		if len(resp.ToolCalls) == 0 {
			if resp.Text == "" {
				return "", fmt.Errorf("model finished with no text output")
			}
			return resp.Text, nil
		}

		// Replay the assistant turn, tool calls included, before the tool
		// results. The endpoint needs the declaring message to accept them.
		msgs = append(msgs, Message{Role: "assistant", Content: resp.Text, ToolCalls: resp.ToolCalls})
		for _, call := range resp.ToolCalls {
			result := a.runTool(ctx, st, call.Name, call.Arguments)
			payload, err := json.Marshal(result)
			if err != nil {
				payload = []byte(`{"error":"tool result not serializable"}`)
			}
			msgs = append(msgs, Message{
				Role:       "tool",
				Name:       call.Name,
				ToolCallID: call.ID,
				Content:    string(payload),
			})
		}
	}
	return "", fmt.Errorf("tool loop exceeded %d turns", maxTurns)
}

// runOffline executes the strict forecast, retrieval, optimization sequence
// without a model and renders the combined analysis as plain text.
func (a *Agent) runOffline(ctx context.Context, st *runState, query string) (string, error) {
	fcOut := a.forecastTool(ctx, st)
	ragOut := a.ragTool(ctx, query)
	planOut := a.solveTool(ctx, st)
	return renderOffline(query, fcOut, ragOut, planOut), nil
}
