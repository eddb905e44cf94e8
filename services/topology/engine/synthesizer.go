// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianAtlas/services/topology/registry"
)

// ServiceResolver resolves a service id to its reference view. The
// registry store satisfies this.
type ServiceResolver interface {
	ResolveService(ctx context.Context, id string) (*registry.ServiceRef, error)
}

// Execution tuning.
const (
	// durationJitter is the ± fraction applied to a step's average
	// duration when sampling span latency.
	durationJitter = 0.2

	// defaultStepDurationMS substitutes for steps declared with a
	// non-positive average duration.
	defaultStepDurationMS = 10.0

	// DefaultEnvironment is used when the caller does not name one.
	DefaultEnvironment = "prod"

	// executeAllConcurrency bounds parallel flow executions in
	// ExecuteAll.
	executeAllConcurrency = 8
)

// Options control a single flow execution.
type Options struct {
	// Environment is stamped into every span's resource attributes.
	// Empty selects DefaultEnvironment.
	Environment string

	// InjectFailure makes exactly one step fail.
	InjectFailure bool

	// FailureStep is the 1-based step to fail. Zero picks a step
	// uniformly at random. Ignored unless InjectFailure is set.
	FailureStep int

	// Seed fixes the random source so an execution is reproducible.
	// Zero derives a seed from the wall clock.
	Seed int64
}

// Synthesizer turns flow definitions into OpenTelemetry-shaped traces.
//
// Description:
//
//	Each step in a flow becomes one SERVER span: step 1 is the trace
//	root, and every later span's parent is the previous step's span.
//	Span latency is sampled around the step's average duration with
//	uniform ±20% jitter; a running clock advances by each span's
//	duration, so spans never overlap. Failure injection marks one
//	step's span ERROR, applies the step's retry policy to the clock,
//	and either truncates the trace (terminal) or lets later steps run
//	(recoverable).
//
// Thread Safety: a Synthesizer holds no mutable state; executions may
// run fully in parallel with each other and with graph reads.
type Synthesizer struct {
	resolver ServiceResolver
	log      *slog.Logger
	now      func() time.Time
}

// SynthOption customizes a Synthesizer.
type SynthOption func(*Synthesizer)

// WithClock overrides the wall-clock source. Tests use this to pin
// trace timestamps.
func WithClock(now func() time.Time) SynthOption {
	return func(s *Synthesizer) { s.now = now }
}

// NewSynthesizer creates a Synthesizer backed by the given resolver.
func NewSynthesizer(resolver ServiceResolver, opts ...SynthOption) *Synthesizer {
	s := &Synthesizer{
		resolver: resolver,
		log:      slog.Default().With("component", "engine.synthesizer"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs one flow and returns its complete trace.
//
// Description:
//
//	Validates the flow (non-empty, contiguous step numbering from 1),
//	resolves every referenced service up front, then walks the steps
//	building the span chain. Resolution failures surface before any
//	span is created, so a trace is never partial: the caller gets
//	either a complete trace or an error.
//
// Inputs:
//   - ctx: The request context. Used for tracing and metrics only; the
//     walk itself is CPU-bound and synchronous.
//   - flow: The flow definition to execute.
//   - opts: Execution options (environment, failure injection, seed).
//
// Outputs:
//   - *Trace: The complete trace with derived span_count and duration.
//   - error: ErrInvalidFlow for structural problems,
//     ErrInvalidFailureStep for an out-of-range failure step, or a
//     registry NotFoundError for an unresolvable service.
func (s *Synthesizer) Execute(ctx context.Context, flow *registry.Flow, opts Options) (*Trace, error) {
	ctx, span := tracer.Start(ctx, "engine.Execute", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	started := s.now()

	if flow == nil || len(flow.Steps) == 0 {
		id := ""
		if flow != nil {
			id = flow.ID
		}
		return nil, &InvalidFlowError{FlowID: id, Reason: "flow has no steps"}
	}
	span.SetAttributes(
		attribute.String("flow.id", flow.ID),
		attribute.Int("flow.steps", len(flow.Steps)),
		attribute.Bool("flow.inject_failure", opts.InjectFailure),
	)

	steps := flow.Steps
	for i, step := range steps {
		if step.StepNumber != i+1 {
			return nil, &InvalidFlowError{
				FlowID: flow.ID,
				Reason: fmt.Sprintf("step numbering not contiguous: position %d has step_number %d", i+1, step.StepNumber),
			}
		}
	}
	if opts.InjectFailure && opts.FailureStep != 0 &&
		(opts.FailureStep < 1 || opts.FailureStep > len(steps)) {
		return nil, fmt.Errorf("%w: %d not in 1..%d", ErrInvalidFailureStep, opts.FailureStep, len(steps))
	}

	refs, err := s.resolveAll(ctx, steps)
	if err != nil {
		return nil, err
	}

	environment := opts.Environment
	if environment == "" {
		environment = DefaultEnvironment
	}

	seed := opts.Seed
	if seed == 0 {
		seed = s.now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	failAt := 0
	if opts.InjectFailure {
		failAt = opts.FailureStep
		if failAt == 0 {
			failAt = rng.Intn(len(steps)) + 1
		}
	}

	traceID := newTraceID()
	clock := s.now().UTC()
	status := StatusOK
	var execErr *ExecutionError
	var prevSpanID string
	spans := make([]*Span, 0, len(steps))

	for _, step := range steps {
		from := refs[step.FromServiceID]
		to := refs[step.ToServiceID]
		fails := step.StepNumber == failAt

		sp, end := s.buildSpan(rng, traceID, prevSpanID, clock, step, from, to, environment, fails)
		spans = append(spans, sp)
		prevSpanID = sp.SpanID
		clock = end

		if fails {
			s.log.Info("injected step failure",
				"flow_id", flow.ID,
				"step", step.StepNumber,
				"mode", string(step.FailureMode),
				"service", to.Name)
			if step.FailureMode != registry.FailureRecoverable {
				status = StatusError
				execErr = &ExecutionError{
					Step:        step.StepNumber,
					FromService: from.Name,
					ToService:   to.Name,
					Message:     sp.Status.Message,
				}
				break
			}
			execErr = &ExecutionError{
				Step:        step.StepNumber,
				FromService: from.Name,
				ToService:   to.Name,
				Message:     sp.Status.Message,
			}
		}
	}

	first := spans[0].StartTimeUnixNano
	last := spans[len(spans)-1].EndTimeUnixNano

	result := &Trace{
		TraceID:           traceID,
		ExecutionID:       uuid.NewString(),
		FlowID:            flow.ID,
		FlowName:          flow.Name,
		Environment:       environment,
		StartTimeUnixNano: first,
		EndTimeUnixNano:   last,
		DurationMS:        float64(last-first) / 1e6,
		Status:            status,
		SpanCount:         len(spans),
		Error:             execErr,
		Spans:             spans,
	}

	observeExecution(ctx, status, opts.InjectFailure, s.now().Sub(started), len(spans))
	return result, nil
}

// ExecuteAll runs every given flow concurrently and returns the traces
// in flow order.
//
// A fixed non-zero seed is perturbed per flow index so repeated calls
// stay reproducible without making every trace identical. Flows that
// fail to execute are logged and skipped; an error is returned only
// when the context is canceled.
func (s *Synthesizer) ExecuteAll(ctx context.Context, flows []*registry.Flow, opts Options) ([]*Trace, error) {
	results := make([]*Trace, len(flows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(executeAllConcurrency)

	for i, flow := range flows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			flowOpts := opts
			if flowOpts.Seed != 0 {
				flowOpts.Seed += int64(i)
			}
			tr, err := s.Execute(gctx, flow, flowOpts)
			if err != nil {
				s.log.Warn("flow execution failed", "flow_id", flow.ID, "error", err)
				return nil
			}
			results[i] = tr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	traces := make([]*Trace, 0, len(flows))
	for _, t := range results {
		if t != nil {
			traces = append(traces, t)
		}
	}
	return traces, nil
}

// resolveAll resolves every service referenced by the steps. Any miss
// aborts the execution before a single span exists.
func (s *Synthesizer) resolveAll(ctx context.Context, steps []registry.FlowStep) (map[string]*registry.ServiceRef, error) {
	refs := make(map[string]*registry.ServiceRef)
	for _, step := range steps {
		for _, id := range []string{step.FromServiceID, step.ToServiceID} {
			if _, ok := refs[id]; ok {
				continue
			}
			ref, err := s.resolver.ResolveService(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", step.StepNumber, err)
			}
			refs[id] = ref
		}
	}
	return refs, nil
}

// buildSpan creates the server span for one step and returns it with
// the advanced clock.
//
// A failing step runs its retry policy: the first attempt raises the
// exception event, then each retry adds the backoff delay plus another
// sampled attempt to the clock and records a retry event. The span ends
// after the final attempt, so its recomputed duration covers the whole
// retry envelope.
func (s *Synthesizer) buildSpan(rng *rand.Rand, traceID, parentID string, start time.Time,
	step registry.FlowStep, from, to *registry.ServiceRef, environment string, fails bool) (*Span, time.Time) {

	startNano := start.UnixNano()
	end := start.Add(sampleDuration(rng, step.AverageDurationMS))

	status := SpanStatus{Code: StatusOK}
	if fails {
		status = SpanStatus{
			Code:    StatusError,
			Message: errorMessage(rng, to.Name),
		}
	}

	events := spanEvents(rng, to, startNano, end.UnixNano(), fails)

	if fails && step.RetryPolicy.MaxRetries > 0 {
		backoff := time.Duration(step.RetryPolicy.BackoffMS) * time.Millisecond
		for attempt := 1; attempt <= step.RetryPolicy.MaxRetries; attempt++ {
			end = end.Add(backoff)
			events = append(events, SpanEvent{
				Name:              "retry",
				TimestampUnixNano: end.UnixNano(),
				Attributes: map[string]any{
					"retry.attempt":    attempt,
					"retry.backoff_ms": step.RetryPolicy.BackoffMS,
				},
			})
			end = end.Add(sampleDuration(rng, step.AverageDurationMS))
		}
	}

	endNano := end.UnixNano()
	sp := &Span{
		TraceID:           traceID,
		SpanID:            newSpanID(),
		ParentSpanID:      parentID,
		OperationName:     operationName(rng, to),
		ServiceName:       to.Name,
		Kind:              KindServer,
		StartTimeUnixNano: startNano,
		EndTimeUnixNano:   endNano,
		DurationUS:        (endNano - startNano) / 1e3,
		Status:            status,
		Attributes:        stepAttributes(rng, step, from, to, fails),
		Events:            events,
		Links:             []SpanLink{},
		Resource:          resourceAttributes(rng, to, environment),
	}
	return sp, end
}

// sampleDuration draws a span latency around the step average with
// uniform ± durationJitter.
func sampleDuration(rng *rand.Rand, averageMS float64) time.Duration {
	if averageMS <= 0 {
		averageMS = defaultStepDurationMS
	}
	factor := 1 - durationJitter + rng.Float64()*2*durationJitter
	return time.Duration(averageMS * factor * float64(time.Millisecond))
}
