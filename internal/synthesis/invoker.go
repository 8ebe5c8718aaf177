package synthesis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/helixir/review-synthesis-service/internal/domain"
	"github.com/helixir/review-synthesis-service/internal/llm"
	"github.com/helixir/review-synthesis-service/internal/observability"
)

// DefaultDeadline is the wall-clock budget for one model call.
const DefaultDeadline = 120 * time.Second

// operationSummarize labels model calls in metrics.
const operationSummarize = "summarize"

// Failure classes reported as the error_type metric label.
const (
	failureTimeout   = "timeout"
	failureCancelled = "cancelled"
	failurePanic     = "panic"
)

// Outcome is the result of one model invocation. Exactly one of Text or
// Diagnostic is meaningful, selected by Failed.
type Outcome struct {
	// Text is the raw reply of the model.
	Text string
	// Failed marks the failure sentinel.
	Failed bool
	// Diagnostic is a short description of the failure.
	Diagnostic string
	// TimedOut is set when the deadline elapsed before the model replied.
	TimedOut bool

	Model        string
	Duration     time.Duration
	InputTokens  int
	OutputTokens int
}

// OK reports whether the model produced a reply.
func (o Outcome) OK() bool {
	return !o.Failed
}

// FailureOutcome builds the failure sentinel.
func FailureOutcome(diagnostic string) Outcome {
	return Outcome{Failed: true, Diagnostic: diagnostic}
}

// InvokerConfig configures an Invoker.
type InvokerConfig struct {
	// Deadline bounds the wait for the model. Zero means DefaultDeadline.
	Deadline time.Duration
	// Context bounds the digest handed to the model.
	Context ContextOptions
}

// Invoker asks a generative model for the structured review of a paper set.
type Invoker struct {
	client   llm.ChatClient
	deadline time.Duration
	context  ContextOptions
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// NewInvoker creates an Invoker. metrics may be nil.
func NewInvoker(client llm.ChatClient, cfg InvokerConfig, logger zerolog.Logger, metrics *observability.Metrics) *Invoker {
	deadline := cfg.Deadline
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	return &Invoker{
		client:   client,
		deadline: deadline,
		context:  cfg.Context.withDefaults(),
		logger:   logger.With().Str("component", "synthesis_invoker").Logger(),
		metrics:  metrics,
	}
}

// Deadline returns the configured wait bound.
func (inv *Invoker) Deadline() time.Duration {
	return inv.deadline
}

// Invoke renders the digest and prompt for papers and calls the model once.
// It never returns an error: every failure is reported as the failure
// sentinel.
func (inv *Invoker) Invoke(ctx context.Context, papers []domain.Paper) Outcome {
	digest := BuildContext(papers, inv.context)
	return inv.InvokeMessages(ctx, BuildPrompt(digest))
}

type callResult struct {
	completion *llm.Completion
	err        error
	panicked   bool
}

// InvokeMessages sends an already built conversation to the model.
//
// The call runs on its own goroutine. When the deadline elapses the
// goroutine is abandoned, not stopped; its context carries the same deadline
// so transports that honor cancellation release their connection.
func (inv *Invoker) InvokeMessages(ctx context.Context, messages []llm.Message) Outcome {
	if inv.client == nil {
		return FailureOutcome("no model client configured")
	}

	model := inv.client.Model()
	logger := observability.LoggerWithContext(ctx, observability.WithModelContext(inv.logger, inv.client.Provider(), model))

	ctx, span := observability.StartSpan(ctx, "synthesis.invoke",
		attribute.String("llm.provider", inv.client.Provider()),
		attribute.String("llm.model", model),
		attribute.Int64("synthesis.deadline_ms", inv.deadline.Milliseconds()),
	)
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, inv.deadline)
	defer cancel()

	// Buffered so an abandoned worker can always deliver and exit.
	results := make(chan callResult, 1)
	start := time.Now()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				results <- callResult{err: fmt.Errorf("model transport panicked: %v", r), panicked: true}
			}
		}()
		completion, err := inv.client.Complete(callCtx, messages)
		results <- callResult{completion: completion, err: err}
	}()

	timer := time.NewTimer(inv.deadline)
	defer timer.Stop()

	var out Outcome
	select {
	case res := <-results:
		out = inv.resolve(res, model, time.Since(start))
	case <-timer.C:
		out = inv.fail(model, failureTimeout, fmt.Sprintf("model call exceeded the %s deadline", inv.deadline), time.Since(start))
		out.TimedOut = true
	case <-ctx.Done():
		out = inv.fail(model, failureCancelled, "request cancelled: "+ctx.Err().Error(), time.Since(start))
	}

	if out.Failed {
		span.SetAttributes(attribute.String("synthesis.failure", out.Diagnostic))
		logger.Warn().
			Bool("timed_out", out.TimedOut).
			Dur("duration", out.Duration).
			Str("diagnostic", out.Diagnostic).
			Msg("model invocation failed")
		return out
	}

	logger.Info().
		Dur("duration", out.Duration).
		Int("input_tokens", out.InputTokens).
		Int("output_tokens", out.OutputTokens).
		Int("response_chars", len(out.Text)).
		Msg("model invocation completed")
	return out
}

func (inv *Invoker) resolve(res callResult, model string, elapsed time.Duration) Outcome {
	switch {
	case res.panicked:
		return inv.fail(model, failurePanic, res.err.Error(), elapsed)
	case res.err != nil:
		if errors.Is(res.err, context.DeadlineExceeded) {
			out := inv.fail(model, failureTimeout, fmt.Sprintf("model call exceeded the %s deadline", inv.deadline), elapsed)
			out.TimedOut = true
			return out
		}
		return inv.fail(model, string(llm.ClassifyFailure(res.err)), res.err.Error(), elapsed)
	case res.completion == nil:
		return inv.fail(model, string(llm.FailurePermanent), "model returned no completion", elapsed)
	}

	c := res.completion
	if c.Model != "" {
		model = c.Model
	}
	inv.metrics.RecordLLMRequest(operationSummarize, model, elapsed.Seconds(), c.InputTokens, c.OutputTokens)
	return Outcome{
		Text:         c.Content,
		Model:        model,
		Duration:     elapsed,
		InputTokens:  c.InputTokens,
		OutputTokens: c.OutputTokens,
	}
}

func (inv *Invoker) fail(model, class, diagnostic string, elapsed time.Duration) Outcome {
	inv.metrics.RecordLLMRequestFailed(operationSummarize, model, class, elapsed.Seconds())
	out := FailureOutcome(diagnostic)
	out.Model = model
	out.Duration = elapsed
	return out
}
