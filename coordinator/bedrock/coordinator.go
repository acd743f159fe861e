package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"recipeagent"
	"recipeagent/memory"
	"recipeagent/recovery"
)

const (
	defaultMaxIterations = 10
	defaultMaxParallel   = 4

	feedbackUnparsable = "unparsable_recipe_json"
	feedbackInvalid    = "invalid_recipe"
)

var (
	// ErrNoRecipe is returned when the model never produced a usable recipe within the iteration budget.
	ErrNoRecipe = errors.New("no usable recipe")
	// ErrEmptyTask is returned for a blank request.
	ErrEmptyTask = errors.New("task is empty")
)

var _ recipeagent.Coordinator = (*Coordinator)(nil)

type llmClient interface {
	Invoke(ctx context.Context, prompt Prompt) (Response, error)
}

type CoordinatorOptions struct {
	MaxIterations int
	// StrictRecipes additionally requires the recovered recipe to decode and validate as a recovery.Recipe.
	StrictRecipes bool
	// MaxParallelTools bounds concurrent tool executions within one model turn.
	MaxParallelTools int
}

// Coordinator drives the model through catalog searches to a recovered recipe payload.
type Coordinator struct {
	llm          llmClient
	toolProvider recipeagent.ToolProvider
	memory       memory.Store
	opts         CoordinatorOptions
	logger       recipeagent.CoordinationLogger
	tracer       trace.Tracer
	metrics      coordinatorMetrics
}

type coordinatorMetrics struct {
	runs             metric.Int64Counter
	runsFailed       metric.Int64Counter
	iterations       metric.Int64Counter
	toolCalls        metric.Int64Counter
	toolCallsFailed  metric.Int64Counter
	recoveryFailures metric.Int64Counter
	runDuration      metric.Float64Histogram
	llmResponseTime  metric.Float64Histogram
}

// NewCoordinator initializes a new coordinator. mem may be nil, in which case sessions are not remembered.
func NewCoordinator(llm llmClient, toolProvider recipeagent.ToolProvider, mem memory.Store, opts CoordinatorOptions, logger recipeagent.CoordinationLogger, tracer trace.Tracer, meter metric.Meter) (*Coordinator, error) {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = defaultMaxIterations
	}
	if opts.MaxParallelTools <= 0 {
		opts.MaxParallelTools = defaultMaxParallel
	}

	m, err := newCoordinatorMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create coordinator metrics: %w", err)
	}

	return &Coordinator{
		llm:          llm,
		toolProvider: toolProvider,
		memory:       mem,
		opts:         opts,
		logger:       logger,
		tracer:       tracer,
		metrics:      m,
	}, nil
}

func newCoordinatorMetrics(meter metric.Meter) (coordinatorMetrics, error) {
	var m coordinatorMetrics
	var errs [8]error

	m.runs, errs[0] = meter.Int64Counter("coordinator_runs_total",
		metric.WithDescription("Total number of recipe generation runs started"))
	m.runsFailed, errs[1] = meter.Int64Counter("coordinator_runs_failed_total",
		metric.WithDescription("Total number of recipe generation runs that failed"))
	m.iterations, errs[2] = meter.Int64Counter("coordinator_iterations_total",
		metric.WithDescription("Total number of coordination iterations"))
	m.toolCalls, errs[3] = meter.Int64Counter("tool_calls_total",
		metric.WithDescription("Total number of tool calls executed"))
	m.toolCallsFailed, errs[4] = meter.Int64Counter("tool_calls_failed_total",
		metric.WithDescription("Total number of tool calls that failed"))
	m.recoveryFailures, errs[5] = meter.Int64Counter("recipe_recovery_failures_total",
		metric.WithDescription("Total number of final answers that could not be turned into a recipe"))
	m.runDuration, errs[6] = meter.Float64Histogram("coordination_duration_seconds",
		metric.WithDescription("Total duration of a recipe generation run in seconds"))
	m.llmResponseTime, errs[7] = meter.Float64Histogram("llm_response_time_seconds",
		metric.WithDescription("Time taken to receive a response from the LLM in seconds"))

	return m, errors.Join(errs[:]...)
}

// Run generates a recipe for req. The recovered payload is remembered under req.SessionID.
func (c *Coordinator) Run(ctx context.Context, req recipeagent.Request) (recovery.Payload, error) {
	ctx, span := c.tracer.Start(ctx, "Coordinator.Run",
		trace.WithAttributes(attribute.String("session.id", req.SessionID)))
	defer span.End()

	start := time.Now()
	c.metrics.runs.Add(ctx, 1)
	defer func() {
		c.metrics.runDuration.Record(ctx, time.Since(start).Seconds())
	}()

	payload, err := c.run(ctx, req)
	if err != nil {
		c.metrics.runsFailed.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return recovery.Payload{}, err
	}

	span.SetStatus(codes.Ok, "recipe generated")
	return payload, nil
}

func (c *Coordinator) run(ctx context.Context, req recipeagent.Request) (recovery.Payload, error) {
	if strings.TrimSpace(req.Task) == "" {
		return recovery.Payload{}, ErrEmptyTask
	}

	slog.Info("COORDINATOR: Starting run", "session_id", req.SessionID, "task", req.Task)

	previous := c.recall(ctx, req.SessionID)
	prompt, err := NewPrompt(req.Task, previous, c.toolProvider)
	if err != nil {
		return recovery.Payload{}, fmt.Errorf("failed to build prompt: %w", err)
	}

	var lastErr error
	for iter := 1; iter <= c.opts.MaxIterations; iter++ {
		c.metrics.iterations.Add(ctx, 1)
		iterLog := recipeagent.IterationLog{Iteration: iter, Timestamp: time.Now()}

		if b, merr := json.Marshal(prompt); merr == nil {
			iterLog.LLMInput = string(b)
			slog.Info("COORDINATOR: Sending prompt to LLM",
				"iteration", iter,
				"messages_count", len(prompt.Messages),
				"tools_count", len(prompt.Tools),
				"prompt_size_bytes", len(b),
				"last_message_preview", prompt.LastText(100),
			)
		}

		llmStart := time.Now()
		res, err := c.llm.Invoke(ctx, prompt)
		c.metrics.llmResponseTime.Record(ctx, time.Since(llmStart).Seconds())
		if err != nil {
			iterLog.Error = err.Error()
			c.logIteration(iterLog)
			return recovery.Payload{}, fmt.Errorf("invoke failed: %w", err)
		}
		iterLog.LLMOutput = res

		slog.Info("COORDINATOR: LLM response received",
			"iteration", iter,
			"content_length", len(res.Content),
			"tool_calls", len(res.ToolCalls),
		)

		if len(res.ToolCalls) > 0 {
			prompt.Messages = append(prompt.Messages, toolUseMessage(res))
			results, toolLogs := c.runTools(ctx, iter, res.ToolCalls)
			prompt.Messages = append(prompt.Messages, NewToolResultMessage(results))
			iterLog.ToolCalls = toolLogs
			c.logIteration(iterLog)
			continue
		}

		payload, kind, rerr := c.recoverRecipe(res.Content)
		if rerr != nil {
			lastErr = rerr
			c.metrics.recoveryFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
			iterLog.Error = rerr.Error()
			iterLog.Recovery = recoveryLog(kind, rerr)
			slog.Warn("COORDINATOR: Final answer rejected",
				"iteration", iter,
				"kind", kind,
				"error", rerr,
				"raw_preview", previewOf(rerr),
			)

			prompt.Messages = append(prompt.Messages,
				assistantTextMessage(res.Content),
				feedbackMessage(kind, rerr),
			)
			c.logIteration(iterLog)
			continue
		}

		c.logIteration(iterLog)
		c.remember(ctx, req.SessionID, payload)
		slog.Info("COORDINATOR: Recipe recovered", "iteration", iter, "session_id", req.SessionID)
		return payload, nil
	}

	if lastErr != nil {
		return recovery.Payload{}, fmt.Errorf("%w after %d iterations: %w", ErrNoRecipe, c.opts.MaxIterations, lastErr)
	}
	return recovery.Payload{}, fmt.Errorf("%w after %d iterations: model kept calling tools", ErrNoRecipe, c.opts.MaxIterations)
}

// recoverRecipe turns the model's final text into a payload. kind names the feedback to send on failure.
func (c *Coordinator) recoverRecipe(content string) (recovery.Payload, string, error) {
	payload, err := recovery.Recover(content)
	if err != nil {
		return recovery.Payload{}, feedbackUnparsable, err
	}

	if c.opts.StrictRecipes {
		if _, err := recovery.DecodeRecipe(payload); err != nil {
			return recovery.Payload{}, feedbackInvalid, err
		}
	}
	return payload, "", nil
}

func (c *Coordinator) recall(ctx context.Context, sessionID string) *recovery.Payload {
	if c.memory == nil || sessionID == "" {
		return nil
	}
	p, ok, err := c.memory.Get(ctx, sessionID)
	if err != nil {
		slog.Error("COORDINATOR: Failed to load session recipe", "session_id", sessionID, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	slog.Info("COORDINATOR: Refining previous session recipe", "session_id", sessionID)
	return &p
}

func (c *Coordinator) remember(ctx context.Context, sessionID string, p recovery.Payload) {
	if c.memory == nil || sessionID == "" {
		return
	}
	if err := c.memory.Put(ctx, sessionID, p); err != nil {
		slog.Error("COORDINATOR: Failed to store session recipe", "session_id", sessionID, "error", err)
	}
}

func (c *Coordinator) logIteration(iter recipeagent.IterationLog) {
	if c.logger != nil {
		if err := c.logger.LogIteration(iter); err != nil {
			slog.Error("COORDINATOR: Failed to log coordination iteration", "error", err, "iteration", iter.Iteration)
		}
	}
}

func toolUseMessage(res Response) Message {
	msg := Message{Role: "assistant", Content: MessageParts{}}
	if strings.TrimSpace(res.Content) != "" {
		msg.Content = append(msg.Content, MessagePart{Type: "text", Text: res.Content})
	}
	for _, call := range res.ToolCalls {
		msg.Content = append(msg.Content, MessagePart{
			Type:      "tool_use",
			ToolUseID: call.ToolUseID,
			ToolName:  call.Name,
			Data:      call.Input,
		})
	}
	return msg
}

// assistantTextMessage echoes a rejected answer back into the conversation so user and assistant turns
// keep alternating.
func assistantTextMessage(content string) Message {
	if strings.TrimSpace(content) == "" {
		content = "(empty response)"
	}
	return NewTextMessage("assistant", content)
}

func feedbackMessage(kind string, err error) Message {
	msg := map[string]any{
		"error":  kind,
		"reason": err.Error(),
	}
	switch kind {
	case feedbackUnparsable:
		msg["hint"] = `Reply with ONLY the JSON object {"recipe": {...}, "missingSuggestions": {"ingredients": [], "hacksOrTips": []}}. No commentary, no code fences, no trailing commas.`
	case feedbackInvalid:
		msg["hint"] = "The recipe needs a title, a name for every ingredient and component, and no empty steps. Fix it and re-send the full JSON object."
	}
	b, _ := json.Marshal(msg)
	return NewTextMessage("user", string(b))
}

func recoveryLog(kind string, err error) *recipeagent.RecoveryLog {
	l := &recipeagent.RecoveryLog{Kind: kind}
	var upe *recovery.UnparsablePayloadError
	if errors.As(err, &upe) {
		l.RawPreview = upe.RawPreview
		l.CleanedPreview = upe.CleanedPreview
	}
	return l
}

// previewOf returns a short prefix of the raw text behind an unparsable payload error.
func previewOf(err error) string {
	var upe *recovery.UnparsablePayloadError
	if !errors.As(err, &upe) {
		return ""
	}
	const n = 200
	if r := []rune(upe.RawPreview); len(r) > n {
		return string(r[:n]) + "..."
	}
	return upe.RawPreview
}
