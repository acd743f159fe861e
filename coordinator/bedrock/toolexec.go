package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"recipeagent"
	"recipeagent/tools"
)

type toolOutcome struct {
	data map[string]any
	err  error
}

// runTools executes the calls of one model turn. Identical calls (same tool, same input) run once and
// share the outcome; distinct calls run concurrently. Results come back in call order, one per call, so
// every tool use id gets an answer. A failing tool yields an error result instead of failing the run.
func (c *Coordinator) runTools(ctx context.Context, iter int, calls []tools.Call) ([]ToolResult, []recipeagent.ToolCallLog) {
	keys := make([]string, len(calls))
	unique := map[string]int{}
	var uniqueCalls []tools.Call
	for i, call := range calls {
		keys[i] = callKey(call)
		if _, seen := unique[keys[i]]; !seen {
			unique[keys[i]] = len(uniqueCalls)
			uniqueCalls = append(uniqueCalls, call)
		}
	}
	if len(uniqueCalls) < len(calls) {
		slog.Info("COORDINATOR: Deduplicated tool calls", "iteration", iter, "calls", len(calls), "unique", len(uniqueCalls))
	}

	outcomes := make([]toolOutcome, len(uniqueCalls))
	var g errgroup.Group
	g.SetLimit(c.opts.MaxParallelTools)
	for i, call := range uniqueCalls {
		g.Go(func() error {
			outcomes[i] = c.runTool(ctx, iter, call)
			return nil
		})
	}
	_ = g.Wait()

	results := make([]ToolResult, 0, len(calls))
	logs := make([]recipeagent.ToolCallLog, 0, len(calls))
	reported := map[int]bool{}
	for i, call := range calls {
		idx := unique[keys[i]]
		out := outcomes[idx]

		tlog := recipeagent.ToolCallLog{Name: call.Name, Input: call.Input, Reused: reported[idx]}
		reported[idx] = true

		result := ToolResult{ToolUseID: call.ToolUseID, ToolName: call.Name}
		if out.err != nil {
			tlog.Error = out.err.Error()
			result.IsError = true
			result.Data = map[string]any{"error": out.err.Error()}
		} else {
			tlog.Output = out.data
			result.Data = out.data
		}
		results = append(results, result)
		logs = append(logs, tlog)
	}
	return results, logs
}

func (c *Coordinator) runTool(ctx context.Context, iter int, call tools.Call) toolOutcome {
	ctx, span := c.tracer.Start(ctx, "Tool."+call.Name,
		trace.WithAttributes(
			attribute.String("tool.name", call.Name),
			attribute.Int("iteration", iter),
		))
	defer span.End()

	nameAttr := metric.WithAttributes(attribute.String("tool_name", call.Name))
	c.metrics.toolCalls.Add(ctx, 1, nameAttr)

	fail := func(err error) toolOutcome {
		c.metrics.toolCallsFailed.Add(ctx, 1, nameAttr)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Warn("COORDINATOR: Tool call failed", "name", call.Name, "iteration", iter, "error", err)
		return toolOutcome{err: err}
	}

	tool, err := c.toolProvider.GetTool(call.Name)
	if err != nil {
		return fail(err)
	}

	slog.Info("COORDINATOR: Handling tool call", "name", call.Name, "input", call.Input, "iteration", iter)
	start := time.Now()
	data, err := tool.Run(ctx, call.Input)
	if err != nil {
		return fail(fmt.Errorf("tool %q failed: %w", call.Name, err))
	}
	if data == nil {
		data = map[string]any{}
	}

	span.SetAttributes(attribute.Float64("tool.duration_seconds", time.Since(start).Seconds()))
	return toolOutcome{data: data}
}

// callKey identifies a call by tool name and canonical input. encoding/json sorts map keys.
func callKey(call tools.Call) string {
	b, err := json.Marshal(call.Input)
	if err != nil {
		return call.Name + "\x00" + call.ToolUseID
	}
	return call.Name + "\x00" + string(b)
}
