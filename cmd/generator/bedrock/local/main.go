package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/google/uuid"
	"github.com/joeshaw/envdecode"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"recipeagent"
	"recipeagent/catalog"
	"recipeagent/catalog/storage"
	"recipeagent/coordinator/bedrock"
	"recipeagent/memory"
	"recipeagent/tools"
)

// Usage: local [task] [session id]
func main() {
	ctx := context.Background()

	var modelConfig recipeagent.ModelConfig
	if err := envdecode.Decode(&modelConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var agentConfig recipeagent.AgentConfig
	if err := envdecode.Decode(&agentConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var catalogConfig recipeagent.CatalogConfig
	if err := envdecode.Decode(&catalogConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var memoryConfig recipeagent.MemoryConfig
	if err := envdecode.Decode(&memoryConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	store, err := storage.FromConfig(ctx, catalogConfig)
	if err != nil {
		slog.Error("SETUP: Failed to open catalog", "error", err)
		return
	}
	registry := tools.NewRegistry(catalog.NewLookup(store))

	mem, err := memory.FromConfig(memoryConfig)
	if err != nil {
		slog.Error("SETUP: Failed to create session memory", "error", err)
		return
	}

	task := argOr(1, "A weeknight leek and potato soup for 4, vegetarian, ready in under an hour.")
	sessionID := argOr(2, uuid.NewString())

	logger, cleanup, err := newCoordinationLogger(modelConfig.ModelID)
	if err != nil {
		slog.Error("Failed to create coordination logger", "error", err)
		return
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("Failed to flush coordination log", "error", err)
		}
	}()

	brc, err := newBedrockRuntimeClient(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to create Bedrock client", "error", err)
		return
	}

	llm := bedrock.NewLLMClient(brc, bedrock.LLMOptions{
		ModelID:     modelConfig.ModelID,
		MaxTokens:   modelConfig.MaxTokens,
		Temperature: modelConfig.Temperature,
		TopP:        modelConfig.TopP,
	})

	tracerProvider, meterProvider, otelShutdown, err := recipeagent.InitOtel(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
		return
	}
	defer func() {
		if err := otelShutdown(ctx); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	tracer := tracerProvider.Tracer(recipeagent.TracerNameBedrock)
	ctx, span := tracer.Start(ctx, "recipe-generator.local", trace.WithAttributes(
		attribute.String("model.id", modelConfig.ModelID),
		attribute.Int("model.max_tokens", int(modelConfig.MaxTokens)),
		attribute.Float64("model.temperature", float64(modelConfig.Temperature)),
		attribute.Float64("model.top_p", float64(modelConfig.TopP)),
	))
	defer span.End()

	coordinator, err := bedrock.NewCoordinator(
		llm,
		registry,
		mem,
		bedrock.CoordinatorOptions{
			MaxIterations: agentConfig.MaxIterations,
			StrictRecipes: agentConfig.StrictRecipes,
		},
		logger,
		tracer,
		meterProvider.Meter(recipeagent.MeterNameBedrock),
	)
	if err != nil {
		slog.Error("SETUP: Failed to create coordinator", "error", err)
		return
	}

	payload, err := coordinator.Run(ctx, recipeagent.Request{SessionID: sessionID, Task: task})
	if err != nil {
		slog.Error("RESULT: Error handling task", "session_id", sessionID, "error", err)
		return
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		slog.Error("RESULT: Failed to print recipe", "error", err)
	}
	slog.Info("RESULT: Recipe generated", "session_id", sessionID)
}

func newBedrockRuntimeClient(ctx context.Context) (*bedrockruntime.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
	if err != nil {
		return nil, err
	}
	return bedrockruntime.NewFromConfig(awsCfg), nil
}

func argOr(i int, def string) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return def
}

func newCoordinationLogger(modelID string) (recipeagent.CoordinationLogger, func() error, error) {
	logFilePath := recipeagent.NewCoordinationLogFilePath(modelID)
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := recipeagent.NewFileCoordinationLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}
