package main

import (
	"context"
	"errors"
	"log"
	"log/slog"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/google/uuid"
	"github.com/joeshaw/envdecode"

	"recipeagent"
	"recipeagent/catalog"
	"recipeagent/catalog/storage"
	"recipeagent/coordinator/bedrock"
	"recipeagent/memory"
	"recipeagent/recovery"
	"recipeagent/tools"
)

type Params struct {
	SessionID string `json:"session_id"`
	Task      string `json:"task"`
}

type Results struct {
	SessionID          string                      `json:"session_id"`
	Recipe             any                         `json:"recipe"`
	MissingSuggestions recovery.MissingSuggestions `json:"missingSuggestions"`
}

// errUnreadableAnswer is what callers see when the model's answer could not be recovered. The raw
// previews stay in the logs.
var errUnreadableAnswer = errors.New("the AI response could not be understood, please retry")

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

	tracerProvider, meterProvider, otelShutdown, err := recipeagent.InitOtel(ctx)
	if err != nil {
		log.Fatalf("SETUP: Failed to initialize OpenTelemetry: %s", err)
	}

	store, err := storage.FromConfig(ctx, catalogConfig)
	if err != nil {
		log.Fatalf("SETUP: Failed to open catalog: %s", err)
	}
	registry := tools.NewRegistry(catalog.NewLookup(store))

	mem, err := memory.FromConfig(memoryConfig)
	if err != nil {
		log.Fatalf("SETUP: Failed to create session memory: %s", err)
	}

	brc, err := newBedrockRuntimeClient(ctx)
	if err != nil {
		log.Fatalf("SETUP: Failed to create Bedrock client: %s", err)
	}

	llm := bedrock.NewLLMClient(brc, bedrock.LLMOptions{
		ModelID:     modelConfig.ModelID,
		MaxTokens:   modelConfig.MaxTokens,
		Temperature: modelConfig.Temperature,
		TopP:        modelConfig.TopP,
	})

	coordinator, err := bedrock.NewCoordinator(
		llm,
		registry,
		mem,
		bedrock.CoordinatorOptions{
			MaxIterations: agentConfig.MaxIterations,
			StrictRecipes: agentConfig.StrictRecipes,
		},
		recipeagent.NewStdoutCoordinationLogger(),
		tracerProvider.Tracer(recipeagent.TracerNameBedrock),
		meterProvider.Meter(recipeagent.MeterNameBedrock),
	)
	if err != nil {
		log.Fatalf("SETUP: Failed to create coordinator: %s", err)
	}
	slog.Info("SETUP: Recipe generator ready",
		"model_id", modelConfig.ModelID,
		"catalog_backend", catalogConfig.Backend,
		"memory_backend", memoryConfig.Backend,
	)

	fn := func(ctx context.Context, params Params) (Results, error) {
		// Flush telemetry after every invocation; the execution environment may freeze between them.
		defer func() {
			if err := errors.Join(tracerProvider.ForceFlush(ctx), meterProvider.ForceFlush(ctx)); err != nil {
				slog.Error("SETUP: Failed to flush OpenTelemetry", "error", err)
			}
		}()

		if params.SessionID == "" {
			params.SessionID = uuid.NewString()
		}

		payload, err := coordinator.Run(ctx, recipeagent.Request{SessionID: params.SessionID, Task: params.Task})
		if err != nil {
			slog.Error("RESULT: Error handling task", "session_id", params.SessionID, "error", err)
			if recovery.IsUnparsable(err) || errors.Is(err, recovery.ErrEmptyPayload) {
				return Results{}, errUnreadableAnswer
			}
			return Results{}, err
		}

		return Results{
			SessionID:          params.SessionID,
			Recipe:             payload.Recipe,
			MissingSuggestions: payload.MissingSuggestions,
		}, nil
	}

	lambda.StartWithOptions(fn, lambda.WithEnableSIGTERM(func() {
		if err := otelShutdown(context.Background()); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}))
}

func newBedrockRuntimeClient(ctx context.Context) (*bedrockruntime.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
	if err != nil {
		return nil, err
	}
	return bedrockruntime.NewFromConfig(awsCfg), nil
}
