package recipeagent

import "time"

type ModelConfig struct {
	ModelID     string  `env:"MODEL_ID,required"`
	MaxTokens   int32   `env:"MAX_TOKENS,default=2048"`
	Temperature float32 `env:"TEMPERATURE,default=0.2"`
	TopP        float32 `env:"TOP_P,default=0.9"`
}

type AgentConfig struct {
	MaxIterations int  `env:"MAX_ITERATIONS,default=10"`
	StrictRecipes bool `env:"STRICT_RECIPES,default=false"`
}

// CatalogConfig selects where the entity-search catalog lives.
// Backend is one of "file", "s3" or "sql".
type CatalogConfig struct {
	Backend   string `env:"CATALOG_BACKEND,default=file"`
	FilePath  string `env:"CATALOG_FILE_PATH,default=artifacts/catalog.json"`
	S3Bucket  string `env:"CATALOG_S3_BUCKET"`
	S3Key     string `env:"CATALOG_S3_KEY,default=catalog.json"`
	SQLDriver string `env:"CATALOG_SQL_DRIVER,default=sqlite"`
	SQLDSN    string `env:"CATALOG_SQL_DSN,default=catalog.db"`
}

// MemoryConfig selects the per-session recipe memory. Backend is "memory" or "redis".
type MemoryConfig struct {
	Backend       string        `env:"MEMORY_BACKEND,default=memory"`
	TTL           time.Duration `env:"MEMORY_TTL,default=1h"`
	RedisAddr     string        `env:"REDIS_ADDR,default=localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB,default=0"`
}
