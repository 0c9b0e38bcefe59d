package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Database
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"reunite_db"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	// JWT (tokens are issued by the identity service)
	JWTSecret string `env:"JWT_SECRET"`

	// Semantic judge providers, tried in this order
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	AnthropicModel  string `env:"ANTHROPIC_MODEL" envDefault:"claude-haiku-4-5"`

	GLMAPIKey string `env:"GLM_API_KEY"`
	GLMAPIURL string `env:"GLM_API_URL" envDefault:"https://api.z.ai/api/paas/v4/chat/completions"`
	GLMModel  string `env:"GLM_MODEL" envDefault:"glm-5"`

	DeepSeekAPIKey string `env:"DEEPSEEK_API_KEY"`
	DeepSeekAPIURL string `env:"DEEPSEEK_API_URL" envDefault:"https://api.deepseek.com/v1/chat/completions"`
	DeepSeekModel  string `env:"DEEPSEEK_MODEL" envDefault:"deepseek-chat"`

	JudgeRatePerSecond    float64 `env:"JUDGE_RATE_PER_SECOND" envDefault:"5"`
	JudgeFailureThreshold int     `env:"JUDGE_FAILURE_THRESHOLD" envDefault:"5"`

	// Embeddings (OpenAI-compatible). Without an API key the local hash
	// embedder is used.
	OpenAIAPIKey        string `env:"OPENAI_API_KEY"`
	EmbeddingAPIURL     string `env:"EMBEDDING_API_URL" envDefault:"https://api.openai.com/v1/embeddings"`
	EmbeddingModel      string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	EmbeddingImageModel string `env:"EMBEDDING_IMAGE_MODEL"`
	EmbeddingDimensions int    `env:"EMBEDDING_DIMENSIONS" envDefault:"256"`

	AITimeout time.Duration `env:"AI_TIMEOUT" envDefault:"20s"`

	// Matching
	ScoringPolicy     string `env:"SCORING_POLICY" envDefault:"judged"`
	ScoringPolicyFile string `env:"SCORING_POLICY_FILE"`
	MatchWorkers      int    `env:"MATCH_WORKERS" envDefault:"8"`

	// Admin
	AdminUserIDs string `env:"ADMIN_USER_IDS"`
	AdminToken   string `env:"ADMIN_TOKEN"`

	// Server
	Port        string `env:"PORT" envDefault:"8080"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"*"`

	// Observability
	LogRetentionDays int    `env:"LOG_RETENTION_DAYS" envDefault:"30"`
	OTELEndpoint     string `env:"OTEL_ENDPOINT"`
	SentryDSN        string `env:"SENTRY_DSN"`
	AppEnv           string `env:"APP_ENV" envDefault:"development"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}
