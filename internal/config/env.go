package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/markdave123-py/Fixpress/internal/core"
)

// LLM providers understood by LLM_PROVIDER.
const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

type Config struct {
	Port        string
	CORSOrigins []string
	Debug       bool

	LLMProvider    string
	OpenAIKey      string
	OpenAIModel    string
	OpenAIBaseURL  string
	AIAPIKey       string
	GenModel       string
	EmbedModel     string
	AnthropicKey   string
	AnthropicModel string
	Temperature    float64
	RetrievalTopK  int

	ChunkSize    int
	ChunkOverlap int
	FetchTimeout time.Duration
	SynthDelay   time.Duration
	PublishDelay time.Duration

	AffiliateTag  string
	AmazonBaseURL string

	WordPressURL         string
	WordPressUser        string
	WordPressAppPassword string
	WordPressCategory    string

	GoogleCredentialsFile string
	SiteURL               string

	DatabaseURL  string
	SslCertPath  string
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
	S3Endpoint   string

	JWTSecret            string
	OperatorPasswordHash string
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		Debug:       getEnvBool("DEBUG", false),

		LLMProvider:    strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)),
		OpenAIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
		AIAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GenModel:       getEnv("GEN_MODEL", "gemini-1.5-flash"),
		EmbedModel:     getEnv("EMBED_MODEL", ""),
		AnthropicKey:   getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel: getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-latest"),
		Temperature:    getEnvFloat("LLM_TEMPERATURE", 0.3),
		RetrievalTopK:  getEnvInt("RETRIEVAL_TOP_K", 3),

		ChunkSize:    getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),
		FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
		SynthDelay:   getEnvDuration("SYNTH_DELAY", 2*time.Second),
		PublishDelay: getEnvDuration("PUBLISH_DELAY", time.Second),

		AffiliateTag:  getEnv("AMAZON_AFFILIATE_TAG", "tuafiliado-21"),
		AmazonBaseURL: getEnv("AMAZON_BASE_URL", "https://www.amazon.es"),

		WordPressURL:         strings.TrimRight(getEnv("WORDPRESS_URL", ""), "/"),
		WordPressUser:        getEnv("WORDPRESS_USER", ""),
		WordPressAppPassword: getEnv("WORDPRESS_APP_PASSWORD", ""),
		WordPressCategory:    getEnv("WORDPRESS_CATEGORY", "Ayuda técnica"),

		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		SiteURL:               getEnv("SITE_URL", ""),

		DatabaseURL:  getEnv("DATABASE_URL", ""),
		SslCertPath:  getEnv("SSL_CERT_PATH", ""),
		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", ""),
		S3Endpoint:   getEnv("S3_ENDPOINT", ""),

		JWTSecret:            getEnv("JWT_SECRET", ""),
		OperatorPasswordHash: getEnv("OPERATOR_PASSWORD_HASH", ""),
	}

	return cfg
}

// Validate checks settings that would otherwise break components later on.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return &core.ConfigurationError{Component: "chunker", Reason: "CHUNK_SIZE must be positive"}
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return &core.ConfigurationError{Component: "chunker", Reason: "CHUNK_OVERLAP must be in [0, CHUNK_SIZE)"}
	}

	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			return &core.ConfigurationError{Component: "llm", Reason: "OPENAI_API_KEY not set"}
		}
	case ProviderGemini:
		if c.AIAPIKey == "" {
			return &core.ConfigurationError{Component: "llm", Reason: "GEMINI_API_KEY not set"}
		}
	case ProviderAnthropic:
		if c.AnthropicKey == "" {
			return &core.ConfigurationError{Component: "llm", Reason: "ANTHROPIC_API_KEY not set"}
		}
	default:
		return &core.ConfigurationError{Component: "llm", Reason: "unknown LLM_PROVIDER " + strconv.Quote(c.LLMProvider)}
	}
	return nil
}

// WordPressEnabled reports whether all publication credentials are present.
func (c *Config) WordPressEnabled() bool {
	return c.WordPressURL != "" && c.WordPressUser != "" && c.WordPressAppPassword != ""
}

// ObjectStorageEnabled reports whether S3 archiving can be used.
func (c *Config) ObjectStorageEnabled() bool {
	return c.AwsAccessKey != "" && c.AwsSecretKey != "" && c.BucketName != ""
}

// Secrets lists values that must never show up in logs.
func (c *Config) Secrets() []string {
	var out []string
	for _, s := range []string{c.OpenAIKey, c.AIAPIKey, c.AnthropicKey, c.WordPressAppPassword, c.AwsSecretKey, c.JWTSecret} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[WARN] %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[WARN] %s=%q not a number, using default %v", key, v, def)
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[WARN] %s=%q not a bool, using default %v", key, v, def)
		return def
	}
	return b
}

// getEnvDuration accepts Go durations ("1500ms") or plain seconds ("2").
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	log.Printf("[WARN] %s=%q not a duration, using default %s", key, v, def)
	return def
}

func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
