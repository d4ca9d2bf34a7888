package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all process-start configuration loaded from environment
// variables. Operator-tunable knobs (token expiry, rewards, batching) live in
// the settings collection instead and are mutable at runtime.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiryDays     int

	// Operator account for the admin API.
	OperatorUsername     string
	OperatorPasswordHash string // bcrypt

	// DefaultLocationID is the storage location assumed by the legacy
	// multiplicative link encoding.
	DefaultLocationID int64

	// PublicBaseURL is the inbound deep-link base the transport redirects
	// back to, e.g. "https://gate.example.com/open".
	PublicBaseURL string

	ShortenerAPIURL   string
	ShortenerAPIToken string

	TransportWebhookURL string

	SMTPHost      string
	SMTPPort      string
	SMTPFrom      string
	SMTPUsername  string
	SMTPPassword  string
	OperatorEmail string

	SNSRegion     string
	OperatorPhone string

	// Payment knobs for the manual and gateway providers.
	PaymentManualInstructions string
	PaymentGatewayURL         string

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each collection.
type DynamoTables struct {
	AccessTokens   string
	BypassAttempts string
	CreditAccounts string
	PendingFiles   string
	Batches        string
	Settings       string
	Owners         string
	Items          string
	Deliveries     string
	Payments       string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			AccessTokens:   getEnv("DYNAMO_TABLE_ACCESS_TOKENS", "access_tokens"),
			BypassAttempts: getEnv("DYNAMO_TABLE_BYPASS_ATTEMPTS", "bypass_attempts"),
			CreditAccounts: getEnv("DYNAMO_TABLE_CREDIT_ACCOUNTS", "credit_accounts"),
			PendingFiles:   getEnv("DYNAMO_TABLE_PENDING_FILES", "pending_files"),
			Batches:        getEnv("DYNAMO_TABLE_BATCHES", "batches"),
			Settings:       getEnv("DYNAMO_TABLE_SETTINGS", "gate_settings"),
			Owners:         getEnv("DYNAMO_TABLE_OWNERS", "owners"),
			Items:          getEnv("DYNAMO_TABLE_ITEMS", "items"),
			Deliveries:     getEnv("DYNAMO_TABLE_DELIVERIES", "deliveries"),
			Payments:       getEnv("DYNAMO_TABLE_PAYMENTS", "payments"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "mediagate-items"),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiryDays:     getEnvInt("JWT_EXPIRY_DAYS", 7),

		OperatorUsername:     getEnv("OPERATOR_USERNAME", "operator"),
		OperatorPasswordHash: getEnv("OPERATOR_PASSWORD_HASH", ""),

		DefaultLocationID: getEnvInt64("DEFAULT_LOCATION_ID", 0),

		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:3000/open"),

		ShortenerAPIURL:   getEnv("SHORTENER_API_URL", ""),
		ShortenerAPIToken: getEnv("SHORTENER_API_TOKEN", ""),

		TransportWebhookURL: getEnv("TRANSPORT_WEBHOOK_URL", ""),

		SMTPHost:      getEnv("SMTP_HOST", "localhost"),
		SMTPPort:      getEnv("SMTP_PORT", "1025"),
		SMTPFrom:      getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		OperatorEmail: getEnv("OPERATOR_EMAIL", ""),

		SNSRegion:     getEnv("SNS_REGION", "us-east-1"),
		OperatorPhone: getEnv("OPERATOR_PHONE", ""),

		PaymentManualInstructions: getEnv("PAYMENT_MANUAL_INSTRUCTIONS", ""),
		PaymentGatewayURL:         getEnv("PAYMENT_GATEWAY_URL", ""),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
