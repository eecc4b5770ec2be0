package config

import (
	"os"
	"strconv"
	"time"
)

type AdjudicationServiceConfig struct {
	Port        string
	PostgresCfg PostgresConfig
	RedisCfg    RedisConfig
	MinioCfg    MinioConfig
	RabbitMQCfg RabbitMQConfig
	ProviderCfg ProviderConfig
	WorkerCfg   WorkerConfig
	Rules       AdjudicationRules
}

type PostgresConfig struct {
	DBname   string
	Username string
	Password string
	Host     string
	Port     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type MinioConfig struct {
	MinioURL       string
	MinioAccessKey string
	MinioSecretKey string
	MinioLocation  string
	MinioSecure    string
}

type RabbitMQConfig struct {
	Username string
	Password string
	Host     string
	Port     string
}

type ProviderConfig struct {
	SatelliteURL   string
	OCRURL         string
	CallTimeout    time.Duration
	MaxRetries     int
	BackoffBase    time.Duration
	BaselineDays   int
	CurrentDays    int
	CloudDegraded  float64
	CloudPoor      float64
}

type WorkerConfig struct {
	MaxInFlightCases int
	QueueSize        int
	CaseLockTTL      time.Duration
}

// AdjudicationRules holds every threshold and weight the pipeline consults.
// Loaded once at startup and shared read-only across all concurrent cases;
// nothing in the decision path carries a literal threshold.
type AdjudicationRules struct {
	// Claims
	ApproveThreshold float64
	MinDamageFloor   float64
	PayoutFactor     float64

	// Fraud
	FraudTolerance     float64
	HighReportedFloor  float64
	LowComputedCeiling float64

	// Verification
	VerifiedThreshold float64
	ReviewThreshold   float64
	FieldWeights      map[string]float64

	// Eligibility
	BlockUnverifiedProperty bool
}

func New() *AdjudicationServiceConfig {
	return &AdjudicationServiceConfig{
		Port: getEnvOrDefault("PORT", "8086"),
		PostgresCfg: PostgresConfig{
			DBname:   getEnvOrDefault("POSTGRES_DB", "adjudication"),
			Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password: getEnvOrDefault("POSTGRES_PASSWORD", "postgres"),
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
		},
		RedisCfg: RedisConfig{
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       0,
		},
		MinioCfg: MinioConfig{
			MinioURL:       getEnvOrDefault("MINIO_ENDPOINT", "http://localhost:9407"),
			MinioAccessKey: getEnvOrDefault("MINIO_ACCESS_KEY", "minio"),
			MinioSecretKey: getEnvOrDefault("MINIO_SECRET_KEY", "minio123"),
			MinioLocation:  getEnvOrDefault("MINIO_LOCATION", "us-east-1"),
			MinioSecure:    getEnvOrDefault("MINIO_SECURE", "false"),
		},
		RabbitMQCfg: RabbitMQConfig{
			Username: getEnvOrDefault("RABBITMQ_USER", "admin"),
			Password: getEnvOrDefault("RABBITMQ_PWD", "admin"),
			Host:     getEnvOrDefault("RABBITMQ_HOST", "localhost"),
			Port:     getEnvOrDefault("RABBITMQ_PORT", "5672"),
		},
		ProviderCfg: ProviderConfig{
			SatelliteURL:  getEnvOrDefault("SATELLITE_API_URL", "http://localhost:8095/api/v1/ndvi/stats"),
			OCRURL:        getEnvOrDefault("OCR_API_URL", "http://localhost:8096/api/v1/extract"),
			CallTimeout:   getEnvDuration("PROVIDER_CALL_TIMEOUT", 15*time.Second),
			MaxRetries:    getEnvInt("PROVIDER_MAX_RETRIES", 3),
			BackoffBase:   getEnvDuration("PROVIDER_BACKOFF_BASE", 500*time.Millisecond),
			BaselineDays:  getEnvInt("EVIDENCE_BASELINE_DAYS", 90),
			CurrentDays:   getEnvInt("EVIDENCE_CURRENT_DAYS", 14),
			CloudDegraded: getEnvFloat("EVIDENCE_CLOUD_DEGRADED_PCT", 30),
			CloudPoor:     getEnvFloat("EVIDENCE_CLOUD_POOR_PCT", 70),
		},
		WorkerCfg: WorkerConfig{
			MaxInFlightCases: getEnvInt("MAX_IN_FLIGHT_CASES", 8),
			QueueSize:        getEnvInt("CASE_QUEUE_SIZE", 64),
			CaseLockTTL:      getEnvDuration("CASE_LOCK_TTL", 5*time.Minute),
		},
		Rules: AdjudicationRules{
			ApproveThreshold:        getEnvFloat("CLAIM_APPROVE_THRESHOLD", 40),
			MinDamageFloor:          getEnvFloat("CLAIM_MIN_DAMAGE_FLOOR", 10),
			PayoutFactor:            getEnvFloat("DEFAULT_PAYOUT_FACTOR", 1.0),
			FraudTolerance:          getEnvFloat("FRAUD_TOLERANCE_POINTS", 25),
			HighReportedFloor:       getEnvFloat("FRAUD_HIGH_REPORTED_FLOOR", 90),
			LowComputedCeiling:      getEnvFloat("FRAUD_LOW_COMPUTED_CEILING", 15),
			VerifiedThreshold:       getEnvFloat("VERIFICATION_VERIFIED_THRESHOLD", 85),
			ReviewThreshold:         getEnvFloat("VERIFICATION_REVIEW_THRESHOLD", 70),
			BlockUnverifiedProperty: getEnvBool("BLOCK_UNVERIFIED_PROPERTY", false),
			FieldWeights: map[string]float64{
				"owner_name":    getEnvFloat("WEIGHT_OWNER_NAME", 3),
				"survey_number": getEnvFloat("WEIGHT_SURVEY_NUMBER", 3),
				"area_hectares": getEnvFloat("WEIGHT_AREA_HECTARES", 2),
				"village":       getEnvFloat("WEIGHT_VILLAGE", 1),
				"district":      getEnvFloat("WEIGHT_DISTRICT", 1),
			},
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
