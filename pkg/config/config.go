package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	Cache      CacheConfig
	Scheduler  SchedulerConfig
	Allocation AllocationConfig
	Reports    ReportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig controls the Redis-backed read cache.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// SchedulerConfig toggles the timetable generator and its proposal cache.
type SchedulerConfig struct {
	Enabled     bool
	ProposalTTL time.Duration
	ShuffleSeed int64
}

// AllocationWeights govern how the suitability axes combine into an overall score.
type AllocationWeights struct {
	Capacity    float64
	RoomType    float64
	Facilities  float64
	Utilization float64
}

// AllocationThresholds bound acceptable utilization spread and conflict rates.
type AllocationThresholds struct {
	MaxUtilizationSpread  float64
	MinCapacityEfficiency float64
	MaxConflictRate       float64
}

// AllocationPreferences toggle optional engine behaviours.
type AllocationPreferences struct {
	BalanceUtilization    bool
	StrictTypeMatching    bool
	AllowCapacityOverflow bool
}

// AllocationConfig is the externally injectable engine configuration.
type AllocationConfig struct {
	Weights         AllocationWeights
	Thresholds      AllocationThresholds
	Preferences     AllocationPreferences
	MaxHoursPerWeek int
}

// ReportsConfig governs timetable report exports.
type ReportsConfig struct {
	Enabled bool
	Title   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:    v.GetBool("ENABLE_CACHE"),
		DefaultTTL: parseDuration(v.GetString("CACHE_DEFAULT_TTL"), 10*time.Minute),
	}

	cfg.Scheduler = SchedulerConfig{
		Enabled:     v.GetBool("ENABLE_SCHEDULER"),
		ProposalTTL: parseDuration(v.GetString("SCHEDULER_PROPOSAL_TTL"), 30*time.Minute),
		ShuffleSeed: v.GetInt64("SCHEDULER_SHUFFLE_SEED"),
	}

	cfg.Allocation = AllocationConfig{
		Weights: AllocationWeights{
			Capacity:    v.GetFloat64("ALLOCATION_WEIGHT_CAPACITY"),
			RoomType:    v.GetFloat64("ALLOCATION_WEIGHT_ROOM_TYPE"),
			Facilities:  v.GetFloat64("ALLOCATION_WEIGHT_FACILITIES"),
			Utilization: v.GetFloat64("ALLOCATION_WEIGHT_UTILIZATION"),
		},
		Thresholds: AllocationThresholds{
			MaxUtilizationSpread:  v.GetFloat64("ALLOCATION_MAX_UTILIZATION_SPREAD"),
			MinCapacityEfficiency: v.GetFloat64("ALLOCATION_MIN_CAPACITY_EFFICIENCY"),
			MaxConflictRate:       v.GetFloat64("ALLOCATION_MAX_CONFLICT_RATE"),
		},
		Preferences: AllocationPreferences{
			BalanceUtilization:    v.GetBool("ALLOCATION_BALANCE_UTILIZATION"),
			StrictTypeMatching:    v.GetBool("ALLOCATION_STRICT_TYPE_MATCHING"),
			AllowCapacityOverflow: v.GetBool("ALLOCATION_ALLOW_CAPACITY_OVERFLOW"),
		},
		MaxHoursPerWeek: v.GetInt("ALLOCATION_MAX_HOURS_PER_WEEK"),
	}

	cfg.Reports = ReportsConfig{
		Enabled: v.GetBool("ENABLE_REPORTS"),
		Title:   v.GetString("REPORTS_TITLE"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "campus_alloc")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_DEFAULT_TTL", "10m")

	v.SetDefault("ENABLE_SCHEDULER", true)
	v.SetDefault("SCHEDULER_PROPOSAL_TTL", "30m")
	v.SetDefault("SCHEDULER_SHUFFLE_SEED", 0)

	v.SetDefault("ALLOCATION_WEIGHT_CAPACITY", 0.35)
	v.SetDefault("ALLOCATION_WEIGHT_ROOM_TYPE", 0.30)
	v.SetDefault("ALLOCATION_WEIGHT_FACILITIES", 0.25)
	v.SetDefault("ALLOCATION_WEIGHT_UTILIZATION", 0.10)
	v.SetDefault("ALLOCATION_MAX_UTILIZATION_SPREAD", 25.0)
	v.SetDefault("ALLOCATION_MIN_CAPACITY_EFFICIENCY", 30.0)
	v.SetDefault("ALLOCATION_MAX_CONFLICT_RATE", 20.0)
	v.SetDefault("ALLOCATION_BALANCE_UTILIZATION", true)
	v.SetDefault("ALLOCATION_STRICT_TYPE_MATCHING", true)
	v.SetDefault("ALLOCATION_ALLOW_CAPACITY_OVERFLOW", false)
	v.SetDefault("ALLOCATION_MAX_HOURS_PER_WEEK", 20)

	v.SetDefault("ENABLE_REPORTS", true)
	v.SetDefault("REPORTS_TITLE", "Timetable Allocation Report")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
