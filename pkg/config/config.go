package config

import (
	"errors"
	"io/fs"
	"math"
	"strconv"
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
	Domain    string
	// TrustedProxies lists proxy addresses whose X-Forwarded-For is honoured.
	// Empty means the peer address is the client.
	TrustedProxies []string

	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	CORS      CORSConfig
	Log       LogConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
	Upload    UploadConfig
	Tools     ToolsConfig
	Settings  SettingsConfig
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
	Enabled bool
	// URL, when set, takes precedence over the discrete fields.
	URL      string
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig carries token lifetimes and the location of the signing keys.
type AuthConfig struct {
	KeysDir           string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	MediaTokenTTL     time.Duration
	TOTPSkew          uint
	RefreshCookieName string
	BcryptCost        int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig points at the directory holding media files.
type StorageConfig struct {
	Dir string
}

// RateLimitConfig tunes the sliding window guarding credential endpoints.
type RateLimitConfig struct {
	Backend string
	Window  time.Duration
	Max     int
}

// UploadConfig bounds chunked uploads and the thumbnail worker pool.
type UploadConfig struct {
	MaxPartSize      int64
	ThumbnailWorkers int
	InfoCacheTTL     time.Duration
}

// ToolsConfig names the external binaries used for ingest and thumbnails.
type ToolsConfig struct {
	YtDlpPath   string
	FFmpegPath  string
	FFprobePath string
}

// SettingsConfig controls caching of instance settings.
type SettingsConfig struct {
	CacheTTL time.Duration
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.Domain = strings.TrimRight(v.GetString("DOMAIN"), "/")
	cfg.TrustedProxies = splitAndTrim(v.GetString("TRUSTED_PROXIES"))

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
		Enabled:  v.GetBool("REDIS_ENABLED"),
		URL:      v.GetString("REDIS_URL"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Auth = AuthConfig{
		KeysDir:           v.GetString("KEYS_DIR"),
		AccessTokenTTL:    ParseDuration(v.GetString("ACCESS_TOKEN_TTL"), 15*time.Minute),
		RefreshTokenTTL:   ParseDuration(v.GetString("REFRESH_TOKEN_TTL"), 7*24*time.Hour),
		MediaTokenTTL:     ParseDuration(v.GetString("MEDIA_TOKEN_TTL"), 24*time.Hour),
		TOTPSkew:          v.GetUint("TOTP_SKEW"),
		RefreshCookieName: v.GetString("REFRESH_COOKIE_NAME"),
		BcryptCost:        v.GetInt("BCRYPT_COST"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Storage = StorageConfig{Dir: v.GetString("STORAGE_DIR")}

	cfg.RateLimit = RateLimitConfig{
		Backend: strings.ToLower(v.GetString("RATE_LIMIT_BACKEND")),
		Window:  ParseDuration(v.GetString("AUTH_RATE_LIMIT_WINDOW"), time.Hour),
		Max:     v.GetInt("AUTH_RATE_LIMIT_MAX"),
	}

	maxPart := v.GetInt64("UPLOAD_MAX_PART_SIZE")
	if maxPart <= 0 {
		maxPart = 10 * 1024 * 1024
	}
	cfg.Upload = UploadConfig{
		MaxPartSize:      maxPart,
		ThumbnailWorkers: v.GetInt("THUMBNAIL_WORKERS"),
		InfoCacheTTL:     ParseDuration(v.GetString("UPLOAD_INFO_CACHE_TTL"), time.Hour),
	}

	cfg.Tools = ToolsConfig{
		YtDlpPath:   v.GetString("YTDLP_PATH"),
		FFmpegPath:  v.GetString("FFMPEG_PATH"),
		FFprobePath: v.GetString("FFPROBE_PATH"),
	}

	cfg.Settings = SettingsConfig{
		CacheTTL: ParseDuration(v.GetString("SETTINGS_CACHE_TTL"), 5*time.Minute),
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c != nil && c.Env == EnvProduction
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")
	v.SetDefault("DOMAIN", "http://localhost:8080")
	v.SetDefault("TRUSTED_PROXIES", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "yar")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("KEYS_DIR", "./data/keys")
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "7d")
	v.SetDefault("MEDIA_TOKEN_TTL", "1d")
	v.SetDefault("TOTP_SKEW", 2)
	v.SetDefault("REFRESH_COOKIE_NAME", "refreshToken")
	v.SetDefault("BCRYPT_COST", 12)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STORAGE_DIR", "./data")

	v.SetDefault("RATE_LIMIT_BACKEND", "memory")
	v.SetDefault("AUTH_RATE_LIMIT_WINDOW", "1h")
	v.SetDefault("AUTH_RATE_LIMIT_MAX", 5)

	v.SetDefault("UPLOAD_MAX_PART_SIZE", 10*1024*1024)
	v.SetDefault("THUMBNAIL_WORKERS", 1)
	v.SetDefault("UPLOAD_INFO_CACHE_TTL", "1h")

	v.SetDefault("YTDLP_PATH", "yt-dlp")
	v.SetDefault("FFMPEG_PATH", "ffmpeg")
	v.SetDefault("FFPROBE_PATH", "ffprobe")

	v.SetDefault("SETTINGS_CACHE_TTL", "5m")
}

// ParseDuration accepts Go durations plus day ("7d") and week ("2w")
// suffixes. Invalid or empty input yields fallback, as does anything that
// does not fit a time.Duration.
func ParseDuration(raw string, fallback time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	if unit, ok := longUnits[raw[len(raw)-1]]; ok {
		n, err := strconv.ParseFloat(raw[:len(raw)-1], 64)
		if err != nil || math.IsNaN(n) || n <= 0 {
			return fallback
		}
		// float64(math.MaxInt64) rounds up to 2^63, the first value that overflows.
		d := n * float64(unit)
		if d >= float64(math.MaxInt64) {
			return fallback
		}
		return time.Duration(d)
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

var longUnits = map[byte]time.Duration{
	'd': 24 * time.Hour,
	'w': 7 * 24 * time.Hour,
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
