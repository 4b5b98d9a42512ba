package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/yar-app/yar-api/internal/models"
	"github.com/yar-app/yar-api/internal/repository"
	"github.com/yar-app/yar-api/pkg/config"
	appErrors "github.com/yar-app/yar-api/pkg/errors"
)

// SettingDefinitions lists every known setting in display order.
var SettingDefinitions = []models.SettingDefinition{
	{Key: models.SettingEnableRegistration, Type: models.SettingBoolean, Label: "Enable registration", Default: true, Public: true},
	{Key: models.SettingMinPasswordLength, Type: models.SettingInteger, Label: "Minimum password length", Default: 8, Public: true},
	{Key: models.SettingMOTD, Type: models.SettingString, Label: "MOTD (Message of the day)", Default: "Welcome to YAR! Change this message in settings."},
	{Key: models.SettingRefreshTokenExpiry, Type: models.SettingString, Label: "Refresh token lifetime", Default: "7d"},
	{Key: models.SettingAuthBackgroundURL, Type: models.SettingString, Label: "Login background image URL", Default: "", Public: true},
	{Key: models.SettingInstanceTitle, Type: models.SettingString, Label: "Instance title", Default: "YAR", Public: true},
}

const settingCachePrefix = "settings:"

type settingRepository interface {
	List(ctx context.Context) ([]repository.SettingRow, error)
	Get(ctx context.Context, key string) (*repository.SettingRow, error)
	Upsert(ctx context.Context, key, value string) error
}

// cachedSetting remembers whether a row exists so defaults are cached too.
type cachedSetting struct {
	Value  string `json:"value"`
	Stored bool   `json:"stored"`
}

// SettingService resolves typed instance settings.
type SettingService struct {
	repo       settingRepository
	cache      *CacheService
	logger     *zap.Logger
	ttl        time.Duration
	refreshTTL time.Duration
}

// NewSettingService constructs a setting service. fallbackRefreshTTL is used
// when the stored refresh lifetime cannot be parsed.
func NewSettingService(repo settingRepository, cache *CacheService, logger *zap.Logger, ttl, fallbackRefreshTTL time.Duration) *SettingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fallbackRefreshTTL <= 0 {
		fallbackRefreshTTL = 7 * 24 * time.Hour
	}
	return &SettingService{repo: repo, cache: cache, logger: logger, ttl: ttl, refreshTTL: fallbackRefreshTTL}
}

func definition(key string) (models.SettingDefinition, bool) {
	for _, def := range SettingDefinitions {
		if string(def.Key) == key {
			return def, true
		}
	}
	return models.SettingDefinition{}, false
}

// List returns every declared setting with its stored or default value.
func (s *SettingService) List(ctx context.Context) (map[string]models.Setting, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to load settings")
	}
	stored := make(map[string]string, len(rows))
	for _, row := range rows {
		stored[row.Key] = row.Value
	}

	out := make(map[string]models.Setting, len(SettingDefinitions))
	for _, def := range SettingDefinitions {
		value := def.Default
		if raw, ok := stored[string(def.Key)]; ok {
			value = parseSetting(def, raw)
		}
		out[string(def.Key)] = models.Setting{Type: def.Type, Value: value, Label: def.Label}
	}
	return out, nil
}

// Get returns one setting value. Non public keys require an authenticated caller.
func (s *SettingService) Get(ctx context.Context, key string, authenticated bool) (interface{}, error) {
	def, ok := definition(key)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "setting not found")
	}
	if !def.Public && !authenticated {
		return nil, appErrors.ErrUnauthorized
	}
	return s.value(ctx, def)
}

// Set validates value against the declared type and stores it.
func (s *SettingService) Set(ctx context.Context, key string, value interface{}) error {
	def, ok := definition(key)
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "setting not found")
	}
	raw, err := formatSetting(def, value)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Type, appErrors.ErrValidation.Code, "invalid setting value")
	}
	if def.Key == models.SettingRefreshTokenExpiry && config.ParseDuration(raw, 0) <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "invalid duration")
	}
	if err := s.repo.Upsert(ctx, key, raw); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to store setting")
	}
	s.cache.Invalidate(ctx, settingCachePrefix+key)
	s.logger.Info("setting updated", zap.String("key", key))
	return nil
}

// RegistrationEnabled reports whether new accounts may be created.
func (s *SettingService) RegistrationEnabled(ctx context.Context) bool {
	v, err := s.value(ctx, mustDefinition(models.SettingEnableRegistration))
	if err != nil {
		s.logger.Warn("failed to resolve registration setting", zap.Error(err))
		return true
	}
	enabled, _ := v.(bool)
	return enabled
}

// MinPasswordLength returns the minimum accepted password length.
func (s *SettingService) MinPasswordLength(ctx context.Context) int {
	v, err := s.value(ctx, mustDefinition(models.SettingMinPasswordLength))
	if err != nil {
		s.logger.Warn("failed to resolve password length setting", zap.Error(err))
		return 8
	}
	n, _ := v.(int)
	return n
}

// RefreshTokenTTL returns the configured refresh token lifetime.
func (s *SettingService) RefreshTokenTTL(ctx context.Context) time.Duration {
	v, err := s.value(ctx, mustDefinition(models.SettingRefreshTokenExpiry))
	if err != nil {
		s.logger.Warn("failed to resolve refresh token lifetime", zap.Error(err))
		return s.refreshTTL
	}
	raw, _ := v.(string)
	return config.ParseDuration(raw, s.refreshTTL)
}

func mustDefinition(key models.SettingKey) models.SettingDefinition {
	def, ok := definition(string(key))
	if !ok {
		panic("undeclared setting " + string(key))
	}
	return def
}

func (s *SettingService) value(ctx context.Context, def models.SettingDefinition) (interface{}, error) {
	key := string(def.Key)
	entry, err := cached(ctx, s.cache, settingCachePrefix+key, s.ttl, func(ctx context.Context) (cachedSetting, error) {
		row, err := s.repo.Get(ctx, key)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return cachedSetting{}, nil
		case err != nil:
			return cachedSetting{}, err
		}
		return cachedSetting{Value: row.Value, Stored: true}, nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Type, appErrors.ErrInternal.Code, "failed to load setting")
	}
	if !entry.Stored {
		return def.Default, nil
	}
	return parseSetting(def, entry.Value), nil
}

func parseSetting(def models.SettingDefinition, raw string) interface{} {
	switch def.Type {
	case models.SettingInteger:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return def.Default
		}
		return n
	case models.SettingBoolean:
		return raw == "true"
	default:
		return raw
	}
}

func formatSetting(def models.SettingDefinition, value interface{}) (string, error) {
	switch def.Type {
	case models.SettingInteger:
		n, ok := value.(float64)
		if !ok || n != math.Trunc(n) {
			return "", errors.New("expected an integer")
		}
		return strconv.FormatInt(int64(n), 10), nil
	case models.SettingBoolean:
		b, ok := value.(bool)
		if !ok {
			return "", errors.New("expected a boolean")
		}
		return strconv.FormatBool(b), nil
	default:
		str, ok := value.(string)
		if !ok {
			return "", errors.New("expected a string")
		}
		return str, nil
	}
}
