// Package settings exposes the operator-tunable runtime knobs. Unlike the
// process config, these live in storage and take effect on the next request
// without a restart.
package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mediagate/internal/domain"
)

type Service interface {
	Snapshot(ctx context.Context) (*domain.GateSettings, error)
	All(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
	// NextUploadLocation picks the storage location for the next upload,
	// rotating through the configured locations when multi-location is on.
	NextUploadLocation(ctx context.Context) (int64, error)
}

type settingsStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
	NextCounter(ctx context.Context, key string) (int64, error)
}

type service struct {
	repo            settingsStore
	defaultLocation int64
}

type ServiceDeps struct {
	Repo            settingsStore
	DefaultLocation int64
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.Repo, defaultLocation: deps.DefaultLocation}
}

var knownKeys = map[string]bool{
	domain.SettingTokenExpiryMinutes:  true,
	domain.SettingMinDwellSeconds:     true,
	domain.SettingBypassCheckEnabled:  true,
	domain.SettingAutoBanThreshold:    true,
	domain.SettingVerificationEnabled: true,
	domain.SettingVerificationReward:  true,
	domain.SettingCreditSystemEnabled: true,
	domain.SettingCreditExpiryDays:    true,
	domain.SettingReferralReward:      true,
	domain.SettingAutoBatchEnabled:    true,
	domain.SettingAutoBatchMode:       true,
	domain.SettingAutoBatchWindowSec:  true,
	domain.SettingAutoDeleteSeconds:   true,
	domain.SettingMultiLocationOn:     true,
	domain.SettingExtraLocations:      true,
}

func (s *service) Snapshot(ctx context.Context) (*domain.GateSettings, error) {
	stored, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	gs := &domain.GateSettings{
		TokenExpiryMinutes:  intOr(stored, domain.SettingTokenExpiryMinutes, domain.DefaultTokenExpiryMinutes),
		MinDwellSeconds:     intOr(stored, domain.SettingMinDwellSeconds, domain.DefaultMinDwellSeconds),
		BypassCheckEnabled:  boolOr(stored, domain.SettingBypassCheckEnabled, true),
		AutoBanThreshold:    intOr(stored, domain.SettingAutoBanThreshold, domain.DefaultAutoBanThreshold),
		VerificationEnabled: boolOr(stored, domain.SettingVerificationEnabled, true),
		VerificationReward:  intOr(stored, domain.SettingVerificationReward, domain.DefaultVerificationReward),
		CreditSystemEnabled: boolOr(stored, domain.SettingCreditSystemEnabled, true),
		CreditExpiryDays:    intOr(stored, domain.SettingCreditExpiryDays, domain.DefaultCreditExpiryDays),
		ReferralReward:      intOr(stored, domain.SettingReferralReward, domain.DefaultReferralReward),
		AutoBatchEnabled:    boolOr(stored, domain.SettingAutoBatchEnabled, true),
		AutoBatchMode:       strOr(stored, domain.SettingAutoBatchMode, domain.BatchModeEpisode),
		AutoBatchWindowSec:  intOr(stored, domain.SettingAutoBatchWindowSec, domain.DefaultAutoBatchWindowSec),
		AutoDeleteSeconds:   intOr(stored, domain.SettingAutoDeleteSeconds, 0),
	}
	return gs, nil
}

func (s *service) All(ctx context.Context) (map[string]string, error) {
	return s.repo.All(ctx)
}

func (s *service) Set(ctx context.Context, key, value string) error {
	if !knownKeys[key] {
		return fmt.Errorf("unknown setting %q: %w", key, domain.ErrBadRequest)
	}
	return s.repo.Set(ctx, key, value)
}

func (s *service) NextUploadLocation(ctx context.Context) (int64, error) {
	stored, err := s.repo.All(ctx)
	if err != nil {
		return 0, err
	}
	if !boolOr(stored, domain.SettingMultiLocationOn, false) {
		return s.defaultLocation, nil
	}
	locations := []int64{s.defaultLocation}
	for _, part := range strings.Split(strOr(stored, domain.SettingExtraLocations, ""), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		loc, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		locations = append(locations, loc)
	}
	if len(locations) == 1 {
		return s.defaultLocation, nil
	}
	n, err := s.repo.NextCounter(ctx, domain.SettingLocationRoundRobin)
	if err != nil {
		return s.defaultLocation, nil
	}
	return locations[n%int64(len(locations))], nil
}

func strOr(m map[string]string, key, fallback string) string {
	if v, ok := m[key]; ok && v != "" {
		return v
	}
	return fallback
}

func intOr(m map[string]string, key string, fallback int) int {
	if v, ok := m[key]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func boolOr(m map[string]string, key string, fallback bool) bool {
	if v, ok := m[key]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
