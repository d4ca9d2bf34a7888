package domain

// Settings keys stored in the settings collection. All are operator-mutable
// at runtime through the admin API; defaults apply when a key is absent.
const (
	SettingTokenExpiryMinutes  = "token_expiry_minutes"
	SettingMinDwellSeconds     = "min_dwell_seconds"
	SettingBypassCheckEnabled  = "bypass_check_enabled"
	SettingAutoBanThreshold    = "auto_ban_threshold"
	SettingVerificationEnabled = "verification_enabled"
	SettingVerificationReward  = "verification_reward"
	SettingCreditSystemEnabled = "credit_system_enabled"
	SettingCreditExpiryDays    = "credit_expiry_days"
	SettingReferralReward      = "referral_reward"
	SettingAutoBatchEnabled    = "auto_batch_enabled"
	SettingAutoBatchMode       = "auto_batch_mode"
	SettingAutoBatchWindowSec  = "auto_batch_time_window"
	SettingAutoDeleteSeconds   = "auto_delete_seconds"
	SettingMultiLocationOn     = "multi_location_enabled"
	SettingExtraLocations      = "extra_locations"
	SettingLocationRoundRobin  = "location_round_robin_index"
)

// Settings defaults.
const (
	DefaultTokenExpiryMinutes = 10
	DefaultMinDwellSeconds    = 60
	DefaultAutoBanThreshold   = 5
	DefaultVerificationReward = 3
	DefaultCreditExpiryDays   = 30
	DefaultReferralReward     = 5
	DefaultAutoBatchWindowSec = 30
	DefaultPendingMaxAgeSec   = 120
)

// GateSettings is the snapshot of runtime settings one request operates on.
type GateSettings struct {
	TokenExpiryMinutes  int    `json:"token_expiry_minutes"`
	MinDwellSeconds     int    `json:"min_dwell_seconds"`
	BypassCheckEnabled  bool   `json:"bypass_check_enabled"`
	AutoBanThreshold    int    `json:"auto_ban_threshold"`
	VerificationEnabled bool   `json:"verification_enabled"`
	VerificationReward  int    `json:"verification_reward"`
	CreditSystemEnabled bool   `json:"credit_system_enabled"`
	CreditExpiryDays    int    `json:"credit_expiry_days"`
	ReferralReward      int    `json:"referral_reward"`
	AutoBatchEnabled    bool   `json:"auto_batch_enabled"`
	AutoBatchMode       string `json:"auto_batch_mode"`
	AutoBatchWindowSec  int    `json:"auto_batch_time_window"`
	AutoDeleteSeconds   int    `json:"auto_delete_seconds"`
}
