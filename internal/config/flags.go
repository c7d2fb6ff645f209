package config

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"
	"github.com/yachtly/charter-service/internal/utils"
)

// Flags are the static LaunchDarkly flags, read once at startup.
type Flags struct {
	AcceptFakePhones        bool
	ValidatePhoneWithTwilio bool
	CORSHighSecurity        bool
	SearchCacheEnabled      bool
}

// DefaultFlags is what the service runs with when no LD_SDK_KEY is set.
func DefaultFlags() Flags {
	return Flags{SearchCacheEnabled: true}
}

// LoadFlags fetches flags from LaunchDarkly. An empty sdkKey skips the
// network entirely. A key that fails to initialize is fatal, same as any
// other bad secret.
func LoadFlags(sdkKey string) Flags {
	flags := DefaultFlags()
	if sdkKey == "" {
		utils.Logger.Info("LD_SDK_KEY not set, using default feature flags")
		return flags
	}

	ldClient, err := ld.MakeClient(sdkKey, LDConnectionTimeout)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to create LaunchDarkly client")
	}
	defer ldClient.Close()
	if !ldClient.Initialized() {
		utils.Logger.Fatal("LaunchDarkly client failed to initialize")
	}

	context := ldcontext.NewWithKind(ldcontext.Kind(LDServerContextKind), LDServerContextKey)

	boolFlag := func(key string, def bool) bool {
		v, err := ldClient.BoolVariation(key, context, def)
		if err != nil {
			utils.Logger.WithError(err).Fatalf("Error retrieving %s flag", key)
		}
		utils.Logger.Debugf("%s flag: %t", key, v)
		return v
	}

	flags.AcceptFakePhones = boolFlag("accept_fake_phones", flags.AcceptFakePhones)
	flags.ValidatePhoneWithTwilio = boolFlag("validate_phone_with_twilio", flags.ValidatePhoneWithTwilio)
	flags.CORSHighSecurity = boolFlag("cors_high_security", flags.CORSHighSecurity)
	flags.SearchCacheEnabled = boolFlag("search_cache_enabled", flags.SearchCacheEnabled)
	return flags
}

func (f Flags) Apply(cfg *Config) {
	cfg.LDFlag_AcceptFakePhones = f.AcceptFakePhones
	cfg.LDFlag_ValidatePhoneWithTwilio = f.ValidatePhoneWithTwilio
	cfg.LDFlag_CORSHighSecurity = f.CORSHighSecurity
	cfg.LDFlag_SearchCacheEnabled = f.SearchCacheEnabled
}
