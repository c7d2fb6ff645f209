package config

import (
	"crypto/rsa"
	"encoding/base64"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/yachtly/charter-service/internal/utils"
)

// Config holds all application configuration, including secrets and flags.
type Config struct {
	OrganizationName string
	AppName          string
	Env              string
	AppPort          string
	AppUrl           string
	DBUrl            string
	RedisUrl         string
	MigrationsDir    string

	TwilioAccountSID       string
	TwilioAuthToken        string
	TwilioVerifyServiceSID string
	RSAPublicKey           *rsa.PublicKey

	VerificationMaxAttempts int
	VerificationCodeExpiry  time.Duration

	SMSLimitPerClientPerHour int
	SMSLimitPerNumberPerHour int
	GlobalSMSLimitPerHour    int
	RateLimitWindow          time.Duration

	SearchPageSize  int
	SearchCacheTTL  time.Duration
	MapReferenceLat float64
	MapReferenceLng float64
	CleanupCronSpec string

	// Static flags fetched once from LaunchDarkly
	LDFlag_AcceptFakePhones        bool
	LDFlag_ValidatePhoneWithTwilio bool
	LDFlag_CORSHighSecurity        bool
	LDFlag_SearchCacheEnabled      bool
}

const (
	OrganizationName = utils.OrganizationName

	DefaultVerificationMaxAttempts  = 5
	DefaultVerificationCodeExpiry   = 10 * time.Minute
	DefaultSMSLimitPerClientPerHour = 20
	DefaultSMSLimitPerNumberPerHour = 5
	DefaultGlobalSMSLimitPerHour    = 1000
	DefaultRateLimitWindow          = 1 * time.Hour
	DefaultSearchPageSize           = 12
	DefaultSearchCacheTTL           = 60 * time.Second
	DefaultCleanupCronSpec          = "0 3 * * *"
	DefaultMigrationsDir            = "migrations"
	DefaultMapReferenceLat          = 25.7617
	DefaultMapReferenceLng          = -80.1918
	LDConnectionTimeout             = 5 * time.Second
)

// Overridable with -ldflags "-X .../internal/config.AppName=...".
var (
	AppName             = "charter-service"
	LDServerContextKey  = "charter-service"
	LDServerContextKind = "service"
)

// LoadConfig reads everything the HTTP service needs and exits on anything
// required that is missing.
func LoadConfig() *Config {
	cfg := LoadStoreConfig()

	cfg.AppUrl = requireEnv("APP_URL_FROM_ANYWHERE")
	cfg.AppPort = requireEnv("APP_PORT")
	utils.Logger.Debugf("App can be accessed at: %s", cfg.AppUrl)

	cfg.TwilioAccountSID = requireEnv("TWILIO_ACCOUNT_SID")
	cfg.TwilioAuthToken = requireEnv("TWILIO_AUTH_TOKEN")
	cfg.TwilioVerifyServiceSID = requireEnv("TWILIO_VERIFY_SERVICE_SID")

	publicKeyPEM, err := base64.StdEncoding.DecodeString(requireEnv("RSA_PUBLIC_KEY_BASE64"))
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to decode base64 public key")
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to parse RSA public key")
	}
	cfg.RSAPublicKey = publicKey

	return cfg
}

// LoadStoreConfig is the subset the operator CLI needs: database, cache,
// tunables and flags. No Twilio or JWT secrets.
func LoadStoreConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		utils.Logger.WithError(err).Warn("Failed to read .env file")
	}

	if AppName == "" {
		utils.Logger.Fatal("AppName was overridden with an empty value at build time")
	}
	utils.Logger.Info("Loading config for app: ", AppName)

	cfg := &Config{
		OrganizationName: OrganizationName,
		AppName:          AppName,
		Env:              requireEnv("ENV"),
		DBUrl:            requireEnv("DB_URL"),
		RedisUrl:         os.Getenv("REDIS_URL"),
		MigrationsDir:    DefaultMigrationsDir,

		VerificationMaxAttempts:  DefaultVerificationMaxAttempts,
		VerificationCodeExpiry:   DefaultVerificationCodeExpiry,
		SMSLimitPerClientPerHour: DefaultSMSLimitPerClientPerHour,
		SMSLimitPerNumberPerHour: DefaultSMSLimitPerNumberPerHour,
		GlobalSMSLimitPerHour:    DefaultGlobalSMSLimitPerHour,
		RateLimitWindow:          DefaultRateLimitWindow,
		SearchPageSize:           DefaultSearchPageSize,
		SearchCacheTTL:           DefaultSearchCacheTTL,
		MapReferenceLat:          DefaultMapReferenceLat,
		MapReferenceLng:          DefaultMapReferenceLng,
		CleanupCronSpec:          DefaultCleanupCronSpec,
	}
	if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
		cfg.MigrationsDir = dir
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		t, err := LoadTunables(path)
		if err != nil {
			utils.Logger.WithError(err).Fatalf("Failed to load tunables from %s", path)
		}
		t.Apply(cfg)
		utils.Logger.Debugf("Applied tunables from %s", path)
	}

	flags := LoadFlags(os.Getenv("LD_SDK_KEY"))
	flags.Apply(cfg)

	return cfg
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		utils.Logger.Fatalf("%s env var is missing", key)
	}
	return v
}
