package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"rank-it/internal/db"
	"rank-it/internal/game"
)

// Keys double as flag names. The environment variable for a key is its upper
// snake form, so "database-url" is read from DATABASE_URL.
const (
	KeyDatabaseURL       = "database-url"
	KeyPort              = "port"
	KeyPublicURL         = "public-url"
	KeyLogLevel          = "log-level"
	KeyLogFormat         = "log-format"
	KeyTopicsCSV         = "topics-csv"
	KeyJoinCodeAttempts  = "join-code-attempts"
	KeyPointsPerCorrect  = "points-per-correct"
	KeyBonusAllCorrect   = "bonus-all-correct"
	KeyPenaltyAllWrong   = "penalty-all-wrong"
	KeyTargetScore       = "target-score"
	KeyDBMaxOpenConns    = "db-max-open-conns"
	KeyDBMaxIdleConns    = "db-max-idle-conns"
	KeyDBConnMaxLifetime = "db-conn-max-lifetime-seconds"
	KeyDBConnMaxIdleTime = "db-conn-max-idle-seconds"
	KeyTrustHeaders      = "trust-identity-headers"
)

type Config struct {
	DatabaseURL              string
	Port                     int
	PublicURL                string
	LogLevel                 string
	LogFormat                string
	TopicsCSV                string
	JoinCodeAttempts         int
	Scoring                  game.ScoringConfig
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
	TrustIdentityHeaders     bool
}

func Default() Config {
	return Config{
		Port:                     8080,
		LogLevel:                 "info",
		LogFormat:                "console",
		JoinCodeAttempts:         game.DefaultJoinCodeAttempts,
		Scoring:                  game.DefaultScoring(),
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
	}
}

// NewViper returns a viper instance that reads every key from the
// environment, falling back to Default.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	def := Default()
	v.SetDefault(KeyDatabaseURL, def.DatabaseURL)
	v.SetDefault(KeyPort, def.Port)
	v.SetDefault(KeyPublicURL, def.PublicURL)
	v.SetDefault(KeyLogLevel, def.LogLevel)
	v.SetDefault(KeyLogFormat, def.LogFormat)
	v.SetDefault(KeyTopicsCSV, def.TopicsCSV)
	v.SetDefault(KeyJoinCodeAttempts, def.JoinCodeAttempts)
	v.SetDefault(KeyPointsPerCorrect, def.Scoring.PointsPerCorrect)
	v.SetDefault(KeyBonusAllCorrect, def.Scoring.BonusAllCorrect)
	v.SetDefault(KeyPenaltyAllWrong, def.Scoring.PenaltyAllWrong)
	v.SetDefault(KeyTargetScore, def.Scoring.TargetScore)
	v.SetDefault(KeyDBMaxOpenConns, def.DBMaxOpenConns)
	v.SetDefault(KeyDBMaxIdleConns, def.DBMaxIdleConns)
	v.SetDefault(KeyDBConnMaxLifetime, def.DBConnMaxLifetimeSeconds)
	v.SetDefault(KeyDBConnMaxIdleTime, def.DBConnMaxIdleTimeSeconds)
	v.SetDefault(KeyTrustHeaders, def.TrustIdentityHeaders)
	return v
}

// BindFlags registers the server flags on fs and binds them into v, so a set
// flag wins over the environment.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	def := Default()
	fs.String(KeyDatabaseURL, def.DatabaseURL, "postgres connection string; empty keeps state in memory (env: DATABASE_URL)")
	fs.IntP(KeyPort, "p", def.Port, "port to listen on (env: PORT)")
	fs.String(KeyPublicURL, def.PublicURL, "external base URL of the web client; join QR codes point at <url>/join/<code> (env: PUBLIC_URL)")
	fs.String(KeyLogLevel, def.LogLevel, "log level: debug, info, warn, error (env: LOG_LEVEL)")
	fs.String(KeyLogFormat, def.LogFormat, "log format: console or json (env: LOG_FORMAT)")
	fs.String(KeyTopicsCSV, def.TopicsCSV, "topic library CSV to seed at startup (env: TOPICS_CSV)")
	fs.Int(KeyJoinCodeAttempts, def.JoinCodeAttempts, "join code generation attempts per game (env: JOIN_CODE_ATTEMPTS)")
	fs.Int(KeyPointsPerCorrect, def.Scoring.PointsPerCorrect, "default points per correct placement (env: POINTS_PER_CORRECT)")
	fs.Int(KeyBonusAllCorrect, def.Scoring.BonusAllCorrect, "default bonus for a perfect guess (env: BONUS_ALL_CORRECT)")
	fs.Int(KeyPenaltyAllWrong, def.Scoring.PenaltyAllWrong, "default penalty when every placement is wrong (env: PENALTY_ALL_WRONG)")
	fs.Int(KeyTargetScore, def.Scoring.TargetScore, "default score that wins the game (env: TARGET_SCORE)")
	fs.Bool(KeyTrustHeaders, def.TrustIdentityHeaders, "take the caller from X-User-ID/X-User-Name headers instead of the session cookie (env: TRUST_IDENTITY_HEADERS)")
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if bindErr := v.BindPFlag(f.Name, f); bindErr != nil && err == nil {
			err = bindErr
		}
	})
	return err
}

// Load reads the configuration from v. Pool settings ignore non-positive
// values.
func Load(v *viper.Viper) Config {
	cfg := Default()
	cfg.DatabaseURL = strings.TrimSpace(v.GetString(KeyDatabaseURL))
	cfg.Port = v.GetInt(KeyPort)
	cfg.PublicURL = strings.TrimRight(strings.TrimSpace(v.GetString(KeyPublicURL)), "/")
	cfg.LogLevel = strings.ToLower(v.GetString(KeyLogLevel))
	cfg.LogFormat = strings.ToLower(v.GetString(KeyLogFormat))
	cfg.TopicsCSV = v.GetString(KeyTopicsCSV)
	cfg.TrustIdentityHeaders = v.GetBool(KeyTrustHeaders)
	if value := v.GetInt(KeyJoinCodeAttempts); value > 0 {
		cfg.JoinCodeAttempts = value
	}
	cfg.Scoring = game.ScoringConfig{
		PointsPerCorrect: v.GetInt(KeyPointsPerCorrect),
		BonusAllCorrect:  v.GetInt(KeyBonusAllCorrect),
		PenaltyAllWrong:  v.GetInt(KeyPenaltyAllWrong),
		TargetScore:      v.GetInt(KeyTargetScore),
	}
	if value := v.GetInt(KeyDBMaxOpenConns); value > 0 {
		cfg.DBMaxOpenConns = value
	}
	if value := v.GetInt(KeyDBMaxIdleConns); value > 0 {
		cfg.DBMaxIdleConns = value
	}
	if value := v.GetInt(KeyDBConnMaxLifetime); value > 0 {
		cfg.DBConnMaxLifetimeSeconds = value
	}
	if value := v.GetInt(KeyDBConnMaxIdleTime); value > 0 {
		cfg.DBConnMaxIdleTimeSeconds = value
	}
	return cfg
}

func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.LogFormat)
	}
	if err := validator.New().Struct(c.Scoring); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid default scoring: %s must satisfy %s=%s", verrs[0].Field(), verrs[0].Tag(), verrs[0].Param())
		}
		return err
	}
	return nil
}

func (c Config) Pool() db.Pool {
	return db.Pool{
		MaxOpenConns:    c.DBMaxOpenConns,
		MaxIdleConns:    c.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(c.DBConnMaxLifetimeSeconds) * time.Second,
		ConnMaxIdleTime: time.Duration(c.DBConnMaxIdleTimeSeconds) * time.Second,
	}
}
