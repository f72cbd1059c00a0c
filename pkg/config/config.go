package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"token_airdrop/internal/wallet"
	"token_airdrop/pkg/repository"
	"token_airdrop/pkg/transfer"
	"token_airdrop/pkg/utils"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const (
	StoreFile     = "file"
	StorePostgres = "postgres"

	envPrefix = "AIRDROP"
	logName   = "distribution.log.json"
)

type Config struct {
	Token            string
	PrivateKeyPath   string
	DistributionPath string
	CachePath        string
	LogPath          string
	DryRun           bool

	Store    StoreConfig
	Transfer transfer.Config
	HTTP     HTTPConfig
	Mail     utils.MailConfig
	Log      LogConfig
}

type StoreConfig struct {
	Driver string
	DB     repository.Config
}

type HTTPConfig struct {
	Port         string
	APIKey       string
	AllowOrigins []string
}

type LogConfig struct {
	Format string
	Level  string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("distributionPath", filepath.Join("config", "distribution.json"))
	v.SetDefault("cachePath", ".cache")
	v.SetDefault("store.driver", StoreFile)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("transfer.backend", transfer.BackendSolana)
	v.SetDefault("solana.rpcUrl", transfer.DevnetRPC)
	v.SetDefault("solana.commitment", "confirmed")
	v.SetDefault("solana.confirm", true)
	v.SetDefault("solana.confirmTimeout", 60*time.Second)
	v.SetDefault("solana.pollInterval", 2*time.Second)
	v.SetDefault("solana.accountTtl", 10*time.Minute)
	v.SetDefault("splToken.binary", "spl-token")
	v.SetDefault("http.port", "8080")
	v.SetDefault("notify.provider", utils.ProviderNone)
	v.SetDefault("notify.smtpPort", 587)
	v.SetDefault("log.format", "json")
	v.SetDefault("log.level", "info")
}

// Flags returns the command line flags understood by Load.
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "path to the config file (default configs/config.yaml or config/config.json)")
	fs.String("distribution", "", "path to the recipient list")
	fs.String("log-path", "", "path to the distribution log")
	fs.String("backend", "", "transfer backend: solana or spl-token")
	fs.Bool("dry-run", false, "evaluate the recipient list without sending transfers")
	return fs
}

var flagKeys = map[string]string{
	"distribution": "distributionPath",
	"log-path":     "logPath",
	"backend":      "transfer.backend",
	"dry-run":      "dryRun",
}

// Load reads the config file, environment and parsed flags, in increasing
// order of precedence. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var file string
	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "bind flag %s", name)
				}
			}
		}
		file, _ = fs.GetString("config")
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("configs")
		v.AddConfigPath("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
		logrus.Info("no config file found, using defaults and environment")
	} else {
		logrus.WithField("file", v.ConfigFileUsed()).Info("config loaded")
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Token:            strings.TrimSpace(v.GetString("splTokenAddress")),
		PrivateKeyPath:   v.GetString("privateKeyPath"),
		DistributionPath: v.GetString("distributionPath"),
		CachePath:        v.GetString("cachePath"),
		LogPath:          v.GetString("logPath"),
		DryRun:           v.GetBool("dryRun"),
		Store: StoreConfig{
			Driver: strings.ToLower(v.GetString("store.driver")),
			DB: repository.Config{
				Host:     v.GetString("db.host"),
				Port:     v.GetString("db.port"),
				Username: v.GetString("db.username"),
				Password: os.Getenv("DB_PASSWORD"),
				DBName:   v.GetString("db.dbname"),
				SSLMode:  v.GetString("db.sslmode"),
			},
		},
		Transfer: transfer.Config{
			Backend: strings.ToLower(v.GetString("transfer.backend")),
			Solana: transfer.SolanaConfig{
				RPCURL:         v.GetString("solana.rpcUrl"),
				Commitment:     v.GetString("solana.commitment"),
				Confirm:        v.GetBool("solana.confirm"),
				ConfirmTimeout: v.GetDuration("solana.confirmTimeout"),
				PollInterval:   v.GetDuration("solana.pollInterval"),
				AccountTTL:     v.GetDuration("solana.accountTtl"),
			},
			SplTokenBinary: v.GetString("splToken.binary"),
		},
		HTTP: HTTPConfig{
			Port:         v.GetString("http.port"),
			APIKey:       v.GetString("http.apiKey"),
			AllowOrigins: v.GetStringSlice("http.allowOrigins"),
		},
		Mail: utils.MailConfig{
			Provider:      strings.ToLower(v.GetString("notify.provider")),
			From:          v.GetString("notify.from"),
			To:            v.GetStringSlice("notify.to"),
			SMTPHost:      v.GetString("notify.smtpHost"),
			SMTPPort:      v.GetInt("notify.smtpPort"),
			SMTPUser:      v.GetString("notify.smtpUser"),
			SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
			MailjetKey:    os.Getenv("MAILJET_API_KEY"),
			MailjetSecret: os.Getenv("MAILJET_SECRET_KEY"),
		},
		Log: LogConfig{
			Format: strings.ToLower(v.GetString("log.format")),
			Level:  v.GetString("log.level"),
		},
	}
	if cfg.LogPath == "" {
		cfg.LogPath = filepath.Join(cfg.CachePath, logName)
	}
	return cfg
}

// ValidateRun checks everything a distribution run needs before the first transfer.
func (c *Config) ValidateRun() error {
	if c.Token == "" {
		return errors.Wrap(ErrInvalidConfig, "splTokenAddress is required")
	}
	if c.Transfer.Backend == transfer.BackendSolana {
		if err := wallet.ValidateAddress(c.Token); err != nil {
			return errors.Wrapf(ErrInvalidConfig, "splTokenAddress: %v", err)
		}
	}
	if c.PrivateKeyPath == "" {
		return errors.Wrap(ErrInvalidConfig, "privateKeyPath is required")
	}
	if _, err := os.Stat(c.PrivateKeyPath); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "privateKeyPath: %v", err)
	}
	if c.DistributionPath == "" {
		return errors.Wrap(ErrInvalidConfig, "distributionPath is required")
	}
	switch c.Transfer.Backend {
	case transfer.BackendSolana, transfer.BackendSplToken:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown transfer.backend %q", c.Transfer.Backend)
	}
	switch c.Mail.Provider {
	case utils.ProviderNone, "":
	case utils.ProviderMailjet, utils.ProviderSMTP:
		if c.Mail.From == "" || len(c.Mail.To) == 0 {
			return errors.Wrapf(ErrInvalidConfig, "notify.from and notify.to are required for %s", c.Mail.Provider)
		}
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown notify.provider %q", c.Mail.Provider)
	}
	return c.validateStore()
}

// ValidateServe checks what the read-only status API needs.
func (c *Config) ValidateServe() error {
	if c.HTTP.Port == "" {
		return errors.Wrap(ErrInvalidConfig, "http.port is required")
	}
	return c.validateStore()
}

func (c *Config) validateStore() error {
	switch c.Store.Driver {
	case StoreFile:
		if c.LogPath == "" {
			return errors.Wrap(ErrInvalidConfig, "logPath is required")
		}
	case StorePostgres:
		if c.Store.DB.DBName == "" {
			return errors.Wrap(ErrInvalidConfig, "db.dbname is required for the postgres store")
		}
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown store.driver %q", c.Store.Driver)
	}
	return nil
}

// SetupLogger applies the log format and level to the standard logrus logger.
func (c LogConfig) SetupLogger() error {
	switch c.Format {
	case "", "json":
		logrus.SetFormatter(new(logrus.JSONFormatter))
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown log.format %q", c.Format)
	}
	if c.Level == "" {
		return nil
	}
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return errors.Wrapf(ErrInvalidConfig, "log.level: %v", err)
	}
	logrus.SetLevel(level)
	return nil
}
