package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token_airdrop/pkg/transfer"
	"token_airdrop/pkg/utils"
)

const testMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func load(t *testing.T, args ...string) *Config {
	t.Helper()
	fs := Flags("airdrop")
	require.NoError(t, fs.Parse(args))
	cfg, err := Load(fs)
	require.NoError(t, err)
	return cfg
}

func TestLoadLegacyJSONConfig(t *testing.T) {
	dir := t.TempDir()
	key := writeFile(t, dir, "id.json", "[]")
	file := writeFile(t, dir, "config.json", `{"splTokenAddress": "`+testMint+`", "privateKeyPath": "`+key+`"}`)

	cfg := load(t, "--config", file)

	assert.Equal(t, testMint, cfg.Token)
	assert.Equal(t, key, cfg.PrivateKeyPath)
	assert.Equal(t, filepath.Join("config", "distribution.json"), cfg.DistributionPath)
	assert.Equal(t, filepath.Join(".cache", "distribution.log.json"), cfg.LogPath)
	assert.Equal(t, StoreFile, cfg.Store.Driver)
	assert.Equal(t, transfer.BackendSolana, cfg.Transfer.Backend)
	assert.True(t, cfg.Transfer.Solana.Confirm)
	assert.Equal(t, 60*time.Second, cfg.Transfer.Solana.ConfirmTimeout)
	assert.Equal(t, utils.ProviderNone, cfg.Mail.Provider)
	assert.False(t, cfg.DryRun)

	require.NoError(t, cfg.ValidateRun())
}

func TestLoadYAMLEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "config.yaml", `
splTokenAddress: `+testMint+`
cachePath: /var/airdrop
solana:
  commitment: finalized
  confirmTimeout: 90s
http:
  allowOrigins: ["https://ops.example.com"]
notify:
  provider: smtp
  to: ["ops@example.com"]
`)
	t.Setenv("AIRDROP_SOLANA_COMMITMENT", "processed")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("SMTP_PASSWORD", "smtp-secret")

	cfg := load(t, "--config", file, "--backend", "spl-token", "--dry-run", "--distribution", "list.json")

	assert.Equal(t, "processed", cfg.Transfer.Solana.Commitment, "env overrides the file")
	assert.Equal(t, 90*time.Second, cfg.Transfer.Solana.ConfirmTimeout)
	assert.Equal(t, transfer.BackendSplToken, cfg.Transfer.Backend, "flag overrides the file")
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "list.json", cfg.DistributionPath)
	assert.Equal(t, filepath.Join("/var/airdrop", "distribution.log.json"), cfg.LogPath)
	assert.Equal(t, []string{"https://ops.example.com"}, cfg.HTTP.AllowOrigins)
	assert.Equal(t, "secret", cfg.Store.DB.Password)
	assert.Equal(t, "smtp-secret", cfg.Mail.SMTPPassword)
	assert.Equal(t, []string{"ops@example.com"}, cfg.Mail.To)
}

func TestLoadMissingExplicitConfig(t *testing.T) {
	fs := Flags("airdrop")
	require.NoError(t, fs.Parse([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")}))
	_, err := Load(fs)
	require.Error(t, err)
}

func TestValidateRun(t *testing.T) {
	dir := t.TempDir()
	key := writeFile(t, dir, "id.json", "[]")

	valid := func() *Config {
		return &Config{
			Token:            testMint,
			PrivateKeyPath:   key,
			DistributionPath: "distribution.json",
			LogPath:          "log.json",
			Store:            StoreConfig{Driver: StoreFile},
			Transfer:         transfer.Config{Backend: transfer.BackendSolana},
			Mail:             utils.MailConfig{Provider: utils.ProviderNone},
		}
	}
	require.NoError(t, valid().ValidateRun())

	cases := map[string]func(c *Config){
		"missing token":      func(c *Config) { c.Token = "" },
		"bad token":          func(c *Config) { c.Token = "not-base58-0OIl" },
		"missing key":        func(c *Config) { c.PrivateKeyPath = "" },
		"key not found":      func(c *Config) { c.PrivateKeyPath = filepath.Join(dir, "missing.json") },
		"unknown backend":    func(c *Config) { c.Transfer.Backend = "tron" },
		"unknown store":      func(c *Config) { c.Store.Driver = "redis" },
		"postgres no dbname": func(c *Config) { c.Store.Driver = StorePostgres },
		"mail no recipients": func(c *Config) { c.Mail.Provider = utils.ProviderMailjet; c.Mail.From = "a@b.c" },
		"unknown provider":   func(c *Config) { c.Mail.Provider = "pigeon" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			err := c.ValidateRun()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}

	c := valid()
	c.Transfer.Backend = transfer.BackendSplToken
	c.Token = "any-mint-the-cli-understands"
	assert.NoError(t, c.ValidateRun(), "the spl-token CLI validates the mint itself")
}

func TestValidateServe(t *testing.T) {
	c := &Config{HTTP: HTTPConfig{Port: "8080"}, Store: StoreConfig{Driver: StoreFile}, LogPath: "log.json"}
	require.NoError(t, c.ValidateServe())

	c.HTTP.Port = ""
	assert.True(t, errors.Is(c.ValidateServe(), ErrInvalidConfig))
}

func TestSetupLogger(t *testing.T) {
	require.NoError(t, LogConfig{Format: "text", Level: "debug"}.SetupLogger())
	require.NoError(t, LogConfig{Format: "json", Level: "info"}.SetupLogger())
	assert.Error(t, LogConfig{Format: "xml"}.SetupLogger())
	assert.Error(t, LogConfig{Format: "json", Level: "loud"}.SetupLogger())
}
