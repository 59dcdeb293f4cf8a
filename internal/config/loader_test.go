package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
mode = "serve"
log_level = "debug"

[chain]
backend = "aptos"

[chain.aptos]
module_address = "0xabc"
private_key = "deadbeef"

[poller]
interval = "10s"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "serve", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "0xabc", cfg.Chain.Aptos.ModuleAddress)
	// File omits node_url, default survives the merge.
	assert.Equal(t, "https://fullnode.testnet.aptoslabs.com", cfg.Chain.Aptos.NodeURL)
	assert.Equal(t, "10s", cfg.Poller.Interval.Duration.String())
	assert.Equal(t, "gpt-4", cfg.AI.OpenAI.Model)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := writeConfig(t, `
[chain.aptos]
private_key = "from-file"
`)

	t.Setenv("HASHPREDICT_CHAIN_APTOS_PRIVATE_KEY", "from-env")
	t.Setenv("HASHPREDICT_CLAIMS_STRATEGY", "approval")
	t.Setenv("HASHPREDICT_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Chain.Aptos.PrivateKey)
	assert.Equal(t, "approval", cfg.Claims.Strategy)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "serve"
	cfg.Chain.Aptos.ModuleAddress = "0xabc"
	cfg.Chain.Aptos.PrivateKey = "deadbeef"
	cfg.AI.OpenAI.ApiKey = "sk-test"
	cfg.AI.Perplexity.ApiKey = "pplx-test"

	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "dance"
	cfg.Chain.Backend = "solana"
	cfg.Claims.Strategy = "maybe"
	cfg.Resolution.MinConfidence = 1.5

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown mode "dance"`)
	assert.Contains(t, err.Error(), `unknown backend "solana"`)
	assert.Contains(t, err.Error(), `unknown strategy "maybe"`)
	assert.Contains(t, err.Error(), "min_confidence")
}

func TestValidateRequiresEVMFieldsForEVMBackend(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "serve"
	cfg.Chain.Backend = "evm"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chain.evm: rpc_url")
	assert.Contains(t, err.Error(), "chain.evm: contract_address")
	assert.Contains(t, err.Error(), "chain.evm: private_key")
}

func TestRedactedConfigHidesSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Chain.Aptos.PrivateKey = "seed"
	cfg.AI.OpenAI.ApiKey = "sk-123"
	cfg.AI.Perplexity.ApiKey = "pplx-123"
	cfg.Supabase.Password = "pw"
	cfg.Redis.Password = "pw"
	cfg.S3.SecretKey = "sk"
	cfg.Server.AdminApiKey = "admin"
	cfg.Notify.TelegramToken = "tg"

	red := RedactedConfig(&cfg)

	assert.Equal(t, "***", red.Chain.Aptos.PrivateKey)
	assert.Equal(t, "***", red.AI.OpenAI.ApiKey)
	assert.Equal(t, "***", red.AI.Perplexity.ApiKey)
	assert.Equal(t, "***", red.Supabase.Password)
	assert.Equal(t, "***", red.Redis.Password)
	assert.Equal(t, "***", red.S3.SecretKey)
	assert.Equal(t, "***", red.Server.AdminApiKey)
	assert.Equal(t, "***", red.Notify.TelegramToken)

	// Original untouched.
	assert.Equal(t, "seed", cfg.Chain.Aptos.PrivateKey)

	// Nothing secret should round-trip into the copy in the clear.
	for _, secret := range []string{"sk-123", "pplx-123"} {
		assert.False(t, strings.Contains(red.AI.OpenAI.ApiKey, secret))
		assert.False(t, strings.Contains(red.AI.Perplexity.ApiKey, secret))
	}
}
