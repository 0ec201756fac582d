package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MERCADO_PAGO_ACCESS_TOKEN", "APP_USR-test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "order.status", cfg.OutboxTopic)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.Gateway)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Store)
	assert.Equal(t, "APP_USR-test", cfg.MercadoPago.AccessToken)
	assert.Equal(t, "https://api.mercadopago.com", cfg.MercadoPago.BaseURL)
	assert.Equal(t, "test_user@example.com", cfg.DefaultPayer.Email)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MERCADO_PAGO_ACCESS_TOKEN", "tok")
	t.Setenv("KAFKA_ADDR", "k1:9092, k2:9092")
	t.Setenv("GATEWAY_TIMEOUT", "3s")
	t.Setenv("HTTP_ADDR", ":9090")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3*time.Second, cfg.Timeouts.Gateway)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"mercado_pago_access_token: from-file\noutbox_topic: file.topic\nstore_timeout: 2s\n"), 0o600))
	t.Setenv("OUTBOX_TOPIC", "env.topic")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.MercadoPago.AccessToken)
	assert.Equal(t, "env.topic", cfg.OutboxTopic)
	assert.Equal(t, 2*time.Second, cfg.Timeouts.Store)
}

func TestLoadRequiresAccessToken(t *testing.T) {
	t.Setenv("MERCADO_PAGO_ACCESS_TOKEN", "")

	_, err := Load("")
	assert.ErrorIs(t, err, ErrMissingAccessToken)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEmptyKafkaDisablesRelay(t *testing.T) {
	t.Setenv("MERCADO_PAGO_ACCESS_TOKEN", "tok")
	t.Setenv("KAFKA_ADDR", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestValidateRejectsNonPositiveDurations(t *testing.T) {
	valid := Config{
		IdempotencyTTL: time.Hour,
		MercadoPago:    MercadoPagoConfig{AccessToken: "tok"},
		Timeouts:       TimeoutConfig{Gateway: time.Second, Store: time.Second},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero idempotency ttl", func(c *Config) { c.IdempotencyTTL = 0 }},
		{"negative idempotency ttl", func(c *Config) { c.IdempotencyTTL = -time.Second }},
		{"zero gateway timeout", func(c *Config) { c.Timeouts.Gateway = 0 }},
		{"zero store timeout", func(c *Config) { c.Timeouts.Store = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadRejectsZeroIdempotencyTTL(t *testing.T) {
	t.Setenv("MERCADO_PAGO_ACCESS_TOKEN", "tok")
	t.Setenv("IDEMPOTENCY_TTL", "0s")

	_, err := Load("")
	assert.Error(t, err)
}
