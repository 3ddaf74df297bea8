package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://admin.example.kz, https://shop.example.kz,")
	t.Setenv("PUBLIC_BASE_URL", "https://shop.example.kz/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsTest())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://shop.example.kz", cfg.PublicBaseURL)
	assert.Equal(t, []string{"https://admin.example.kz", "https://shop.example.kz"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "https://b2b.taxi.yandex.net", cfg.YandexDeliveryBaseURL)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, 10, cfg.CheckoutRateLimit)
	assert.Same(t, cfg, GetConfig())
}

func TestLoad_InvalidIntegerFallsBack(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("SMTP_PORT", "not-a-port")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 587, cfg.SMTPPort)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing database url outside tests",
			cfg:     Config{GoEnv: "production", CheckoutRateLimit: 5, LogOutput: "stdout"},
			wantErr: "DATABASE_URL is required",
		},
		{
			name: "test env may omit database url",
			cfg:  Config{GoEnv: "test", CheckoutRateLimit: 5, LogOutput: "stdout"},
		},
		{
			name:    "non-positive rate limit",
			cfg:     Config{GoEnv: "test", CheckoutRateLimit: 0, LogOutput: "stdout"},
			wantErr: "CHECKOUT_RATE_LIMIT",
		},
		{
			name:    "unknown log output",
			cfg:     Config{GoEnv: "test", CheckoutRateLimit: 5, LogOutput: "syslog"},
			wantErr: "LOG_OUTPUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFeatureToggles(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.S3Enabled())
	assert.False(t, cfg.SMTPEnabled())

	cfg.AWSS3Bucket = "catalog-images"
	cfg.SMTPHost = "smtp.example.kz"
	cfg.SMTPFrom = "noreply@example.kz"
	assert.True(t, cfg.S3Enabled())
	assert.True(t, cfg.SMTPEnabled())
}
