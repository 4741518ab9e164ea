package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"ADMIN_PASSWORD", "HTTP_ADDR", "STORE_DRIVER", "KAFKA_BROKER", "AMQP_URL",
		"TELEMETRY_ENABLED", "MINT_AFTER_SETTLE", "TABLE_API_ADDR", "HTTP_READ_TIMEOUT", "EVENT_PUBLISH_TIMEOUT",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "adminpass", cfg.AdminPassword)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Empty(t, cfg.KafkaBroker)
	assert.Empty(t, cfg.AMQPURL)
	assert.False(t, cfg.TelemetryEnabled)
	assert.False(t, cfg.MintAfterSettle)
	assert.Equal(t, "http://localhost:8080", cfg.TableAPIAddr)
	assert.Equal(t, 10*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 2*time.Second, cfg.PublishTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "s3cret")
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("TELEMETRY_ENABLED", "true")
	t.Setenv("MINT_AFTER_SETTLE", "1")
	t.Setenv("TABLE_API_ADDR", "http://api:9000/")
	t.Setenv("HTTP_READ_TIMEOUT", "3s")
	t.Setenv("EVENT_PUBLISH_TIMEOUT", "3s")
	t.Setenv("HTTP_WRITE_TIMEOUT", "bogus")

	cfg := Load()
	assert.Equal(t, "s3cret", cfg.AdminPassword)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.True(t, cfg.TelemetryEnabled)
	assert.True(t, cfg.MintAfterSettle)
	assert.Equal(t, "http://api:9000", cfg.TableAPIAddr)
	assert.Equal(t, 3*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.WriteTimeout)
}
