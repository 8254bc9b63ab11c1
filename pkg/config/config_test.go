package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	t.Parallel()

	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092 , ,b:9092"))
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ORDER_STRICT_TOTALS", "true")
	t.Setenv("NOTIFY_POLL_INTERVAL", "250ms")
	t.Setenv("LOW_STOCK_THRESHOLD", "not-a-number")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg := Load("")

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.True(t, cfg.StrictTotals)
	assert.Equal(t, 250*time.Millisecond, cfg.NotifyPollInterval)
	assert.Equal(t, 10, cfg.LowStockThreshold)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "postgres", cfg.DBDriver)
}
