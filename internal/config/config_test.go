package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestLoadFromDefaults(t *testing.T) {
	v := viper.New()
	v.SetConfigName("config_missing_for_test")
	v.AddConfigPath(t.TempDir())

	cfg, err := LoadFrom(v)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("server port want 8080 got %s", cfg.Server.Port)
	}
	if cfg.Pricing.SelfChannelPrefix != "self_" {
		t.Fatalf("self prefix want self_ got %s", cfg.Pricing.SelfChannelPrefix)
	}
	if cfg.Pricing.MaxBatchItems != 2000 || cfg.Pricing.MaxRangeDays != 400 {
		t.Fatalf("unexpected pricing defaults: %+v", cfg.Pricing)
	}
	if cfg.Queue.Queues["default"] != 10 {
		t.Fatalf("default queue weight want 10 got %d", cfg.Queue.Queues["default"])
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" || cfg.Server.WriteTimeoutSeconds != 30 || cfg.Server.ShutdownTimeoutSeconds != 10 {
		t.Fatalf("unexpected server defaults: %+v", cfg.Server)
	}
	if cfg.Security.BatchRateLimit.MaxRequests != 10 {
		t.Fatalf("batch rate limit want 10 got %d", cfg.Security.BatchRateLimit.MaxRequests)
	}
}

func TestLoadFromEnvOverride(t *testing.T) {
	t.Setenv("PRICING_SELF_CHANNEL_PREFIX", "direct_")
	t.Setenv("SERVER_PORT", "9090")

	v := viper.New()
	v.SetConfigName("config_missing_for_test")
	v.AddConfigPath(t.TempDir())

	cfg, err := LoadFrom(v)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if cfg.Pricing.SelfChannelPrefix != "direct_" {
		t.Fatalf("env override want direct_ got %s", cfg.Pricing.SelfChannelPrefix)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("env override port want 9090 got %s", cfg.Server.Port)
	}
}

func TestLogConfigToLoggerOptions(t *testing.T) {
	opts := LogConfig{Dir: "/tmp/logs", Filename: "pricing.log", MaxSizeMB: 5, Compress: true}.ToLoggerOptions()
	if opts.Dir != "/tmp/logs" || opts.Filename != "pricing.log" || opts.MaxSizeMB != 5 || !opts.Compress {
		t.Fatalf("unexpected logger options %+v", opts)
	}
}
