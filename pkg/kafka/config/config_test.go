package kafka_config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "k1:9092, k2:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Brokers) != 2 || cfg.Brokers[1] != "k2:9092" {
		t.Errorf("brokers not trimmed: %v", cfg.Brokers)
	}
	if cfg.DLQTopic("booking.outcome") != "booking.outcome.dlq" {
		t.Errorf("unexpected dlq topic %q", cfg.DLQTopic("booking.outcome"))
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Enabled:             true,
		Brokers:             []string{""},
		ProducerCompression: "brotli",
		ProducerRequireAcks: 2,
		ConsumerStartOffset: 5,
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"Broker 0", "ProducerCompression", "ProducerRequireAcks", "ConsumerStartOffset"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%s", want, err)
		}
	}
}

func TestValidate_DisabledSkipsChecks(t *testing.T) {
	cfg := &Config{Enabled: false}
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled config should validate, got %v", err)
	}
}
