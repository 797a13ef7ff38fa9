package gateway

import (
	"errors"
	"reflect"
	"testing"

	"aidapay/internal/cache"
	"aidapay/internal/config"
)

func newRegistryConfig() *config.Config {
	return &config.Config{
		Default: config.GatewayOrangeMoney,
		Gateways: map[string]config.GatewayConfig{
			config.GatewayOrangeMoney: {Enabled: true, APIURL: "https://api.orange.example"},
			config.GatewayWave:        {Enabled: true, APIURL: "https://api.wave.example"},
			config.GatewayFreeMoney:   {Enabled: true, APIURL: "https://api.free.example"},
			config.GatewayEmoney:      {Enabled: false, APIURL: "https://api.emoney.example"},
		},
	}
}

func TestRegistrySelect(t *testing.T) {
	r := NewRegistry(newRegistryConfig(), cache.NewMemoryStore(), nil)

	gw, err := r.Select(config.GatewayWave)
	if err != nil {
		t.Fatalf("select wave: %v", err)
	}
	if gw.Name() != config.GatewayWave {
		t.Errorf("name = %q", gw.Name())
	}

	// Empty name resolves the configured default.
	gw, err = r.Select("")
	if err != nil {
		t.Fatalf("select default: %v", err)
	}
	if gw.Name() != config.GatewayOrangeMoney {
		t.Errorf("default resolved to %q", gw.Name())
	}
}

func TestRegistrySelectUnknown(t *testing.T) {
	r := NewRegistry(newRegistryConfig(), cache.NewMemoryStore(), nil)

	_, err := r.Select("mpesa")
	var notFound *ErrGatewayNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrGatewayNotFound, got %v", err)
	}
	if notFound.Name != "mpesa" {
		t.Errorf("error names %q", notFound.Name)
	}
}

func TestRegistrySelectDisabled(t *testing.T) {
	r := NewRegistry(newRegistryConfig(), cache.NewMemoryStore(), nil)

	_, err := r.Select(config.GatewayEmoney)
	var notEnabled *ErrGatewayNotEnabled
	if !errors.As(err, &notEnabled) {
		t.Fatalf("expected ErrGatewayNotEnabled, got %v", err)
	}
}

func TestRegistryMemoizesInstances(t *testing.T) {
	r := NewRegistry(newRegistryConfig(), cache.NewMemoryStore(), nil)

	a, _ := r.Select(config.GatewayWave)
	b, _ := r.Select(config.GatewayWave)
	if a != b {
		t.Error("expected the same instance on repeated selection")
	}
}

func TestRegistryLists(t *testing.T) {
	r := NewRegistry(newRegistryConfig(), cache.NewMemoryStore(), nil)

	wantSupported := []string{"emoney", "free_money", "orange_money", "wave"}
	if got := r.Supported(); !reflect.DeepEqual(got, wantSupported) {
		t.Errorf("Supported() = %v", got)
	}

	wantEnabled := []string{"free_money", "orange_money", "wave"}
	if got := r.Enabled(); !reflect.DeepEqual(got, wantEnabled) {
		t.Errorf("Enabled() = %v", got)
	}

	if _, ok := r.Config("mpesa"); ok {
		t.Error("unknown gateway must not expose config")
	}
	if cfg, ok := r.Config(config.GatewayEmoney); !ok || cfg.APIURL == "" {
		t.Error("disabled gateway config should still be readable")
	}
}
