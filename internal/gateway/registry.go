package gateway

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"aidapay/internal/cache"
	"aidapay/internal/config"
)

// ErrGatewayNotFound means the requested gateway name is not part of the
// supported set.
type ErrGatewayNotFound struct{ Name string }

func (e *ErrGatewayNotFound) Error() string {
	return fmt.Sprintf("gateway '%s' is not supported", e.Name)
}

// ErrGatewayNotEnabled means the gateway exists but is turned off in
// configuration.
type ErrGatewayNotEnabled struct{ Name string }

func (e *ErrGatewayNotEnabled) Error() string {
	return fmt.Sprintf("gateway '%s' is not enabled", e.Name)
}

// Registry resolves gateway names to adapter instances. Instances are
// memoized for the life of the process; selection itself is a pure
// configuration lookup with no I/O. There is deliberately no mutable
// "current gateway" state: every call names the gateway it wants, so
// concurrent callers never observe each other's selection.
type Registry struct {
	cfg    *config.Config
	store  cache.Store
	logger *zap.Logger

	mu        sync.Mutex
	instances map[string]Gateway
}

func NewRegistry(cfg *config.Config, store cache.Store, logger *zap.Logger) *Registry {
	return &Registry{
		cfg:       cfg,
		store:     store,
		logger:    logger,
		instances: make(map[string]Gateway),
	}
}

// Default returns the configured default gateway name.
func (r *Registry) Default() string {
	return r.cfg.Default
}

// Supported returns all gateway names this build knows how to talk to.
func (r *Registry) Supported() []string {
	names := []string{
		config.GatewayOrangeMoney,
		config.GatewayWave,
		config.GatewayFreeMoney,
		config.GatewayEmoney,
	}
	sort.Strings(names)
	return names
}

// Enabled returns the supported gateways that configuration has turned on.
func (r *Registry) Enabled() []string {
	var names []string
	for _, name := range r.Supported() {
		if r.cfg.Gateways[name].Enabled {
			names = append(names, name)
		}
	}
	return names
}

// Config returns the configuration for a supported gateway.
func (r *Registry) Config(name string) (config.GatewayConfig, bool) {
	if !r.isSupported(name) {
		return config.GatewayConfig{}, false
	}
	return r.cfg.Gateways[name], true
}

// Select resolves a gateway by name; an empty name selects the configured
// default.
func (r *Registry) Select(name string) (Gateway, error) {
	if name == "" {
		name = r.cfg.Default
	}
	if !r.isSupported(name) {
		return nil, &ErrGatewayNotFound{Name: name}
	}
	if !r.cfg.Gateways[name].Enabled {
		return nil, &ErrGatewayNotEnabled{Name: name}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if gw, ok := r.instances[name]; ok {
		return gw, nil
	}
	gw := r.build(name)
	r.instances[name] = gw
	return gw, nil
}

func (r *Registry) isSupported(name string) bool {
	switch name {
	case config.GatewayOrangeMoney, config.GatewayWave, config.GatewayFreeMoney, config.GatewayEmoney:
		return true
	}
	return false
}

func (r *Registry) build(name string) Gateway {
	gwCfg := r.cfg.Gateways[name]
	secret := r.cfg.Webhook.Secret
	appURL := r.cfg.Server.BaseURL
	prefix := r.cfg.Webhook.RoutePrefix

	switch name {
	case config.GatewayOrangeMoney:
		return NewOrangeMoneyGateway(gwCfg, secret, appURL, prefix, r.store, r.logger)
	case config.GatewayWave:
		return NewWaveGateway(gwCfg, secret, r.logger)
	case config.GatewayFreeMoney:
		return NewFreeMoneyGateway(gwCfg, secret, appURL, prefix, r.logger)
	default:
		return NewEmoneyGateway(gwCfg, secret, appURL, prefix, r.logger)
	}
}
