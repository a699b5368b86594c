package config

import (
	"context"
	"encoding/json"
	"errors"

	"wstl-go/bus"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for the board name
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// DecodeJSON decodes src ([]byte, string or an already decoded value) into dst.
func DecodeJSON[T any](src any, dst *T) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}

// Topic returns the retained topic a config section is published on.
func Topic(section string) bus.Topic { return bus.T(configPrefix, section) }

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// Publish reads the board config and publishes each top-level section as
// a retained message on config/<section>.
func (s *ConfigService) Publish(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errors.New("missing device ID in context")
	}
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return errors.New("no embedded config for device: " + device)
	}

	var m map[string]any
	if err := DecodeJSON(raw, &m); err != nil {
		return err
	}
	if m == nil {
		return errors.New("embedded config is not a JSON object")
	}
	for k, v := range m {
		conn.Publish(bus.NewMessage(Topic(k), v, true))
	}
	return nil
}

// Start launches the publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.Publish(ctx, conn); err != nil {
			println("[config] publish:", err.Error())
		}
	}()
}
