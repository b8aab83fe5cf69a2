package bus

import (
	"fmt"

	"github.com/crossborder-intel/kestrel/internal/domain"
)

// New selects the bus backend for the configured tier: "channel" for
// Community, "nats" for Pro.
func New(cfg domain.EventBusConfig) (domain.EventBus, error) {
	switch cfg.Type {
	case "channel":
		return NewChannelBus(cfg.ChannelBufferSize), nil

	case "nats":
		return NewNATSBus(cfg)

	default:
		return nil, fmt.Errorf("unsupported event bus type: %s", cfg.Type)
	}
}
