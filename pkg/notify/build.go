package notify

import (
	"github.com/arnavshah/crew-scheduler-api/pkg/config"
	"github.com/arnavshah/crew-scheduler-api/pkg/logger"
)

// FromConfig assembles the enabled channels. Events are always logged. The
// returned close function releases broker connections.
func FromConfig(cfg config.NotifyConfig, log logger.Logger) (Notifier, func(), error) {
	if log == nil {
		log = logger.NopLogger{}
	}
	channels := Multi{LogNotifier{Log: log}}
	closeFn := func() {}

	if cfg.Email.Enabled {
		channels = append(channels, NewEmailNotifier(cfg.Email, log))
	}
	if cfg.MQTT.Enabled {
		m, err := NewMQTTNotifier(cfg.MQTT, log)
		if err != nil {
			return nil, closeFn, err
		}
		channels = append(channels, m)
		closeFn = m.Close
	}
	return channels, closeFn, nil
}
