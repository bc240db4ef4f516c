package eventbus

import (
	"context"

	"github.com/annel0/voxel-blast/internal/logging"
)

// StartLoggingListener подписывается на все события и пишет их в журнал компонента events.
// Функция неблокирующая.
func StartLoggingListener(ctx context.Context, bus EventBus) (Subscription, error) {
	journal := logging.Component(logging.EventsComponent)
	sub, err := bus.Subscribe(ctx, Filter{}, func(ctx context.Context, ev *Envelope) {
		journal.Info("%s %s src=%s corr=%s at=%s size=%dB",
			ev.ID, ev.EventType, ev.Source, ev.CorrelationID, ev.Timestamp.Format("15:04:05.000"), len(ev.Payload))
	})
	if err != nil {
		return nil, err
	}
	logging.Info("🪵 Журнал событий шины включён")
	return sub, nil
}
