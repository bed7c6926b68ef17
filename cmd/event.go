package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/frahmantamala/pos-helpdesk/internal/core/events"
	"github.com/frahmantamala/pos-helpdesk/internal/metrics"
	"github.com/frahmantamala/pos-helpdesk/pkg/logger"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event bus commands",
	Long:  `Publish ticket and alert events on a local bus to check handlers and metrics.`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long:  `Publish a ticket.* or alert.* event to the event bus and print the resulting metric samples.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(cmd.Context(), args[0])
	},
}

var (
	eventTicketID   int64
	eventTicketCode string
	eventStatus     string
	eventPlatform   string
	eventError      string
)

func buildEvent(eventType string) (events.Event, error) {
	switch {
	case slices.Contains(events.TicketEventTypes, eventType):
		return events.NewTicketEvent(eventType, eventTicketID, eventTicketCode, eventStatus, "", 0), nil
	case eventType == events.EventTypeAlertSent || eventType == events.EventTypeAlertFailed:
		return events.NewAlertEvent(eventType, eventTicketID, eventPlatform, 1, eventError), nil
	default:
		known := append(slices.Clone(events.TicketEventTypes), events.EventTypeAlertSent, events.EventTypeAlertFailed)
		return nil, fmt.Errorf("unknown event type %q, expected one of: %s", eventType, strings.Join(known, ", "))
	}
}

func publishTestEvent(ctx context.Context, eventType string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	lg := logger.LoggerWrapper()

	event, err := buildEvent(eventType)
	if err != nil {
		return err
	}

	bus := events.NewEventBus(lg)
	m := metrics.New()
	m.Subscribe(bus)
	bus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		lg.Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	lg.Info("publishing test event", "event_type", eventType, "event_id", event.EventID())
	if err := bus.PublishSync(ctx, event); err != nil {
		return err
	}

	families, err := m.Registry().Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(os.Stdout, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventTicketID, "id", 1, "Ticket or alert id carried by the event")
	publishEventCmd.Flags().StringVar(&eventTicketCode, "code", "TEST-0001", "Ticket code carried by ticket events")
	publishEventCmd.Flags().StringVar(&eventStatus, "status", "open", "Ticket status carried by ticket events")
	publishEventCmd.Flags().StringVar(&eventPlatform, "platform", "telegram", "Platform carried by alert events")
	publishEventCmd.Flags().StringVar(&eventError, "error", "", "Error text carried by alert.failed events")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
