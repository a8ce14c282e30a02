package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// DomainMetrics counts booking and chat outcomes. Instruments are created on
// the global meter, so they report through whatever provider InitTelemetry
// installs, or nowhere when telemetry is disabled.
type DomainMetrics struct {
	bookings        metric.Int64Counter
	slotConflicts   metric.Int64Counter
	chatTransitions metric.Int64Counter
	chatMessages    metric.Int64Counter
}

func NewDomainMetrics() *DomainMetrics {
	meter := otel.Meter(tracerName)

	bookings, _ := meter.Int64Counter(
		"teleclinic_bookings_created_total",
		metric.WithDescription("Bookings written to storage"),
		metric.WithUnit("{booking}"),
	)
	slotConflicts, _ := meter.Int64Counter(
		"teleclinic_booking_slot_conflicts_total",
		metric.WithDescription("Booking attempts that lost the slot to another booking"),
		metric.WithUnit("{booking}"),
	)
	chatTransitions, _ := meter.Int64Counter(
		"teleclinic_chat_transitions_total",
		metric.WithDescription("Chat thread status changes"),
		metric.WithUnit("{transition}"),
	)
	chatMessages, _ := meter.Int64Counter(
		"teleclinic_chat_messages_total",
		metric.WithDescription("Chat messages stored"),
		metric.WithUnit("{message}"),
	)

	return &DomainMetrics{
		bookings:        bookings,
		slotConflicts:   slotConflicts,
		chatTransitions: chatTransitions,
		chatMessages:    chatMessages,
	}
}

func (m *DomainMetrics) BookingCreated(ctx context.Context, guest bool) {
	if m == nil {
		return
	}
	m.bookings.Add(ctx, 1, metric.WithAttributes(attribute.Bool("guest", guest)))
}

func (m *DomainMetrics) SlotConflict(ctx context.Context) {
	if m == nil {
		return
	}
	m.slotConflicts.Add(ctx, 1)
}

func (m *DomainMetrics) ChatTransition(ctx context.Context, to string) {
	if m == nil {
		return
	}
	m.chatTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", to)))
}

func (m *DomainMetrics) ChatMessage(ctx context.Context, senderRole string) {
	if m == nil {
		return
	}
	m.chatMessages.Add(ctx, 1, metric.WithAttributes(attribute.String("sender_role", senderRole)))
}

// StartSpan starts an internal span on the package tracer.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}
