package producer

import (
	"context"
	"testing"
	"time"

	"portfolio-client/internal/telemetry/domain"
)

func TestNewKafkaProducer_Disabled(t *testing.T) {
	for _, tc := range []struct {
		brokers []string
		topic   string
	}{
		{nil, "session-events"},
		{[]string{"localhost:9092"}, ""},
	} {
		p, err := NewKafkaProducer(tc.brokers, tc.topic)
		if err != nil || p != nil {
			t.Errorf("NewKafkaProducer(%v, %q) = %v, %v; want nil, nil", tc.brokers, tc.topic, p, err)
		}
	}
}

func TestKafkaProducer_NilIsNoop(t *testing.T) {
	var p *KafkaProducer
	if err := p.Emit(context.Background(), domain.NewSessionEvent(domain.EventLogin)); err != nil {
		t.Errorf("nil Emit: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
	if p.Topic() != "" {
		t.Errorf("nil Topic = %q", p.Topic())
	}
}

func TestKafkaProducer_UnreachableBroker(t *testing.T) {
	p, err := NewKafkaProducer([]string{"127.0.0.1:1"}, "session-events")
	if err != nil || p == nil {
		t.Fatalf("NewKafkaProducer: %v, %v", p, err)
	}
	defer p.Close()
	if p.Topic() != "session-events" {
		t.Errorf("Topic = %q", p.Topic())
	}
	if err := p.Emit(context.Background(), nil); err != nil {
		t.Errorf("Emit(nil) = %v, want nil", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Emit(ctx, domain.NewSessionEvent(domain.EventLogout)); err == nil {
		t.Error("Emit to unreachable broker should fail")
	}
}

var _ Producer = (*KafkaProducer)(nil)
