package changelog

import (
	"context"
	"testing"
)

func TestNewKafkaProducer_Unconfigured(t *testing.T) {
	testCases := []struct {
		name    string
		brokers []string
		topic   string
	}{
		{"no brokers", nil, "confplane-changelog"},
		{"no topic", []string{"localhost:9092"}, ""},
		{"neither", nil, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := NewKafkaProducer(tc.brokers, tc.topic)
			if err != nil {
				t.Fatalf("NewKafkaProducer: %v", err)
			}
			if p != nil {
				t.Error("unconfigured producer should be nil")
			}
		})
	}
}

func TestKafkaProducer_NilSafe(t *testing.T) {
	var p *KafkaProducer
	if err := p.Emit(context.Background(), &ChangeEvent{Key: "X"}); err != nil {
		t.Errorf("Emit on nil producer: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close on nil producer: %v", err)
	}
}

func TestKafkaProducer_NilEvent(t *testing.T) {
	p, err := NewKafkaProducer([]string{"localhost:9092"}, "confplane-changelog")
	if err != nil {
		t.Fatalf("NewKafkaProducer: %v", err)
	}
	defer p.Close()
	if err := p.Emit(context.Background(), nil); err != nil {
		t.Errorf("Emit(nil): %v", err)
	}
}
