package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestVerifyEmailEventBody(t *testing.T) {
	event := VerifyEmailEvent{
		UserID:    42,
		Email:     "21060001001@stu.yasar.edu.tr",
		Token:     "abc",
		ExpiresAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	body, err := event.body()
	if err != nil {
		t.Fatalf("body: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["user_id"] != float64(42) || got["token"] != "abc" {
		t.Fatalf("unexpected body %s", body)
	}
	if got["expires_at"] != "2024-01-02T03:04:05Z" {
		t.Fatalf("unexpected expires_at %v", got["expires_at"])
	}
	if string(event.key()) != "42" {
		t.Fatalf("expected key 42, got %s", event.key())
	}
}

func TestNilKafkaSkipsPublish(t *testing.T) {
	var k *Kafka
	if err := k.PublishVerifyEmail(context.Background(), VerifyEmailEvent{}); err != nil {
		t.Fatalf("expected nil-safe publish, got %v", err)
	}
	if err := k.Close(); err != nil {
		t.Fatalf("expected nil-safe close, got %v", err)
	}
}

func TestNewKafkaConfiguresSASL(t *testing.T) {
	k := NewKafka(KafkaConfig{Brokers: []string{"b1:9092"}, Topic: "user.verify_email", Username: "u", Password: "p"})
	if k.writer.Transport == nil {
		t.Fatalf("expected SASL transport")
	}
	plainWriter := NewKafka(KafkaConfig{Brokers: []string{"b1:9092"}, Topic: "user.verify_email"})
	if plainWriter.writer.Transport != nil {
		t.Fatalf("expected default transport without credentials")
	}
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	if err := p.PublishVerifyEmail(context.Background(), VerifyEmailEvent{}); err != nil {
		t.Fatalf("noop publish: %v", err)
	}
}
