package events

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"

	"gardenlog/domain"
)

type capture struct {
	envs []Envelope
	fail error
}

func (c *capture) Publish(ctx context.Context, env Envelope, payload []byte) error {
	if c.fail != nil {
		return c.fail
	}
	c.envs = append(c.envs, env)
	return nil
}

func newDispatcher(pubs ...Publisher) *Dispatcher {
	logger, _ := test.NewNullLogger()
	return NewDispatcher(pubs, WithLogger(logger))
}

func TestDispatchPublishesAndClears(t *testing.T) {
	p, err := domain.NewPlant("user-1", domain.PlantFields{Name: "Okra"})
	if err != nil {
		t.Fatalf("new plant: %v", err)
	}
	ts := domain.NewTombstone(domain.GardenDeleted, "user-1", domain.RelatedEntity{Type: domain.EntityGarden, ID: "g1"})
	a, b := &capture{}, &capture{}

	n, err := newDispatcher(a, b).Dispatch(context.Background(), p, ts, nil)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 events, got %d", n)
	}
	if len(a.envs) != 2 || len(b.envs) != 2 {
		t.Fatalf("every publisher should see every event: %d %d", len(a.envs), len(b.envs))
	}
	if a.envs[0].Type != domain.PlantCreated || a.envs[0].EntityID != p.ID || a.envs[0].UserID != "user-1" {
		t.Fatalf("unexpected first envelope: %+v", a.envs[0])
	}
	if a.envs[1].EntityType != domain.EntityGarden || a.envs[1].EntityID != "g1" || a.envs[1].Data != nil {
		t.Fatalf("unexpected tombstone envelope: %+v", a.envs[1])
	}
	if len(p.PendingEvents()) != 0 || len(ts.PendingEvents()) != 0 {
		t.Fatal("sources should be cleared after dispatch")
	}
}

func TestDispatchFailureKeepsEvents(t *testing.T) {
	first, _ := domain.NewPlant("user-1", domain.PlantFields{Name: "Okra"})
	second, _ := domain.NewPlant("user-1", domain.PlantFields{Name: "Leek"})
	boom := errors.New("queue down")
	calls := 0
	flaky := PublisherFunc(func(ctx context.Context, env Envelope, payload []byte) error {
		calls++
		if calls > 1 {
			return boom
		}
		return nil
	})
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	logger, _ := test.NewNullLogger()
	d := NewDispatcher([]Publisher{flaky}, WithLogger(logger), WithMetrics(m))

	n, err := d.Dispatch(context.Background(), first, second)

	if !errors.Is(err, boom) {
		t.Fatalf("expected publish error, got %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 published event, got %d", n)
	}
	if len(first.PendingEvents()) != 0 {
		t.Fatal("first source was fully published and should be cleared")
	}
	if len(second.PendingEvents()) != 1 {
		t.Fatal("failed source must keep its events")
	}
	if got := testutil.ToFloat64(m.Failures); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.Published.WithLabelValues(string(domain.PlantCreated))); got != 1 {
		t.Fatalf("expected 1 published, got %v", got)
	}
}

func TestDispatchFailureDropsPublishedPrefix(t *testing.T) {
	cycle, err := domain.NewHarvestCycle("user-1", domain.HarvestCycleFields{Name: "Spring", StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("new cycle: %v", err)
	}
	if _, err := cycle.AddPlant(domain.RelatedEntity{Type: domain.EntityPlant, ID: "p1"}, domain.PlantHarvestCycleFields{}); err != nil {
		t.Fatalf("add plant: %v", err)
	}
	boom := errors.New("queue down")
	var seen []domain.TriggerKind
	failed := false
	flaky := PublisherFunc(func(ctx context.Context, env Envelope, payload []byte) error {
		if env.Type == domain.PlantAddedToHarvestCycle && !failed {
			failed = true
			return boom
		}
		seen = append(seen, env.Type)
		return nil
	})
	d := newDispatcher(flaky)

	if _, err := d.Dispatch(context.Background(), cycle); !errors.Is(err, boom) {
		t.Fatalf("expected publish error, got %v", err)
	}
	pending := cycle.PendingEvents()
	if len(pending) != 1 || pending[0].Trigger != domain.PlantAddedToHarvestCycle {
		t.Fatalf("expected only the failed event to stay pending, got %+v", pending)
	}

	n, err := d.Dispatch(context.Background(), cycle)
	if err != nil || n != 1 {
		t.Fatalf("retry: %d %v", n, err)
	}
	want := []domain.TriggerKind{domain.HarvestCycleCreated, domain.PlantAddedToHarvestCycle}
	if len(seen) != 2 || seen[0] != want[0] || seen[1] != want[1] {
		t.Fatalf("each event should be published once, got %v", seen)
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	img, err := domain.NewImage("user-1", domain.ImageFields{
		RelatedEntity: domain.RelatedEntity{Type: domain.EntityPlant, ID: "p1", Name: "Okra"},
		FileName:      "okra.png",
	})
	if err != nil {
		t.Fatalf("new image: %v", err)
	}
	env, err := NewEnvelope(img.PendingEvents()[0])
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	payload, err := env.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := DecodeEnvelope(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != env.ID || got.Type != domain.ImageCreated || got.EntityType != domain.EntityImage {
		t.Fatalf("unexpected envelope: %+v", got)
	}
	if got.Related == nil || got.Related.ID != "p1" {
		t.Fatalf("related lost: %+v", got.Related)
	}
	if !got.OccurredAt.Equal(env.OccurredAt) {
		t.Fatalf("time mismatch: %v vs %v", got.OccurredAt, env.OccurredAt)
	}
	if len(got.Data) == 0 {
		t.Fatal("expected subject data")
	}

	if _, err := DecodeEnvelope([]byte(`{"entityType":"plant"}`)); err == nil {
		t.Fatal("expected error for envelope without id")
	}
}

func TestQueuePublisherSendsPayload(t *testing.T) {
	var sent string
	p := &QueuePublisher{send: func(ctx context.Context, text string) error {
		sent = text
		return nil
	}}
	if err := p.Publish(context.Background(), Envelope{}, []byte(`{"id":"1"}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if sent != `{"id":"1"}` {
		t.Fatalf("unexpected message: %s", sent)
	}
}

func TestRedisPublisherUsesEntityChannel(t *testing.T) {
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer m.Close()
	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})
	ctx := context.Background()
	pub := NewRedisPublisher(rc, "gardenlog")

	pubsub := rc.Subscribe(ctx, "gardenlog:plant")
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	done := make(chan string, 1)
	go func() {
		msg := <-pubsub.Channel()
		done <- msg.Payload
	}()

	payload := `{"entityType":"plant"}`
	if err := pub.Publish(ctx, Envelope{EntityType: domain.EntityPlant}, []byte(payload)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case pl := <-done:
		if pl != payload {
			t.Fatalf("unexpected payload %s", pl)
		}
	case <-time.After(time.Second):
		t.Fatalf("no message received")
	}
	if NewRedisPublisher(rc, "").Channel("plant") != "plant" {
		t.Fatal("empty prefix should use the bare entity type")
	}
}
