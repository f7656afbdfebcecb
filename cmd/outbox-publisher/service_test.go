package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/clayhaus/clayhaus-backend/pkg/config"
	"github.com/clayhaus/clayhaus-backend/pkg/db/models"
	"github.com/clayhaus/clayhaus-backend/pkg/enums"
	"github.com/clayhaus/clayhaus-backend/pkg/logger"
	"github.com/clayhaus/clayhaus-backend/pkg/outbox"
	"github.com/clayhaus/clayhaus-backend/pkg/outbox/registry"
)

var errTransient = errors.New("transient")

type harness struct {
	svc      *Service
	repo     *fakeRepo
	dlq      *fakeDLQRepo
	pub      *fakePublisher
	recorder *fakeRecorder
}

func newHarness(t *testing.T, cfg config.OutboxConfig, resolver registryResolver, events ...models.OutboxEvent) *harness {
	t.Helper()
	h := &harness{
		repo:     &fakeRepo{events: events},
		dlq:      &fakeDLQRepo{},
		pub:      &fakePublisher{},
		recorder: &fakeRecorder{},
	}
	svc, err := NewService(ServiceParams{
		Config:     &config.Config{Outbox: cfg},
		Logger:     logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:         fakeDB{},
		PubSub:     fakePubSubClient{},
		Repository: h.repo,
		Registry:   resolver,
		PublisherFactory: func(topic string) publisher {
			h.pub.topics = append(h.pub.topics, topic)
			return h.pub
		},
		DLQRepository: h.dlq,
		Metrics:       h.recorder,
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

func defaultOutboxConfig() config.OutboxConfig {
	return config.OutboxConfig{BatchSize: 2, PollIntervalMS: 100, MaxAttempts: 5}
}

func outboxRow(t *testing.T, eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType) models.OutboxEvent {
	t.Helper()
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: aggregate,
		AggregateID:   uuid.New(),
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	}
}

func routeTo(topic string) *fakeRegistry {
	return &fakeRegistry{topic: topic}
}

func TestProcessBatchKeepsGoingAfterTransientFailure(t *testing.T) {
	first := outboxRow(t, enums.EventOrderCreated, enums.AggregateOrder)
	second := outboxRow(t, enums.EventOrderCreated, enums.AggregateOrder)
	h := newHarness(t, defaultOutboxConfig(), routeTo("orders-topic"), first, second)
	h.pub.errs = []error{errTransient, nil}

	processed, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, []uuid.UUID{first.ID}, h.repo.failed)
	assert.Equal(t, []uuid.UUID{second.ID}, h.repo.published)
	assert.Empty(t, h.dlq.entries)
	assert.Equal(t, 1, h.recorder.failed[string(enums.EventOrderCreated)])
	assert.Equal(t, 1, h.recorder.published[string(enums.EventOrderCreated)])
}

func TestProcessBatchReportsEmptyBatch(t *testing.T) {
	h := newHarness(t, defaultOutboxConfig(), routeTo("orders-topic"))

	processed, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestPublishedMessageCarriesEventAttributes(t *testing.T) {
	row := outboxRow(t, enums.EventVideoPublished, enums.AggregateVideo)
	h := newHarness(t, defaultOutboxConfig(), routeTo("catalog-topic"), row)

	_, err := h.svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, h.pub.sent, 1)

	msg := h.pub.sent[0]
	assert.JSONEq(t, string(row.Payload), string(msg.Data))
	assert.Equal(t, string(enums.EventVideoPublished), msg.Attributes["event_type"])
	assert.Equal(t, row.AggregateID.String(), msg.Attributes["aggregate_id"])
	assert.Equal(t, messageSource, msg.Attributes["source"])
	assert.NotEmpty(t, msg.Attributes["event_id"])
	assert.Equal(t, []string{"catalog-topic"}, h.pub.topics)
}

func TestProcessBatchDeadLetters(t *testing.T) {
	cases := []struct {
		name     string
		cfg      config.OutboxConfig
		attempts int
		resolver registryResolver
		noPub    bool
		pubErr   error
		reason   enums.OutboxDLQErrorReason
	}{
		{
			name:     "registry rejects row",
			cfg:      defaultOutboxConfig(),
			resolver: &fakeRegistry{err: registry.NewNonRetryableError(errors.New("invalid payload"))},
			reason:   enums.OutboxDLQReasonNonRetryable,
		},
		{
			name:     "no publisher for topic",
			cfg:      defaultOutboxConfig(),
			resolver: routeTo("orders-topic"),
			noPub:    true,
			reason:   enums.OutboxDLQReasonNonRetryable,
		},
		{
			name:     "attempts exhausted",
			cfg:      config.OutboxConfig{BatchSize: 1, PollIntervalMS: 100, MaxAttempts: 2},
			attempts: 1,
			resolver: routeTo("orders-topic"),
			pubErr:   errTransient,
			reason:   enums.OutboxDLQReasonMaxAttempts,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			row := outboxRow(t, enums.EventOrderStatusChanged, enums.AggregateOrder)
			row.AttemptCount = tc.attempts
			h := newHarness(t, tc.cfg, tc.resolver, row)
			h.pub.errs = []error{tc.pubErr}
			if tc.noPub {
				h.svc.publisherFactory = func(string) publisher { return nil }
			}

			processed, err := h.svc.processBatch(context.Background())
			require.NoError(t, err)
			assert.True(t, processed)

			require.Len(t, h.dlq.entries, 1)
			entry := h.dlq.entries[0]
			assert.Equal(t, row.ID, entry.EventID)
			assert.Equal(t, tc.reason, entry.ErrorReason)
			assert.Equal(t, []byte(row.Payload), []byte(entry.Payload))
			require.NotNil(t, entry.ErrorMessage)
			assert.Equal(t, []uuid.UUID{row.ID}, h.repo.terminal)
			assert.Empty(t, h.repo.published)
			assert.Equal(t, 1, h.recorder.dead[string(enums.EventOrderStatusChanged)])
		})
	}
}

func TestProcessBatchAbortsWhenMarkFails(t *testing.T) {
	row := outboxRow(t, enums.EventOrderCreated, enums.AggregateOrder)
	h := newHarness(t, defaultOutboxConfig(), routeTo("orders-topic"), row)
	h.repo.markErr = errors.New("db gone")

	_, err := h.svc.processBatch(context.Background())
	require.ErrorContains(t, err, "mark published")
}

func TestNewServiceAppliesConfigOverrides(t *testing.T) {
	h := newHarness(t, config.OutboxConfig{BatchSize: 7, PollIntervalMS: 250, MaxAttempts: 3}, routeTo("t"))
	assert.Equal(t, 7, h.svc.batchSize)
	assert.Equal(t, 3, h.svc.maxAttempts)
	assert.Equal(t, 250*time.Millisecond, h.svc.pollInterval)

	h = newHarness(t, config.OutboxConfig{}, routeTo("t"))
	assert.Equal(t, defaultBatchSize, h.svc.batchSize)
	assert.Equal(t, defaultMaxAttempts, h.svc.maxAttempts)
	assert.Equal(t, defaultPollInterval, h.svc.pollInterval)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{Config: &config.Config{}})
	require.Error(t, err)
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	h := newHarness(t, defaultOutboxConfig(), routeTo("orders-topic"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, h.svc.Run(ctx), context.Canceled)
}

func TestBackoffDoublesUpToCap(t *testing.T) {
	base := 100 * time.Millisecond
	assert.Equal(t, 200*time.Millisecond, nextBackoff(0, base, time.Second))
	assert.Equal(t, time.Second, nextBackoff(800*time.Millisecond, base, time.Second))

	got := withJitter(base)
	assert.GreaterOrEqual(t, got, base)
	assert.Less(t, got, base+jitterWindow)
	assert.Zero(t, withJitter(0))
}

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
	markErr   error
}

func (f *fakeRepo) FetchUnpublishedForPublish(*gorm.DB, int, int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, _ int) error {
	f.terminal = append(f.terminal, id)
	return nil
}

type fakeDB struct{}

func (fakeDB) Ping(context.Context) error { return nil }

func (fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error { return fn(nil) }

type fakePubSubClient struct{}

func (fakePubSubClient) Ping(context.Context) error { return nil }

func (fakePubSubClient) Publisher(string) *gcppubsub.Publisher { return nil }

// fakePublisher returns errs in order and succeeds once they run out.
type fakePublisher struct {
	errs   []error
	sent   []*gcppubsub.Message
	topics []string
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.sent = append(f.sent, msg)
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	return fakePublishResult{err: err}
}

type fakePublishResult struct{ err error }

func (f fakePublishResult) Get(context.Context) (string, error) { return "server-id", f.err }

type fakeRegistry struct {
	topic string
	err   error
}

func (f *fakeRegistry) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	env, err := outbox.DecodeEnvelope(event.Payload)
	if err != nil {
		return nil, err
	}
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{
			EventType:     event.EventType,
			AggregateType: event.AggregateType,
			Topic:         f.topic,
		},
		Envelope: env,
	}, nil
}

type fakeDLQRepo struct {
	entries []models.OutboxDLQ
}

func (f *fakeDLQRepo) InsertTx(_ *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeRecorder struct {
	published map[string]int
	failed    map[string]int
	dead      map[string]int
}

func bump(m *map[string]int, key string) {
	if *m == nil {
		*m = map[string]int{}
	}
	(*m)[key]++
}

func (f *fakeRecorder) IncPublished(eventType string)    { bump(&f.published, eventType) }
func (f *fakeRecorder) IncFailed(eventType string)       { bump(&f.failed, eventType) }
func (f *fakeRecorder) IncDeadLettered(eventType string) { bump(&f.dead, eventType) }
