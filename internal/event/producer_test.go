package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

type published struct {
	topic string
	event *pkgkafka.Event
}

type recordingPublisher struct {
	events []published
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event *pkgkafka.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, published{topic: topic, event: event})
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "storefront.cart.updated", TopicCartUpdated)
	assert.Equal(t, "storefront.cart.cleared", TopicCartCleared)
}

func TestPublishCartUpdated(t *testing.T) {
	pub := &recordingPublisher{}
	p := NewProducer(pub, testLogger())

	cart := domain.NewCart("sess-1", time.Now())
	cart.AddLine(domain.NewLine{ProductID: 1, Title: "Runner", Price: decimal.NewFromInt(10), Size: 40, Color: "navy"})
	cart.AddLine(domain.NewLine{ProductID: 1, Title: "Runner", Price: decimal.NewFromInt(10), Size: 40, Color: "navy"})
	cart.Version = 3

	ctx := logger.WithCorrelationID(context.Background(), "corr-9")
	require.NoError(t, p.PublishCartUpdated(ctx, cart))

	require.Len(t, pub.events, 1)
	got := pub.events[0]
	assert.Equal(t, TopicCartUpdated, got.topic)
	assert.Equal(t, EventCartUpdated, got.event.EventType)
	assert.Equal(t, "sess-1", got.event.AggregateID)
	assert.Equal(t, "cart", got.event.AggregateType)
	assert.Equal(t, SourceStorefront, got.event.Source)
	assert.Equal(t, "corr-9", got.event.CorrelationID)

	var data CartUpdatedData
	require.NoError(t, got.event.DecodeData(&data))
	assert.Equal(t, 3, data.Version)
	assert.Equal(t, 2, data.ItemCount)
	require.Len(t, data.Lines, 1)
	assert.Equal(t, "1-40-navy", data.Lines[0].LineID)
	assert.True(t, decimal.NewFromInt(20).Equal(data.Subtotal))
	assert.True(t, decimal.RequireFromString("26.99").Equal(data.Total))
}

func TestPublishCartCleared(t *testing.T) {
	pub := &recordingPublisher{}
	p := NewProducer(pub, testLogger())

	require.NoError(t, p.PublishCartCleared(context.Background(), "sess-2", 5))

	require.Len(t, pub.events, 1)
	assert.Equal(t, TopicCartCleared, pub.events[0].topic)
	assert.Empty(t, pub.events[0].event.CorrelationID)

	var data CartClearedData
	require.NoError(t, pub.events[0].event.DecodeData(&data))
	assert.Equal(t, CartClearedData{SessionID: "sess-2", Version: 5}, data)
}

func TestPublish_ErrorWrapped(t *testing.T) {
	boom := errors.New("broker down")
	p := NewProducer(&recordingPublisher{err: boom}, testLogger())

	err := p.PublishCartCleared(context.Background(), "sess-3", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), EventCartCleared)
}

func TestDiscard(t *testing.T) {
	p := NewProducer(Discard{}, testLogger())
	assert.NoError(t, p.PublishCartCleared(context.Background(), "s", 1))
}
