//go:build integration

package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"proofhire-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/redpanda"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestKafkaPublisher_RoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := redpanda.Run(ctx, "docker.redpanda.com/redpandadata/redpanda:v24.2.4", redpanda.WithAutoCreateTopics())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	broker, err := container.KafkaSeedBroker(ctx)
	require.NoError(t, err)

	const topic = "proofhire.candidate-lifecycle.test"
	publisher, err := NewKafkaPublisher([]string{broker}, topic)
	require.NoError(t, err)
	defer publisher.Close()

	require.NoError(t, publisher.Publish(ctx, domain.LifecycleEvent{
		Type:        domain.EventRefereeConfirmed,
		CandidateID: "cand-7",
		ResourceID:  "ref-7",
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.Empty(t, fetches.Errors())
	records := fetches.Records()
	require.Len(t, records, 1)

	assert.Equal(t, "cand-7", string(records[0].Key))
	var got domain.LifecycleEvent
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, domain.EventRefereeConfirmed, got.Type)
	assert.False(t, got.OccurredAt.IsZero())
}
