package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/pubharvest/internal/notify"
)

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{Topic: "t"})
	require.ErrorContains(t, err, "project id")

	_, err = New(context.Background(), Config{ProjectID: "p"})
	require.ErrorContains(t, err, "topic")
}

func TestPublishWithoutTopic(t *testing.T) {
	t.Parallel()

	p := &Publisher{}
	_, err := p.Publish(context.Background(), notify.SnapshotEvent{Source: "scholar"})
	require.Error(t, err)
	require.NoError(t, p.Close())
}
