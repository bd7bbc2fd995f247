package redis

import (
	"context"
	"testing"
	"time"

	"github.com/1363V4/datastar-void/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage(text string) domain.Message {
	return domain.Message{
		ID:    uuid.NewString(),
		Text:  text,
		Color: "#1a2b3c",
		X:     42.5,
		Y:     13.37,
	}
}

func TestListStore_PutAndLiveSet(t *testing.T) {
	client := setupTestClient(t)
	store := NewListStore(client, 500)
	ctx := context.Background()

	first := testMessage("first")
	second := testMessage("second")
	third := testMessage("third")
	for _, msg := range []domain.Message{first, second, third} {
		require.NoError(t, store.Put(ctx, msg, time.Minute))
	}

	messages, err := store.LiveSet(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	// Newest first
	assert.Equal(t, third.ID, messages[0].ID)
	assert.Equal(t, second.ID, messages[1].ID)
	assert.Equal(t, first.ID, messages[2].ID)
	assert.Equal(t, "third", messages[0].Text)
	assert.Equal(t, "#1a2b3c", messages[0].Color)
	assert.Equal(t, 42.5, messages[0].X)
	assert.Equal(t, 13.37, messages[0].Y)
}

func TestListStore_TrimsToCap(t *testing.T) {
	client := setupTestClient(t)
	store := NewListStore(client, 3)
	ctx := context.Background()

	var last domain.Message
	for range 5 {
		last = testMessage("crowded")
		require.NoError(t, store.Put(ctx, last, time.Minute))
	}

	messages, err := store.LiveSet(ctx)
	require.NoError(t, err)
	assert.Len(t, messages, 3)
	assert.Equal(t, last.ID, messages[0].ID)
}

func TestListStore_Get(t *testing.T) {
	client := setupTestClient(t)
	store := NewListStore(client, 500)
	ctx := context.Background()

	msg := testMessage("findable")
	require.NoError(t, store.Put(ctx, msg, time.Minute))
	require.NoError(t, store.Put(ctx, testMessage("noise"), time.Minute))

	found, err := store.Get(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, found.ID)
	assert.Equal(t, "findable", found.Text)
}

func TestListStore_GetMissing(t *testing.T) {
	client := setupTestClient(t)
	store := NewListStore(client, 500)
	ctx := context.Background()

	_, err := store.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)
}

func TestListStore_SkipsUndecodableEntries(t *testing.T) {
	client := setupTestClient(t)
	store := NewListStore(client, 500)
	ctx := context.Background()

	msg := testMessage("valid")
	require.NoError(t, store.Put(ctx, msg, time.Minute))
	require.NoError(t, client.LPush(ctx, listKey, "not json at all").Err())

	messages, err := store.LiveSet(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, msg.ID, messages[0].ID)
}
