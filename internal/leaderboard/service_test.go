package leaderboard

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, opts ServiceOptions) (*Service, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewService(client, zerolog.Nop(), opts), mr
}

func TestSetScoreIsAbsolute(t *testing.T) {
	svc, mr := newTestService(t, ServiceOptions{})
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, svc.SetScore(ctx, userID, "asha", "scribe", 1200))
	require.NoError(t, svc.SetScore(ctx, userID, "asha", "scribe", 900))

	score, err := mr.ZScore("qp:board", userID.String())
	require.NoError(t, err)
	assert.Equal(t, float64(900), score)
	assert.Equal(t, "asha", mr.HGet("qp:meta:"+userID.String(), "username"))
	assert.Equal(t, "scribe", mr.HGet("qp:meta:"+userID.String(), "avatar"))
}

func TestTopOrdersByPoints(t *testing.T) {
	svc, _ := newTestService(t, ServiceOptions{TopN: 5})
	ctx := context.Background()

	users := make([]uuid.UUID, 7)
	for i := range users {
		users[i] = uuid.New()
		name := "player" + strconv.Itoa(i)
		require.NoError(t, svc.SetScore(ctx, users[i], name, "default", 100*(i+1)))
	}

	top, err := svc.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 5, "limit is clamped to the board size")

	assert.Equal(t, users[6], top[0].UserID)
	assert.Equal(t, 700, top[0].Points)
	assert.Equal(t, "player6", top[0].Username)
	assert.Equal(t, 300, top[4].Points)

	top, err = svc.Top(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)
}

func TestTopEmptyBoard(t *testing.T) {
	svc, _ := newTestService(t, ServiceOptions{})

	top, err := svc.Top(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestSetScorePublishesUpdate(t *testing.T) {
	svc, mr := newTestService(t, ServiceOptions{PubSubChannel: "qp:updates"})
	ctx := context.Background()

	sub := redis.NewClient(&redis.Options{Addr: mr.Addr()}).Subscribe(ctx, "qp:updates")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err, "subscription confirmation")

	require.NoError(t, svc.SetScore(ctx, uuid.New(), "asha", "default", 500))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "qp:updates", msg.Channel)
	assert.Contains(t, msg.Payload, `"asha"`)
	assert.Contains(t, msg.Payload, `"points":500`)
}

func TestKeyPrefixIsConfigurable(t *testing.T) {
	svc, mr := newTestService(t, ServiceOptions{KeyPrefix: "staging"})
	userID := uuid.New()

	require.NoError(t, svc.SetScore(context.Background(), userID, "asha", "default", 100))
	assert.True(t, mr.Exists("staging:board"))
	assert.True(t, mr.Exists("staging:meta:"+userID.String()))
}
