package results

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/memorama/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() models.MatchResult {
	uid := uuid.New()
	alice := models.Player{ID: "s1", Name: "alice", UserID: &uid}
	guest := models.Player{ID: "s2", Name: "Guest_AB12", Guest: true}
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return models.MatchResult{
		MatchID:    uuid.New(),
		LobbyCode:  "ROOM1",
		Players:    []models.Player{alice, guest},
		Scores:     []models.Score{{Player: alice, Points: 5}, {Player: guest, Points: 3}},
		Winner:     alice,
		CardCount:  16,
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
	}
}

func TestNewRecord(t *testing.T) {
	res := sampleResult()
	rec := NewRecord(res)

	assert.Equal(t, res.MatchID, rec.MatchID)
	assert.Equal(t, "alice", rec.Winner.Name)
	assert.Equal(t, res.Winner.UserID, rec.Winner.UserID)
	assert.Equal(t, int64(90000), rec.DurationMS)
	require.Len(t, rec.Scores, 2)
	assert.True(t, rec.Scores[1].Guest)
	assert.Nil(t, rec.Scores[1].UserID)

	data, err := encode(res)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "ROOM1", raw["lobby_code"])
	scores := raw["scores"].([]any)
	_, hasUser := scores[1].(map[string]any)["user_id"]
	assert.False(t, hasUser, "guests carry no user id")
}

func TestLogRecorder(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := NewLogRecorder(logger)

	require.NoError(t, r.Record(context.Background(), sampleResult()))
	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "ROOM1", entry.Data["lobby"])
	assert.Equal(t, "alice", entry.Data["winner"])
}

func TestRedisRecorder(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	queue := "memorama_results_test_" + uuid.NewString()
	defer rdb.Del(ctx, queue)

	res := sampleResult()
	require.NoError(t, NewRedisRecorder(rdb, queue).Record(ctx, res))

	raw, err := rdb.LPop(ctx, queue).Bytes()
	require.NoError(t, err)
	var rec Record
	require.NoError(t, json.Unmarshal(raw, &rec))
	assert.Equal(t, res.MatchID, rec.MatchID)
}

func TestNATSRecorder(t *testing.T) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set")
	}
	conn, err := ConnectNATS(url)
	require.NoError(t, err)
	defer conn.Close()

	subject := "memorama.results.test." + uuid.NewString()
	sub, err := conn.SubscribeSync(subject)
	require.NoError(t, err)

	res := sampleResult()
	require.NoError(t, NewNATSRecorder(conn, subject).Record(context.Background(), res))

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)
	var rec Record
	require.NoError(t, json.Unmarshal(msg.Data, &rec))
	assert.Equal(t, res.MatchID, rec.MatchID)
}
