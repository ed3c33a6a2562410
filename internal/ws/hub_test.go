package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"messaging/internal/events"
)

func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case p := <-c.send:
			out = append(out, p)
		default:
			return out
		}
	}
}

func TestRegisterUnregisterIdempotent(t *testing.T) {
	hub := NewHub(zap.NewNop())
	c := NewClient(1, nil)

	assert.True(t, hub.Register(c), "first connection brings the user online")
	assert.False(t, hub.Register(c), "re-registering the same client is a no-op")
	assert.True(t, hub.Online(1))

	assert.True(t, hub.Unregister(c), "last connection takes the user offline")
	assert.False(t, hub.Unregister(c), "unregistering twice is a no-op")
	assert.False(t, hub.Online(1))
}

func TestMultipleConnectionsPerUser(t *testing.T) {
	hub := NewHub(zap.NewNop())
	tab1 := NewClient(1, nil)
	tab2 := NewClient(1, nil)

	assert.True(t, hub.Register(tab1))
	assert.False(t, hub.Register(tab2), "user already online")

	assert.False(t, hub.Unregister(tab1), "still one connection left")
	assert.True(t, hub.Online(1))
	assert.True(t, hub.Unregister(tab2))
	assert.False(t, hub.Online(1))
}

func TestDeliverTargetsOnlyNamedUsers(t *testing.T) {
	hub := NewHub(zap.NewNop())
	alice1 := NewClient(1, nil)
	alice2 := NewClient(1, nil)
	bob := NewClient(2, nil)
	carol := NewClient(3, nil)
	for _, c := range []*Client{alice1, alice2, bob, carol} {
		hub.Register(c)
	}

	hub.Deliver(events.Event{
		Type:          events.TypeMessageCreated,
		TargetUserIDs: []int64{1, 2},
		Payload:       map[string]any{"content": "hi"},
	})

	assert.Len(t, drain(alice1), 1, "every connection of a target user receives the event")
	assert.Len(t, drain(alice2), 1)
	assert.Len(t, drain(bob), 1)
	assert.Empty(t, drain(carol), "non-targets receive nothing")
}

func TestDeliverOfflineUsersMissTheEvent(t *testing.T) {
	hub := NewHub(zap.NewNop())
	bob := NewClient(2, nil)
	hub.Register(bob)

	// User 1 has no connection; delivery is best-effort with no queue.
	hub.Deliver(events.Event{
		Type:          events.TypeMessageCreated,
		TargetUserIDs: []int64{1, 2},
	})
	assert.Len(t, drain(bob), 1)
}

func TestDeliverBroadcastsWhenNoTargets(t *testing.T) {
	hub := NewHub(zap.NewNop())
	alice := NewClient(1, nil)
	bob := NewClient(2, nil)
	hub.Register(alice)
	hub.Register(bob)

	hub.Deliver(events.Event{
		Type:    events.TypePresenceOnline,
		Payload: map[string]any{"user_id": int64(3)},
	})

	require.Len(t, drain(alice), 1)
	payloads := drain(bob)
	require.Len(t, payloads, 1)

	var env struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(payloads[0], &env))
	assert.Equal(t, events.TypePresenceOnline, env.Type)
	assert.EqualValues(t, 3, env.Payload["user_id"])
}

func TestOnlineUserIDs(t *testing.T) {
	hub := NewHub(zap.NewNop())
	assert.Empty(t, hub.OnlineUserIDs())

	alice := NewClient(1, nil)
	bob := NewClient(2, nil)
	hub.Register(alice)
	hub.Register(bob)
	assert.ElementsMatch(t, []int64{1, 2}, hub.OnlineUserIDs())

	hub.Unregister(alice)
	assert.ElementsMatch(t, []int64{2}, hub.OnlineUserIDs())
}
