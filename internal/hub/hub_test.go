package hub

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"orgconsole-backend/internal/models"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func dialHub(t *testing.T, h *Hub, connID string) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		h.Add(connID, conn)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestBroadcastNotification(t *testing.T) {
	h := NewHub()
	first := dialHub(t, h, "conn-1")
	second := dialHub(t, h, "conn-2")

	actor := "admin-1"
	h.BroadcastNotification(models.Notification{
		ID:      "n-1",
		Type:    "approval",
		ActorID: &actor,
		Payload: map[string]interface{}{"user_id": "user-1"},
	})

	for _, client := range []*websocket.Conn{first, second} {
		require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := client.ReadMessage()
		require.NoError(t, err)

		var event struct {
			Event        string              `json:"event"`
			Notification models.Notification `json:"notification"`
		}
		require.NoError(t, json.Unmarshal(data, &event))
		require.Equal(t, "notification_created", event.Event)
		require.Equal(t, "n-1", event.Notification.ID)
		require.Equal(t, "user-1", event.Notification.Payload["user_id"])
	}
}

func TestRemoveStopsDelivery(t *testing.T) {
	h := NewHub()
	client := dialHub(t, h, "conn-1")

	h.Remove("conn-1")
	h.BroadcastNotification(models.Notification{ID: "n-1", Type: "approval"})

	require.NoError(t, client.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := client.ReadMessage()
	require.Error(t, err)
}
