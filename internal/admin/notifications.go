package admin

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"orgconsole-backend/internal/auth"
	"orgconsole-backend/internal/httpx"
	"orgconsole-backend/internal/storage"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500

	feedCredentialsLifetime = time.Hour
)

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httpx.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	notifications, err := h.store.ListNotifications(r.Context(), limit)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	if h.cache != nil {
		if count, err := h.cache.GetUnreadCount(); err == nil {
			httpx.JSON(w, http.StatusOK, map[string]any{"unread": count})
			return
		}
	}

	count, err := h.store.CountUnreadNotifications(r.Context())
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.cache != nil {
		if err := h.cache.SetUnreadCount(count); err != nil {
			log.Printf("WARN Failed to cache unread count: %v", err)
		}
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"unread": count})
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httpx.Error(w, http.StatusBadRequest, "missing notification id")
		return
	}

	if err := h.store.MarkNotificationRead(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotificationNotFound) {
			httpx.Error(w, http.StatusNotFound, "notification not found")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.cache != nil {
		if err := h.cache.InvalidateUnreadCount(); err != nil {
			log.Printf("WARN Failed to invalidate unread count cache: %v", err)
		}
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true})
}

// IssueFeedCredentials hands the calling console scoped NATS
// credentials for subscribing to the event stream directly.
func (h *Handler) IssueFeedCredentials(w http.ResponseWriter, r *http.Request) {
	if h.issuer == nil {
		httpx.Error(w, http.StatusInternalServerError, "feed credentials issuer not configured")
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	creds, expiresAt, err := h.issuer.IssueFeedCredentials(userID, feedCredentialsLifetime)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"creds_content": creds,
		"expires_at":    expiresAt,
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// NotificationsFeed upgrades the connection and parks it in the hub
// until the console goes away.
func (h *Handler) NotificationsFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WARN WebSocket upgrade failed: %v", err)
		return
	}

	connID := uuid.New().String()
	h.hub.Add(connID, conn)

	go func() {
		defer func() {
			h.hub.Remove(connID)
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
