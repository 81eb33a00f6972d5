// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/memorama/internal/lobby"
	"github.com/jason-s-yu/memorama/internal/match"
	"github.com/jason-s-yu/memorama/internal/middleware"
	"github.com/sirupsen/logrus"
)

// Subprotocol clients must request on /ws.
const Subprotocol = "memorama"

const (
	pingInterval = 30 * time.Second
	writeTimeout = 5 * time.Second
)

// ClientMessage is any request a client sends over the socket. Only the
// fields relevant to Type are read.
type ClientMessage struct {
	Type string `json:"type"`

	// join_lobby
	Token     string `json:"token,omitempty"`
	Code      string `json:"code,omitempty"`
	Guest     bool   `json:"guest,omitempty"`
	GuestName string `json:"guestName,omitempty"`

	// chat
	Text string `json:"text,omitempty"`

	// start_match
	Settings *match.Settings `json:"settings,omitempty"`

	// flip_card
	Index *int `json:"index,omitempty"`
}

// WSHandler upgrades to a websocket and binds the connection to one
// session for its whole lifetime.
func WSHandler(logger *logrus.Logger, registry *lobby.Registry, clientBuffer int) http.HandlerFunc {
	if clientBuffer <= 0 {
		clientBuffer = 64
	}
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != Subprotocol {
			c.Close(BadSubprotocolError, "client must speak the memorama subprotocol")
			return
		}

		sessionID := uuid.NewString()
		cookieToken := extractCookieToken(r.Header.Get("Cookie"), "auth_token")
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		client := newWSClient(sessionID, clientBuffer, cancel)

		go writePump(ctx, c, client, logger)
		err = readPump(ctx, c, client, registry, logger, cookieToken)

		registry.Remove(sessionID)
		evicted := client.isClosed()
		client.Close()

		if evicted {
			c.Close(EvictedError, "removed from lobby")
		} else {
			c.Close(websocket.StatusNormalClosure, "")
		}
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, err)
	}
}

// readPump handles incoming messages until the connection or ctx ends. The
// returned error is nil on a normal close.
func readPump(ctx context.Context, c *websocket.Conn, client *wsClient, registry *lobby.Registry, logger *logrus.Logger, cookieToken string) error {
	log := logger.WithField("session", client.sessionID)
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			log.Warnf("received non-text message type %d, ignoring", typ)
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warnf("invalid json: %v", err)
			client.WriteError("Invalid JSON format")
			continue
		}
		handleMessage(ctx, msg, client, registry, log, cookieToken)
	}
}

func handleMessage(ctx context.Context, msg ClientMessage, client *wsClient, registry *lobby.Registry, log *logrus.Entry, cookieToken string) {
	sessionID := client.sessionID
	switch msg.Type {
	case "join_lobby":
		token := msg.Token
		if token == "" {
			token = cookieToken
		}
		ok := registry.Join(ctx, lobby.JoinRequest{
			Token:     token,
			Code:      msg.Code,
			Guest:     msg.Guest,
			GuestName: msg.GuestName,
		}, sessionID, client)
		_ = client.Write(map[string]interface{}{"type": "join_result", "ok": ok, "sessionId": sessionID})

	case "leave_lobby":
		registry.Remove(sessionID)

	case "chat":
		registry.SendChat(sessionID, msg.Text)

	case "start_match":
		settings := match.DefaultSettings()
		if msg.Settings != nil {
			settings = *msg.Settings
		}
		ok := registry.TryStartMatch(sessionID, settings)
		_ = client.Write(map[string]interface{}{"type": "start_result", "ok": ok})

	case "flip_card":
		if msg.Index == nil {
			return
		}
		registry.Flip(sessionID, *msg.Index)

	default:
		log.Debugf("unknown message type %q", msg.Type)
		client.WriteError("Unknown message type")
	}
}

// writePump drains the client's out channel onto the socket and pings
// periodically. It cancels the connection context when it stops.
func writePump(ctx context.Context, c *websocket.Conn, client *wsClient, logger *logrus.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer client.cancel()

	log := logger.WithField("session", client.sessionID)
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-client.out:
			data, err := json.Marshal(msg)
			if err != nil {
				log.Warnf("failed to marshal outgoing msg: %v", err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				log.Warnf("failed to write to websocket: %v", err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				log.Warnf("ping failed: %v", err)
				return
			}
		}
	}
}
