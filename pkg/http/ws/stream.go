package ws

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// NewUpgrader accepts same-host requests and the listed origins ("*" allows any).
func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(strings.TrimSpace(o), "/")] = struct{}{}
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if _, ok := allowed["*"]; ok {
				return true
			}
			if _, ok := allowed[origin]; ok {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && strings.EqualFold(u.Host, r.Host)
		},
	}
}

// StreamHandler upgrades the request and streams hub broadcasts to the client.
// Clients may send {"type":"ping"} and receive a pong; anything else is answered with an error frame.
func StreamHandler(hub *Hub, upgrader websocket.Upgrader, logger zerolog.Logger) http.HandlerFunc {
	logger = logger.With().Str("component", "ws_stream").Logger()
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		id := uuid.New()
		conn := NewConnection(raw, logger.With().Str("connection_id", id.String()).Logger())
		hub.Register(id, conn)
		defer hub.Unregister(id)

		go conn.WritePump()

		if hello, err := NewMessage(TypeHello, HelloPayload{ConnectionID: id.String()}); err == nil {
			_ = conn.Send(hello)
		}

		conn.ReadPump(func(msg Message) error {
			if msg.Type == TypePing {
				return conn.Send(Message{Type: TypePong, RequestID: msg.RequestID})
			}
			reply, err := NewMessage(TypeError, ErrorPayload{Code: "unsupported_message", Message: "stream is read-only"})
			if err != nil {
				return err
			}
			reply.RequestID = msg.RequestID
			return conn.Send(reply)
		})
	}
}
