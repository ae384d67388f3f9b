package fanout

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/clearbid/tenderspace/internal/procurement/domain"
	"golang.org/x/net/websocket"
)

const maxDecodeErrorsPerConn = 5

type wsFrame struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

type wsErrorFrame struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// wsAuthorizer resolves a bearer token into a canonical actor.
type wsAuthorizer interface {
	Authenticate(ctx context.Context, token string) (domain.Actor, error)
}

// NewHandler creates fan-out routes with websocket auth disabled, for tests
// and offline paths.
func NewHandler(hub *Hub) http.Handler {
	return newHandler(hub, nil, false)
}

// NewHandlerWithAuthorizer creates fan-out routes with enforced websocket
// identity checks.
func NewHandlerWithAuthorizer(hub *Hub, authorizer wsAuthorizer) http.Handler {
	return newHandler(hub, authorizer, true)
}

func newHandler(hub *Hub, authorizer wsAuthorizer, requireAuth bool) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	wsHandler := websocket.Handler(func(conn *websocket.Conn) {
		handleWSConn(conn, hub)
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if requireAuth {
			if authorizer == nil {
				http.Error(w, "websocket auth is not configured", http.StatusServiceUnavailable)
				return
			}
			token := bearerTokenFromRequest(r)
			if token == "" {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}
			if _, err := authorizer.Authenticate(r.Context(), token); err != nil {
				log.Printf("fanout: websocket unauthorized: remote=%s err=%v", r.RemoteAddr, err)
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}
		}

		wsHandler.ServeHTTP(w, r)
	})

	return mux
}

func bearerTokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(header, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")); token != "" {
			return token
		}
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func handleWSConn(conn *websocket.Conn, hub *Hub) {
	defer func() {
		_ = conn.Close()
	}()

	decoder := json.NewDecoder(conn)
	sub := hub.NewSubscriber(conn)
	defer hub.Remove(sub)

	decodeErrors := 0
	for {
		var frame wsFrame
		if err := decoder.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			decodeErrors++
			_ = sub.writeJSON(wsErrorFrame{Error: "INVALID_ARGUMENT", Message: "invalid frame payload"})
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		topic := strings.TrimSpace(frame.Topic)
		switch strings.TrimSpace(frame.Action) {
		case "subscribe":
			if topic == "" {
				_ = sub.writeJSON(wsErrorFrame{Error: "INVALID_ARGUMENT", Message: "subscribe requires a topic"})
				continue
			}
			hub.Subscribe(sub, topic)
		case "unsubscribe":
			if topic == "" {
				_ = sub.writeJSON(wsErrorFrame{Error: "INVALID_ARGUMENT", Message: "unsubscribe requires a topic"})
				continue
			}
			hub.Unsubscribe(sub, topic)
		default:
			_ = sub.writeJSON(wsErrorFrame{Error: "INVALID_ARGUMENT", Message: "unknown frame action"})
		}
	}
}
