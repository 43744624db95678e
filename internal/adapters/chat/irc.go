package chat

// irc.go — Twitch IRC over websocket.
//
// Implements ports.ChatGateway. One session per account; the read loop
// answers PING keepalives and turns point-bonus PRIVMSG lines into
// BonusEvent values consumed outside the farming core.

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const defaultIRCURL = "wss://irc-ws.chat.twitch.tv:443"

// BonusEvent is a point-bonus observed in an account's chat.
type BonusEvent struct {
	AccountID int64
	Channel   string
	Raw       string
	At        time.Time
}

// session is one live IRC connection.
type session struct {
	conn *websocket.Conn
	done chan struct{}
}

// Gateway owns every account's chat session. Sessions are created at
// connect time and torn down on Disconnect/Close; the registry is never
// exposed outside the gateway.
type Gateway struct {
	url      string
	mu       sync.Mutex
	sessions map[int64]*session
	events   chan BonusEvent
}

// NewGateway creates a Gateway dialing the given IRC websocket URL
// (production URL when empty).
func NewGateway(url string) *Gateway {
	if url == "" {
		url = defaultIRCURL
	}
	return &Gateway{
		url:      url,
		sessions: make(map[int64]*session),
		events:   make(chan BonusEvent, 64),
	}
}

// Events exposes the point-bonus stream. Events are dropped when the
// consumer falls behind; bonuses are best-effort by nature.
func (g *Gateway) Events() <-chan BonusEvent {
	return g.events
}

// Connect opens the account's chat session. Calling it again while the
// session is alive is a no-op.
func (g *Gateway) Connect(ctx context.Context, accountID int64, username, accessToken string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.sessions[accountID]; ok {
		return nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, g.url, nil)
	if err != nil {
		return fmt.Errorf("chat.Connect: dial %s: %w", g.url, err)
	}

	handshake := []string{
		"CAP REQ :twitch.tv/tags twitch.tv/commands",
		"PASS oauth:" + accessToken,
		"NICK " + strings.ToLower(username),
	}
	for _, line := range handshake {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			conn.Close()
			return fmt.Errorf("chat.Connect: handshake: %w", err)
		}
	}

	s := &session{conn: conn, done: make(chan struct{})}
	g.sessions[accountID] = s

	go g.readLoop(accountID, s)

	slog.Info("chat connected", "account", username)
	return nil
}

// Disconnect closes the account's session if one exists.
func (g *Gateway) Disconnect(accountID int64) {
	g.mu.Lock()
	s, ok := g.sessions[accountID]
	if ok {
		delete(g.sessions, accountID)
	}
	g.mu.Unlock()

	if ok {
		close(s.done)
		s.conn.Close()
		slog.Info("chat disconnected", "account_id", accountID)
	}
}

// Close tears down every open session.
func (g *Gateway) Close() {
	g.mu.Lock()
	sessions := g.sessions
	g.sessions = make(map[int64]*session)
	g.mu.Unlock()

	for _, s := range sessions {
		close(s.done)
		s.conn.Close()
	}
}

// readLoop consumes the connection until it drops or the session is closed.
func (g *Gateway) readLoop(accountID int64, s *session) {
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				slog.Warn("chat read failed, dropping session", "account_id", accountID, "err", err)
				g.Disconnect(accountID)
			}
			return
		}

		for _, line := range strings.Split(string(msg), "\r\n") {
			if line == "" {
				continue
			}
			g.handleLine(accountID, s, line)
		}
	}
}

func (g *Gateway) handleLine(accountID int64, s *session, line string) {
	if strings.HasPrefix(line, "PING") {
		pong := strings.Replace(line, "PING", "PONG", 1)
		_ = s.conn.WriteMessage(websocket.TextMessage, []byte(pong))
		return
	}

	if !strings.Contains(line, "PRIVMSG") {
		return
	}
	// Tags de bonus de puntos llegan como msg-id en el prefijo de tags.
	if !strings.Contains(line, "msg-id=highlighted-message") &&
		!strings.Contains(line, "custom-reward-id=") {
		return
	}

	channel := parseChannel(line)
	select {
	case g.events <- BonusEvent{
		AccountID: accountID,
		Channel:   channel,
		Raw:       line,
		At:        time.Now().UTC(),
	}:
	default:
		// Consumer lagging: drop.
	}
}

// parseChannel extracts the "#channel" target of a PRIVMSG line.
func parseChannel(line string) string {
	idx := strings.Index(line, "PRIVMSG #")
	if idx < 0 {
		return ""
	}
	rest := line[idx+len("PRIVMSG #"):]
	if sp := strings.IndexByte(rest, ' '); sp > 0 {
		return rest[:sp]
	}
	return rest
}
