package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newIRCServer levanta un endpoint websocket que registra los mensajes
// entrantes y expone la conexión del lado servidor.
func newIRCServer(t *testing.T) (*httptest.Server, chan string, chan *websocket.Conn) {
	t.Helper()
	received := make(chan string, 16)
	conns := make(chan *websocket.Conn, 4)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		conns <- conn
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- string(msg)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, received, conns
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readLine(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timeout esperando mensaje del cliente")
		return ""
	}
}

func TestGateway_ConnectSendsHandshake(t *testing.T) {
	srv, received, _ := newIRCServer(t)
	g := NewGateway(wsURL(srv))
	defer g.Close()

	require.NoError(t, g.Connect(context.Background(), 1, "Miner1", "secret-token"))

	assert.Equal(t, "CAP REQ :twitch.tv/tags twitch.tv/commands", readLine(t, received))
	assert.Equal(t, "PASS oauth:secret-token", readLine(t, received))
	assert.Equal(t, "NICK miner1", readLine(t, received))
}

func TestGateway_ConnectIsIdempotent(t *testing.T) {
	srv, received, _ := newIRCServer(t)
	g := NewGateway(wsURL(srv))
	defer g.Close()

	require.NoError(t, g.Connect(context.Background(), 1, "miner1", "tok"))
	for i := 0; i < 3; i++ {
		readLine(t, received)
	}

	// Segunda conexión de la misma cuenta: no-op, sin handshake nuevo.
	require.NoError(t, g.Connect(context.Background(), 1, "miner1", "tok"))
	select {
	case msg := <-received:
		t.Fatalf("handshake inesperado: %q", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestGateway_AnswersPing(t *testing.T) {
	srv, received, conns := newIRCServer(t)
	g := NewGateway(wsURL(srv))
	defer g.Close()

	require.NoError(t, g.Connect(context.Background(), 1, "miner1", "tok"))
	for i := 0; i < 3; i++ {
		readLine(t, received)
	}

	server := <-conns
	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte("PING :tmi.twitch.tv")))

	assert.Equal(t, "PONG :tmi.twitch.tv", readLine(t, received))
}

func TestGateway_EmitsBonusEvents(t *testing.T) {
	srv, received, conns := newIRCServer(t)
	g := NewGateway(wsURL(srv))
	defer g.Close()

	require.NoError(t, g.Connect(context.Background(), 1, "miner1", "tok"))
	for i := 0; i < 3; i++ {
		readLine(t, received)
	}

	server := <-conns
	line := "@custom-reward-id=abc123;color=#FFFFFF :user!user@user.tmi.twitch.tv PRIVMSG #rustoria :redeemed"
	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(line)))

	select {
	case ev := <-g.Events():
		assert.EqualValues(t, 1, ev.AccountID)
		assert.Equal(t, "rustoria", ev.Channel)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout esperando bonus event")
	}
}

func TestParseChannel(t *testing.T) {
	assert.Equal(t, "rustoria", parseChannel(":u!u@u PRIVMSG #rustoria :hello"))
	assert.Equal(t, "rustoria", parseChannel("PRIVMSG #rustoria"))
	assert.Empty(t, parseChannel("JOIN #rustoria"))
}

func TestGateway_DisconnectClosesSession(t *testing.T) {
	srv, received, _ := newIRCServer(t)
	g := NewGateway(wsURL(srv))
	defer g.Close()

	require.NoError(t, g.Connect(context.Background(), 1, "miner1", "tok"))
	for i := 0; i < 3; i++ {
		readLine(t, received)
	}

	g.Disconnect(1)

	// Tras desconectar se puede volver a conectar desde cero.
	require.NoError(t, g.Connect(context.Background(), 1, "miner1", "tok"))
	assert.Equal(t, "CAP REQ :twitch.tv/tags twitch.tv/commands", readLine(t, received))
}
