package spectate

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/brensch/ttfe/game"
	"github.com/gorilla/websocket"
)

func testBoard(t *testing.T) *game.Board {
	t.Helper()
	b, err := game.FromCells([][]int{{2, 2}, {0, 2048}}, 1)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	return b
}

func newTestServer() (*Hub, *Server) {
	hub := NewHub()
	return hub, NewServer(hub, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

func TestHub_Notifier(t *testing.T) {
	hub := NewHub()
	b := testBoard(t)

	hub.UpdateScreen(b)
	st := hub.Latest()
	if st.Score != 0 || st.HighestTile != 2048 || len(st.Cells) != 2 || st.Cells[1][1] != 2048 || st.Over {
		t.Fatalf("state=%+v", st)
	}

	hub.ShowMessage(game.WinMessage)
	if hub.Latest().Message != game.WinMessage || hub.Latest().Cells[0][0] != 2 {
		t.Fatalf("message lost the board: %+v", hub.Latest())
	}

	if _, err := b.PerformMove(game.West); err != nil {
		t.Fatal(err)
	}
	hub.ShowGameOverScreen(b)
	st = hub.Latest()
	if !st.Over || st.Score != 4 || st.Cells[0][0] != 4 || st.Message != game.WinMessage {
		t.Fatalf("game over state=%+v", st)
	}
}

func TestHub_Hints(t *testing.T) {
	var seen [][]int
	hub := NewHub(WithHints(func(cells [][]int) []Hint {
		seen = cells
		return []Hint{{Direction: "west", Score: 12.5}}
	}))
	b := testBoard(t)
	hub.UpdateScreen(b)

	if len(seen) != 2 || seen[1][1] != 2048 {
		t.Fatalf("hint func saw %v", seen)
	}
	seen[0][0] = 999
	if b.At(0, 0) != 2 {
		t.Fatal("hint func received the live grid")
	}
	if h := hub.Latest().Hints; len(h) != 1 || h[0].Direction != "west" {
		t.Fatalf("hints=%v", h)
	}

	srv := NewServer(hub, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	doc, err := goquery.NewDocumentFromReader(rr.Body)
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	if got := doc.Find(`#hints li[data-direction="west"]`).Text(); got != "west: 12.5" {
		t.Fatalf("hint item=%q", got)
	}

	hub.ShowGameOverScreen(b)
	if hub.Latest().Hints != nil {
		t.Fatal("game over snapshot should carry no hints")
	}
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	hub := NewHub()
	for i := 0; i < 1000; i++ {
		hub.Publish(State{Score: i})
	}
	if hub.Latest().Score != 999 {
		t.Fatalf("latest=%d", hub.Latest().Score)
	}
}

func TestIndex_RendersBoard(t *testing.T) {
	hub, srv := newTestServer()
	hub.UpdateScreen(testBoard(t))
	hub.ShowMessage("hello")

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	doc, err := goquery.NewDocumentFromReader(rr.Body)
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}

	if got := doc.Find("#best").Text(); got != "2048" {
		t.Fatalf("best=%q", got)
	}
	if got := doc.Find("#message").Text(); got != "hello" {
		t.Fatalf("message=%q", got)
	}
	tiles := doc.Find("td.tile")
	if tiles.Length() != 4 {
		t.Fatalf("tiles=%d", tiles.Length())
	}
	var labels []string
	tiles.Each(func(_ int, s *goquery.Selection) {
		labels = append(labels, s.AttrOr("data-value", "?")+":"+s.Text())
	})
	if strings.Join(labels, ",") != "2:2,2:2,0:,2048:2048" {
		t.Fatalf("tiles=%v", labels)
	}
	if _, hidden := doc.Find("#over").Attr("hidden"); !hidden {
		t.Fatal("game over banner visible mid-game")
	}
	if doc.Find(`script[src="/app.js"]`).Length() != 1 {
		t.Fatal("missing script tag")
	}
}

func TestIndex_UnknownPath(t *testing.T) {
	_, srv := newTestServer()
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rr.Code)
	}

	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST / status=%d", rr.Code)
	}
}

func TestHealthz(t *testing.T) {
	_, srv := newTestServer()
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}
}

func TestState_JSON(t *testing.T) {
	hub, srv := newTestServer()
	hub.ShowGameOverScreen(testBoard(t))

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/state", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var st State
	if err := json.Unmarshal(rr.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !st.Over || st.HighestTile != 2048 {
		t.Fatalf("state=%+v", st)
	}

	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/state", strings.NewReader("{}")))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST status=%d", rr.Code)
	}
}

func readState(t *testing.T, conn *websocket.Conn) State {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "state" {
		t.Fatalf("type=%q", msg.Type)
	}
	var st State
	if err := json.Unmarshal(msg.Payload, &st); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return st
}

func TestWebsocket_StreamsUpdates(t *testing.T) {
	hub, srv := newTestServer()
	done := make(chan struct{})
	defer close(done)
	go hub.Run(done)

	hub.UpdateScreen(testBoard(t))

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if st := readState(t, conn); st.HighestTile != 2048 {
		t.Fatalf("initial state=%+v", st)
	}

	deadline := time.Now().Add(5 * time.Second)
	for hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	b := testBoard(t)
	if _, err := b.PerformMove(game.West); err != nil {
		t.Fatal(err)
	}
	hub.UpdateScreen(b)
	// The snapshot published before the viewer joined may still be queued.
	st := readState(t, conn)
	if st.Score == 0 {
		st = readState(t, conn)
	}
	if st.Score != 4 || st.Cells[0][0] != 4 {
		t.Fatalf("update state=%+v", st)
	}

	_ = conn.Close()
	deadline = time.Now().Add(5 * time.Second)
	for hub.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never unregistered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebsocket_HubStopClosesViewers(t *testing.T) {
	hub, srv := newTestServer()
	done := make(chan struct{})
	go hub.Run(done)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readState(t, conn)

	deadline := time.Now().Add(5 * time.Second)
	for hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	close(done)
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Fatalf("read after stop: %v, want going-away close", err)
	}
	if hub.Clients() != 0 {
		t.Fatalf("clients=%d after stop", hub.Clients())
	}

	// Late viewers are turned away too.
	late, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer late.Close()
	readState(t, late)
	_ = late.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := late.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Fatalf("late viewer read: %v", err)
	}
}
