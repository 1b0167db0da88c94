package spectate

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const htmlCSP = "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; connect-src 'self'; frame-ancestors 'none'; base-uri 'none'"

// Server serves the spectator page, the state endpoint and the websocket.
type Server struct {
	hub    *Hub
	tmpl   *template.Template
	logger *slog.Logger

	srvMu sync.Mutex
	srv   *http.Server
}

func NewServer(hub *Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	t := template.Must(template.New("index").Funcs(template.FuncMap{
		"tile": tileLabel,
	}).Parse(indexHTML))
	return &Server{hub: hub, tmpl: t, logger: logger}
}

// Listen serves on addr until Close is called.
func (s *Server) Listen(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	s.srvMu.Lock()
	s.srv = srv
	s.srvMu.Unlock()
	defer func() {
		s.srvMu.Lock()
		s.srv = nil
		s.srvMu.Unlock()
	}()

	s.logger.Info("spectator listening", "addr", addr)
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close shuts the server down gracefully.
func (s *Server) Close(ctx context.Context) error {
	s.srvMu.Lock()
	srv := s.srv
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/app.js", s.handleScript)
	r.HandleFunc("/state", s.handleState)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWS(s.hub, w, r)
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Security-Policy", htmlCSP)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, s.hub.Latest()); err != nil {
		s.logger.Error("template exec", "error", err, "request_id", middleware.GetReqID(r.Context()))
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	_, _ = w.Write([]byte(appJS))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "method not allowed"})
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s.hub.Latest())
}

func tileLabel(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

const indexHTML = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>2048 spectator</title>
<style>
body { font-family: sans-serif; background: #faf8ef; color: #776e65; }
table { border-spacing: 6px; background: #bbada0; border-radius: 6px; }
td.tile { width: 64px; height: 64px; text-align: center; font-weight: bold; background: #cdc1b4; border-radius: 4px; }
#over { color: #f65e3b; font-weight: bold; }
</style>
</head>
<body>
<h1>2048</h1>
<p>Score: <span id="score">{{.Score}}</span> Moves: <span id="moves">{{.Moves}}</span> Best: <span id="best">{{.HighestTile}}</span></p>
<table id="board">
{{- range .Cells}}
<tr>{{range .}}<td class="tile" data-value="{{.}}">{{tile .}}</td>{{end}}</tr>
{{- end}}
</table>
<ul id="hints">
{{- range .Hints}}
<li data-direction="{{.Direction}}">{{.Direction}}: {{printf "%.1f" .Score}}</li>
{{- end}}
</ul>
<p id="message">{{.Message}}</p>
<p id="over"{{if not .Over}} hidden{{end}}>Game over</p>
<script src="/app.js"></script>
</body>
</html>
`

const appJS = `(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws");
  ws.onmessage = function (ev) {
    var msg = JSON.parse(ev.data);
    if (msg.type !== "state") return;
    var st = msg.payload;
    document.getElementById("score").textContent = st.score;
    document.getElementById("moves").textContent = st.moves;
    document.getElementById("best").textContent = st.highest_tile;
    document.getElementById("message").textContent = st.message || "";
    document.getElementById("over").hidden = !st.over;
    var board = document.getElementById("board");
    board.innerHTML = "";
    (st.cells || []).forEach(function (row) {
      var tr = document.createElement("tr");
      row.forEach(function (v) {
        var td = document.createElement("td");
        td.className = "tile";
        td.dataset.value = v;
        td.textContent = v ? v : "";
        tr.appendChild(td);
      });
      board.appendChild(tr);
    });
    var hints = document.getElementById("hints");
    hints.innerHTML = "";
    (st.hints || []).forEach(function (h) {
      var li = document.createElement("li");
      li.dataset.direction = h.direction;
      li.textContent = h.direction + ": " + h.score.toFixed(1);
      hints.appendChild(li);
    });
  };
})();
`
