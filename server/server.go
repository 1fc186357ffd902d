// Package server serves a live view of a running CA model: a single
// page with a websocket feed of cell-state frames, and a Prometheus
// metrics endpoint for the engine counters.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/lattica/ca"
)

var upgrader = websocket.Upgrader{}

const (
	// Time allowed to write a frame to the peer.
	writeWait = 1 * time.Second
	// Frames are throttled so a fast simulation cannot flood the page.
	minFramePeriod = 50 * time.Millisecond
)

// Frame is one snapshot pushed to the page.
type Frame struct {
	Time  float64 `json:"time"`
	Rows  int     `json:"rows"`
	Cols  int     `json:"cols"`
	Cells []int   `json:"cells"`
}

// Server watches one model through its transition hook and serves the
// view to a single client at a time.
type Server struct {
	addr       string
	model      *ca.Model
	rows, cols int

	frames    chan Frame
	lastFrame time.Time

	registry     *prometheus.Registry
	transitions  prometheus.Counter
	staleEvents  prometheus.Counter
	simTime      prometheus.Gauge
	lastStale    uint64
}

// New creates a server for the model and attaches its observer hook.
// rows and cols describe how to lay the cell-state array out on screen.
func New(addr string, model *ca.Model, rows, cols int) *Server {
	s := &Server{
		addr:   addr,
		model:  model,
		rows:   rows,
		cols:   cols,
		frames: make(chan Frame, 1),
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lattica_transitions_applied_total",
			Help: "Number of link transitions applied.",
		}),
		staleEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lattica_stale_events_discarded_total",
			Help: "Number of stale queue entries discarded on pop.",
		}),
		simTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lattica_sim_time_seconds",
			Help: "Current simulation clock.",
		}),
	}
	s.registry.MustRegister(s.transitions, s.staleEvents, s.simTime)
	model.AcceptHook(s)
	return s
}

// Func implements sim.Hook. It runs on the simulation goroutine, so it
// only updates counters and hands off a frame without blocking.
func (s *Server) Func(ctx sim.HookCtx) {
	if ctx.Pos != ca.HookPosTransitionApplied {
		return
	}
	info := ctx.Item.(ca.TransitionInfo)

	s.transitions.Inc()
	s.simTime.Set(float64(info.Time))
	if stale := s.model.StaleEventsDiscarded(); stale > s.lastStale {
		s.staleEvents.Add(float64(stale - s.lastStale))
		s.lastStale = stale
	}

	if time.Since(s.lastFrame) < minFramePeriod {
		return
	}
	s.lastFrame = time.Now()

	frame := Frame{
		Time:  float64(info.Time),
		Rows:  s.rows,
		Cols:  s.cols,
		Cells: s.model.CellStates(),
	}
	// Keep only the newest frame if the client is behind.
	select {
	case s.frames <- frame:
	default:
		select {
		case <-s.frames:
		default:
		}
		select {
		case s.frames <- frame:
		default:
		}
	}
}

// Serve blocks serving the page, the websocket, and the metrics
// endpoint.
func (s *Server) Serve() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveIndex)
	mux.HandleFunc("/ws", s.serveWebsocket)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	if err := http.ListenAndServe(s.addr, mux); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	return nil
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexPage)
}

func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Pump the initial state so the page renders before the first
	// transition.
	first := Frame{
		Time:  float64(s.model.CurrentTime()),
		Rows:  s.rows,
		Cols:  s.cols,
		Cells: s.model.CellStates(),
	}
	if err := s.writeFrame(conn, first); err != nil {
		return
	}

	for frame := range s.frames {
		if err := s.writeFrame(conn, frame); err != nil {
			return
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, frame Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

const indexPage = `<!DOCTYPE html>
<html>
<head><title>lattica</title></head>
<body style="background:#111;color:#ddd;font-family:monospace">
<div id="t"></div>
<canvas id="c" width="640" height="640"></canvas>
<script>
const palette = ["#2b6cb0", "#dd6b20", "#38a169", "#d53f8c", "#805ad5", "#718096"];
const canvas = document.getElementById("c");
const ctx = canvas.getContext("2d");
const ws = new WebSocket("ws://" + location.host + "/ws");
ws.onmessage = (msg) => {
  const f = JSON.parse(msg.data);
  document.getElementById("t").textContent = "t = " + f.time.toFixed(3);
  const w = canvas.width / f.cols, h = canvas.height / f.rows;
  for (let y = 0; y < f.rows; y++) {
    for (let x = 0; x < f.cols; x++) {
      ctx.fillStyle = palette[f.cells[y * f.cols + x] % palette.length];
      ctx.fillRect(x * w, canvas.height - (y + 1) * h, w - 1, h - 1);
    }
  }
};
</script>
</body>
</html>
`
