package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"schotter/controller"
	"schotter/metrics"
	"schotter/render"
	"schotter/server/fastview"
	"schotter/server/root_view"
	"schotter/server/stone_views"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const shutdownGracePeriod = 5 * time.Second

// ErrClientConnected is returned to a second control panel while one is already connected.
var ErrClientConnected = errors.New("a control panel is already connected")

// Server serves a single page, to a single client, over a single websocket.
// The page's ele-update channel can be listened to by only one client, so a second
// websocket is refused rather than splitting updates between the two.
type Server struct {
	addr      string
	ctl       *controller.Controller
	style     render.Style
	metrics   *metrics.Registry
	rootView  *root_view.RootView
	router    *mux.Router
	connected atomic.Bool
}

// NewServer initializes all of the views and returns a server.
// The views consume the controller's updates until ctx is cancelled.
func NewServer(
	ctx context.Context,
	addr string,
	ctl *controller.Controller,
	style render.Style,
	reg *metrics.Registry,
) (*Server, error) {
	rootView, err := root_view.NewRootView(ctx, ctl.Grid(), style, ctl.Updates())
	if err != nil {
		return nil, err
	}

	server := &Server{
		addr:     addr,
		ctl:      ctl,
		style:    style,
		metrics:  reg,
		rootView: rootView,
	}

	router := mux.NewRouter()
	router.HandleFunc("/", server.serveIndex).Methods(http.MethodGet)
	router.HandleFunc("/ws", server.serveWebsocket)
	router.HandleFunc("/frame.png", server.serveFrame).Methods(http.MethodGet)
	router.HandleFunc("/params", server.serveParams).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{})).Methods(http.MethodGet)
	server.router = router

	return server, nil
}

// Handler returns the server's routes, e.g. for httptest.
func (server *Server) Handler() http.Handler {
	return server.router
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (server *Server) Serve(ctx context.Context) (err error) {
	srv := &http.Server{
		Addr:              server.addr,
		Handler:           server.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", server.addr).Msg("serving control panel")
	if err = srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	if err = <-shutdownErr; err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// serveWebsocket publishes view updates to the client and forwards its commands to the controller.
func (server *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	if !server.connected.CompareAndSwap(false, true) {
		http.Error(w, ErrClientConnected.Error(), http.StatusConflict)
		return
	}
	defer server.connected.Store(false)

	cli, err := fastview.NewClient(server.rootView.Updates(), server.onMessage(r.Context()), w, r)
	if err != nil {
		log.Warn().Err(err).Msg("websocket")
		return
	}
	defer server.metrics.ClientConnected()()
	log.Info().Str("remote", r.RemoteAddr).Msg("control panel connected")

	// The page was rendered from a snapshot; make sure the latest frame follows it down the socket.
	if err = server.ctl.Submit(r.Context(), controller.Command{Kind: controller.Refresh}); err != nil {
		return
	}

	if err = cli.Sync(); err != nil {
		log.Error().Err(err).Msg("websocket sync")
	}
	log.Info().Str("remote", r.RemoteAddr).Msg("control panel disconnected")
}

// onMessage decodes commands from the page and queues them for the controller.
func (server *Server) onMessage(ctx context.Context) func([]byte) error {
	return func(data []byte) error {
		cmd, err := controller.Decode(data)
		if err != nil {
			return err
		}
		return server.ctl.Submit(ctx, cmd)
	}
}

// Serve the index.html main page.
func (server *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	scene := stone_views.Convert(server.ctl.Snapshot())
	if err := renderTemplate(&buf, server.rootView, scene); err != nil {
		log.Error().Err(err).Msg("render index")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// serveFrame rasterizes the current gravel on demand.
func (server *Server) serveFrame(w http.ResponseWriter, r *http.Request) {
	frame := server.ctl.Snapshot()
	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, frame.Gravel, server.ctl.Grid(), server.style); err != nil {
		log.Error().Err(err).Msg("render frame")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Schotter-Seed", strconv.FormatUint(frame.Params.Seed, 10))
	_, _ = buf.WriteTo(w)
}

type paramsResponse struct {
	Seed         uint64  `json:"seed,string"`
	Displacement float64 `json:"displacement"`
	Rotation     float64 `json:"rotation"`
}

// serveParams reports the current parameters.
func (server *Server) serveParams(w http.ResponseWriter, r *http.Request) {
	params := server.ctl.Params()
	var buf bytes.Buffer
	err := json.NewEncoder(&buf).Encode(paramsResponse{
		Seed:         params.Seed,
		Displacement: params.DisplacementAdjust,
		Rotation:     params.RotationAdjust,
	})
	if err != nil {
		log.Error().Err(err).Msg("encode params")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = buf.WriteTo(w)
}

func renderTemplate(
	w io.Writer,
	vc fastview.ViewComponent,
	data interface{},
) (err error) {
	t := template.New("index.html")
	var tname string
	if tname, err = vc.Parse(t); err != nil {
		return
	}
	if _, err = t.Parse(`{{ template "` + tname + `" . }}`); err != nil {
		return
	}

	err = t.Execute(w, data)
	return
}
