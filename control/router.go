// Package control implements the control-plane REST and websocket
// surface over the receiver and sender slot tables (spec §5's "control
// thread" role): add_reader/remove_reader/set_interfaces/add_writer/
// remove_writer plus read-only status, fronted by a chi router and
// pushed to observers over a websocket feed of netio.StatsHub
// snapshots (SPEC_FULL.md §11).
package control

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ravennakit-go/aoipcore/netio"
	"github.com/ravennakit-go/aoipcore/receiver"
	"github.com/ravennakit-go/aoipcore/sender"
)

// Params configures a Router.
type Params struct {
	Readers *receiver.Table
	Writers *sender.Table
	Stats   *netio.StatsHub
	Logger  *zap.Logger
}

// Router is the chi.Mux-backed HTTP handler for the control surface,
// including its embedded websocket stats feed.
type Router struct {
	mux  *chi.Mux
	feed *statsFeed
}

// NewRouter builds the full route tree. The returned Router implements
// http.Handler directly; Server wraps it behind a fasthttp listener.
func NewRouter(params Params) *Router {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("control")

	readers := &readerHandlers{readers: params.Readers}
	writers := &writerHandlers{writers: params.Writers}
	feed := newStatsFeed(params.Stats, logger)

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(correlationID)
	mux.Use(structuredLogger(logger))
	mux.Use(recoverer(logger))

	mux.Route("/v1", func(r chi.Router) {
		r.Route("/readers", func(r chi.Router) {
			r.Get("/", readers.list)
			r.Post("/", readers.add)
			r.Get("/{id}", readers.get)
			r.Delete("/{id}", readers.remove)
			r.Put("/{id}/interfaces", readers.setInterfaces)
		})
		r.Route("/writers", func(r chi.Router) {
			r.Get("/", writers.list)
			r.Post("/", writers.add)
			r.Get("/{id}", writers.get)
			r.Delete("/{id}", writers.remove)
		})
		r.Get("/stats/stream", feed.serveWS)
	})

	return &Router{mux: mux, feed: feed}
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) { rt.mux.ServeHTTP(w, r) }

// Run starts the stats feed's broadcast loop, blocking until ctx is
// canceled. Callers that don't want the websocket feed can skip calling
// this and only mount rt as an http.Handler.
func (rt *Router) Run(ctx context.Context) { rt.feed.run(ctx) }
