package control

import (
	"context"
	"net/http"
	"sync"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
)

// Server listens for HTTP connections via fasthttp and dispatches them
// into the chi-backed Router via fasthttpadaptor (SPEC_FULL.md §11:
// "the HTTP listener the control and metrics packages mount onto").
// fasthttp itself appears in the pack only as an outbound client
// (BT-Bridge-openai-realtime/client.go); bridging it to a stdlib
// http.Handler via fasthttpadaptor is the standard composition for
// using it as a listener in front of router code written against
// net/http, which is how Router and chi are built here.
type Server struct {
	addr    string
	router  *Router
	logger  *zap.Logger
	fastSrv *fasthttp.Server
}

// NewServer builds a Server that listens on addr and serves router.
func NewServer(addr string, router *Router, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := fasthttpadaptor.NewFastHTTPHandler(http.HandlerFunc(router.ServeHTTP))
	return &Server{
		addr:   addr,
		router: router,
		logger: logger.Named("control"),
		fastSrv: &fasthttp.Server{
			Handler: handler,
			Name:    "aoipcore-control",
		},
	}
}

// Run starts the fasthttp listener and the router's websocket broadcast
// loop, blocking until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.router.Run(ctx)
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.fastSrv.ListenAndServe(s.addr)
	}()

	select {
	case <-ctx.Done():
		_ = s.fastSrv.Shutdown()
		wg.Wait()
		return nil
	case err := <-errCh:
		wg.Wait()
		return err
	}
}
