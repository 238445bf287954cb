package control

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ravennakit-go/aoipcore/netio"
	"github.com/ravennakit-go/aoipcore/receiver"
)

// broadcastInterval is the cadence at which statsFeed polls
// netio.StatsHub and pushes a snapshot to every connected observer.
const broadcastInterval = time.Second

// writeDeadline bounds each websocket write, same as the teacher's
// wsConn.writeJSON (websocket.go).
const writeDeadline = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 8192,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// feedConn wraps one observer's websocket with a write mutex, mirroring
// the teacher's wsConn (websocket.go): gorilla's Conn forbids concurrent
// writers. tick writes to observers one after another, so a slow
// observer delays the broadcast loop, and the observers after it, by up
// to writeDeadline.
type feedConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *feedConn) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return c.conn.WriteJSON(v)
}

// statsFeed maintains a cache of the last snapshot actually observed per
// reader ID and broadcasts it to every connected websocket client on
// each tick. The cache exists because netio.StatsHub.Get is a
// single-consumer triplebuffer read per reader: without it, statsFeed
// and metrics.Publisher polling the same hub would each silently starve
// the other's view to "nothing new since last Get".
type statsFeed struct {
	hub    *netio.StatsHub
	logger *zap.Logger

	mu      sync.Mutex
	clients map[*feedConn]struct{}
	cache   map[uint64]receiver.ReaderStatus
}

func newStatsFeed(hub *netio.StatsHub, logger *zap.Logger) *statsFeed {
	return &statsFeed{
		hub:     hub,
		logger:  logger.Named("stats-feed"),
		clients: make(map[*feedConn]struct{}),
		cache:   make(map[uint64]receiver.ReaderStatus),
	}
}

// serveWS upgrades the request to a websocket and registers the
// connection for the next broadcasts, until the client disconnects.
func (f *statsFeed) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	fc := &feedConn{conn: conn}
	f.addClient(fc)
	defer f.removeClient(fc)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (f *statsFeed) addClient(fc *feedConn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients[fc] = struct{}{}
}

func (f *statsFeed) removeClient(fc *feedConn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.clients, fc)
	_ = fc.conn.Close()
}

// run blocks, broadcasting on each tick until ctx is canceled.
func (f *statsFeed) run(ctx context.Context) {
	ticker := time.NewTicker(broadcastInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.tick()
		}
	}
}

func (f *statsFeed) tick() {
	for _, id := range f.hub.IDs() {
		if status, ok := f.hub.Get(id); ok {
			f.mu.Lock()
			f.cache[id] = status
			f.mu.Unlock()
		}
	}

	f.mu.Lock()
	snapshot := make([]readerStatusDTO, 0, len(f.cache))
	for _, status := range f.cache {
		snapshot = append(snapshot, newReaderStatusDTO(status))
	}
	clients := make([]*feedConn, 0, len(f.clients))
	for fc := range f.clients {
		clients = append(clients, fc)
	}
	f.mu.Unlock()

	for _, fc := range clients {
		if err := fc.writeJSON(snapshot); err != nil {
			f.removeClient(fc)
		}
	}
}
