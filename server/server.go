package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"nhooyr.io/websocket"

	"snek/world"
)

const subscriberBuffer = 64

type subscriber struct {
	messages chan []byte
	c        *websocket.Conn
	dropOnce sync.Once
}

// drop closes a viewer that cannot keep up. The close handshake runs on its
// own goroutine so the publisher never waits on it.
func (s *subscriber) drop() {
	s.dropOnce.Do(func() {
		go s.c.Close(websocket.StatusPolicyViolation, "viewer too slow")
	})
}

// Feed streams round snapshots to websocket viewers. Every snapshot is
// encoded once and handed to each subscriber without blocking the caller.
type Feed struct {
	subscribers map[*subscriber]struct{}
	latest      []byte
	mu          sync.RWMutex
	serveMux    http.ServeMux
	log         *slog.Logger
}

// NewFeed builds the feed. gatherer backs /metrics and may be nil.
func NewFeed(gatherer prometheus.Gatherer, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Feed{
		subscribers: make(map[*subscriber]struct{}),
		log:         logger,
	}

	f.serveMux.HandleFunc("/", f.onConnection)
	if gatherer != nil {
		f.serveMux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	f.serveMux.HandleFunc("/debug/pprof/", pprof.Index)
	f.serveMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	f.serveMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	f.serveMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	f.serveMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return f
}

func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.serveMux.ServeHTTP(w, r)
}

// Publish sends snap to every viewer. Viewers that fall behind are dropped.
func (f *Feed) Publish(snap world.Snapshot) {
	msg := snap.ToProto()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest = msg
	for sub := range f.subscribers {
		select {
		case sub.messages <- msg:
		default:
			sub.drop()
		}
	}
}

func (f *Feed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers)
}

func (f *Feed) addSubscriber(sub *subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribers[sub] = struct{}{}
	// Start a new viewer off with the board as it is now.
	if f.latest != nil {
		sub.messages <- f.latest
	}
}

func (f *Feed) removeSubscriber(sub *subscriber) {
	f.mu.Lock()
	delete(f.subscribers, sub)
	f.mu.Unlock()
}

func (f *Feed) onConnection(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		f.log.Warn("websocket accept failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "")

	err = f.handleConnection(r.Context(), c)
	if errors.Is(err, context.Canceled) || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
		f.log.Debug("viewer left", "remote", r.RemoteAddr)
		return
	}
	f.log.Info("viewer dropped", "remote", r.RemoteAddr, "error", err)
}

func (f *Feed) handleConnection(ctx context.Context, c *websocket.Conn) error {
	sub := &subscriber{
		messages: make(chan []byte, subscriberBuffer),
		c:        c,
	}
	f.addSubscriber(sub)
	defer f.removeSubscriber(sub)

	// Viewers only listen; this also handles their close frames.
	ctx = c.CloseRead(ctx)

	for {
		select {
		case msg := <-sub.messages:
			if err := c.Write(ctx, websocket.MessageBinary, msg); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Run serves the feed on address until ctx is done.
func Run(ctx context.Context, address string, feed *Feed) error {
	l, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	feed.log.Info("snapshot feed listening", "address", "http://"+l.Addr().String())
	s := &http.Server{
		Handler:           feed,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- s.Serve(l)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}
