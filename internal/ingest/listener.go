package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync/atomic"
	"time"

	"github.com/jengzang/vehicle-tracker-go/internal/models"
	"github.com/jengzang/vehicle-tracker-go/internal/timeutil"
)

// SampleStore persists a normalized sample and assigns its id
type SampleStore interface {
	Insert(ctx context.Context, s *models.Sample) error
}

// Publisher receives every stored sample, typically the live coordinator
type Publisher interface {
	Publish(s models.Sample)
}

// Stats counts listener activity
type Stats struct {
	Packets  atomic.Int64
	Stored   atomic.Int64
	Rejected atomic.Int64
	Failed   atomic.Int64
}

// ListenerConfig configures a Listener
type ListenerConfig struct {
	Address     string // e.g. ":5000"
	RcvBuf      int
	LogInterval time.Duration
	Store       SampleStore
	Publisher   Publisher // optional
	Sockets     SocketFactory
	Clock       timeutil.Clock
	Verbose     bool // log every packet
}

// Listener receives telemetry datagrams, normalizes them and stores them.
// A packet that cannot be stored is logged and dropped; the listener keeps
// running until its context is cancelled.
type Listener struct {
	cfg   ListenerConfig
	stats Stats
	addr  atomic.Value // net.Addr once bound
}

// NewListener creates a listener, filling in defaults
func NewListener(cfg ListenerConfig) *Listener {
	if cfg.Sockets == nil {
		cfg.Sockets = NetSocketFactory{}
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.LogInterval == 0 {
		cfg.LogInterval = time.Minute
	}
	return &Listener{cfg: cfg}
}

// Stats returns the live counters
func (l *Listener) Stats() *Stats {
	return &l.stats
}

// Addr returns the bound address, or nil before Start has bound the socket
func (l *Listener) Addr() net.Addr {
	if a, ok := l.addr.Load().(net.Addr); ok {
		return a
	}
	return nil
}

// Start binds the socket and processes packets until ctx is done
func (l *Listener) Start(ctx context.Context) error {
	if l.cfg.Store == nil {
		return errors.New("udp listener: no sample store configured")
	}

	addr, err := net.ResolveUDPAddr("udp", l.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := l.cfg.Sockets.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP address: %w", err)
	}
	defer conn.Close()
	l.addr.Store(conn.LocalAddr())

	if l.cfg.RcvBuf > 0 {
		if err := conn.SetReadBuffer(l.cfg.RcvBuf); err != nil {
			log.Printf("[UDPListener] Warning: failed to set receive buffer to %d: %v", l.cfg.RcvBuf, err)
		}
	}

	log.Printf("[UDPListener] Listening on %s", conn.LocalAddr())

	go l.logStats(ctx)

	buffer := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			log.Print("[UDPListener] Stopping")
			return ctx.Err()
		default:
		}

		// short deadline so cancellation is noticed
		conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))

		n, from, err := conn.ReadFromUDP(buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			log.Printf("[UDPListener] Read error: %v", err)
			continue
		}

		source := "unknown"
		if from != nil {
			source = from.String()
		}
		if err := l.HandlePacket(ctx, source, buffer[:n]); err != nil {
			log.Printf("[UDPListener] Dropped packet from %s: %v", source, err)
		}
	}
}

// HandlePacket normalizes, stores and publishes one datagram
func (l *Listener) HandlePacket(ctx context.Context, source string, packet []byte) error {
	l.stats.Packets.Add(1)

	res, err := Parse(string(packet), l.cfg.Clock.Now())
	if err != nil {
		l.stats.Rejected.Add(1)
		return err
	}
	if l.cfg.Verbose {
		logPacket(source, res)
	}

	sample := res.Sample
	if err := l.cfg.Store.Insert(ctx, &sample); err != nil {
		l.stats.Failed.Add(1)
		return fmt.Errorf("store sample: %w", err)
	}
	l.stats.Stored.Add(1)

	if l.cfg.Publisher != nil {
		l.cfg.Publisher.Publish(sample)
	}
	return nil
}

func (l *Listener) logStats(ctx context.Context) {
	ticker := l.cfg.Clock.NewTicker(l.cfg.LogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			log.Printf("[UDPListener] packets=%d stored=%d rejected=%d failed=%d",
				l.stats.Packets.Load(), l.stats.Stored.Load(),
				l.stats.Rejected.Load(), l.stats.Failed.Load())
		}
	}
}
