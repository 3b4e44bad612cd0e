// Package stream publishes camera poses to renderers over gRPC and accepts
// their pick and realized-pose reports.
package stream

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/mapcam/internal/loop"
	"github.com/banshee-data/mapcam/internal/monitoring"
)

// Config holds configuration for the pose stream server.
type Config struct {
	// ListenAddr is the address to listen on (e.g., "localhost:50061")
	ListenAddr string

	// MaxClients is the maximum number of concurrent subscribers
	MaxClients int

	// ClientBuffer is the per-subscriber frame buffer
	ClientBuffer int

	// StatsInterval is how often throughput is logged
	StatsInterval time.Duration
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		ListenAddr:    "localhost:50061",
		MaxClients:    8,
		ClientBuffer:  8,
		StatsInterval: 10 * time.Second,
	}
}

// Publisher fans camera frames out to subscribed renderers.
type Publisher struct {
	config   Config
	server   *grpc.Server
	listener net.Listener

	frameChan chan *structpb.Struct
	clients   map[string]*subscriber
	clientsMu sync.RWMutex

	frameCount     atomic.Uint64
	clientCount    atomic.Int32
	droppedFrames  atomic.Uint64
	lastStatsTime  time.Time
	lastFrameCount uint64
	lastStatsMu    sync.Mutex

	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

type subscriber struct {
	id      string
	frameCh chan *structpb.Struct
}

// NewPublisher creates a publisher. Call Start or Serve to accept clients.
func NewPublisher(cfg Config) *Publisher {
	def := DefaultConfig()
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = def.MaxClients
	}
	if cfg.ClientBuffer <= 0 {
		cfg.ClientBuffer = def.ClientBuffer
	}
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = def.StatsInterval
	}
	return &Publisher{
		config:    cfg,
		frameChan: make(chan *structpb.Struct, 64),
		clients:   make(map[string]*subscriber),
		stopCh:    make(chan struct{}),
	}
}

// Start listens on the configured address and serves srv.
func (p *Publisher) Start(srv PoseStreamServer) error {
	lis, err := net.Listen("tcp", p.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", p.config.ListenAddr, err)
	}
	return p.Serve(lis, srv)
}

// Serve serves srv on an existing listener.
func (p *Publisher) Serve(lis net.Listener, srv PoseStreamServer) error {
	if !p.running.CompareAndSwap(false, true) {
		return fmt.Errorf("publisher already running")
	}
	p.listener = lis
	p.server = grpc.NewServer()
	RegisterPoseStreamServer(p.server, srv)

	p.wg.Add(1)
	go p.broadcastLoop()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		monitoring.Logf("[Stream] gRPC pose stream listening on %s", lis.Addr())
		if err := p.server.Serve(lis); err != nil && p.running.Load() {
			monitoring.Logf("[Stream] gRPC server error: %v", err)
		}
	}()
	return nil
}

// Stop gracefully stops the server and disconnects subscribers.
func (p *Publisher) Stop() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.stopCh)
	if p.server != nil {
		p.server.GracefulStop()
	}
	if p.listener != nil {
		p.listener.Close()
	}
	p.wg.Wait()
	monitoring.Logf("[Stream] gRPC pose stream stopped")
}

// Observe is a loop.Observer that publishes every state.
func (p *Publisher) Observe(st loop.State) {
	if !p.running.Load() || p.clientCount.Load() == 0 {
		return
	}
	frame, err := encodeState(st)
	if err != nil {
		monitoring.Logf("[Stream] %v", err)
		return
	}
	p.Publish(frame)
}

// Publish queues a frame for all subscribers. A full queue drops the frame.
func (p *Publisher) Publish(frame *structpb.Struct) {
	if !p.running.Load() || frame == nil {
		return
	}
	select {
	case p.frameChan <- frame:
		count := p.frameCount.Add(1)
		p.logPeriodicStats(count)
	default:
		dropped := p.droppedFrames.Add(1)
		monitoring.Debugf("[Stream] dropped frame, queue full (total dropped: %d)", dropped)
	}
}

func (p *Publisher) logPeriodicStats(frameCount uint64) {
	p.lastStatsMu.Lock()
	defer p.lastStatsMu.Unlock()

	now := time.Now()
	if p.lastStatsTime.IsZero() {
		p.lastStatsTime = now
		p.lastFrameCount = frameCount
		return
	}
	elapsed := now.Sub(p.lastStatsTime)
	if elapsed >= p.config.StatsInterval {
		frames := frameCount - p.lastFrameCount
		monitoring.Logf("[Stream] Stats: fps=%.1f frames=%d dropped=%d clients=%d",
			float64(frames)/elapsed.Seconds(), frames, p.droppedFrames.Load(), p.clientCount.Load())
		p.lastStatsTime = now
		p.lastFrameCount = frameCount
	}
}

func (p *Publisher) broadcastLoop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			return
		case frame := <-p.frameChan:
			p.clientsMu.RLock()
			for _, c := range p.clients {
				select {
				case c.frameCh <- frame:
				default:
					// Slow subscriber; it will catch up on the next frame.
					p.droppedFrames.Add(1)
				}
			}
			p.clientsMu.RUnlock()
		}
	}
}

// ErrTooManyClients is returned when MaxClients subscribers are connected.
var ErrTooManyClients = errors.New("too many subscribers")

func (p *Publisher) addClient() (*subscriber, error) {
	p.clientsMu.Lock()
	defer p.clientsMu.Unlock()
	if len(p.clients) >= p.config.MaxClients {
		return nil, ErrTooManyClients
	}
	c := &subscriber{
		id:      uuid.NewString(),
		frameCh: make(chan *structpb.Struct, p.config.ClientBuffer),
	}
	p.clients[c.id] = c
	n := p.clientCount.Add(1)
	monitoring.Logf("[Stream] client connected: %s (total: %d)", c.id, n)
	return c, nil
}

func (p *Publisher) removeClient(id string) {
	p.clientsMu.Lock()
	defer p.clientsMu.Unlock()
	if _, ok := p.clients[id]; !ok {
		return
	}
	delete(p.clients, id)
	n := p.clientCount.Add(-1)
	monitoring.Logf("[Stream] client disconnected: %s (remaining: %d)", id, n)
}

// Stats returns current publisher statistics.
func (p *Publisher) Stats() PublisherStats {
	return PublisherStats{
		FrameCount:    p.frameCount.Load(),
		ClientCount:   p.clientCount.Load(),
		DroppedFrames: p.droppedFrames.Load(),
		Running:       p.running.Load(),
	}
}

// PublisherStats contains publisher statistics.
type PublisherStats struct {
	FrameCount    uint64 `json:"frame_count"`
	ClientCount   int32  `json:"client_count"`
	DroppedFrames uint64 `json:"dropped_frames"`
	Running       bool   `json:"running"`
}

// Addr returns the listener address once serving.
func (p *Publisher) Addr() net.Addr {
	if p.listener == nil {
		return nil
	}
	return p.listener.Addr()
}
