package music

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type fakeConn struct {
	mu        sync.Mutex
	channel   string
	connected bool
	moves     []string
	sent      atomic.Int64
}

func (c *fakeConn) ChannelID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel
}

func (c *fakeConn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeConn) Move(channelID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channel = channelID
	c.moves = append(c.moves, channelID)
	return nil
}

func (c *fakeConn) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	return nil
}

func (c *fakeConn) Speaking(bool) error { return nil }

func (c *fakeConn) SendOpus(ctx context.Context, _ []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sent.Add(1)
	return nil
}

type fakeConnector struct {
	mu    sync.Mutex
	conns []*fakeConn
	fail  error
	// gate, when set, holds every Connect until it is closed or ctx ends.
	gate chan struct{}
}

func (f *fakeConnector) Connect(ctx context.Context, _, channelID string) (VoiceConn, error) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	c := &fakeConn{channel: channelID, connected: true}
	f.conns = append(f.conns, c)
	return c, nil
}

func (f *fakeConnector) last() *fakeConn {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.conns) == 0 {
		return nil
	}
	return f.conns[len(f.conns)-1]
}

func (f *fakeConnector) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.conns)
}

// fakeResolver maps a query to a title; the stream URL is the query itself.
type fakeResolver struct {
	tracks map[string]Metadata
}

func (r *fakeResolver) Resolve(_ context.Context, query string) (Metadata, error) {
	md, ok := r.tracks[query]
	if !ok {
		return Metadata{}, errors.New("no results")
	}
	return md, nil
}

// fakeOpener serves sources by stream URL prefix:
// "bad:" fails to open, "short:" ends after a few packets, anything else
// plays until cancelled.
type fakeOpener struct {
	mu     sync.Mutex
	opened []string
}

func (o *fakeOpener) Open(ctx context.Context, streamURL string) (PacketSource, error) {
	o.mu.Lock()
	o.opened = append(o.opened, streamURL)
	o.mu.Unlock()

	if strings.HasPrefix(streamURL, "bad:") {
		return nil, errors.New("ffmpeg exploded")
	}
	src := &fakeSource{ctx: ctx, endless: !strings.HasPrefix(streamURL, "short:")}
	if !src.endless {
		src.left = 3
	}
	return src, nil
}

func (o *fakeOpener) urls() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.opened...)
}

// heldSource ignores cancellation: ReadPacket blocks until release is closed.
// reading is closed once the first read has started.
type heldSource struct {
	release chan struct{}
	reading chan struct{}
	once    sync.Once
}

func (s *heldSource) ReadPacket() ([]byte, error) {
	s.once.Do(func() { close(s.reading) })
	<-s.release
	return nil, io.EOF
}

func (s *heldSource) Close() error { return nil }

type fakeSource struct {
	ctx     context.Context
	endless bool
	left    int
	closed  atomic.Bool
}

func (s *fakeSource) ReadPacket() ([]byte, error) {
	if s.endless {
		select {
		case <-s.ctx.Done():
			return nil, s.ctx.Err()
		case <-time.After(2 * time.Millisecond):
			return []byte{0xfc, 0xff, 0xfe}, nil
		}
	}
	if s.left == 0 {
		return nil, io.EOF
	}
	s.left--
	return []byte{0xfc}, nil
}

func (s *fakeSource) Close() error {
	s.closed.Store(true)
	return nil
}

type fakeRecorder struct {
	mu     sync.Mutex
	played map[string][]Played
}

func (r *fakeRecorder) Record(guildID string, t Track, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.played == nil {
		r.played = map[string][]Played{}
	}
	r.played[guildID] = append([]Played{{Title: t.Title, Duration: t.Duration, HasDuration: t.HasDuration, PlayedAt: at}}, r.played[guildID]...)
	return nil
}

func (r *fakeRecorder) Recent(guildID string, n int) ([]Played, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.played[guildID]
	if len(p) > n {
		p = p[:n]
	}
	return p, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *fakePublisher) Publish(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *fakePublisher) kinds() []EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EventKind, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}
