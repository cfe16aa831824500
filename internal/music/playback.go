package music

import (
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// playback pumps one track's packets into a voice connection.
type playback struct {
	track  Track
	src    PacketSource
	conn   VoiceConn
	ctx    context.Context
	cancel context.CancelFunc

	// after is the previous playback's exited channel; nil for the first.
	after  <-chan struct{}
	exited chan struct{}

	mu      sync.Mutex
	paused  bool
	resumed chan struct{}
}

func newPlayback(ctx context.Context, cancel context.CancelFunc, track Track, src PacketSource, conn VoiceConn, prev *playback) *playback {
	p := &playback{
		track:  track,
		src:    src,
		conn:   conn,
		ctx:    ctx,
		cancel: cancel,
		exited: make(chan struct{}),
	}
	if prev != nil {
		p.after = prev.exited
	}
	return p
}

func (p *playback) Pause() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		return false
	}
	p.paused = true
	p.resumed = make(chan struct{})
	return true
}

func (p *playback) Resume() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused {
		return false
	}
	p.paused = false
	close(p.resumed)
	return true
}

func (p *playback) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Stop is safe to call more than once.
func (p *playback) Stop() {
	p.cancel()
}

// run blocks until the track ends, then reports once through done. It
// starts sending only after the previous playback has let go of the
// connection.
func (p *playback) run(done func(error)) {
	var err error
	if p.waitPrevious() {
		_ = p.conn.Speaking(true)
		err = p.pump()
		_ = p.conn.Speaking(false)
	}
	p.cancel()
	_ = p.src.Close()
	close(p.exited)
	done(err)
}

func (p *playback) waitPrevious() bool {
	if p.after == nil {
		return p.ctx.Err() == nil
	}
	select {
	case <-p.after:
		return p.ctx.Err() == nil
	case <-p.ctx.Done():
		return false
	}
}

func (p *playback) pump() error {
	for {
		if !p.waitResumed() {
			return nil
		}
		pkt, err := p.src.ReadPacket()
		if err != nil {
			if errors.Is(err, io.EOF) || p.ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "read packet")
		}
		if err := p.conn.SendOpus(p.ctx, pkt); err != nil {
			if p.ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "send packet")
		}
	}
}

// waitResumed returns false once the playback is stopped.
func (p *playback) waitResumed() bool {
	p.mu.Lock()
	if !p.paused {
		p.mu.Unlock()
		return p.ctx.Err() == nil
	}
	ch := p.resumed
	p.mu.Unlock()

	_ = p.conn.Speaking(false)
	select {
	case <-ch:
		_ = p.conn.Speaking(true)
		return true
	case <-p.ctx.Done():
		return false
	}
}
