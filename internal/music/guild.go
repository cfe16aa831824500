package music

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// guild is the per-guild player: queue, current track, voice connection.
type guild struct {
	id  string
	svc *Service
	log *slog.Logger

	// connectMu serializes voice handshakes. It is taken before mu, never after.
	connectMu sync.Mutex

	mu         sync.Mutex
	queue      Queue
	nowPlaying *Track
	conn       VoiceConn
	current    *playback
	// last is the most recently started playback, possibly still unwinding.
	last *playback
	idle *time.Timer
}

func (g *guild) connectedLocked() bool {
	return g.conn != nil && g.conn.Connected()
}

// ensureVoice connects to, or moves to, channelID and reports whether a new
// connection was made. The handshake runs without holding mu so other
// commands in the guild keep answering.
func (g *guild) ensureVoice(ctx context.Context, channelID string) (bool, error) {
	g.connectMu.Lock()
	defer g.connectMu.Unlock()

	g.mu.Lock()
	if g.connectedLocked() {
		defer g.mu.Unlock()
		if g.conn.ChannelID() == channelID {
			return false, nil
		}
		return false, g.conn.Move(channelID)
	}
	g.mu.Unlock()

	conn, err := g.svc.connector.Connect(ctx, g.id, channelID)
	if err != nil {
		return false, err
	}

	g.mu.Lock()
	g.conn = conn
	g.mu.Unlock()
	return true, nil
}

// startNextLocked plays the head of the queue. With an empty queue it arms
// the idle disconnect instead.
func (g *guild) startNextLocked() {
	g.stopIdleLocked()

	if !g.connectedLocked() {
		g.nowPlaying = nil
		g.queue.Clear()
		return
	}

	for {
		track, ok := g.queue.Pop()
		if !ok {
			g.nowPlaying = nil
			g.armIdleLocked()
			return
		}
		g.nowPlaying = &track

		ctx, cancel := context.WithCancel(context.Background())
		src, err := g.svc.opener.Open(ctx, track.StreamURL)
		if err != nil {
			cancel()
			g.log.Error("failed to open audio source", "track", track.Title, "err", err)
			continue
		}

		p := newPlayback(ctx, cancel, track, src, g.conn, g.last)
		g.current = p
		g.last = p
		go p.run(func(err error) { g.finished(p, err) })

		g.log.Info("now playing", "track", track.Title, "requester", track.RequesterID)
		g.svc.record(g.id, track)
		g.svc.publish(EventNowPlaying, g.id, &track)
		return
	}
}

// finished runs on the playback goroutine. Playbacks already stopped by a
// command were detached and are ignored here.
func (g *guild) finished(p *playback, err error) {
	if err != nil {
		g.log.Error("playback failed", "track", p.track.Title, "err", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current != p {
		return
	}
	g.current = nil
	g.svc.publish(EventFinished, g.id, &p.track)
	g.startNextLocked()
}

// stopCurrentLocked stops the current playback and detaches it, so the
// guild is idle as soon as this returns.
func (g *guild) stopCurrentLocked() *Track {
	p := g.current
	if p == nil {
		return nil
	}
	g.current = nil
	g.nowPlaying = nil
	p.Stop()
	return &p.track
}

func (g *guild) armIdleLocked() {
	if g.svc.idleTimeout <= 0 {
		return
	}
	conn := g.conn
	var t *time.Timer
	t = time.AfterFunc(g.svc.idleTimeout, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.idle != t || g.current != nil || g.queue.Len() > 0 || g.conn != conn {
			return
		}
		g.idle = nil
		g.log.Info("idle, leaving voice channel")
		g.disconnectLocked()
	})
	g.idle = t
}

func (g *guild) stopIdleLocked() {
	if g.idle != nil {
		g.idle.Stop()
		g.idle = nil
	}
}

func (g *guild) disconnectLocked() {
	if g.conn == nil {
		return
	}
	if err := g.conn.Disconnect(); err != nil {
		g.log.Warn("voice disconnect", "err", err)
	}
	g.conn = nil
	g.svc.publish(EventDisconnected, g.id, nil)
}

// resetLocked drops the queue and stops whatever is playing.
func (g *guild) resetLocked() {
	g.queue.Clear()
	g.nowPlaying = nil
	g.stopCurrentLocked()
}
