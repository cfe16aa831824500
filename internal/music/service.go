package music

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	defaultIdleTimeout = 5 * time.Second
	defaultPreview     = 10
)

// Request carries who ran a command and where they are.
type Request struct {
	GuildID string
	UserID  string
	// VoiceChannelID is empty when the caller is not in a voice channel.
	VoiceChannelID   string
	VoiceChannelName string
}

// Service owns the players of every guild the bot serves.
type Service struct {
	connector Connector
	resolver  Resolver
	opener    SourceOpener
	recorder  Recorder
	publisher Publisher
	log       *slog.Logger

	idleTimeout time.Duration
	preview     int

	mu     sync.Mutex
	guilds map[string]*guild
}

type Option func(*Service)

// WithIdleTimeout sets how long the bot stays in voice with nothing to play.
// Zero disables the idle disconnect.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Service) { s.idleTimeout = d }
}

// WithPreview sets how many tracks /queue and /history list.
func WithPreview(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.preview = n
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func NewService(connector Connector, resolver Resolver, opener SourceOpener, opts ...Option) *Service {
	s := &Service{
		connector:   connector,
		resolver:    resolver,
		opener:      opener,
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		idleTimeout: defaultIdleTimeout,
		preview:     defaultPreview,
		guilds:      make(map[string]*guild),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("component", "music")
	return s
}

func (s *Service) guild(id string) *guild {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guilds[id]
	if !ok {
		g = &guild{id: id, svc: s, log: s.log.With("guild", id)}
		s.guilds[id] = g
	}
	return g
}

func (s *Service) Join(ctx context.Context, req Request) Reply {
	if req.VoiceChannelID == "" {
		return private(msgNotInVoice)
	}
	g := s.guild(req.GuildID)
	joined, err := g.ensureVoice(ctx, req.VoiceChannelID)
	if err != nil {
		g.log.Error("voice connect", "channel", req.VoiceChannelID, "err", err)
		return private(msgConnectFailed)
	}
	if joined {
		return private(fmt.Sprintf(msgJoined, req.VoiceChannelName))
	}
	return private(fmt.Sprintf(msgMoved, req.VoiceChannelName))
}

func (s *Service) Leave(_ context.Context, req Request) Reply {
	g := s.guild(req.GuildID)
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.connectedLocked() {
		return private(msgNotConnected)
	}
	g.stopIdleLocked()
	g.resetLocked()
	g.disconnectLocked()
	return private(msgLeft)
}

// Play resolves query, queues the result and starts playback when idle.
func (s *Service) Play(ctx context.Context, req Request, query string) Reply {
	if req.VoiceChannelID == "" {
		return private(msgNotInVoice)
	}
	g := s.guild(req.GuildID)

	if _, err := g.ensureVoice(ctx, req.VoiceChannelID); err != nil {
		g.log.Error("voice connect", "channel", req.VoiceChannelID, "err", err)
		return private(msgConnectFailed)
	}

	md, err := s.resolver.Resolve(ctx, query)
	if err != nil {
		g.log.Warn("resolve failed", "query", query, "err", err)
		return private(msgNotFound)
	}
	if md.StreamURL == "" {
		return private(msgNoStream)
	}
	track := NewTrack(md, req.UserID)

	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.connectedLocked() {
		return private(msgNotConnected)
	}
	g.queue.Push(track)
	s.publish(EventQueued, g.id, &track)

	if g.current == nil {
		g.startNextLocked()
		return public(fmt.Sprintf(msgNowPlaying, track.Title))
	}
	return public(fmt.Sprintf(msgQueued, track.Title))
}

func (s *Service) Skip(_ context.Context, req Request) Reply {
	g := s.guild(req.GuildID)
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.connectedLocked() {
		return private(msgNotConnected)
	}
	if g.current == nil {
		return private(msgNothingPlaying)
	}
	skipped := g.stopCurrentLocked()
	s.publish(EventFinished, g.id, skipped)
	g.startNextLocked()
	return private(msgSkipped)
}

func (s *Service) Pause(_ context.Context, req Request) Reply {
	g := s.guild(req.GuildID)
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.connectedLocked() {
		return private(msgNotConnected)
	}
	if g.current == nil || !g.current.Pause() {
		return private(msgNothingToPause)
	}
	return private(msgPaused)
}

func (s *Service) Resume(_ context.Context, req Request) Reply {
	g := s.guild(req.GuildID)
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.connectedLocked() {
		return private(msgNotConnected)
	}
	if g.current == nil || !g.current.Resume() {
		return private(msgNotPaused)
	}
	return private(msgResumed)
}

func (s *Service) Stop(_ context.Context, req Request) Reply {
	g := s.guild(req.GuildID)
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.connectedLocked() {
		return private(msgNotConnected)
	}
	g.resetLocked()
	s.publish(EventStopped, g.id, nil)
	g.stopIdleLocked()
	g.armIdleLocked()
	return private(msgStopped)
}

func (s *Service) NowPlaying(_ context.Context, req Request) Reply {
	g := s.guild(req.GuildID)
	g.mu.Lock()
	t := g.nowPlaying
	g.mu.Unlock()

	if t == nil {
		return private(msgNoCurrent)
	}
	dur := unknownDuration
	if t.HasDuration {
		dur = FormatDuration(t.Duration)
	}
	desc := fmt.Sprintf("**%s**\nDuration: `%s`", t.Title, dur)
	if t.WebpageURL != "" {
		desc += "\nLink: " + t.WebpageURL
	}
	return private(desc)
}

func (s *Service) Queue(_ context.Context, req Request) Reply {
	g := s.guild(req.GuildID)
	g.mu.Lock()
	next := g.queue.Head(s.preview)
	g.mu.Unlock()

	if len(next) == 0 {
		return private(msgQueueEmpty)
	}
	lines := make([]string, 0, len(next)+1)
	lines = append(lines, msgQueueHeader)
	for i, t := range next {
		lines = append(lines, fmt.Sprintf("`%02d.` **%s** (`%s`)", i+1, t.Title, clock(t.HasDuration, t.Duration)))
	}
	return private(strings.Join(lines, "\n"))
}

func (s *Service) History(_ context.Context, req Request) Reply {
	if s.recorder == nil {
		return private(msgHistoryOff)
	}
	played, err := s.recorder.Recent(req.GuildID, s.preview)
	if err != nil {
		s.log.Error("read history", "guild", req.GuildID, "err", err)
		return private(msgHistoryFailed)
	}
	if len(played) == 0 {
		return private(msgHistoryEmpty)
	}
	lines := make([]string, 0, len(played)+1)
	lines = append(lines, msgHistoryHeader)
	for i, p := range played {
		lines = append(lines, fmt.Sprintf("`%02d.` **%s** (`%s`) <t:%d:R>",
			i+1, p.Title, clock(p.HasDuration, p.Duration), p.PlayedAt.Unix()))
	}
	return private(strings.Join(lines, "\n"))
}

// Shutdown stops playback and leaves voice in every guild.
func (s *Service) Shutdown() {
	s.mu.Lock()
	guilds := make([]*guild, 0, len(s.guilds))
	for _, g := range s.guilds {
		guilds = append(guilds, g)
	}
	s.mu.Unlock()

	for _, g := range guilds {
		g.mu.Lock()
		g.stopIdleLocked()
		g.resetLocked()
		g.disconnectLocked()
		g.mu.Unlock()
	}
}

func (s *Service) record(guildID string, t Track) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(guildID, t, time.Now()); err != nil {
		s.log.Warn("record history", "guild", guildID, "err", err)
	}
}

func (s *Service) publish(kind EventKind, guildID string, t *Track) {
	if s.publisher == nil {
		return
	}
	var cp *Track
	if t != nil {
		c := *t
		cp = &c
	}
	s.publisher.Publish(Event{Kind: kind, GuildID: guildID, Track: cp, At: time.Now()})
}

// clock is the queue-style duration: unknown and zero both render as ??:??.
func clock(known bool, d time.Duration) string {
	if !known || d < time.Second {
		return unknownClock
	}
	return FormatDuration(d)
}
