package music

import (
	"context"
	"time"
)

// VoiceConn is a live voice connection in one guild.
type VoiceConn interface {
	ChannelID() string
	Connected() bool
	Move(channelID string) error
	Disconnect() error
	Speaking(on bool) error
	// SendOpus blocks until the packet is accepted or ctx is done.
	SendOpus(ctx context.Context, packet []byte) error
}

type Connector interface {
	Connect(ctx context.Context, guildID, channelID string) (VoiceConn, error)
}

// Resolver turns a URL or search text into playable metadata.
type Resolver interface {
	Resolve(ctx context.Context, query string) (Metadata, error)
}

// PacketSource yields Opus packets until io.EOF.
type PacketSource interface {
	ReadPacket() ([]byte, error)
	Close() error
}

// SourceOpener starts decoding streamURL. Cancelling ctx must unblock
// ReadPacket on the returned source.
type SourceOpener interface {
	Open(ctx context.Context, streamURL string) (PacketSource, error)
}

type Recorder interface {
	Record(guildID string, t Track, at time.Time) error
	Recent(guildID string, n int) ([]Played, error)
}

// Publisher receives playback events. Publish must not block.
type Publisher interface {
	Publish(ev Event)
}

type EventKind string

const (
	EventQueued       EventKind = "queued"
	EventNowPlaying   EventKind = "now_playing"
	EventFinished     EventKind = "finished"
	EventStopped      EventKind = "stopped"
	EventDisconnected EventKind = "disconnected"
)

type Event struct {
	Kind    EventKind
	GuildID string
	Track   *Track
	At      time.Time
}
