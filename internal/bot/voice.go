package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/EgorLis/musicbot/internal/music"
)

// a send that waits this long means the voice websocket is gone
const sendStall = 5 * time.Second

var ErrVoiceStalled = errors.New("voice connection stopped accepting audio")

type connector struct {
	session *discordgo.Session
}

func (c *connector) Connect(ctx context.Context, guildID, channelID string) (music.VoiceConn, error) {
	vc, err := joinContext(ctx, func() (*discordgo.VoiceConnection, error) {
		return c.session.ChannelVoiceJoin(guildID, channelID, false, true)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "join voice channel %s", channelID)
	}
	return &voiceConn{vc: vc}, nil
}

type joinResult struct {
	vc  *discordgo.VoiceConnection
	err error
}

// joinContext runs the blocking voice handshake and gives up when ctx ends.
// A handshake that completes after that is disconnected again.
func joinContext(ctx context.Context, join func() (*discordgo.VoiceConnection, error)) (*discordgo.VoiceConnection, error) {
	ch := make(chan joinResult, 1)
	go func() {
		vc, err := join()
		ch <- joinResult{vc: vc, err: err}
	}()

	select {
	case r := <-ch:
		return r.vc, r.err
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.err == nil && r.vc != nil {
				_ = r.vc.Disconnect()
			}
		}()
		return nil, ctx.Err()
	}
}

// voiceConn adapts discordgo's connection. discordgo paces OpusSend at
// 20ms per packet, so SendOpus blocking is the playback clock.
type voiceConn struct {
	vc *discordgo.VoiceConnection
}

func (v *voiceConn) ChannelID() string {
	v.vc.RLock()
	defer v.vc.RUnlock()
	return v.vc.ChannelID
}

func (v *voiceConn) Connected() bool {
	v.vc.RLock()
	defer v.vc.RUnlock()
	return v.vc.Ready
}

func (v *voiceConn) Move(channelID string) error {
	return v.vc.ChangeChannel(channelID, false, true)
}

func (v *voiceConn) Disconnect() error {
	return v.vc.Disconnect()
}

func (v *voiceConn) Speaking(on bool) error {
	return v.vc.Speaking(on)
}

func (v *voiceConn) SendOpus(ctx context.Context, packet []byte) error {
	t := time.NewTimer(sendStall)
	defer t.Stop()
	select {
	case v.vc.OpusSend <- packet:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return ErrVoiceStalled
	}
}
