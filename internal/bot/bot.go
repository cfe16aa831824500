package bot

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"

	"github.com/EgorLis/musicbot/internal/music"
)

// interactions must be answered within Discord's token lifetime
const interactionTimeout = 2 * time.Minute

type MusicBot struct {
	session *discordgo.Session
	music   *music.Service
	log     *slog.Logger

	commandGuild string

	stopCh chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func New(token string, l *slog.Logger) (*MusicBot, error) {
	if token == "" {
		return nil, errors.New("empty bot token")
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, errors.Wrap(err, "discord session")
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates
	s.StateEnabled = true

	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	b := &MusicBot{session: s, log: l.With("component", "discord")}
	s.AddHandler(b.onReady)
	s.AddHandler(b.onInteraction)
	return b, nil
}

// Connector joins voice channels through this bot's session.
func (b *MusicBot) Connector() music.Connector {
	return &connector{session: b.session}
}

func (b *MusicBot) SetMusic(svc *music.Service) {
	b.music = svc
}

// SetCommandGuild registers slash commands in one guild instead of globally.
// Guild commands update instantly, which is what you want while developing.
func (b *MusicBot) SetCommandGuild(guildID string) {
	b.commandGuild = guildID
}

func (b *MusicBot) Start() error {
	if b.music == nil {
		return errors.New("music service is not set")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopCh != nil {
		return errors.New("already running")
	}
	if err := b.session.Open(); err != nil {
		return errors.Wrap(err, "open discord gateway")
	}
	stopCh := make(chan struct{})
	b.stopCh = stopCh

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		<-stopCh
		b.music.Shutdown()
		if err := b.session.Close(); err != nil {
			b.log.Warn("close discord session", "err", err)
		}
	}()
	return nil
}

// Stop leaves every voice channel and closes the gateway. Calling it again is a no-op.
func (b *MusicBot) Stop() {
	b.mu.Lock()
	ch := b.stopCh
	b.stopCh = nil
	b.mu.Unlock()

	if ch != nil {
		close(ch)
		b.wg.Wait()
	}
}

func (b *MusicBot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	cmds, err := s.ApplicationCommandBulkOverwrite(r.User.ID, b.commandGuild, Definitions())
	if err != nil {
		b.log.Error("sync application commands", "err", err)
	} else {
		b.log.Info("synced application commands", "count", len(cmds), "guild", b.commandGuild)
	}
	b.log.Info("logged in", "user", r.User.Username, "id", r.User.ID, "guilds", len(r.Guilds))
}

func (b *MusicBot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	cmd, ok := lookup(data.Name)
	if !ok {
		b.log.Warn("unknown command", "name", data.Name)
		return
	}
	log := b.log.With("command", data.Name, "guild", i.GuildID)

	if i.GuildID == "" {
		err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Content: msgGuildOnly, Flags: discordgo.MessageFlagsEphemeral},
		})
		if err != nil {
			log.Warn("respond", "err", err)
		}
		return
	}

	var flags discordgo.MessageFlags
	if cmd.ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags},
	})
	if err != nil {
		log.Error("defer interaction", "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()
	reply := cmd.handle(ctx, b.music, b.request(i), data)

	params := &discordgo.WebhookParams{Content: reply.Content}
	if reply.Ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
		// the first follow-up inherits the deferral's visibility
		if !cmd.ephemeral {
			if err := s.InteractionResponseDelete(i.Interaction); err != nil {
				log.Warn("delete deferred response", "err", err)
			}
		}
	}
	if _, err := s.FollowupMessageCreate(i.Interaction, true, params); err != nil {
		log.Error("send followup", "err", err)
	}
}

// request describes the caller, including the voice channel they sit in.
func (b *MusicBot) request(i *discordgo.InteractionCreate) music.Request {
	req := music.Request{GuildID: i.GuildID}
	switch {
	case i.Member != nil && i.Member.User != nil:
		req.UserID = i.Member.User.ID
	case i.User != nil:
		req.UserID = i.User.ID
	}
	if req.UserID == "" {
		return req
	}

	vs, err := b.session.State.VoiceState(i.GuildID, req.UserID)
	if err != nil || vs.ChannelID == "" {
		return req
	}
	req.VoiceChannelID = vs.ChannelID
	req.VoiceChannelName = b.channelName(vs.ChannelID)
	return req
}

func (b *MusicBot) channelName(id string) string {
	if ch, err := b.session.State.Channel(id); err == nil {
		return ch.Name
	}
	if ch, err := b.session.Channel(id); err == nil {
		return ch.Name
	}
	return id
}
