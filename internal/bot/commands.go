package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/EgorLis/musicbot/internal/music"
)

const (
	msgGuildOnly = "Commands only work inside a server."
	zezeGreeting = "Hello zeze, how are you my friend? good morning"
)

type handler func(ctx context.Context, svc *music.Service, req music.Request, data discordgo.ApplicationCommandInteractionData) music.Reply

type command struct {
	name        string
	description string
	options     []*discordgo.ApplicationCommandOption
	// ephemeral defers the interaction privately; /play answers in public
	ephemeral bool
	handle    handler
}

// simple adapts a service method that only needs the caller.
func simple(fn func(*music.Service, context.Context, music.Request) music.Reply) handler {
	return func(ctx context.Context, svc *music.Service, req music.Request, _ discordgo.ApplicationCommandInteractionData) music.Reply {
		return fn(svc, ctx, req)
	}
}

var commands = []command{
	{
		name:        "join",
		description: "Join your voice channel.",
		ephemeral:   true,
		handle:      simple((*music.Service).Join),
	},
	{
		name:        "leave",
		description: "Leave the voice channel and clear the queue.",
		ephemeral:   true,
		handle:      simple((*music.Service).Leave),
	},
	{
		name:        "play",
		description: "Play a track or add it to the queue.",
		options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "query",
			Description: "Link or track name",
			Required:    true,
		}},
		handle: func(ctx context.Context, svc *music.Service, req music.Request, data discordgo.ApplicationCommandInteractionData) music.Reply {
			return svc.Play(ctx, req, optionString(data, "query"))
		},
	},
	{
		name:        "skip",
		description: "Skip the current track.",
		ephemeral:   true,
		handle:      simple((*music.Service).Skip),
	},
	{
		name:        "pause",
		description: "Pause the current track.",
		ephemeral:   true,
		handle:      simple((*music.Service).Pause),
	},
	{
		name:        "resume",
		description: "Resume the paused track.",
		ephemeral:   true,
		handle:      simple((*music.Service).Resume),
	},
	{
		name:        "stop",
		description: "Stop playback and clear the queue.",
		ephemeral:   true,
		handle:      simple((*music.Service).Stop),
	},
	{
		name:        "nowplaying",
		description: "Show the track that is playing now.",
		ephemeral:   true,
		handle:      simple((*music.Service).NowPlaying),
	},
	{
		name:        "queue",
		description: "Show the upcoming tracks.",
		ephemeral:   true,
		handle:      simple((*music.Service).Queue),
	},
	{
		name:        "history",
		description: "Show recently played tracks.",
		ephemeral:   true,
		handle:      simple((*music.Service).History),
	},
	{
		name:        "zeze",
		description: "?",
		ephemeral:   true,
		handle: func(context.Context, *music.Service, music.Request, discordgo.ApplicationCommandInteractionData) music.Reply {
			return music.Reply{Content: zezeGreeting, Ephemeral: true}
		},
	},
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// Definitions is the slash command set registered on ready.
func Definitions() []*discordgo.ApplicationCommand {
	out := make([]*discordgo.ApplicationCommand, 0, len(commands))
	for _, c := range commands {
		out = append(out, &discordgo.ApplicationCommand{
			Name:        c.name,
			Description: c.description,
			Options:     c.options,
		})
	}
	return out
}

type CommandInfo struct {
	Name        string
	Description string
	Public      bool
}

func CommandTable() []CommandInfo {
	out := make([]CommandInfo, 0, len(commands))
	for _, c := range commands {
		out = append(out, CommandInfo{Name: c.name, Description: c.description, Public: !c.ephemeral})
	}
	return out
}

func optionString(data discordgo.ApplicationCommandInteractionData, name string) string {
	for _, o := range data.Options {
		if o.Name == name && o.Type == discordgo.ApplicationCommandOptionString {
			return o.StringValue()
		}
	}
	return ""
}
