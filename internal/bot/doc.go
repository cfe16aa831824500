// Package bot is the Discord side of musicbot: the gateway session, the slash
// command table and the voice connection adapter. All playback decisions live
// in package music; this package only translates.
//
// The bot:
//   - registers /join, /leave, /play, /skip, /pause, /resume, /stop,
//     /nowplaying, /queue, /history and /zeze when the gateway is ready;
//   - defers every interaction (privately, except /play) and answers with a
//     follow-up once the music service has replied;
//   - looks up the caller's voice channel in the state cache, which needs the
//     GUILD_VOICE_STATES intent;
//   - joins voice deafened and feeds Opus packets to discordgo's sender.
//
// Lifecycle:
//   - New(token, log), then pass Connector() to music.NewService.
//   - SetMusic(svc), optionally SetCommandGuild(id).
//   - Start() opens the gateway; Stop() leaves voice everywhere and closes it.
//
// Example:
//
//	b, err := bot.New(cfg.Token, log)
//	if err != nil { log.Error(...) }
//	svc := music.NewService(b.Connector(), resolver, opener)
//	b.SetMusic(svc)
//
//	if err := b.Start(); err != nil { ... }
//	defer b.Stop()
package bot
