package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/EgorLis/musicbot/internal/audio"
	"github.com/EgorLis/musicbot/internal/bot"
	"github.com/EgorLis/musicbot/internal/buildinfo"
	"github.com/EgorLis/musicbot/internal/config"
	"github.com/EgorLis/musicbot/internal/history"
	"github.com/EgorLis/musicbot/internal/logger"
	"github.com/EgorLis/musicbot/internal/music"
	"github.com/EgorLis/musicbot/internal/statusfeed"
	"github.com/EgorLis/musicbot/internal/ytdlp"
)

func newRunCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and serve slash commands until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd.Context(), *envFile)
		},
	}
}

func runBot(ctx context.Context, envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	log, err := logger.Setup(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}
	log.Info("starting", "version", buildinfo.String())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []music.Option{
		music.WithLogger(log),
		music.WithIdleTimeout(cfg.IdleTimeout),
		music.WithPreview(cfg.QueuePreview),
	}

	if cfg.HistoryPath != "" {
		store, err := history.Open(cfg.HistoryPath, cfg.HistoryLimit)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, music.WithRecorder(store))
	}

	if cfg.StatusAddr != "" {
		hub := statusfeed.NewHub(log)
		opts = append(opts, music.WithPublisher(hub))
		go func() {
			if err := hub.ListenAndServe(ctx, cfg.StatusAddr); err != nil {
				log.Error("status feed stopped", "err", err)
			}
		}()
	}

	b, err := bot.New(cfg.Token, log)
	if err != nil {
		return err
	}
	b.SetCommandGuild(cfg.GuildID)

	resolver := ytdlp.NewResolver(cfg.YtdlpExecutable,
		ytdlp.WithTimeout(cfg.ResolveTimeout),
		ytdlp.WithCacheTTL(cfg.ResolveCacheTTL),
		ytdlp.WithLogger(log),
	)
	opener := audio.NewOpener(cfg.FFmpegExecutable,
		audio.WithBitrate(cfg.AudioBitrate),
		audio.WithLogger(log),
	)
	b.SetMusic(music.NewService(b.Connector(), resolver, opener, opts...))

	if err := b.Start(); err != nil {
		return err
	}
	defer b.Stop()

	log.Info("running, press Ctrl+C to stop")
	<-ctx.Done()
	log.Info("shutting down")
	return nil
}
