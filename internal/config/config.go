package config

import (
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var (
	ErrMissingToken = errors.New("DISCORD_TOKEN is not set in the environment or .env file")
	ErrInvalid      = errors.New("invalid config")
)

type Config struct {
	Token   string
	GuildID string

	FFmpegExecutable string
	YtdlpExecutable  string
	AudioBitrate     int

	IdleTimeout     time.Duration
	QueuePreview    int
	ResolveTimeout  time.Duration
	ResolveCacheTTL time.Duration

	HistoryPath  string
	HistoryLimit int

	StatusAddr string

	LogLevel  string
	LogFormat string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GUILD_ID", "")
	v.SetDefault("FFMPEG_EXECUTABLE", "ffmpeg")
	v.SetDefault("YTDLP_EXECUTABLE", "yt-dlp")
	v.SetDefault("AUDIO_BITRATE", 128)
	v.SetDefault("IDLE_TIMEOUT", "5s")
	v.SetDefault("QUEUE_PREVIEW", 10)
	v.SetDefault("RESOLVE_TIMEOUT", "30s")
	v.SetDefault("RESOLVE_CACHE_TTL", "30m")
	v.SetDefault("HISTORY_PATH", "data/history.db")
	v.SetDefault("HISTORY_LIMIT", 200)
	v.SetDefault("STATUS_ADDR", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// Load reads envFile (a dotenv file, optional) and then the environment,
// which takes precedence.
func Load(envFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, errors.Wrapf(err, "read %s", envFile)
		}
	}

	idle, err := duration(v, "IDLE_TIMEOUT")
	if err != nil {
		return Config{}, err
	}
	resolveTimeout, err := duration(v, "RESOLVE_TIMEOUT")
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := duration(v, "RESOLVE_CACHE_TTL")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Token:            strings.TrimSpace(v.GetString("DISCORD_TOKEN")),
		GuildID:          v.GetString("GUILD_ID"),
		FFmpegExecutable: v.GetString("FFMPEG_EXECUTABLE"),
		YtdlpExecutable:  v.GetString("YTDLP_EXECUTABLE"),
		AudioBitrate:     v.GetInt("AUDIO_BITRATE"),
		IdleTimeout:      idle,
		QueuePreview:     v.GetInt("QUEUE_PREVIEW"),
		ResolveTimeout:   resolveTimeout,
		ResolveCacheTTL:  cacheTTL,
		HistoryPath:      v.GetString("HISTORY_PATH"),
		HistoryLimit:     v.GetInt("HISTORY_LIMIT"),
		StatusAddr:       v.GetString("STATUS_ADDR"),
		LogLevel:         strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:        strings.ToLower(v.GetString("LOG_FORMAT")),
	}
	return cfg, cfg.Validate()
}

// duration reads key as a Go duration ("90s", "2m"). A bare number is
// seconds, so IDLE_TIMEOUT=5 means five seconds rather than five nanoseconds.
func duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalid, "%s %q is not a duration", key, raw)
	}
	return d, nil
}

func (c Config) Validate() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	switch {
	case c.AudioBitrate < 6 || c.AudioBitrate > 510:
		return errors.Wrapf(ErrInvalid, "AUDIO_BITRATE %d outside 6..510", c.AudioBitrate)
	case c.QueuePreview < 1:
		return errors.Wrapf(ErrInvalid, "QUEUE_PREVIEW must be positive, got %d", c.QueuePreview)
	case c.HistoryLimit < 1:
		return errors.Wrapf(ErrInvalid, "HISTORY_LIMIT must be positive, got %d", c.HistoryLimit)
	case c.IdleTimeout < 0 || c.ResolveTimeout <= 0 || c.ResolveCacheTTL < 0:
		return errors.Wrap(ErrInvalid, "durations must not be negative")
	case c.IdleTimeout > 0 && c.IdleTimeout < time.Second:
		return errors.Wrapf(ErrInvalid, "IDLE_TIMEOUT %s is below one second", c.IdleTimeout)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return errors.Wrapf(ErrInvalid, "LOG_FORMAT %q, want text or json", c.LogFormat)
	}
	return nil
}
