package ytdlp

import (
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/EgorLis/musicbot/internal/music"
)

const untitled = "Untitled"

var (
	ErrInvalidOutput = errors.New("yt-dlp: output is not valid JSON")
	ErrNoResults     = errors.New("yt-dlp: search returned no results")
)

// ParseInfo reads the JSON document printed by --dump-single-json. Search
// results arrive as a playlist; the first entry wins.
func ParseInfo(data []byte) (music.Metadata, error) {
	if !gjson.ValidBytes(data) {
		return music.Metadata{}, ErrInvalidOutput
	}
	info := gjson.ParseBytes(data)
	if entries := info.Get("entries"); entries.Exists() {
		info = entries.Get("0")
		if !info.IsObject() {
			return music.Metadata{}, ErrNoResults
		}
	}

	md := music.Metadata{
		Title:      info.Get("title").String(),
		StreamURL:  info.Get("url").String(),
		WebpageURL: info.Get("webpage_url").String(),
	}
	if md.Title == "" {
		md.Title = untitled
	}
	if md.WebpageURL == "" {
		md.WebpageURL = info.Get("original_url").String()
	}
	if d := info.Get("duration"); d.Type == gjson.Number {
		md.Duration = time.Duration(d.Int()) * time.Second
		md.HasDuration = true
	}
	return md, nil
}
