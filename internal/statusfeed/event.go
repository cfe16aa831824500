package statusfeed

import (
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/EgorLis/musicbot/internal/music"
)

func eventStruct(ev music.Event) (*structpb.Struct, error) {
	fields := map[string]any{
		"kind":     string(ev.Kind),
		"guild_id": ev.GuildID,
		"at":       ev.At.UTC().Format(time.RFC3339Nano),
	}
	if t := ev.Track; t != nil {
		track := map[string]any{
			"id":           t.ID,
			"title":        t.Title,
			"webpage_url":  t.WebpageURL,
			"requester_id": t.RequesterID,
		}
		if t.HasDuration {
			track["duration_seconds"] = t.Duration.Seconds()
		}
		fields["track"] = track
	}
	return structpb.NewStruct(fields)
}

// frames holds one event encoded for both wire formats.
type frames struct {
	binary []byte
	text   []byte
}

func encode(ev music.Event) (frames, error) {
	s, err := eventStruct(ev)
	if err != nil {
		return frames{}, err
	}
	bin, err := proto.Marshal(s)
	if err != nil {
		return frames{}, err
	}
	txt, err := protojson.Marshal(s)
	if err != nil {
		return frames{}, err
	}
	return frames{binary: bin, text: txt}, nil
}
