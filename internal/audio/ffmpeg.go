package audio

import (
	"context"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/EgorLis/musicbot/internal/music"
)

const (
	defaultExecutable = "ffmpeg"
	defaultBitrate    = 128
	stderrTail        = 4 << 10
)

// reconnect on dropped HTTP streams; remote media URLs tend to time out
var inputOptions = []string{
	"-reconnect", "1",
	"-reconnect_streamed", "1",
	"-reconnect_delay_max", "5",
}

// Opener starts one FFmpeg process per track and exposes its output as
// Opus packets.
type Opener struct {
	executable string
	bitrate    int
	log        *slog.Logger
}

var _ music.SourceOpener = (*Opener)(nil)

type Option func(*Opener)

// WithBitrate sets the Opus bitrate in kbit/s.
func WithBitrate(kbps int) Option {
	return func(o *Opener) {
		if kbps > 0 {
			o.bitrate = kbps
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Opener) {
		if l != nil {
			o.log = l
		}
	}
}

func NewOpener(executable string, opts ...Option) *Opener {
	if executable == "" {
		executable = defaultExecutable
	}
	o := &Opener{
		executable: executable,
		bitrate:    defaultBitrate,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.With("component", "ffmpeg")
	return o
}

// Args is the FFmpeg command line for streamURL: 48 kHz stereo Opus in Ogg on stdout.
func (o *Opener) Args(streamURL string) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin"}
	args = append(args, inputOptions...)
	args = append(args,
		"-i", streamURL,
		"-vn",
		"-c:a", "libopus",
		"-b:a", strconv.Itoa(o.bitrate)+"k",
		"-ar", "48000",
		"-ac", "2",
		"-frame_duration", "20",
		"-application", "audio",
		"-f", "ogg",
		"pipe:1",
	)
	return args
}

// Open starts FFmpeg. Cancelling ctx kills the process.
func (o *Opener) Open(ctx context.Context, streamURL string) (music.PacketSource, error) {
	cmd := exec.CommandContext(ctx, o.executable, o.Args(streamURL)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "ffmpeg stdout")
	}
	stderr := &tailBuffer{max: stderrTail}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "start %s", o.executable)
	}
	o.log.Debug("ffmpeg started", "pid", cmd.Process.Pid)

	return &Stream{
		cmd:     cmd,
		packets: NewPacketReader(stdout),
		stderr:  stderr,
	}, nil
}

// Stream is a running FFmpeg process.
type Stream struct {
	cmd     *exec.Cmd
	packets *PacketReader
	stderr  *tailBuffer

	once    sync.Once
	waitErr error
}

func (s *Stream) ReadPacket() ([]byte, error) {
	p, err := s.packets.ReadPacket()
	if err == nil {
		return p, nil
	}
	if errors.Is(err, io.EOF) {
		if werr := s.wait(); werr != nil {
			return nil, errors.Wrapf(werr, "ffmpeg: %s", s.stderr.String())
		}
		return nil, io.EOF
	}
	return nil, err
}

// Close kills FFmpeg if it is still running and reaps it.
func (s *Stream) Close() error {
	if s.cmd.ProcessState == nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.wait()
	return nil
}

func (s *Stream) wait() error {
	s.once.Do(func() { s.waitErr = s.cmd.Wait() })
	return s.waitErr
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(string(t.buf))
}
