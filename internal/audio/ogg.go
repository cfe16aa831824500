package audio

import (
	"bufio"
	"bytes"
	"io"

	"github.com/pkg/errors"
)

const (
	pageHeaderLen    = 27
	flagContinuation = 0x01
)

var (
	ErrBadPage = errors.New("ogg: malformed page")

	capturePattern = []byte("OggS")
	opusHead       = []byte("OpusHead")
	opusTags       = []byte("OpusTags")
)

// PacketReader splits an Ogg Opus stream into raw Opus packets. The OpusHead
// and OpusTags header packets are dropped. Page CRCs are not verified.
type PacketReader struct {
	r       *bufio.Reader
	pending [][]byte
	partial []byte
	header  [pageHeaderLen]byte
	lacing  [255]byte
}

func NewPacketReader(r io.Reader) *PacketReader {
	return &PacketReader{r: bufio.NewReaderSize(r, 64<<10)}
}

// ReadPacket returns the next audio packet or io.EOF at the end of the stream.
func (pr *PacketReader) ReadPacket() ([]byte, error) {
	for len(pr.pending) == 0 {
		if err := pr.readPage(); err != nil {
			return nil, err
		}
	}
	p := pr.pending[0]
	pr.pending[0] = nil
	pr.pending = pr.pending[1:]
	return p, nil
}

func (pr *PacketReader) readPage() error {
	if _, err := io.ReadFull(pr.r, pr.header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return errors.Wrap(ErrBadPage, "truncated header")
		}
		return err
	}
	if !bytes.Equal(pr.header[:4], capturePattern) {
		return errors.Wrap(ErrBadPage, "missing capture pattern")
	}
	if pr.header[4] != 0 {
		return errors.Wrapf(ErrBadPage, "unsupported version %d", pr.header[4])
	}

	lacing := pr.lacing[:pr.header[26]]
	if _, err := io.ReadFull(pr.r, lacing); err != nil {
		return errors.Wrap(ErrBadPage, "truncated segment table")
	}
	size := 0
	for _, l := range lacing {
		size += int(l)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(pr.r, body); err != nil {
		return errors.Wrap(ErrBadPage, "truncated body")
	}

	// a page without the continuation flag never finishes an earlier packet
	if pr.header[5]&flagContinuation == 0 {
		pr.partial = nil
	}

	off := 0
	for _, l := range lacing {
		pr.partial = append(pr.partial, body[off:off+int(l)]...)
		off += int(l)
		if l < 255 {
			pr.emit(pr.partial)
			pr.partial = nil
		}
	}
	return nil
}

func (pr *PacketReader) emit(p []byte) {
	if len(p) == 0 || bytes.HasPrefix(p, opusHead) || bytes.HasPrefix(p, opusTags) {
		return
	}
	pr.pending = append(pr.pending, p)
}
