package framing

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"unicode/utf8"
)

const (
	headerSize         = 4
	initialPayloadSize = 64 << 10
)

var (
	// ErrTruncated reports a stream that ended inside a frame.
	ErrTruncated = errors.New("framing: truncated message")
	// ErrInvalidEncoding reports a payload that is not valid UTF-8.
	ErrInvalidEncoding = errors.New("framing: payload is not valid utf-8")
	// ErrTooLarge reports a declared length above the reader's limit.
	ErrTooLarge = errors.New("framing: message exceeds size limit")
)

// Encode returns text as a single length-prefixed frame.
func Encode(text string) []byte {
	buf := make([]byte, headerSize+len(text))
	binary.NativeEndian.PutUint32(buf, uint32(len(text)))
	copy(buf[headerSize:], text)
	return buf
}

// Decode reads exactly one frame from r. It returns io.EOF, unwrapped, when r
// is exhausted on a frame boundary.
func Decode(r io.Reader) (string, error) {
	return decode(r, 0)
}

func decode(r io.Reader, maxSize uint32) (string, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		switch {
		case errors.Is(err, io.EOF):
			return "", io.EOF
		case errors.Is(err, io.ErrUnexpectedEOF):
			return "", fmt.Errorf("%w: incomplete length prefix", ErrTruncated)
		default:
			return "", fmt.Errorf("read length prefix: %w", err)
		}
	}

	length := binary.NativeEndian.Uint32(header[:])
	if maxSize > 0 && length > maxSize {
		return "", fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, length, maxSize)
	}
	if length == 0 {
		return "", nil
	}

	// The prefix is untrusted; memory grows with bytes received, not with
	// the declared length.
	var payload bytes.Buffer
	payload.Grow(int(min(length, initialPayloadSize)))
	if n, err := io.CopyN(&payload, r, int64(length)); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return "", fmt.Errorf("%w: got %d of %d payload bytes", ErrTruncated, n, length)
		}
		return "", fmt.Errorf("read payload: %w", err)
	}
	if !utf8.Valid(payload.Bytes()) {
		return "", ErrInvalidEncoding
	}
	return payload.String(), nil
}

// Reader decodes consecutive frames from a stream.
type Reader struct {
	r       io.Reader
	maxSize uint32
}

// NewReader returns a Reader over r. A maxSize of zero imposes no limit.
func NewReader(r io.Reader, maxSize uint32) *Reader {
	return &Reader{r: r, maxSize: maxSize}
}

// ReadMessage decodes the next frame. See Decode for the error contract.
func (r *Reader) ReadMessage() (string, error) {
	return decode(r.r, r.maxSize)
}

// Writer encodes frames onto a stream and flushes after each one.
type Writer struct {
	mu sync.Mutex
	w  *bufio.Writer
}

// NewWriter returns a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteMessage writes text as one frame and flushes it.
func (w *Writer) WriteMessage(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var header [headerSize]byte
	binary.NativeEndian.PutUint32(header[:], uint32(len(text)))
	if _, err := w.w.Write(header[:]); err != nil {
		return fmt.Errorf("write length prefix: %w", err)
	}
	if _, err := w.w.WriteString(text); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("flush frame: %w", err)
	}
	return nil
}
