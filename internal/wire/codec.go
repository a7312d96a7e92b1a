// Package wire implements the framed wire protocol: a 4-byte big-endian
// length prefix followed by a UTF-8 payload, optionally encrypted as a whole
// with a pre-shared fernet key.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/fernet/fernet-go"
)

// headerSize is the length of the frame header in bytes.
const headerSize = 4

// maxFrameSize caps the declared payload length of a single frame. Anything
// larger than this is a malformed header, not a chat message.
const maxFrameSize = 1 << 20

// ErrFrameTooLarge is returned when a frame header declares a payload larger
// than maxFrameSize. The session loop treats it as fatal for the connection.
var ErrFrameTooLarge = errors.New("frame exceeds maximum allowed size")

// Codec converts message strings to and from wire frames. A nil key disables
// encryption entirely.
type Codec struct {
	key *fernet.Key
}

func NewCodec(key *fernet.Key) *Codec {
	return &Codec{key: key}
}

// Encrypted reports whether the codec was configured with a key.
func (c *Codec) Encrypted() bool {
	return c.key != nil
}

// Encode converts a message into a single wire frame.
func (c *Codec) Encode(message string) ([]byte, error) {
	payload := []byte(message)

	if c.key != nil {
		token, err := fernet.EncryptAndSign(payload, c.key)
		if err != nil {
			return nil, fmt.Errorf("error encrypting message: %w", err)
		}
		payload = token
	}

	frame := make([]byte, headerSize+len(payload))
	binary.BigEndian.PutUint32(frame[:headerSize], uint32(len(payload)))
	copy(frame[headerSize:], payload)
	return frame, nil
}

// Conn wraps a stream with the frame codec and carries the per-connection
// decryption state. Fernet tokens are self-verifying, so a payload that fails
// verification is assumed to come from a peer speaking plaintext: the
// connection downgrades and every subsequent frame (including the failing
// one) is interpreted unencrypted. The downgrade is one-directional for the
// life of the connection.
type Conn struct {
	rw        io.ReadWriter
	codec     *Codec
	encrypted bool
}

func NewConn(rw io.ReadWriter, codec *Codec) *Conn {
	return &Conn{
		rw:        rw,
		codec:     codec,
		encrypted: codec.Encrypted(),
	}
}

// Encrypted reports whether received frames are still being decrypted.
func (c *Conn) Encrypted() bool {
	return c.encrypted
}

// Send encodes the message and writes the whole frame to the peer.
func (c *Conn) Send(message string) error {
	frame, err := c.codec.Encode(message)
	if err != nil {
		return err
	}

	sent := 0
	for sent < len(frame) {
		n, err := c.rw.Write(frame[sent:])
		if err != nil {
			return fmt.Errorf("error writing frame: %w", err)
		}
		sent += n
	}
	return nil
}

// Receive blocks until the next full frame has been read and returns its
// payload as a string. A closed connection or a zero-length frame is
// reported as io.EOF, which the session loop treats as "no message". Short
// reads are retried until the declared length is satisfied.
func (c *Conn) Receive() (string, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(c.rw, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return "", io.EOF
		}
		return "", fmt.Errorf("error reading frame header: %w", err)
	}

	length := binary.BigEndian.Uint32(header)
	if length == 0 {
		return "", io.EOF
	}
	if length > maxFrameSize {
		return "", ErrFrameTooLarge
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(c.rw, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return "", io.EOF
		}
		return "", fmt.Errorf("error reading frame payload: %w", err)
	}

	if c.encrypted {
		message := fernet.VerifyAndDecrypt(payload, 0, []*fernet.Key{c.codec.key})
		if message == nil {
			c.encrypted = false
			return string(payload), nil
		}
		return string(message), nil
	}

	return string(payload), nil
}
