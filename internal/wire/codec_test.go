package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/fernet/fernet-go"
)

func generateKey(t *testing.T) *fernet.Key {
	t.Helper()
	var key fernet.Key
	if err := key.Generate(); err != nil {
		t.Fatalf("error generating key: %s", err)
	}
	return &key
}

func TestRoundTrip_Plaintext(t *testing.T) {
	codec := NewCodec(nil)

	for _, message := range []string{"hi", "", "&2#lobby&r with markup", "кириллица"} {
		frame, err := codec.Encode(message)
		if err != nil {
			t.Fatalf("Encode(%q) returned an error: %s", message, err)
		}

		conn := NewConn(bytes.NewBuffer(frame), codec)
		got, err := conn.Receive()
		if message == "" {
			// A zero-length payload is indistinguishable from "no message".
			if !errors.Is(err, io.EOF) {
				t.Errorf("Receive() of empty message = (%q, %v), want io.EOF", got, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Receive() returned an error: %s", err)
		}
		if got != message {
			t.Errorf("Receive() = %q, want %q", got, message)
		}
	}
}

func TestRoundTrip_Encrypted(t *testing.T) {
	codec := NewCodec(generateKey(t))
	message := "secret broadcast"

	frame, err := codec.Encode(message)
	if err != nil {
		t.Fatalf("Encode() returned an error: %s", err)
	}
	if bytes.Contains(frame, []byte(message)) {
		t.Error("Encode() left the plaintext visible in the frame")
	}

	conn := NewConn(bytes.NewBuffer(frame), codec)
	got, err := conn.Receive()
	if err != nil {
		t.Fatalf("Receive() returned an error: %s", err)
	}
	if got != message {
		t.Errorf("Receive() = %q, want %q", got, message)
	}
}

func TestReceive_ShortReads(t *testing.T) {
	codec := NewCodec(nil)
	frame, err := codec.Encode("dripfed")
	if err != nil {
		t.Fatalf("Encode() returned an error: %s", err)
	}

	// Deliver the frame one byte at a time; Receive must loop until the
	// declared length is satisfied.
	conn := NewConn(&oneBytePipe{data: frame}, codec)
	got, err := conn.Receive()
	if err != nil {
		t.Fatalf("Receive() returned an error: %s", err)
	}
	if got != "dripfed" {
		t.Errorf("Receive() = %q, want %q", got, "dripfed")
	}
}

// oneBytePipe yields a single byte per Read call.
type oneBytePipe struct {
	data []byte
}

func (r *oneBytePipe) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	p[0] = r.data[0]
	r.data = r.data[1:]
	return 1, nil
}

func (r *oneBytePipe) Write(p []byte) (int, error) { return len(p), nil }

func TestReceive_ClosedConnection(t *testing.T) {
	conn := NewConn(bytes.NewBuffer(nil), NewCodec(nil))
	if _, err := conn.Receive(); !errors.Is(err, io.EOF) {
		t.Errorf("Receive() on a closed connection = %v, want io.EOF", err)
	}
}

func TestReceive_OversizedFrame(t *testing.T) {
	header := make([]byte, headerSize)
	binary.BigEndian.PutUint32(header, maxFrameSize+1)

	conn := NewConn(bytes.NewBuffer(header), NewCodec(nil))
	if _, err := conn.Receive(); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("Receive() = %v, want ErrFrameTooLarge", err)
	}
}

func TestReceive_DowngradeIsPermanent(t *testing.T) {
	key := generateKey(t)
	codec := NewCodec(key)
	plaintext := NewCodec(nil)

	var stream bytes.Buffer

	// A valid encrypted frame, then a plaintext frame (which fails
	// verification), then another valid encrypted frame.
	for _, write := range []struct {
		codec   *Codec
		message string
	}{
		{codec, "before"},
		{plaintext, "garbage"},
		{codec, "after"},
	} {
		frame, err := write.codec.Encode(write.message)
		if err != nil {
			t.Fatalf("Encode(%q) returned an error: %s", write.message, err)
		}
		stream.Write(frame)
	}

	conn := NewConn(&stream, codec)

	got, err := conn.Receive()
	if err != nil || got != "before" {
		t.Fatalf("first Receive() = (%q, %v), want (%q, nil)", got, err, "before")
	}
	if !conn.Encrypted() {
		t.Fatal("connection downgraded before any decryption failure")
	}

	// The failing frame itself is surfaced as plaintext.
	got, err = conn.Receive()
	if err != nil || got != "garbage" {
		t.Fatalf("second Receive() = (%q, %v), want (%q, nil)", got, err, "garbage")
	}
	if conn.Encrypted() {
		t.Fatal("decryption failure did not downgrade the connection")
	}

	// Downgrade is one-directional: the third frame must come back as the
	// raw fernet token, not be decrypted.
	got, err = conn.Receive()
	if err != nil {
		t.Fatalf("third Receive() returned an error: %s", err)
	}
	if got == "after" {
		t.Error("connection re-upgraded to encrypted interpretation after downgrade")
	}
	if conn.Encrypted() {
		t.Error("Encrypted() = true after downgrade")
	}
}
