// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goboardcheck

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestEchoRoundTrip(t *testing.T) {
	input := []byte("hello board\r\n")
	output := &bytes.Buffer{}

	stream := struct {
		io.Reader
		io.Writer
	}{bytes.NewReader(input), output}

	if err := Echo(stream); err != nil {
		t.Fatalf("Echo: %v", err)
	}

	if !bytes.Equal(output.Bytes(), input) {
		t.Errorf("echoed %q, want %q", output.Bytes(), input)
	}
}

func TestEchoEmptyStream(t *testing.T) {
	output := &bytes.Buffer{}

	stream := struct {
		io.Reader
		io.Writer
	}{bytes.NewReader(nil), output}

	if err := Echo(stream); err != nil {
		t.Fatalf("Echo on empty stream: %v", err)
	}
	if output.Len() != 0 {
		t.Errorf("echoed %d bytes from an empty stream", output.Len())
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("line noise")
}

func TestEchoPropagatesReadError(t *testing.T) {
	stream := struct {
		io.Reader
		io.Writer
	}{failingReader{}, &bytes.Buffer{}}

	if err := Echo(stream); err == nil {
		t.Error("expected the read error back")
	}
}

func TestOpenSerialPortUnsupportedBaud(t *testing.T) {
	if _, err := OpenSerialPort("/dev/null", 12345); err == nil {
		t.Error("expected an error for an unsupported baud rate")
	}
}
