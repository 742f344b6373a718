// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goboardcheck

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

var baudFlags = map[int]uint32{
	1200:   unix.B1200,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
	230400: unix.B230400,
}

// SerialPort is a raw-mode tty, the host end of the board's serial link.
type SerialPort struct {
	file *os.File
}

// OpenSerialPort opens the tty at path and puts it into raw 8N1 mode at the
// given baud rate.
func OpenSerialPort(path string, baud int) (*SerialPort, error) {
	speed, ok := baudFlags[baud]
	if !ok {
		return nil, fmt.Errorf("unsupported baud rate %d", baud)
	}

	file, err := os.OpenFile(path, os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, err
	}

	termios, err := unix.IoctlGetTermios(int(file.Fd()), unix.TCGETS)
	if err != nil {
		file.Close()
		return nil, err
	}

	// raw 8N1
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB
	termios.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL

	termios.Cflag &^= unix.CBAUD
	termios.Cflag |= speed
	termios.Ispeed = speed
	termios.Ospeed = speed

	// one byte at a time, block until it arrives
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(int(file.Fd()), unix.TCSETS, termios); err != nil {
		file.Close()
		return nil, err
	}

	logger.Debugf("opened serial port %s at %d baud", path, baud)

	return &SerialPort{file: file}, nil
}

func (p *SerialPort) Read(buffer []byte) (int, error) {
	return p.file.Read(buffer)
}

func (p *SerialPort) Write(buffer []byte) (int, error) {
	return p.file.Write(buffer)
}

func (p *SerialPort) Close() error {
	return p.file.Close()
}

/**
  Echo writes every byte read from rw straight back to it, one byte at a
  time, until the stream ends. This is the terminal state of the board test;
  it only returns when the stream does.
*/
func Echo(rw io.ReadWriter) error {
	logger.Info("*** Echoing received characters forever.")

	buffer := make([]byte, 1)

	for {
		n, err := rw.Read(buffer)

		if err != nil {
			if err == io.EOF {
				return nil
			}

			return err
		}

		if n == 1 {
			if _, err := rw.Write(buffer); err != nil {
				return err
			}
		}
	}
}
