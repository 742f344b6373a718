// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

// this code is mainly inspired and based on the openocd project source code
// for detailed information see

// https://sourceforge.net/p/openocd/code

package goboardcheck

import (
	"errors"
	"time"

	"github.com/google/gousb"
)

var supportedProbeVids = []gousb.ID{0x0483} // STLINK Vendor ID
var supportedProbePids = []gousb.ID{0x3748, 0x374b, 0x374d, 0x374e, 0x374f, 0x3752, 0x3753}

// StLinkProbe reads target memory over an ST-Link debug probe. It binds the
// RegisterReader capability to a live board; everything else in the library
// works against fakes.
type StLinkProbe struct {
	usbDevice    *gousb.Device
	usbConfig    *gousb.Config
	usbInterface *gousb.Interface
	rxEndpoint   *gousb.InEndpoint
	txEndpoint   *gousb.OutEndpoint

	databuf []byte
}

// NewStLinkProbe opens the first ST-Link found on the bus and puts it into
// SWD debug mode. InitUsb must have been called.
func NewStLinkProbe() (*StLinkProbe, error) {
	devices, err := usbFindDevices(supportedProbeVids, supportedProbePids)

	if err != nil {
		return nil, err
	}

	if len(devices) == 0 {
		return nil, NewProbeError("could not find any ST-Link connected to computer", ErrorNoDevice)
	}

	probe := &StLinkProbe{
		usbDevice: devices[0],
		databuf:   make([]byte, dataBufferSize),
	}

	probe.usbConfig, err = probe.usbDevice.Config(1)
	if err != nil {
		logger.Debug(err)
		return nil, errors.New("could not request configuration #1 for st-link debugger")
	}

	probe.usbInterface, err = probe.usbConfig.Interface(0, 0)
	if err != nil {
		logger.Debug(err)
		return nil, errors.New("could not claim interface 0,0 for st-link debugger")
	}

	probe.rxEndpoint, err = probe.usbInterface.InEndpoint(1)
	if err != nil {
		return nil, errors.New("could not open rx endpoint of st-link debugger")
	}

	probe.txEndpoint, err = probe.usbInterface.OutEndpoint(1)
	if err != nil {
		// older probes expose the tx endpoint as no. 2
		probe.txEndpoint, err = probe.usbInterface.OutEndpoint(2)
		if err != nil {
			return nil, errors.New("could not open tx endpoint of st-link debugger")
		}
	}

	if err := probe.enterSwdMode(); err != nil {
		return nil, err
	}

	return probe, nil
}

func (p *StLinkProbe) Close() {
	if p.usbDevice != nil {
		logger.Debug("closing st-link probe")

		// best effort, the probe is gone either way
		cmd := NewBuffer(cmdBufferSize)
		cmd.WriteByte(cmdDebug)
		cmd.WriteByte(debugExit)

		if err := p.command(cmd, 0); err != nil {
			logger.Debug("could not leave debug mode: ", err)
		}

		p.usbInterface.Close()
		p.usbConfig.Close()
		p.usbDevice.Close()
	}
}

// command issues one probe command and reads rxSize bytes of response into
// the data buffer. The command block is always padded to cmdBufferSize.
func (p *StLinkProbe) command(cmd *Buffer, rxSize int) error {
	for cmd.Len() < cmdBufferSize {
		cmd.WriteByte(0)
	}

	_, err := usbWrite(p.txEndpoint, cmd.Bytes())

	if err != nil {
		return err
	}

	if rxSize > 0 {
		_, err = usbRead(p.rxEndpoint, p.databuf[:rxSize])

		if err != nil {
			return err
		}
	}

	return nil
}

// commandAllowRetry retries a command while the probe answers with a wait
// status, with exponential backoff like the openocd driver.
func (p *StLinkProbe) commandAllowRetry(cmd *Buffer, rxSize int) error {
	raw := make([]byte, cmd.Len())
	copy(raw, cmd.Bytes())

	for retries := 0; ; retries++ {
		retry := NewBuffer(cmdBufferSize)
		retry.Write(raw)

		err := p.command(retry, rxSize)

		if err != nil {
			return err
		}

		err = probeErrorCheck(p.databuf[0])

		if err != nil {
			probeErr := err.(*ProbeError)

			if probeErr.ProbeErrorCode == ErrorWait && retries < maximumWaitRetries {
				delay := time.Duration(1<<retries) * time.Millisecond

				logger.Debugf("probe busy, retry %d, delaying %v", retries+1, delay)
				time.Sleep(delay)

				continue
			}
		}

		return err
	}
}

func (p *StLinkProbe) enterSwdMode() error {
	cmd := NewBuffer(cmdBufferSize)

	cmd.WriteByte(cmdDebug)
	cmd.WriteByte(debugApiV2Enter)
	cmd.WriteByte(debugEnterSwdNoReset)

	return p.commandAllowRetry(cmd, 2)
}

// GetIdCode reads the SWD idcode of the connected target.
func (p *StLinkProbe) GetIdCode() (uint32, error) {
	cmd := NewBuffer(cmdBufferSize)

	cmd.WriteByte(cmdDebug)
	cmd.WriteByte(debugApiV2ReadIdCodes)

	err := p.command(cmd, 12)

	if err != nil {
		return 0, err
	}

	return convertToUint32(p.databuf[4:], littleEndian), nil
}

// ReadWord reads one aligned 32 bit word from the target address space,
// which is all the CPU inspector needs.
func (p *StLinkProbe) ReadWord(addr uint32) (uint32, error) {
	if addr%TargetWordBytes > 0 {
		return 0, NewProbeError("invalid data alignment", ErrorUnalignedAccess)
	}

	cmd := NewBuffer(cmdBufferSize)

	cmd.WriteByte(cmdDebug)
	cmd.WriteByte(debugReadMem32Bit)
	cmd.WriteUint32LE(addr)
	cmd.WriteUint16LE(TargetWordBytes)

	err := p.command(cmd, TargetWordBytes)

	if err != nil {
		return 0, err
	}

	return convertToUint32(p.databuf, littleEndian), nil
}
