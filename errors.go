// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package goboardcheck

import (
	"fmt"
)

type ProbeErrorCode int

const (
	ErrorOK              ProbeErrorCode = 0
	ErrorWait                           = -1
	ErrorFail                           = -2
	ErrorUnalignedAccess                = -3
	ErrorNoDevice                       = -4
)

type ProbeError struct {
	errorString    string
	ProbeErrorCode ProbeErrorCode
}

func (e *ProbeError) Error() string {
	return e.errorString
}

func NewProbeError(msg string, code ProbeErrorCode) error {
	return &ProbeError{msg, code}
}

/**
  Converts a status code held in the first byte of a probe response
  to a goboardcheck library error.
*/
func probeErrorCheck(status byte) error {
	switch status {
	case debugErrOk:
		return nil

	case debugErrFault:
		return NewProbeError(fmt.Sprintf("SWD fault response (0x%x)", debugErrFault), ErrorFail)

	case swdApWait:
		return NewProbeError(fmt.Sprintf("wait status SWD_AP_WAIT (0x%x)", swdApWait), ErrorWait)

	case swdDpWait:
		return NewProbeError(fmt.Sprintf("wait status SWD_DP_WAIT (0x%x)", swdDpWait), ErrorWait)

	default:
		return NewProbeError(fmt.Sprintf("unknown/unexpected probe status code 0x%x", status), ErrorFail)
	}
}
