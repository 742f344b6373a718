// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bbnote/goboardcheck"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var (
	exitProgram chan bool

	logger *logrus.Logger
)

// register values shown when no probe is attached, a Cortex-M4 r0p1 with
// everything else at reset defaults
var offlineRegisters = goboardcheck.RegisterBank{
	0xE000ED00: 0x410FC241, // CPUID
	0xE000ED04: 0x00000000, // ICSR
	0xE000ED0C: 0xFA050000, // AIRCR
	0xE000ED14: 0x00000200, // CCR
	0xE000ED18: 0x00000000, // SHPR2
	0xE000ED1C: 0x00000000, // SHPR3
	0xE000ED24: 0x00000000, // SHCSR
}

func setUpSignalHandler() {
	signals := make(chan os.Signal, 1)
	exitProgram = make(chan bool, 1)

	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signals
		exitProgram <- true
	}()
}

func initLogger() {
	formatter := &prefixed.TextFormatter{
		DisableColors:   false,
		TimestampFormat: "15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	}

	logger = logrus.New()

	logger.SetFormatter(formatter)
	logger.SetOutput(os.Stdout)
}

func main() {
	initLogger()
	goboardcheck.SetLogger(logger)

	logger.Info("Welcome to the goboardcheck bring-up test...")

	flagLogLevel := flag.Int("LogLevel", int(logrus.InfoLevel), "Logging verbosity [0 - 7]")
	flagDevice := flag.String("Device", "", "STM32-Device type (sets the RAM size to probe)")
	flagRamSize := flag.Uint("RamSize", goboardcheck.DefaultSystemRamBytes, "RAM size in bytes to probe")
	flagMmap := flag.Bool("Mmap", false, "Back the probe arena with an anonymous mapping")
	flagProbe := flag.Bool("Probe", false, "Read CPU registers from a live target over an ST-Link")
	flagPort := flag.String("Port", "", "Serial port to echo on (default stdin/stdout)")
	flagBaud := flag.Int("Baud", goboardcheck.DefaultBaudRate, "Serial baud rate")
	flagFlipUs := flag.Int64("FlipUs", goboardcheck.DefaultFlipIntervalUs, "Flipper interval in microseconds")
	flagFlipSecs := flag.Int("FlipSecs", goboardcheck.DefaultFlipWindowSecs, "Flipper test window in seconds")

	flag.Parse()

	logger.SetLevel(logrus.Level(*flagLogLevel))

	setUpSignalHandler()

	ramSizeBytes := uint32(*flagRamSize)

	if *flagDevice != "" {
		targetInfo := goboardcheck.GetTargetInformation(*flagDevice)

		if targetInfo != nil {
			logger.Infof("found device information for %s [0x%x, 0x%x]", *flagDevice,
				targetInfo.RamStart, targetInfo.RamSize)

			ramSizeBytes = targetInfo.RamSize
		} else {
			logger.Errorf("could not find device information for %s", *flagDevice)
			os.Exit(-1)
		}
	}

	var registers goboardcheck.RegisterReader = offlineRegisters
	var probe *goboardcheck.StLinkProbe = nil

	if *flagProbe {
		err := goboardcheck.InitUsb()
		if err != nil {
			logger.Panic(err)
		}

		defer goboardcheck.CloseUsb()

		probe, err = goboardcheck.NewStLinkProbe()

		if err != nil {
			logger.Fatal("error while scanning for st-links on your computer: ", err)
		}

		defer probe.Close()

		code, err := probe.GetIdCode()

		if err == nil {
			logger.Infof("got id code: %08x", code)
		}

		registers = probe
	}

	_, err := goboardcheck.InspectCpu(registers)

	if err != nil {
		logger.Error("could not inspect CPU registers: ", err)
	}

	logger.Info("*** Checking heap size available.")

	var arena *goboardcheck.Arena

	if *flagMmap {
		arena, err = goboardcheck.NewMmapArena(ramSizeBytes, goboardcheck.DefaultRamStart)

		if err != nil {
			logger.Fatal("could not map probe arena: ", err)
		}

		defer arena.Close()
	} else {
		arena = goboardcheck.NewArena(ramSizeBytes, goboardcheck.DefaultRamStart)
	}

	totalHeapBytes := goboardcheck.ProbeTotalHeap(arena, ramSizeBytes)

	logger.Infof("*** Total heap available was %d bytes.", totalHeapBytes)
	logger.Infof("    The last variable pushed onto the stack was at 0x%08x.",
		goboardcheck.StackProbeAddress())

	logger.Infof("*** Running flipper at %d usecond intervals for %d seconds...",
		*flagFlipUs, *flagFlipSecs)

	pin := &goboardcheck.TogglePin{}
	flipper := goboardcheck.NewFlipper()

	flipper.AttachUs(func(count uint32) { pin.Toggle() }, *flagFlipUs)

	time.Sleep(time.Duration(*flagFlipSecs) * time.Second)

	ticks := flipper.Detach()
	meanUs, stddevUs := flipper.JitterUs()

	logger.Infof("flipper delivered %d ticks (interval %.1f us, jitter %.1f us)",
		ticks, meanUs, stddevUs)

	var echoStream io.ReadWriter

	if *flagPort != "" {
		port, err := goboardcheck.OpenSerialPort(*flagPort, *flagBaud)

		if err != nil {
			logger.Fatal("could not open serial port: ", err)
		}

		defer port.Close()

		echoStream = port
	} else {
		echoStream = struct {
			io.Reader
			io.Writer
		}{os.Stdin, os.Stdout}
	}

	echoDone := make(chan error, 1)

	go func() {
		echoDone <- goboardcheck.Echo(echoStream)
	}()

	select {
	case err := <-echoDone:
		if err != nil {
			logger.Error(err)
			os.Exit(-1)
		}

	case <-exitProgram:
		logger.Info("exiting...")
	}

	os.Exit(0)
}
