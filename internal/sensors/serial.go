// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"
)

// SerialSource reads $PACCL sentences from an accelerometer board on a
// serial port. The board sets the tick rate; every parsed sentence is
// delivered to the handler in arrival order.
type SerialSource struct {
	opts   serial.OpenOptions
	parser *nmea.SentenceParser
	logger *slog.Logger

	// open is swapped out in tests.
	open func(serial.OpenOptions) (io.ReadWriteCloser, error)

	mu        sync.Mutex
	port      io.ReadWriteCloser
	done      chan struct{}
	onFailure func(error)
}

func NewSerialSource(portName string, baudRate uint, logger *slog.Logger) *SerialSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &SerialSource{
		opts: serial.OpenOptions{
			PortName:              portName,
			BaudRate:              baudRate,
			DataBits:              8,
			StopBits:              1,
			MinimumReadSize:       1,
			ParityMode:            serial.PARITY_NONE,
			InterCharacterTimeout: 0,
		},
		parser: NewSentenceParser(),
		logger: logger.With("source", "serial", "port", portName),
		open:   serial.Open,
	}
}

func (s *SerialSource) Name() string { return "serial" }

// Available reports whether the port device exists.
func (s *SerialSource) Available() bool {
	_, err := os.Stat(s.opts.PortName)
	return err == nil
}

// OnFailure registers f to be told when the read loop dies without Stop.
func (s *SerialSource) OnFailure(f func(err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFailure = f
}

func (s *SerialSource) Start(h Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port != nil {
		return errors.New("source already started")
	}

	port, err := s.open(s.opts)
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", s.opts.PortName, err)
	}
	s.logger.Info("serial port opened", "baud", s.opts.BaudRate)

	s.port = port
	s.done = make(chan struct{})
	go s.readLoop(port, h, s.done)
	return nil
}

func (s *SerialSource) readLoop(port io.ReadWriteCloser, h Handler, done chan struct{}) {
	defer close(done)

	reader := bufio.NewReader(port)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			s.fail(port, err)
			return
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "$") {
			continue
		}

		v, ok, err := ParseAccelSentence(s.parser, line)
		if err != nil {
			// partial sentences are common right after opening the port
			s.logger.Debug("skipping sentence", "line", line, "err", err)
			continue
		}
		if ok {
			h(v)
		}
	}
}

// fail releases a port whose read loop died. A port already taken by Stop
// is left alone.
func (s *SerialSource) fail(port io.ReadWriteCloser, err error) {
	s.mu.Lock()
	if s.port != port {
		s.mu.Unlock()
		return
	}
	s.port, s.done = nil, nil
	notify := s.onFailure
	s.mu.Unlock()

	s.logger.Error("serial read failed", "err", err)
	port.Close()
	if notify != nil {
		notify(fmt.Errorf("serial read %s: %w", s.opts.PortName, err))
	}
}

func (s *SerialSource) Stop() error {
	s.mu.Lock()
	port, done := s.port, s.done
	s.port, s.done = nil, nil
	s.mu.Unlock()

	if port == nil {
		return nil
	}
	err := port.Close()
	<-done
	if err != nil {
		return fmt.Errorf("close serial port: %w", err)
	}
	return nil
}
