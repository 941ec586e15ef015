package sensors

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// PollingSource reads a Reader on a fixed ticker and pushes each sample to
// the handler from a single goroutine, so samples arrive in order.
type PollingSource struct {
	name     string
	reader   Reader
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPollingSource(name string, reader Reader, interval time.Duration, logger *slog.Logger) *PollingSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &PollingSource{
		name:     name,
		reader:   reader,
		interval: interval,
		logger:   logger.With("source", name),
	}
}

func (s *PollingSource) Name() string    { return s.name }
func (s *PollingSource) Available() bool { return s.reader != nil }

func (s *PollingSource) Start(h Handler) error {
	if s.reader == nil {
		return ErrNoAccelerometer
	}
	if s.interval <= 0 {
		return errors.New("polling interval must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return errors.New("source already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, h, s.done)
	return nil
}

func (s *PollingSource) loop(ctx context.Context, h Handler, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		v, err := s.reader.ReadAccel()
		if err != nil {
			s.logger.Warn("accelerometer read failed", "err", err)
			continue
		}
		h(v)
	}
}

func (s *PollingSource) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}
