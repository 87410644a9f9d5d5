package pod_nav

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"
)

// Frame is one host sample: the kinematic state plus the full sensor sweep.
// DT may be zero, in which case it is derived from T or the wall clock.
type Frame struct {
	T       float64         `msgpack:"t" json:"t"`
	DT      float64         `msgpack:"dt" json:"dt"`
	State   KinematicState  `msgpack:"state" json:"state"`
	Sensors []SensorReading `msgpack:"sensors" json:"sensors"`
}

// DecodeFrame parses a msgpack payload, or JSON when it starts with '{'.
func DecodeFrame(b []byte) (Frame, error) {
	var f Frame
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		return f, errors.New("empty payload")
	}
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return f, fmt.Errorf("decode json frame: %w", err)
		}
		return f, nil
	}
	if err := msgpack.Unmarshal(b, &f); err != nil {
		return f, fmt.Errorf("decode msgpack frame: %w", err)
	}
	return f, nil
}

// Session drives one orchestrator from a stream of frames.
type Session struct {
	ID uuid.UUID

	pilot *Orchestrator
	sink  *CommandSink
	viz   *VizMetrics
	log   *slog.Logger

	lastT    *float64
	lastWall time.Time
}

// NewSession builds the orchestrator and outputs for one run.
func NewSession(cfg AppConfig, log *slog.Logger) (*Session, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	id := uuid.New()
	log = log.With(slog.String("run", id.String()))

	pilot, err := NewOrchestrator(cfg.Pilot, log)
	if err != nil {
		return nil, err
	}
	sink, err := NewCommandSink(cfg.Output)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:    id,
		pilot: pilot,
		sink:  sink,
		viz:   StartViz(cfg.Viz, log),
		log:   log,
	}, nil
}

// Pilot exposes the session's orchestrator.
func (s *Session) Pilot() *Orchestrator { return s.pilot }

// HandleFrame runs one tick and sends the resulting command. Frames the core
// rejects still produce a hold command so the pod never goes dark.
func (s *Session) HandleFrame(f Frame) (CommandPacket, error) {
	dt := s.timestep(f)
	s.viz.UpdateInput(f.State, f.Sensors)

	cmd, stepErr := s.pilot.Process(f.Sensors, f.State, dt)
	if stepErr != nil {
		s.log.Warn("frame rejected", slog.Any("error", stepErr), slog.Float64("t", f.T))
	}

	hover, _ := s.pilot.HoverThrust()
	p := CommandPacket{Tick: s.pilot.Ticks(), Stage: s.pilot.Stage(), Command: cmd}
	s.viz.UpdateOutput(cmd, p.Stage, hover)
	if err := s.sink.Send(p); err != nil {
		return p, errors.Join(stepErr, fmt.Errorf("send command: %w", err))
	}
	return p, stepErr
}

func (s *Session) timestep(f Frame) float64 {
	now := time.Now()
	defer func() {
		t := f.T
		s.lastT = &t
		s.lastWall = now
	}()
	if f.DT > 0 {
		return f.DT
	}
	if s.lastT != nil && f.T > *s.lastT {
		return f.T - *s.lastT
	}
	if s.lastWall.IsZero() {
		return 1e-3
	}
	return max(1e-3, now.Sub(s.lastWall).Seconds())
}

// Close releases the session's outputs.
func (s *Session) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return errors.Join(s.sink.Close(), s.viz.Shutdown(ctx))
}

// RunLive listens for frames on UDP and answers each with a thruster
// command until ctx is cancelled.
func RunLive(ctx context.Context, cfg AppConfig, log *slog.Logger) error {
	if cfg.Live.UDPAddr == "" {
		return &ConfigError{Field: "live.udp_addr", Reason: "must be set"}
	}
	session, err := NewSession(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		_ = session.Close()
	}()

	addr, err := net.ResolveUDPAddr("udp", cfg.Live.UDPAddr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return err
	}
	session.log.Info("listening", slog.String("addr", conn.LocalAddr().String()),
		slog.String("strategy", cfg.Pilot.Navigator.Strategy.String()))

	depth := cfg.Live.QueueDepth
	if depth <= 0 {
		depth = 1
	}
	frames := make(chan Frame, depth)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		<-ctx.Done()
		return conn.Close()
	})
	eg.Go(func() error {
		defer close(frames)
		return readFrames(ctx, conn, cfg.Live.ReadBuffer, frames, session.log)
	})
	eg.Go(func() error {
		for f := range frames {
			if _, err := session.HandleFrame(f); err != nil {
				session.log.Debug("tick", slog.Any("error", err))
			}
		}
		return nil
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	session.log.Info("stopped", slog.Uint64("ticks", session.pilot.Ticks()),
		slog.String("stage", session.pilot.Stage().String()))
	return nil
}

// readFrames decodes packets into frames. A full queue drops the newest
// frame rather than stalling the socket.
func readFrames(ctx context.Context, conn *net.UDPConn, bufSize int, out chan<- Frame, log *slog.Logger) error {
	if bufSize <= 0 {
		bufSize = 4096
	}
	buf := make([]byte, bufSize)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		f, err := DecodeFrame(buf[:n])
		if err != nil {
			log.Debug("bad frame", slog.Any("error", err))
			continue
		}
		select {
		case out <- f:
		default:
			log.Warn("frame queue full, dropping frame", slog.Float64("t", f.T))
		}
	}
}
