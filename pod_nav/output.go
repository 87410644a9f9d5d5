package pod_nav

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/vmihailenco/msgpack/v5"
	"go.bug.st/serial"
)

// CommandPacket is one tick of controller output as written to the wire.
type CommandPacket struct {
	Tick    uint64          `msgpack:"tick"`
	Stage   Stage           `msgpack:"stage"`
	Command ThrusterCommand `msgpack:"command"`
}

// EncodeCommand renders a packet with the named codec.
//
// The csv codec writes "up,down,left,right,stage".
func EncodeCommand(codec string, p CommandPacket) ([]byte, error) {
	switch codec {
	case "", "csv":
		c := p.Command
		return []byte(fmt.Sprintf("%.4f,%.4f,%.4f,%.4f,%s", c.Up, c.Down, c.Left, c.Right, p.Stage)), nil
	case "msgpack":
		return msgpack.Marshal(p)
	default:
		return nil, &ConfigError{Field: "output.codec", Reason: fmt.Sprintf("unknown codec %q", codec)}
	}
}

// CommandSink writes encoded thruster commands to one or more outputs.
type CommandSink struct {
	codec   string
	writers []io.WriteCloser
}

// NewCommandSink opens the UDP and serial outputs named in cfg. Either may be
// empty; with both empty Send is a no-op.
func NewCommandSink(cfg OutputConfig) (*CommandSink, error) {
	if _, err := EncodeCommand(cfg.Codec, CommandPacket{}); err != nil {
		return nil, err
	}
	s := &CommandSink{codec: cfg.Codec}
	if cfg.UDPAddr != "" {
		udpAddr, err := net.ResolveUDPAddr("udp", cfg.UDPAddr)
		if err != nil {
			return nil, err
		}
		conn, err := net.DialUDP("udp", nil, udpAddr)
		if err != nil {
			return nil, err
		}
		s.writers = append(s.writers, conn)
	}
	if cfg.SerialPort != "" {
		port, err := openSerial(cfg.SerialPort, cfg.BaudRate)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("open %s: %w", cfg.SerialPort, err)
		}
		s.writers = append(s.writers, port)
	}
	return s, nil
}

func openSerial(path string, baud int) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	return serial.Open(path, mode)
}

// Send encodes p and writes it to every output.
func (s *CommandSink) Send(p CommandPacket) error {
	if s == nil || len(s.writers) == 0 {
		return nil
	}
	payload, err := EncodeCommand(s.codec, p)
	if err != nil {
		return err
	}
	if s.codec == "" || s.codec == "csv" {
		payload = append(payload, '\n')
	}
	var errs []error
	for _, w := range s.writers {
		if _, err := w.Write(payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases every output.
func (s *CommandSink) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	for _, w := range s.writers {
		errs = append(errs, w.Close())
	}
	s.writers = nil
	return errors.Join(errs...)
}
