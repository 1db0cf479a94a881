package trace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Tracer receives the events of an analysis run. Files are analyzed in
// parallel, so Emit must be safe for concurrent use.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
	// Enabled returns true if Level() > LevelOff.
	Enabled() bool
}

// StorageMode selects where events go.
type StorageMode uint8

const (
	ModeStream StorageMode = iota + 1 // written as emitted
	ModeRing                          // the newest RingSize events kept in memory
	ModeBoth
)

var modeNames = [...]string{ModeStream: "stream", ModeRing: "ring", ModeBoth: "both"}

func (m StorageMode) String() string {
	if int(m) < len(modeNames) && modeNames[m] != "" {
		return modeNames[m]
	}
	return "unknown"
}

// ParseMode converts a --trace-mode value.
func ParseMode(s string) (StorageMode, error) {
	for m, name := range modeNames {
		if name != "" && strings.EqualFold(s, name) {
			return StorageMode(m), nil
		}
	}
	return ModeStream, fmt.Errorf("invalid storage mode: %q (expected: stream|ring|both)", s)
}

// DefaultRingSize is the ring capacity when none is configured.
const DefaultRingSize = 4096

// Config describes a tracer. Output wins over Path; an empty Path or "-"
// writes to stderr.
type Config struct {
	Level    Level
	Mode     StorageMode
	Format   Format
	Output   io.Writer
	Path     string
	RingSize int
}

// Settings are the textual trace options after the manifest's [trace]
// section has filled in the flags left unset.
type Settings struct {
	Level    string
	Mode     string
	Output   string
	RingSize int
}

// Config parses s. An empty mode means stream.
func (s Settings) Config() (Config, error) {
	level, err := ParseLevel(s.Level)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{Level: level, Mode: ModeStream, Path: s.Output, RingSize: s.RingSize}
	if s.Mode != "" {
		if cfg.Mode, err = ParseMode(s.Mode); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// New builds the tracer cfg describes. An off level yields Nop without
// opening the output.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	if cfg.RingSize <= 0 {
		cfg.RingSize = DefaultRingSize
	}
	switch cfg.Mode {
	case ModeRing:
		return NewRingTracer(cfg.RingSize, cfg.Level), nil
	case ModeStream, ModeBoth:
	default:
		return nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
	}
	w, err := cfg.writer()
	if err != nil {
		return nil, err
	}
	stream := NewStreamTracer(w, cfg.Level, cfg.format())
	if cfg.Mode == ModeStream {
		return stream, nil
	}
	return NewMultiTracer(cfg.Level, stream, NewRingTracer(cfg.RingSize, cfg.Level)), nil
}

// format resolves FormatAuto: NDJSON for .ndjson and .jsonl paths, text
// otherwise.
func (c Config) format() Format {
	if c.Format != FormatAuto {
		return c.Format
	}
	switch strings.ToLower(filepath.Ext(c.Path)) {
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	}
	return FormatText
}

func (c Config) writer() (io.Writer, error) {
	switch {
	case c.Output != nil:
		return c.Output, nil
	case c.Path == "" || c.Path == "-":
		return os.Stderr, nil
	}
	f, err := os.Create(c.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	return f, nil
}

// Shutdown flushes and closes t. A ring-only tracer has nowhere else to put
// its events, so they are dumped as text to w first.
func Shutdown(t Tracer, w io.Writer) error {
	var errs []error
	if ring, ok := t.(*RingTracer); ok {
		if err := ring.Dump(w, FormatText); err != nil {
			errs = append(errs, fmt.Errorf("dump: %w", err))
		}
	}
	if err := t.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("flush: %w", err))
	}
	if err := t.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close: %w", err))
	}
	return errors.Join(errs...)
}
