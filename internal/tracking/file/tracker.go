// Package file stores each tracked run as a JSON-lines file under
// <dir>/<project>/<run id>.jsonl.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/DjordjeVuckovic/jart-trainer/internal/tracking"
	"github.com/google/uuid"
)

const (
	EventInit   = "init"
	EventConfig = "config"
	EventLog    = "log"
	EventFinish = "finish"
)

// Line is one JSON line of a run file.
type Line struct {
	Event      string            `json:"event"`
	Run        *tracking.RunInfo `json:"run,omitempty"`
	Config     map[string]any    `json:"config,omitempty"`
	Record     *tracking.Record  `json:"record,omitempty"`
	Status     tracking.Status   `json:"status,omitempty"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
}

type Tracker struct {
	dir string
}

func NewTracker(dir string) (*Tracker, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create tracking dir: %w", err)
	}
	return &Tracker{dir: dir}, nil
}

func (t *Tracker) Init(_ context.Context, spec tracking.RunSpec) (tracking.Run, error) {
	info := tracking.NewRunInfo(spec)

	projectDir := filepath.Join(t.dir, projectDirName(info.Project))
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		return nil, fmt.Errorf("create project dir: %w", err)
	}

	path := filepath.Join(projectDir, info.ID.String()+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("create run file: %w", err)
	}

	r, err := startRun(info, path, f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	slog.Info("Tracking run started", "id", info.ID, "path", path)
	return r, nil
}

func (t *Tracker) Close() error {
	return nil
}

func projectDirName(project string) string {
	name := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, strings.TrimSpace(project))
	if name == "" || name == "." || name == ".." {
		return "default"
	}
	return name
}

// flushSize is the amount of pending output that triggers a write before
// the run finishes.
const flushSize = 4096

type run struct {
	id   uuid.UUID
	path string
	out  io.WriteCloser

	// pending holds encoded lines not yet written to out; a failed write
	// leaves its unwritten tail here
	pending bytes.Buffer
	enc     *json.Encoder
	done    bool
}

func startRun(info tracking.RunInfo, path string, out io.WriteCloser) (*run, error) {
	r := &run{
		id:   info.ID,
		path: path,
		out:  out,
	}
	r.enc = json.NewEncoder(&r.pending)
	if err := r.write(Line{Event: EventInit, Run: &info}); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *run) ID() uuid.UUID {
	return r.id
}

// Path is the location of the run file.
func (r *run) Path() string {
	return r.path
}

func (r *run) UpdateConfig(_ context.Context, cfg map[string]any) error {
	return r.write(Line{Event: EventConfig, Config: cfg})
}

func (r *run) Log(_ context.Context, rec tracking.Record) error {
	return r.write(Line{Event: EventLog, Record: &rec})
}

// Finish appends the finish event and writes everything pending. The run
// stays open when the write fails; the last finish event in a file wins, so
// a retried Finish overrides an earlier attempt that was partly written.
func (r *run) Finish(_ context.Context, status tracking.Status) error {
	if r.done {
		return tracking.ErrRunFinished
	}
	now := time.Now().UTC()
	if err := r.enc.Encode(Line{Event: EventFinish, Status: status, FinishedAt: &now}); err != nil {
		return fmt.Errorf("write %s event: %w", EventFinish, err)
	}
	if err := r.flush(); err != nil {
		return err
	}
	r.done = true
	if err := r.out.Close(); err != nil {
		return fmt.Errorf("close run file: %w", err)
	}
	return nil
}

func (r *run) write(l Line) error {
	if r.done {
		return tracking.ErrRunFinished
	}
	if err := r.enc.Encode(l); err != nil {
		return fmt.Errorf("write %s event: %w", l.Event, err)
	}
	if r.pending.Len() >= flushSize {
		return r.flush()
	}
	return nil
}

func (r *run) flush() error {
	n, err := r.out.Write(r.pending.Bytes())
	r.pending.Next(n)
	if err != nil {
		return fmt.Errorf("flush run file: %w", err)
	}
	return nil
}

// ReadRun parses a run file back into its lines.
func ReadRun(path string) ([]Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open run file: %w", err)
	}
	defer f.Close()

	var lines []Line
	dec := json.NewDecoder(f)
	for dec.More() {
		var l Line
		if err := dec.Decode(&l); err != nil {
			// a run still being written may end in a partial line
			if errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, fmt.Errorf("decode run file: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, nil
}
