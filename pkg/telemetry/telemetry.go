// Package telemetry renders run status for the operator.
//
// A Sink collects caption/value lines during a control cycle and publishes
// them as one frame on Update, the way a driver station refreshes its
// telemetry pane.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/petrijr/autoplan/pkg/api"
)

// Sink receives telemetry lines.
type Sink interface {
	AddData(caption string, value any)
	Update(ctx context.Context)
}

// Line is one caption/value pair of a frame.
type Line struct {
	Caption string
	Value   string
}

// LogSink publishes frames to a slog.Logger. Frames are throttled: when
// Update is called faster than the configured rate, the frame is dropped.
type LogSink struct {
	logger  *slog.Logger
	limiter *rate.Limiter

	mu    sync.Mutex
	frame []Line
}

// NewLogSink creates a LogSink that publishes at most perSecond frames per
// second. perSecond <= 0 defaults to 1.
func NewLogSink(logger *slog.Logger, perSecond int) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	if perSecond <= 0 {
		perSecond = 1
	}
	return &LogSink{
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

func (s *LogSink) AddData(caption string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = append(s.frame, Line{Caption: caption, Value: fmt.Sprint(value)})
}

// Update publishes and clears the current frame.
func (s *LogSink) Update(ctx context.Context) {
	s.mu.Lock()
	frame := s.frame
	s.frame = nil
	s.mu.Unlock()

	if len(frame) == 0 || !s.limiter.Allow() {
		return
	}
	attrs := make([]any, 0, len(frame))
	for _, l := range frame {
		attrs = append(attrs, slog.String(l.Caption, l.Value))
	}
	s.logger.InfoContext(ctx, "telemetry", attrs...)
}

// Recorder keeps every published frame in memory.
type Recorder struct {
	mu      sync.Mutex
	pending []Line
	frames  [][]Line
}

func (r *Recorder) AddData(caption string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, Line{Caption: caption, Value: fmt.Sprint(value)})
}

func (r *Recorder) Update(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, r.pending)
	r.pending = nil
}

// Frames returns a copy of the published frames.
func (r *Recorder) Frames() [][]Line {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]Line, len(r.frames))
	copy(out, r.frames)
	return out
}

// Last returns the most recent frame, or nil.
func (r *Recorder) Last() []Line {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return nil
	}
	return r.frames[len(r.frames)-1]
}

// ReportStatus adds the lines describing st to sink. It does not call Update.
func ReportStatus(sink Sink, st api.Status) {
	sink.AddData("Plan", st.Plan)
	switch {
	case st.Complete:
		sink.AddData("Status", "complete")
		sink.AddData("Time", st.Elapsed.Round(time.Millisecond))
		return
	case st.State == api.StateFailed:
		sink.AddData("Status", "build failed")
		return
	}
	sink.AddData("Stage", fmt.Sprintf("%d/%d", st.Stage+1, st.Stages))
	for _, desc := range st.Active {
		sink.AddData("Running", desc)
	}
}
