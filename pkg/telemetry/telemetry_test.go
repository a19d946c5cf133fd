package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/petrijr/autoplan/pkg/api"
)

func TestReportStatus_Running(t *testing.T) {
	var rec Recorder
	ReportStatus(&rec, api.Status{
		Plan:   "left",
		State:  api.StateRunning,
		Stage:  1,
		Stages: 3,
		Active: []string{"drive 1.2m", "lift 0.4m"},
	})
	rec.Update(context.Background())

	require.Equal(t, []Line{
		{Caption: "Plan", Value: "left"},
		{Caption: "Stage", Value: "2/3"},
		{Caption: "Running", Value: "drive 1.2m"},
		{Caption: "Running", Value: "lift 0.4m"},
	}, rec.Last())
}

func TestReportStatus_CompleteAndFailed(t *testing.T) {
	var rec Recorder
	ReportStatus(&rec, api.Status{Plan: "left", State: api.StateComplete, Complete: true, Elapsed: 12 * time.Second})
	rec.Update(context.Background())
	require.Equal(t, []Line{
		{Caption: "Plan", Value: "left"},
		{Caption: "Status", Value: "complete"},
		{Caption: "Time", Value: "12s"},
	}, rec.Last())

	ReportStatus(&rec, api.Status{Plan: "left", State: api.StateFailed})
	rec.Update(context.Background())
	require.Equal(t, "build failed", rec.Last()[1].Value)
	require.Len(t, rec.Frames(), 2)
}

func TestLogSink_ThrottlesFrames(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	sink := NewLogSink(logger, 1)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		sink.AddData("Running", "drive")
		sink.Update(ctx)
	}

	require.Equal(t, 1, strings.Count(buf.String(), "msg=telemetry"), buf.String())
	require.Contains(t, buf.String(), "Running=drive")
}

func TestLogSink_EmptyFrameIsNotPublished(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewTextHandler(&buf, nil)), 10)
	sink.Update(context.Background())
	require.Empty(t, buf.String())
}
