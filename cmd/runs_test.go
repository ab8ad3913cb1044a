package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/samadpls/archdata/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:        "abc12345-6789-0000-0000-000000000000",
			Status:    model.RunStatusComplete,
			Config:    model.RunConfig{Provider: "anthropic"},
			Stats:     &model.RunStats{Records: 12},
			CreatedAt: now,
			UpdatedAt: now.Add(2 * time.Minute),
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Status:    model.RunStatusSynthesizing,
			Config:    model.RunConfig{Provider: "groq"},
			CreatedAt: now.Add(-1 * time.Hour),
			UpdatedAt: now.Add(-30 * time.Minute),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "PROVIDER")
	assert.Contains(t, output, "RECORDS")
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-6789")
	assert.Contains(t, output, "anthropic")
	assert.Contains(t, output, "complete")
	assert.Contains(t, output, "12")
	assert.Contains(t, output, "2m0s")
	assert.Contains(t, output, "groq")
	assert.Contains(t, output, "synthesizing")
	assert.Contains(t, output, "2025-06-15 10:30")
}

func TestFormatDuration(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	run := model.Run{Status: model.RunStatusFailed, CreatedAt: now, UpdatedAt: now.Add(90 * time.Second)}
	assert.Equal(t, "1m30s", formatDuration(run))

	run.Status = model.RunStatusAugmenting
	assert.Equal(t, "-", formatDuration(run))
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789-0000"))
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "", truncateID(""))
}
