package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samadpls/archdata/internal/model"
)

func TestCheckRecord(t *testing.T) {
	valid := testRecords()[0]
	assert.NoError(t, checkRecord(valid))

	tests := []struct {
		name   string
		mutate func(r *model.Record)
		want   string
	}{
		{"empty conversation", func(r *model.Record) { r.Conversation = nil }, "empty conversation"},
		{"bad role", func(r *model.Record) {
			r.Conversation = []model.Turn{{Role: "system", Content: "x"}}
		}, "unexpected role"},
		{"missing action", func(r *model.Record) { r.Action = "" }, "missing domain or action"},
		{"unknown type", func(r *model.Record) { r.AugmentationType = "shuffle" }, "unknown augmentation type"},
		{"score mismatch", func(r *model.Record) { r.LabelScore = 0.5 }, "does not match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testRecords()[0]
			tt.mutate(&r)
			err := checkRecord(r)
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.want)
			}
		})
	}
}

func TestFormatIntents(t *testing.T) {
	var buf bytes.Buffer
	formatIntents(&buf, []model.Intent{
		{Name: "transfer", Examples: []string{"a", "b"}},
		{Name: "credit_limit", Examples: []string{"c"}},
	})

	out := buf.String()
	assert.Contains(t, out, "INTENT")
	assert.Contains(t, out, "general")
	assert.Contains(t, out, "credit")
	assert.Contains(t, out, "limit")
}
