// Package dataset reads and writes routing datasets as JSONL.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"

	"github.com/samadpls/archdata/internal/model"
)

const maxLineBytes = 4 << 20

// WriteJSONL writes one JSON record per line.
func WriteJSONL(w io.Writer, records []model.Record) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for i, r := range records {
		if err := enc.Encode(r); err != nil {
			return eris.Wrapf(err, "dataset: encode record %d", i)
		}
	}
	return eris.Wrap(bw.Flush(), "dataset: flush")
}

// ReadJSONL decodes records written by WriteJSONL. Blank lines are skipped;
// unknown augmentation types are rejected.
func ReadJSONL(r io.Reader) ([]model.Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var (
		records []model.Record
		line    int
	)
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec model.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, eris.Wrapf(err, "dataset: decode line %d", line)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "dataset: scan")
	}
	return records, nil
}
