// Package corpus loads labeled-utterance corpora from disk.
package corpus

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/samadpls/archdata/internal/model"
)

// Load reads a corpus keyed by partition name. Files ending in .yaml or .yml
// are decoded as YAML; everything else as JSON.
func Load(path string) (model.Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "corpus: read %s", path)
	}

	c, err := Decode(data, filepath.Ext(path))
	if err != nil {
		return nil, eris.Wrapf(err, "corpus: decode %s", path)
	}

	fields := []zap.Field{zap.String("path", path)}
	for _, p := range model.Partitions {
		fields = append(fields, zap.Int(p, len(c[p])))
	}
	zap.L().Info("corpus loaded", fields...)
	return c, nil
}

// Decode parses corpus bytes. ext selects the format as in Load.
func Decode(data []byte, ext string) (model.Corpus, error) {
	var c model.Corpus
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, eris.Wrap(err, "corpus: yaml")
		}
	default:
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, eris.Wrap(err, "corpus: json")
		}
	}
	if c == nil {
		return nil, eris.New("corpus: empty document")
	}
	return c, nil
}
