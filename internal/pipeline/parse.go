package pipeline

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/samadpls/archdata/internal/model"
)

// extractObject returns the span from the first '{' to the last '}'.
func extractObject(stage, text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", &ParseError{Stage: stage, Err: eris.New("no JSON object in response")}
	}
	return text[start : end+1], nil
}

// extractArray returns the span from the first '[' to the last ']'.
func extractArray(stage, text string) (string, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return "", &FormatError{Stage: stage, Delimiter: "JSON array"}
	}
	return text[start : end+1], nil
}

// arrayLineBlock rebuilds an array from whole lines: the first line that
// starts with '[' through the first later line that ends with ']'.
func arrayLineBlock(text string) string {
	var block []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(block) == 0 {
			if strings.HasPrefix(trimmed, "[") {
				block = append(block, line)
			}
			continue
		}
		block = append(block, line)
		if strings.HasSuffix(trimmed, "]") {
			break
		}
	}
	return strings.Join(block, "\n")
}

type rawTurn struct {
	Role    *string `json:"role"`
	Content *string `json:"content"`
}

// decodeTurns decodes a JSON array of turns. Syntax problems yield a
// ParseError; structurally bad turns a ValidationError.
func decodeTurns(stage, raw string) ([]model.Turn, error) {
	var items []rawTurn
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, &ParseError{Stage: stage, Err: err}
	}

	turns := make([]model.Turn, 0, len(items))
	for i, it := range items {
		if it.Role == nil {
			return nil, &ValidationError{Stage: stage, Field: "role", Err: eris.Errorf("turn %d has no role", i)}
		}
		if it.Content == nil {
			return nil, &ValidationError{Stage: stage, Field: "content", Err: eris.Errorf("turn %d has no content", i)}
		}
		turns = append(turns, model.Turn{Role: model.Role(*it.Role), Content: *it.Content})
	}
	if err := model.ValidateTurns(turns); err != nil {
		return nil, &ValidationError{Stage: stage, Field: "turns", Err: err}
	}
	return turns, nil
}

// ParseTurns recovers a turn array from loosely formatted model output. It
// isolates the outermost array, removes # and // comments outside strings
// and inserts missing commas between adjacent objects before decoding. The
// body of the first markdown fence is tried only when the raw text does not
// yield turns.
func ParseTurns(stage, text string) ([]model.Turn, error) {
	turns, err := parseTurnSpan(stage, text)
	if err == nil {
		return turns, nil
	}
	if fenced := stripFences(text); fenced != text {
		if turns, ferr := parseTurnSpan(stage, fenced); ferr == nil {
			return turns, nil
		}
	}
	return nil, err
}

func parseTurnSpan(stage, text string) ([]model.Turn, error) {
	body := text
	if start, end := strings.Index(body, "["), strings.LastIndex(body, "]"); start >= 0 && end > start {
		body = body[start : end+1]
	}
	body = normalizeJSON(body)
	if strings.TrimSpace(body) == "" {
		return nil, &ParseError{Stage: stage, Err: eris.New("empty response")}
	}
	return decodeTurns(stage, body)
}

// stripFences returns the body of the first ``` fenced block, or text when
// there is none.
func stripFences(text string) string {
	open := strings.Index(text, "```")
	if open < 0 {
		return text
	}
	rest := text[open+3:]
	// Drop the info string (e.g. "json") on the opening fence line.
	if nl := strings.Index(rest, "\n"); nl >= 0 && !strings.ContainsAny(rest[:nl], "[{") {
		rest = rest[nl+1:]
	}
	if closing := strings.Index(rest, "```"); closing >= 0 {
		rest = rest[:closing]
	}
	return rest
}

// normalizeJSON removes comments and inserts commas between object
// literals separated only by whitespace. String contents are left alone.
func normalizeJSON(s string) string {
	var (
		b        strings.Builder
		inString bool
		escaped  bool
		lastSig  byte
	)
	b.Grow(len(s) + 8)

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
				lastSig = c
			}
			continue
		}

		switch {
		case c == '#', c == '/' && i+1 < len(s) && s[i+1] == '/':
			for i < len(s) && s[i] != '\n' {
				i++
			}
			if i < len(s) {
				b.WriteByte('\n')
			}
			continue
		case c == '"':
			inString = true
		case c == '{' && lastSig == '}':
			b.WriteByte(',')
		}

		b.WriteByte(c)
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			lastSig = c
		}
	}
	return b.String()
}
