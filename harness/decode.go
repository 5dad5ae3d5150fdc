package harness

// decode.go turns the harness's newline-delimited JSON report into events.

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"unicode/utf8"

	"github.com/acarl005/stripansi"
	"github.com/autograde/autograde/model"
)

const (
	initialLineSize = 64 * 1024
	maxLineSize     = 1024 * 1024
	maxSnippetLen   = 120
)

var errNotObject = errors.New("line is not a JSON object")

// Decode reads harness output and returns its events in stream order.
// Blank lines are skipped. Any other line must hold exactly one JSON object;
// the first line that does not aborts decoding with a *DecodeError.
func Decode(r io.Reader) ([]model.RawEvent, error) {
	scanner := bufio.NewScanner(r)
	// Allow long lines, failure messages can be verbose
	scanner.Buffer(make([]byte, 0, initialLineSize), maxLineSize)

	var events []model.RawEvent
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		if line[0] != '{' {
			return nil, &DecodeError{Line: lineNo, Text: snippet(line), Err: errNotObject}
		}

		var event model.RawEvent
		if err := json.Unmarshal(line, &event); err != nil {
			return nil, &DecodeError{Line: lineNo, Text: snippet(line), Err: err}
		}
		event.Line = lineNo
		events = append(events, event)
	}

	if err := scanner.Err(); err != nil {
		return nil, &DecodeError{Line: lineNo + 1, Err: err}
	}

	return events, nil
}

// DecodeBytes is a convenience for decoding captured output.
func DecodeBytes(data []byte) ([]model.RawEvent, error) {
	return Decode(bytes.NewReader(data))
}

// snippet prepares an offending line for inclusion in a diagnostic.
func snippet(line []byte) string {
	s := stripansi.Strip(string(line))
	if utf8.RuneCountInString(s) <= maxSnippetLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxSnippetLen]) + "..."
}
