// Package chunkstore reads and writes chunk record files: one JSON object per line.
package chunkstore

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gaiuszzang/VibeRAG/internal/domain"
)

// maxLineSize bounds a single record line.
const maxLineSize = 16 * 1024 * 1024

// Record is a chunk as stored on disk. Everything except ID and Text is optional.
type Record struct {
	ID        string  `json:"id"`
	Text      string  `json:"text"`
	Source    *string `json:"source,omitempty"`
	Section   *string `json:"section,omitempty"`
	Chunk     *int    `json:"chunk,omitempty"`
	CharStart *int    `json:"char_start,omitempty"`
	CharEnd   *int    `json:"char_end,omitempty"`
}

// FromChunk converts an assembled chunk into its stored form.
func FromChunk(c domain.Chunk) Record {
	r := Record{
		ID:        c.ID,
		Text:      c.Text,
		Chunk:     ptr(c.Index),
		CharStart: ptr(c.CharStart),
		CharEnd:   ptr(c.CharEnd),
	}
	if c.Source != "" {
		r.Source = ptr(c.Source)
	}
	if c.Section != "" {
		r.Section = ptr(c.Section)
	}
	return r
}

// RecordError reports a line that could not be parsed into a Record.
type RecordError struct {
	Line    int
	Content string
	Err     error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("parse chunk record (line %d): %v\ncontent: %s", e.Line, e.Err, e.Content)
}

func (e *RecordError) Unwrap() []error { return []error{domain.ErrMalformedRecord, e.Err} }

// Write encodes chunks to w, one record per line.
func Write(w io.Writer, chunks []domain.Chunk) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for _, c := range chunks {
		if err := enc.Encode(FromChunk(c)); err != nil {
			return fmt.Errorf("encode chunk %s: %w", c.ID, err)
		}
	}
	return bw.Flush()
}

// WriteFile writes chunks to path, replacing any existing file.
func WriteFile(path string, chunks []domain.Chunk) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, chunks); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Read decodes every record from r. Blank lines are skipped and unknown keys
// ignored. The first malformed line stops reading with a *RecordError.
func Read(r io.Reader) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var out []Record
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Text()
		if strings.TrimSpace(raw) == "" {
			continue
		}
		rec, err := parse(raw)
		if err != nil {
			return nil, &RecordError{Line: line, Content: raw, Err: err}
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read chunk records: %w", err)
	}
	return out, nil
}

// ReadFile reads all records from path.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

func parse(raw string) (Record, error) {
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return Record{}, err
	}
	if rec.ID == "" {
		return Record{}, errors.New("missing field \"id\"")
	}
	if rec.Text == "" {
		return Record{}, errors.New("missing field \"text\"")
	}
	return rec, nil
}

func ptr[T any](v T) *T { return &v }
