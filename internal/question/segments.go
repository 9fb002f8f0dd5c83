package question

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// segmentsFile is the on-disk shape of a structured segments file.
type segmentsFile struct {
	Segments []Segment `yaml:"segments"`
}

// LoadSegments reads document segments from a file. YAML files carry explicit
// ids and positions; any other extension is treated as extracted plain text
// with form-feed page breaks, one segment per page.
func LoadSegments(path string) ([]Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read segments: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return parseSegmentsYAML(data)
	default:
		return splitPlainText(data), nil
	}
}

func parseSegmentsYAML(data []byte) ([]Segment, error) {
	var file segmentsFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse segments: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("parse segments: multiple documents are not supported")
		}
		return nil, fmt.Errorf("parse segments: %w", err)
	}
	if len(file.Segments) == 0 {
		return nil, fmt.Errorf("segments file has no segments")
	}
	seen := map[string]struct{}{}
	for i := range file.Segments {
		file.Segments[i].ID = strings.TrimSpace(file.Segments[i].ID)
		if file.Segments[i].ID == "" {
			return nil, fmt.Errorf("segments[%d]: missing id", i)
		}
		if _, exists := seen[file.Segments[i].ID]; exists {
			return nil, fmt.Errorf("segments[%d]: duplicate id %q", i, file.Segments[i].ID)
		}
		seen[file.Segments[i].ID] = struct{}{}
		if file.Segments[i].Position == 0 {
			file.Segments[i].Position = i + 1
		}
	}
	return file.Segments, nil
}

// splitPlainText treats form feeds as page breaks, matching the output of
// common PDF text extractors.
func splitPlainText(data []byte) []Segment {
	pages := strings.Split(string(data), "\f")
	segments := make([]Segment, 0, len(pages))
	for i, page := range pages {
		text := strings.TrimSpace(page)
		if text == "" {
			continue
		}
		segments = append(segments, Segment{
			ID:       fmt.Sprintf("p%d", i+1),
			Text:     text,
			Position: i + 1,
		})
	}
	return segments
}
