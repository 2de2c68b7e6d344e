// Package markdown maintains study journal notes: YAML frontmatter plus
// generated blocks that are rewritten in place without touching the text
// the user wrote around them.
package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const separator = "---\n"

type Note struct {
	Meta map[string]any
	Body string
}

func Parse(content string) (Note, error) {
	if !strings.HasPrefix(content, separator) {
		return Note{Meta: map[string]any{}, Body: content}, nil
	}
	rest := strings.TrimPrefix(content, separator)
	idx := strings.Index(rest, "\n"+separator)
	if idx < 0 {
		return Note{}, fmt.Errorf("invalid frontmatter: missing closing separator")
	}
	meta := map[string]any{}
	if err := yaml.Unmarshal([]byte(rest[:idx]), &meta); err != nil {
		return Note{}, fmt.Errorf("unmarshal frontmatter: %w", err)
	}
	return Note{Meta: meta, Body: rest[idx+len("\n"+separator):]}, nil
}

func (n Note) Render() (string, error) {
	var buf bytes.Buffer
	if len(n.Meta) > 0 {
		raw, err := yaml.Marshal(n.Meta)
		if err != nil {
			return "", fmt.Errorf("marshal frontmatter: %w", err)
		}
		buf.WriteString(separator)
		buf.Write(raw)
		buf.WriteString(separator)
		if !strings.HasPrefix(n.Body, "\n") {
			buf.WriteString("\n")
		}
	}
	buf.WriteString(n.Body)
	return buf.String(), nil
}

// Merge overwrites the given frontmatter keys and keeps the rest.
func (n *Note) Merge(meta map[string]any) {
	if n.Meta == nil {
		n.Meta = map[string]any{}
	}
	for k, v := range meta {
		n.Meta[k] = v
	}
}

func blockMarkers(name string) (string, string) {
	return "<!-- studystreak:" + name + ":start -->", "<!-- studystreak:" + name + ":end -->"
}

// ReplaceBlock swaps the named generated block for content, appending the
// block when the note does not have one yet.
func (n *Note) ReplaceBlock(name, content string) {
	startMarker, endMarker := blockMarkers(name)
	block := startMarker + "\n" + strings.TrimRight(content, "\n") + "\n" + endMarker

	start := strings.Index(n.Body, startMarker)
	end := strings.Index(n.Body, endMarker)
	switch {
	case start >= 0 && end > start:
		n.Body = n.Body[:start] + block + n.Body[end+len(endMarker):]
	case strings.TrimSpace(n.Body) == "":
		n.Body = block + "\n"
	case strings.HasSuffix(n.Body, "\n"):
		n.Body = n.Body + "\n" + block + "\n"
	default:
		n.Body = n.Body + "\n\n" + block + "\n"
	}
}

// UpdateFile loads the note at path (an absent file is an empty note),
// applies fn and writes the result atomically.
func UpdateFile(path string, fn func(*Note)) error {
	raw, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read note: %w", err)
	}
	note, err := Parse(string(raw))
	if err != nil {
		return err
	}
	fn(&note)
	out, err := note.Render()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create note dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write note: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace note: %w", err)
	}
	return nil
}
