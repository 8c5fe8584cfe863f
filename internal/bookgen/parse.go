package bookgen

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
)

// Message is one chat line extracted from an export file.
type Message struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Conversation groups the messages of one export file.
type Conversation struct {
	Name     string
	Messages []Message
}

var (
	// "12/05/2023, 21:04 - Awa: on se voit demain ?" (WhatsApp txt export)
	whatsappLine = regexp.MustCompile(`^.{6,25}-\s*([^:]{1,40}):\s*(.+)$`)
	htmlTag      = regexp.MustCompile(`<[^>]*>`)
)

// ExtractArchive walks a conversation-export zip and parses every supported
// entry (json, txt, html). Unsupported entries are skipped, not fatal; an
// archive that yields no messages at all is an error.
func ExtractArchive(r io.ReaderAt, size int64) ([]Conversation, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	var out []Conversation
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		ext := strings.ToLower(path.Ext(f.Name))
		if ext != ".json" && ext != ".txt" && ext != ".html" {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read entry %s: %w", f.Name, err)
		}

		var msgs []Message
		switch ext {
		case ".json":
			msgs = parseJSON(raw)
		case ".txt":
			msgs = parseText(string(raw))
		case ".html":
			msgs = parseText(htmlTag.ReplaceAllString(string(raw), "\n"))
		}
		if len(msgs) == 0 {
			continue
		}
		out = append(out, Conversation{
			Name:     strings.TrimSuffix(path.Base(f.Name), ext),
			Messages: msgs,
		})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("archive contains no readable conversations (expected json, txt or html exports)")
	}
	return out, nil
}

func parseJSON(raw []byte) []Message {
	// Either a bare array of messages or {"messages": [...]}.
	var direct []Message
	if err := json.Unmarshal(raw, &direct); err == nil {
		return nonEmpty(direct)
	}
	var wrapped struct {
		Messages []Message `json:"messages"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		return nonEmpty(wrapped.Messages)
	}
	return nil
}

func parseText(s string) []Message {
	var msgs []Message
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := whatsappLine.FindStringSubmatch(line); m != nil {
			msgs = append(msgs, Message{Sender: strings.TrimSpace(m[1]), Text: strings.TrimSpace(m[2])})
			continue
		}
		msgs = append(msgs, Message{Text: line})
	}
	return msgs
}

func nonEmpty(in []Message) []Message {
	var out []Message
	for _, m := range in {
		if strings.TrimSpace(m.Text) != "" {
			out = append(out, m)
		}
	}
	return out
}
