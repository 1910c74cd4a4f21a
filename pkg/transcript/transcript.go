// Package transcript imports conversation logs into conversation graphs.
//
// A transcript is JSON Lines, one message per line:
//
//	{"id":"m1","created_at":"2025-03-01T09:00:00Z","role":"user","content":"Hi"}
//	{"id":"m2","parent":"m1","created_at":"2025-03-01T09:00:05Z","role":"assistant","content":"Hello"}
//	{"id":"m3","parents":["m2","m7"],"created_at":"2025-03-01T09:04:00Z","role":"assistant","content":"Merged"}
//
// A message with one parent is linked by a parent edge. A message with several
// parents becomes a merged message, linked from each parent by a merge edge.
// A parent must appear on an earlier line than its reply, which keeps the
// imported graph acyclic; references to later or unknown messages are dropped.
// Lines are processed leniently: malformed lines are skipped and counted in
// [Stats] rather than failing the import.
package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/branchview/pkg/errors"
	"github.com/matzehuels/branchview/pkg/graph"
)

// maxLineBytes bounds a single transcript line.
const maxLineBytes = 10 << 20

// Message is one line of a transcript.
type Message struct {
	ID        string    `json:"id"`
	Parent    string    `json:"parent,omitempty"`
	Parents   []string  `json:"parents,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Role      string    `json:"role,omitempty"`
	Content   string    `json:"content,omitempty"`
	Model     string    `json:"model,omitempty"`
}

// parentIDs merges Parent and Parents, dropping blanks and repeats.
func (m Message) parentIDs() []string {
	var ids []string
	for _, p := range append([]string{m.Parent}, m.Parents...) {
		if p != "" && p != m.ID && !slices.Contains(ids, p) {
			ids = append(ids, p)
		}
	}
	return ids
}

// Stats summarizes an import.
type Stats struct {
	Lines          int // non-empty lines read
	Messages       int // messages imported
	Skipped        int // malformed, invalid or duplicate lines
	GeneratedIDs   int // messages given a fresh ID
	Undated        int // messages that inherited the previous timestamp
	DroppedParents int // parent references to unknown or later messages
}

// Options configures an import.
type Options struct {
	Logger *log.Logger   // nil: log.Default()
	NewID  func() string // nil: uuid.NewString
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}

func (o Options) newID() string {
	if o.NewID != nil {
		return o.NewID()
	}
	return uuid.NewString()
}

// ReadFile imports the transcript at path.
func ReadFile(path string, opts Options) (graph.Graph, Stats, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return graph.Graph{}, Stats{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "transcript %s", path)
	}
	if err != nil {
		return graph.Graph{}, Stats{}, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()
	return Read(f, opts)
}

// Read imports a transcript. Only I/O failures are returned as errors.
func Read(r io.Reader, opts Options) (graph.Graph, Stats, error) {
	logger := opts.logger()
	var (
		stats    Stats
		messages []Message
		seen     = make(map[string]bool)
		last     time.Time
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		stats.Lines++

		var m Message
		if err := json.Unmarshal(line, &m); err != nil {
			logger.Debug("skipping malformed line", "line", lineNum, "error", err)
			stats.Skipped++
			continue
		}

		if m.ID == "" {
			m.ID = opts.newID()
			stats.GeneratedIDs++
		}
		if err := errors.ValidateNodeID(m.ID); err != nil {
			logger.Debug("skipping message", "line", lineNum, "error", errors.UserMessage(err))
			stats.Skipped++
			continue
		}
		if seen[m.ID] {
			logger.Debug("skipping duplicate message", "line", lineNum, "id", m.ID)
			stats.Skipped++
			continue
		}

		if m.CreatedAt.IsZero() {
			if last.IsZero() {
				logger.Debug("skipping undated message", "line", lineNum, "id", m.ID)
				stats.Skipped++
				continue
			}
			m.CreatedAt = last
			stats.Undated++
		}
		last = m.CreatedAt

		seen[m.ID] = true
		messages = append(messages, m)
	}
	if err := scanner.Err(); err != nil {
		return graph.Graph{}, stats, fmt.Errorf("read transcript: %w", err)
	}

	g := build(messages, &stats)
	stats.Messages = len(g.Nodes)
	logger.Debug("transcript imported",
		"messages", stats.Messages,
		"edges", len(g.Edges),
		"skipped", stats.Skipped,
		"dropped_parents", stats.DroppedParents)
	return g, stats, nil
}

// build links each message to the parents that precede it in the file.
func build(messages []Message, stats *Stats) graph.Graph {
	known := make(map[string]bool, len(messages))
	g := graph.Graph{
		Nodes: make([]graph.Node, 0, len(messages)),
		Edges: make([]graph.Edge, 0, len(messages)),
	}
	for _, m := range messages {
		var parents []string
		for _, p := range m.parentIDs() {
			if known[p] {
				parents = append(parents, p)
			} else {
				stats.DroppedParents++
			}
		}

		kind, edgeKind := graph.KindMessage, graph.EdgeParent
		if len(parents) > 1 {
			kind, edgeKind = graph.KindMergedMessage, graph.EdgeMerge
		}

		g.Nodes = append(g.Nodes, graph.Node{
			ID:        m.ID,
			Kind:      kind,
			Timestamp: m.CreatedAt,
			Payload:   payload(m),
		})
		known[m.ID] = true
		for _, p := range parents {
			g.Edges = append(g.Edges, graph.Edge{
				ID:     p + "->" + m.ID,
				Source: p,
				Target: m.ID,
				Kind:   edgeKind,
			})
		}
	}
	return g
}

func payload(m Message) map[string]any {
	p := make(map[string]any, 3)
	if m.Role != "" {
		p["role"] = m.Role
	}
	if m.Content != "" {
		p["content"] = m.Content
	}
	if m.Model != "" {
		p["model"] = m.Model
	}
	if len(p) == 0 {
		return nil
	}
	return p
}
