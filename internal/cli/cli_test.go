package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/branchview/pkg/errors"
	"github.com/matzehuels/branchview/pkg/graph"
)

const transcriptJSONL = `{"id":"q","created_at":"2025-03-01T09:00:00Z","role":"user","content":"Which approach?"}
{"id":"a","parent":"q","created_at":"2025-03-01T09:00:05Z","role":"assistant","content":"Option A"}
{"id":"b","parent":"q","created_at":"2025-03-01T09:00:10Z","role":"assistant","content":"Option B"}
{"id":"m","parents":["a","b"],"created_at":"2025-03-01T09:01:00Z","role":"assistant","content":"Combined"}
not json
`

// testEnv isolates config and cache directories for one test.
type testEnv struct {
	t         *testing.T
	dir       string
	cacheHome string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{t: t, dir: t.TempDir(), cacheHome: t.TempDir()}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", env.cacheHome)
	return env
}

func (e *testEnv) path(name string) string { return filepath.Join(e.dir, name) }

func (e *testEnv) write(name, content string) string {
	e.t.Helper()
	p := e.path(name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		e.t.Fatal(err)
	}
	return p
}

func (e *testEnv) writeTranscript() string { return e.write("chat.jsonl", transcriptJSONL) }

// run executes the CLI and returns what commands wrote to cmd.OutOrStdout.
func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestImportLayoutRender(t *testing.T) {
	env := newTestEnv(t)
	in := env.writeTranscript()

	if _, err := env.run("import", in); err != nil {
		t.Fatalf("import: %v", err)
	}
	graphPath := env.path("chat.graph.json")
	g, err := graph.ReadGraphFile(graphPath)
	if err != nil {
		t.Fatal(err)
	}
	if g.NodeCount() != 4 {
		t.Fatalf("imported %d nodes, want 4", g.NodeCount())
	}
	if !g.Nodes[3].IsMerged() {
		t.Errorf("node %s should be merged", g.Nodes[3].ID)
	}

	if _, err := env.run("layout", graphPath, "--direction", "LR"); err != nil {
		t.Fatalf("layout: %v", err)
	}
	layoutPath := env.path("chat.graph.layout.json")
	l, err := graph.ReadLayoutFile(layoutPath)
	if err != nil {
		t.Fatal(err)
	}
	if l.Direction != graph.DirectionLR {
		t.Errorf("direction = %s, want LR", l.Direction)
	}
	if l.Ranks["q"] != 0 || l.Ranks["a"] != 1 || l.Ranks["b"] != 1 || l.Ranks["m"] != 2 {
		t.Errorf("ranks = %v", l.Ranks)
	}

	base := filepath.Join(env.dir, "out", "chat")
	if _, err := env.run("render", layoutPath, "-f", "dot,json", "-o", base); err != nil {
		t.Fatalf("render: %v", err)
	}
	dot, err := os.ReadFile(base + ".dot")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(dot), `"q" -> "a" [tailport=e, headport=w];`) {
		t.Errorf("dot should use LR ports:\n%s", dot)
	}
	if _, err := graph.ReadLayoutFile(base + ".json"); err != nil {
		t.Errorf("json artifact: %v", err)
	}
}

func TestRenderSnapshot(t *testing.T) {
	env := newTestEnv(t)
	in := env.writeTranscript()
	if _, err := env.run("import", in); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		at   string
		want []string
	}{
		{"0", []string{"q"}},
		{"0.5", []string{"q", "a", "b"}},
		{"1", []string{"q", "a", "b", "m"}},
	}
	for _, tt := range tests {
		t.Run(tt.at, func(t *testing.T) {
			out := env.path("snap-" + tt.at + ".json")
			_, err := env.run("render", env.path("chat.graph.json"),
				"-f", "json", "-o", out, "--at", tt.at, "--now", "2025-03-01T09:01:00Z")
			if err != nil {
				t.Fatal(err)
			}
			l, err := graph.ReadLayoutFile(out)
			if err != nil {
				t.Fatal(err)
			}
			var ids []string
			for _, n := range l.Nodes {
				ids = append(ids, n.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.want, ",") {
				t.Errorf("visible = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestRenderErrors(t *testing.T) {
	env := newTestEnv(t)
	cyclic := env.write("cyclic.json", `{
		"nodes": [
			{"id": "a", "timestamp": "2025-03-01T09:00:00Z"},
			{"id": "b", "timestamp": "2025-03-01T09:00:01Z"}
		],
		"edges": [{"source": "a", "target": "b"}, {"source": "b", "target": "a"}]
	}`)
	valid := env.write("valid.json", `{"nodes": [{"id": "a", "timestamp": "2025-03-01T09:00:00Z"}]}`)

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"MissingFile", []string{"render", env.path("nope.json")}, errors.ErrCodeFileNotFound},
		{"Cycle", []string{"layout", cyclic}, errors.ErrCodeInvalidGraph},
		{"Format", []string{"render", valid, "-f", "gif"}, errors.ErrCodeInvalidFormat},
		{"Direction", []string{"layout", valid, "-d", "up"}, errors.ErrCodeInvalidDirection},
		{"Now", []string{"render", valid, "--at", "0.5", "--now", "yesterday"}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(tt.args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestConfigShow(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run("config", "show")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"[server]", `addr = ":8080"`, "[layout]"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}
}

func TestConfigFlag(t *testing.T) {
	env := newTestEnv(t)
	cfgPath := env.write("custom.toml", "[server]\naddr = \":9999\"\n")

	out, err := env.run("--config", cfgPath, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `addr = ":9999"`) {
		t.Errorf("config file not applied:\n%s", out)
	}

	out, err = env.run("--config", cfgPath, "config", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != cfgPath {
		t.Errorf("config path = %q, want %q", out, cfgPath)
	}

	bad := env.write("bad.toml", "[server]\nport = 1\n")
	if _, err := env.run("--config", bad, "config", "show"); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("unknown key error = %v, want INVALID_CONFIG", err)
	}
	if _, err := env.run("--config", env.path("missing.toml"), "config", "show"); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing config error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestCompletion(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run("completion", "bash")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, appName) {
		t.Error("bash completion should mention the program name")
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, output, format string
		single                bool
		want                  string
	}{
		{"chat.graph.json", "", "svg", true, "chat.graph.svg"},
		{"chat.graph.layout.json", "", "png", false, "chat.graph.png"},
		{"chat.json", "diagram.svg", "svg", true, "diagram.svg"},
		{"chat.json", "diagram.svg", "png", false, "diagram.png"},
		{"chat.json", "out/diagram", "dot", false, "out/diagram.dot"},
	}
	for _, tt := range tests {
		if got := outputPath(tt.input, tt.output, tt.format, tt.single); got != tt.want {
			t.Errorf("outputPath(%q, %q, %q, %v) = %q, want %q",
				tt.input, tt.output, tt.format, tt.single, got, tt.want)
		}
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "svg"},
		{"svg", "svg"},
		{"svg, png,,pdf", "svg,png,pdf"},
	}
	for _, tt := range tests {
		if got := strings.Join(parseFormats(tt.input), ","); got != tt.want {
			t.Errorf("parseFormats(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
