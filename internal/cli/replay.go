package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/branchview/pkg/graph"
	"github.com/matzehuels/branchview/pkg/timeline"
)

const (
	scrubStep    = 0.05
	barWidth     = 40
	recentWindow = 8
)

var (
	replayBarFull  = lipgloss.NewStyle().Foreground(colorCyan)
	replayBarEmpty = lipgloss.NewStyle().Foreground(colorDim)
	replayPlaying  = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	replayIdle     = lipgloss.NewStyle().Foreground(colorGray)
	replayRole     = lipgloss.NewStyle().Foreground(colorBlue).Width(10)
	replayMerged   = lipgloss.NewStyle().Foreground(colorYellow)
)

// replayCommand creates the replay command for interactive playback.
func (c *CLI) replayCommand() *cobra.Command {
	var (
		tick time.Duration
		step float64
	)

	cmd := &cobra.Command{
		Use:   "replay [graph.json | layout.json]",
		Short: "Replay a conversation's history in the terminal",
		Long: `Replay a conversation's history in the terminal.

Keys:
  space   play from the start / pause
  s       stop, keeping the position
  r       reset (show everything)
  ←/→     scrub backward/forward
  home    jump to the oldest message
  end     jump to now
  q       quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg.Timeline
			if tick > 0 {
				cfg.Tick = tick
			}
			if step > 0 {
				cfg.Step = step
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return c.runReplay(cmd.Context(), args[0], cfg)
		},
	}

	cmd.Flags().DurationVar(&tick, "tick", 0, "playback tick interval (default from config)")
	cmd.Flags().Float64Var(&step, "step", 0, "position advance per tick (default from config)")
	return cmd
}

func (c *CLI) runReplay(ctx context.Context, input string, cfg timeline.Config) error {
	g, _, err := loadInput(input)
	if err != nil {
		return err
	}

	player := timeline.NewPlayer(cfg, timeline.WithLogger(c.Logger))
	defer player.Close()

	m := newReplayModel(player, g, input)
	defer m.feed.close()
	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

// snapshotMsg carries a player change into the bubbletea event loop.
type snapshotMsg timeline.Snapshot

// snapshotFeed forwards player changes to the UI, keeping only the latest
// unread snapshot. Publishing never blocks, so listeners may fire from
// inside Update.
type snapshotFeed struct {
	mu        sync.Mutex
	ch        chan timeline.Snapshot
	done      chan struct{}
	closeOnce sync.Once
}

func newSnapshotFeed() *snapshotFeed {
	return &snapshotFeed{
		ch:   make(chan timeline.Snapshot, 1),
		done: make(chan struct{}),
	}
}

// close releases a pending next command. It is safe to call more than once.
func (f *snapshotFeed) close() {
	f.closeOnce.Do(func() { close(f.done) })
}

func (f *snapshotFeed) publish(s timeline.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.ch:
	default:
	}
	f.ch <- s
}

// next waits for the following snapshot. After close it returns a nil
// message, which bubbletea ignores.
func (f *snapshotFeed) next() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-f.ch:
			return snapshotMsg(s)
		case <-f.done:
			return nil
		}
	}
}

// replayModel is the bubbletea model for playback.
type replayModel struct {
	player *timeline.Player
	feed   *snapshotFeed
	title  string
	nodes  []graph.Node // sorted by timestamp
	times  []time.Time
	snap   timeline.Snapshot
	width  int
}

func newReplayModel(player *timeline.Player, g graph.Graph, title string) replayModel {
	nodes := slices.Clone(g.Nodes)
	slices.SortStableFunc(nodes, func(a, b graph.Node) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	feed := newSnapshotFeed()
	player.OnChange(feed.publish)

	return replayModel{
		player: player,
		feed:   feed,
		title:  title,
		nodes:  nodes,
		times:  graph.Timestamps(nodes),
		snap:   player.Snapshot(),
		width:  barWidth,
	}
}

func (m replayModel) Init() tea.Cmd {
	return m.feed.next()
}

func (m replayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.snap = timeline.Snapshot(msg)
		return m, m.feed.next()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.player.Close()
			m.feed.close()
			return m, tea.Quit
		case " ":
			m.player.Start()
		case "s":
			m.player.Stop()
		case "r":
			m.player.Reset()
		case "left", "h":
			m.player.SetPosition(m.player.Position() - scrubStep)
		case "right", "l":
			m.player.SetPosition(m.player.Position() + scrubStep)
		case "home":
			m.player.SetPosition(0)
		case "end":
			m.player.SetPosition(1)
		}
		m.snap = m.player.Snapshot()
	case tea.WindowSizeMsg:
		m.width = min(max(msg.Width-20, 10), 80)
	}
	return m, nil
}

func (m replayModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Replay " + m.title))
	b.WriteString("\n\n")

	filled := int(m.snap.Position*float64(m.width) + 0.5)
	b.WriteString(replayBarFull.Render(strings.Repeat("█", filled)))
	b.WriteString(replayBarEmpty.Render(strings.Repeat("░", m.width-filled)))
	fmt.Fprintf(&b, " %3d%%  ", m.snap.Percentage)
	if m.snap.Animating() {
		b.WriteString(replayPlaying.Render("▶ " + m.snap.State.String()))
	} else {
		b.WriteString(replayIdle.Render("■ " + m.snap.State.String()))
	}
	b.WriteString("\n")

	win := m.player.Window(m.times)
	visible := 0
	for _, ts := range m.times {
		if win.Contains(ts) {
			visible++
		}
	}
	line := fmt.Sprintf("%d of %d messages", visible, len(m.nodes))
	if cutoff, ok := win.Cutoff(); ok {
		line += " · until " + cutoff.Local().Format("2006-01-02 15:04:05")
	}
	b.WriteString(StyleDim.Render(line))
	b.WriteString("\n\n")

	// nodes are sorted, so the visible ones form a prefix.
	start := max(visible-recentWindow, 0)
	for _, n := range m.nodes[start:visible] {
		b.WriteString(m.renderMessage(n))
		b.WriteString("\n")
	}
	if visible == 0 {
		b.WriteString(StyleDim.Render("  (nothing yet)"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(StyleDim.Render("space play/pause  s stop  r reset  ←/→ scrub  q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m replayModel) renderMessage(n graph.Node) string {
	role, _ := n.Payload["role"].(string)
	label := n.Label()
	if r := []rune(label); len(r) > 60 {
		label = string(r[:59]) + "…"
	}
	label = strings.ReplaceAll(label, "\n", " ")
	if n.IsMerged() {
		label = replayMerged.Render("⑂ ") + label
	}
	return "  " + StyleDim.Render(n.Timestamp.Local().Format("15:04:05")) + " " + replayRole.Render(role) + " " + label
}
