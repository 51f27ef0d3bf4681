package display

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/hammamikhairi/moonrace/internal/domain"
)

type stubState struct{ snap domain.Snapshot }

func (s stubState) Snapshot() domain.Snapshot { return s.snap }

type stubFeed struct {
	msgs      []domain.CommentaryMessage
	composing bool
}

func (f stubFeed) Messages() []domain.CommentaryMessage { return f.msgs }
func (f stubFeed) IsComposing() bool                    { return f.composing }

type stubNarration struct {
	enabled, supported bool
}

func (n stubNarration) Enabled() bool     { return n.enabled }
func (n stubNarration) IsSupported() bool { return n.supported }
func (n stubNarration) Backend() string   { return "local" }

func testSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Competitors: [2]domain.Competitor{
			{Symbol: "BTC", State: domain.CompetitorState{Position: 45, Odds: 52, Volume: 1_250_000}},
			{Symbol: "ETH", State: domain.CompetitorState{Position: 61.3, Odds: 48, Volume: 980_000}},
		},
		Tick: 7,
	}
}

func TestFmtVolume(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0"},
		{999, "$999"},
		{980_000, "$980K"},
		{1_250_000, "$1.25M"},
	}
	for _, tt := range tests {
		if got := fmtVolume(tt.in); got != tt.want {
			t.Errorf("fmtVolume(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTrackClampsMarker(t *testing.T) {
	for _, pos := range []float64{-5, 0, 50, 100, 140} {
		got := track(pos, 20)
		if n := len([]rune(got)); n != 20 {
			t.Errorf("track(%v) has %d cells, want 20", pos, n)
		}
		if strings.Count(got, "●") != 1 {
			t.Errorf("track(%v) = %q, want exactly one marker", pos, got)
		}
	}
	if !strings.HasPrefix(track(0, 10), "●") {
		t.Error("marker should sit at the start for position 0")
	}
	if !strings.HasSuffix(track(100, 10), "●") {
		t.Error("marker should sit at the end for position 100")
	}
}

func TestRenderCompetitors(t *testing.T) {
	out := renderCompetitors(testSnapshot(), 100)
	for _, want := range []string{"BTC", "ETH", "61.3%", "$1.25M", "$980K"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "\n"); n != 1 {
		t.Errorf("expected two lines, got %d", n+1)
	}
}

func TestRenderFeed(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 30, 5, 0, time.UTC)
	msgs := []domain.CommentaryMessage{
		{ID: 1, Text: "Welcome", Tone: domain.ToneNeutral, CreatedAt: at},
		{ID: 2, Text: "BTC surges", Tone: domain.ToneBullish, CreatedAt: at},
	}

	out := renderFeed(msgs, false, 80)
	if !strings.Contains(out, "12:30:05") || !strings.Contains(out, "BTC surges") {
		t.Errorf("unexpected feed:\n%s", out)
	}
	if strings.Contains(out, "typing") {
		t.Error("typing indicator shown while not composing")
	}

	out = renderFeed(msgs, true, 80)
	if !strings.Contains(out, "typing") {
		t.Error("typing indicator missing while composing")
	}

	if got := renderFeed(nil, true, 80); !strings.Contains(got, "typing") {
		t.Errorf("empty feed while composing = %q", got)
	}
}

func TestRenderFeedTruncatesLongLines(t *testing.T) {
	msgs := []domain.CommentaryMessage{{Text: strings.Repeat("x", 200)}}
	out := renderFeed(msgs, false, 40)
	if !strings.Contains(out, "…") {
		t.Errorf("long line not truncated: %q", out)
	}
}

func TestNarrationLabel(t *testing.T) {
	tests := []struct {
		in   narrationInfo
		want string
	}{
		{narrationInfo{supported: false}, "voice: unavailable"},
		{narrationInfo{supported: true}, "voice: off"},
		{narrationInfo{supported: true, enabled: true, backend: "google"}, "voice: on (google)"},
	}
	for _, tt := range tests {
		if got := narrationLabel(tt.in); got != tt.want {
			t.Errorf("narrationLabel(%+v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestModelRefreshAndView(t *testing.T) {
	u := NewUI(
		stubState{snap: testSnapshot()},
		stubFeed{msgs: []domain.CommentaryMessage{{ID: 3, Text: "ETH takes the lead"}}, composing: true},
		stubNarration{enabled: true, supported: true},
		WithRefreshInterval(time.Second),
	)
	if u.refresh != time.Second {
		t.Fatalf("refresh = %v", u.refresh)
	}

	m := model{ui: u, input: textinput.New()}
	m.refreshView()
	if m.view.snapshot.Tick != 7 {
		t.Errorf("snapshot not captured: %+v", m.view.snapshot)
	}
	if !m.view.composing || len(m.view.messages) != 1 {
		t.Errorf("feed not captured: %+v", m.view)
	}

	view := m.View()
	for _, want := range []string{"BTC vs ETH", "tick 7", "voice: on (local)", "ETH takes the lead", "typing"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModelEnterSendsInput(t *testing.T) {
	u := NewUI(stubState{snap: testSnapshot()}, stubFeed{}, stubNarration{})
	m := model{ui: u, input: textinput.New(), inputCh: u.inputCh, echoFn: func(string) {}}
	m.input.SetValue("boost btc 50")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	select {
	case got := <-u.InputChan():
		if got != "boost btc 50" {
			t.Errorf("input = %q", got)
		}
	default:
		t.Fatal("no input delivered")
	}
	if v := next.(model).input.Value(); v != "" {
		t.Errorf("input not reset: %q", v)
	}
}

func TestTitleStr(t *testing.T) {
	got := titleStr(testSnapshot())
	if !strings.Contains(got, "ETH leads at 61.3%") {
		t.Errorf("titleStr = %q", got)
	}
}

func TestCenterBanner(t *testing.T) {
	out := centerBanner("ab\nabcd\n", 10)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "   ") {
		t.Errorf("line not padded: %q", lines[0])
	}
}
