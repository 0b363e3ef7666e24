package assistant

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// genai pulls in opencensus, whose view worker starts in init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type genFunc func(ctx context.Context, p Prompt) (string, error)

func (f genFunc) Generate(ctx context.Context, p Prompt) (string, error) { return f(ctx, p) }

type recordingGen struct {
	mu      sync.Mutex
	prompts []Prompt
	reply   string
}

func (g *recordingGen) Generate(_ context.Context, p Prompt) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, p)
	return g.reply, nil
}

func TestAnswerNotConfiguredStillRemembers(t *testing.T) {
	s := NewService(Options{})
	require.False(t, s.Configured())

	reply, outcome := s.answer(context.Background(), 1, "What courses do you have?")
	assert.Equal(t, NotConfiguredText, reply)
	assert.Equal(t, OutcomeNotConfigured, outcome)
	assert.Equal(t, []Turn{
		{Role: RoleUser, Text: "What courses do you have?"},
		{Role: RoleAssistant, Text: NotConfiguredText},
	}, s.Memory().History(1))
}

func TestAnswerBuildsPromptFromHistory(t *testing.T) {
	gen := &recordingGen{reply: " B1 is intermediate. "}
	s := NewService(Options{Generator: gen, SystemPrompt: "be nice"})

	assert.Equal(t, "B1 is intermediate.", s.Answer(context.Background(), 1, "what is B1?"))
	assert.Equal(t, "B1 is intermediate.", s.Answer(context.Background(), 1, "and B2?"))

	require.Len(t, gen.prompts, 2)
	assert.Empty(t, gen.prompts[0].History)
	assert.Equal(t, []Turn{
		{Role: RoleUser, Text: "what is B1?"},
		{Role: RoleAssistant, Text: "B1 is intermediate."},
	}, gen.prompts[1].History)
	assert.Equal(t, "and B2?", gen.prompts[1].Text)
	assert.Equal(t, "be nice", gen.prompts[1].System)
	assert.Empty(t, s.Memory().History(2), "memory is per user")
}

func TestAnswerFailuresBecomeApology(t *testing.T) {
	cases := map[string]struct {
		gen  Generator
		want Outcome
	}{
		"error": {genFunc(func(context.Context, Prompt) (string, error) { return "", errors.New("quota") }), OutcomeFail},
		"empty": {genFunc(func(context.Context, Prompt) (string, error) { return "  ", nil }), OutcomeFail},
		"timeout": {genFunc(func(ctx context.Context, _ Prompt) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}), OutcomeTimeout},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s := NewService(Options{Generator: tc.gen, Timeout: 20 * time.Millisecond})
			reply, outcome := s.answer(context.Background(), 1, "hi")
			assert.Equal(t, ApologyText, reply)
			assert.Equal(t, tc.want, outcome)
			h := s.Memory().History(1)
			require.Len(t, h, 2)
			assert.Equal(t, ApologyText, h[1].Text)
		})
	}
}

func TestSlowCallDoesNotBlockOtherUsers(t *testing.T) {
	release := make(chan struct{})
	gen := genFunc(func(ctx context.Context, p Prompt) (string, error) {
		if p.Text == "slow" {
			select {
			case <-release:
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		return "done: " + p.Text, nil
	})
	s := NewService(Options{Generator: gen, Workers: 2, Timeout: 5 * time.Second})

	slowDone := make(chan string, 1)
	go func() { slowDone <- s.Answer(context.Background(), 1, "slow") }()

	assert.Equal(t, "done: fast", s.Answer(context.Background(), 2, "fast"))
	select {
	case <-slowDone:
		t.Fatal("slow answer finished before release")
	default:
	}
	close(release)
	assert.Equal(t, "done: slow", <-slowDone)
}

func TestMemoryKeepsLastTurns(t *testing.T) {
	m := NewMemory(3)
	for _, s := range []string{"a", "b", "c", "d"} {
		m.Append(1, RoleUser, s)
	}
	h := m.History(1)
	require.Len(t, h, 3)
	assert.Equal(t, "b", h[0].Text)
	assert.Equal(t, "d", h[2].Text)

	m.Append(2, RoleUser, "x")
	assert.Equal(t, 1, m.Forget(2))
	assert.Equal(t, 0, m.Forget(2))

	m.Append(2, RoleUser, "y")
	assert.Equal(t, 2, m.Reset())
	assert.Empty(t, m.History(1))
}

func TestPromptString(t *testing.T) {
	p := Prompt{
		System:  "sys",
		History: []Turn{{Role: RoleUser, Text: "hi"}, {Role: RoleAssistant, Text: "hello"}},
		Text:    "price?",
	}
	assert.Equal(t, "sys\n\nUser: hi\nAssistant: hello\nUser: price?\nAssistant:", p.String())
}

func TestLoadSystemPrompt(t *testing.T) {
	got, err := LoadSystemPrompt("", "Best School")
	require.NoError(t, err)
	assert.Contains(t, got, "«Best School»")

	got, err = LoadSystemPrompt(filepath.Join(t.TempDir(), "missing.txt"), "Best School")
	require.NoError(t, err)
	assert.Contains(t, got, "«Best School»")

	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("  You work for {SCHOOL_NAME}.\n"), 0o600))
	got, err = LoadSystemPrompt(path, "Best School")
	require.NoError(t, err)
	assert.Equal(t, "You work for Best School.", got)
	assert.False(t, strings.Contains(got, schoolPlaceholder))
}
