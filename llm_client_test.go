package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	calls   int
	model   string
	prompts []string
	answer  string
	err     error
}

func (g *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	g.calls++
	g.model = model
	for _, c := range contents {
		for _, p := range c.Parts {
			g.prompts = append(g.prompts, p.Text)
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: g.answer}}},
		}},
	}, nil
}

func emitN(t *testing.T, c *LLMClient, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		entry := SlowlogEntry{ID: uint64(i), Duration: time.Duration(i+1) * time.Millisecond, Command: []string{"ZRANGE", "board", "0", "-1"}, Address: "10.1.1.1:4000", ClientName: "ranker"}
		require.NoError(t, c.Emit(context.Background(), entry, time.Unix(ts, 0)))
	}
}

func TestLLMClient_GenerateDigest(t *testing.T) {
	out := filepath.Join(t.TempDir(), "digest.md")
	gen := &fakeGenerator{answer: "# Digest\n\n- use ZSCAN"}
	c := NewLLMClient(gen, "", out, 3)

	emitN(t, c, 2)
	written, err := c.GenerateDigest(context.Background())
	require.NoError(t, err)
	assert.False(t, written)
	assert.Equal(t, 0, gen.calls)

	emitN(t, c, 1)
	written, err = c.GenerateDigest(context.Background())
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, defaultModel, gen.model)
	assert.Equal(t, 0, c.Pending())

	body, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "# Digest\n\n- use ZSCAN", string(body))

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "There are 3 slow commands to analyze")
	assert.Contains(t, gen.prompts[0], "ZRANGE board 0 -1")
	assert.Contains(t, gen.prompts[0], "Client name: ranker")
}

func TestLLMClient_FailureKeepsPending(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	c := NewLLMClient(gen, "gemini-test", filepath.Join(t.TempDir(), "digest.md"), 1)

	emitN(t, c, 2)
	written, err := c.GenerateDigest(context.Background())
	assert.ErrorContains(t, err, "quota exceeded")
	assert.False(t, written)
	assert.Equal(t, 2, c.Pending())
	assert.Equal(t, "gemini-test", gen.model)
}

func TestLLMClient_PendingIsCapped(t *testing.T) {
	c := NewLLMClient(&fakeGenerator{}, "", "unused.md", maxPendingDigestEntries*2)
	emitN(t, c, maxPendingDigestEntries+25)
	assert.Equal(t, maxPendingDigestEntries, c.Pending())
	assert.Equal(t, uint64(25), c.pending[0].entry.ID)
}

func TestMonitor_WithDigest(t *testing.T) {
	out := filepath.Join(t.TempDir(), "digest.md")
	gen := &fakeGenerator{answer: "ok"}
	src := &fakeSource{batches: [][]interface{}{{
		legacyRecord(1, ts, 10, "GET", "a"),
		legacyRecord(2, ts, 10, "GET", "b"),
	}}}
	m, _, _ := newTestMonitor(t, src, nil, WithDigest(NewLLMClient(gen, "", out, 2)))

	_, err := m.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, gen.calls)
	assert.FileExists(t, out)

	_, err = m.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, gen.calls)
}
