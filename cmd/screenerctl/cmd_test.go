package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/voice-screener/internal/services"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestScriptShow_DefaultScript(t *testing.T) {
	out, err := run(t, "script", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "Phase 1 script")
	assert.Contains(t, out, "role")
	assert.Contains(t, out, "upload: resume")
	assert.Contains(t, out, "Others ✗")
}

func TestScriptCheck(t *testing.T) {
	out, err := run(t, "script", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "embedded script is valid")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("entries:\n  - id: a\n    kind: dance\n    content: hi\n"), 0o644))

	out, err = run(t, "script", "check", "-f", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "problem(s)")
	assert.Contains(t, out, "PROBLEM")
	assert.Contains(t, out, `unknown kind "dance"`)
}

func TestIngest_DryRunCountsChunks(t *testing.T) {
	dir := t.TempDir()
	md := filepath.Join(dir, "swe.md")
	require.NoError(t, os.WriteFile(md, []byte("Explain goroutines.\n\nDescribe a code review you disagreed with."), 0o644))

	out, err := run(t, "ingest", "--role", "Software Engineer", "--kind", "technical", "--dry-run", md)
	require.NoError(t, err)
	assert.Contains(t, out, "dry run")
	assert.Contains(t, out, "Software Engineer")
}

func TestIngest_RequiresRole(t *testing.T) {
	_, err := run(t, "ingest", "--dry-run", "x.md")
	assert.Error(t, err)
}

type embedOnly struct{ err error }

func (e embedOnly) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return []float32{1}, e.err
}
func (embedOnly) GenerateJSON(context.Context, string, float32) (string, error) { return "", nil }
func (embedOnly) GenerateJSONWithRetry(context.Context, string, float32, int) (string, error) {
	return "", nil
}

type memoryBank struct {
	deleted []string
	entries []services.BankEntry
}

func (m *memoryBank) InitCollection(context.Context) error { return nil }
func (m *memoryBank) Upsert(_ context.Context, e []services.BankEntry) error {
	m.entries = append(m.entries, e...)
	return nil
}
func (m *memoryBank) SearchRole(context.Context, []float32, string, int) ([]services.SearchResult, error) {
	return nil, nil
}
func (m *memoryBank) DeleteSource(_ context.Context, s string) error {
	m.deleted = append(m.deleted, s)
	return nil
}
func (m *memoryBank) Close() error { return nil }

func TestRunIngest_StoresEveryChunk(t *testing.T) {
	bank := &memoryBank{}
	docs := []sourceDocument{{Path: "a.md", Text: "one\n\ntwo"}}
	opts := ingestOptions{role: "QA", kind: "behavioral", maxRunes: 4, overlap: 0}

	var out bytes.Buffer
	require.NoError(t, runIngest(context.Background(), &out, docs, opts, embedOnly{}, bank))

	assert.Equal(t, []string{"a.md"}, bank.deleted)
	require.Len(t, bank.entries, 2)
	assert.Equal(t, "two", bank.entries[1].Text)
	assert.Equal(t, 1, bank.entries[1].Chunk)
	assert.Equal(t, "QA", bank.entries[0].Role)
}

func TestRunIngest_ReportsFailures(t *testing.T) {
	bank := &memoryBank{}
	docs := []sourceDocument{{Path: "a.md", Text: "one"}}
	opts := ingestOptions{role: "QA", kind: "technical", maxRunes: 100}

	var out bytes.Buffer
	err := runIngest(context.Background(), &out, docs, opts, embedOnly{err: errors.New("quota")}, bank)
	assert.ErrorContains(t, err, "1 of 1")
	assert.Contains(t, out.String(), "quota")
	assert.Empty(t, bank.entries)
}
