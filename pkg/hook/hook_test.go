package hook

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrhoades1/claude-tracking/pkg/config"
)

var stopAt = time.Date(2026, 2, 14, 22, 10, 5, 0, time.UTC)

func TestParseWithUsage(t *testing.T) {
	p, err := Parse([]byte(`{
		"session_id": "abc-123",
		"cwd": "/home/me/acme",
		"hook_event_name": "Stop",
		"usage": {
			"input_tokens": 12345,
			"output_tokens": 2345,
			"cache_creation_input_tokens": 4567,
			"cache_read_input_tokens": 89012
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "abc-123", p.SessionID)
	assert.Equal(t, "Stop", p.HookEventName)
	require.NotNil(t, p.Usage)
	assert.Equal(t, Usage{12345, 2345, 4567, 89012}, *p.Usage)
}

func TestParseMalformed(t *testing.T) {
	for _, in := range []string{"", "not json", `{"session_id": `} {
		p, err := Parse([]byte(in))
		assert.True(t, errors.Is(err, config.ErrMalformedInput), "%q", in)
		assert.Equal(t, Payload{}, p)
	}
}

func TestTenantCode(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "some-project")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".claude"), 0o755))
	assert.Equal(t, "some-project", TenantCode(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, CodeFile), []byte("\n  ACME-WEB  \nignored\n"), 0644))
	assert.Equal(t, "ACME-WEB", TenantCode(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, CodeFile), []byte("   \n"), 0644))
	assert.Equal(t, "some-project", TenantCode(dir))

	assert.Equal(t, "some-project", TenantCode(`C:\Users\Tracy\Projects\some-project`))
}

func TestRecordFromUsage(t *testing.T) {
	dir := t.TempDir()
	p := Payload{SessionID: "s1", Cwd: dir, Usage: &Usage{InputTokens: 10, OutputTokens: 4, CacheReadTokens: 2}}

	rec, err := p.Record(stopAt)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-14", rec.Date.Format("2006-01-02"))
	assert.Equal(t, "22:10:05", rec.Time)
	assert.Equal(t, filepath.Base(dir), rec.TenantCode)
	assert.Equal(t, dir, rec.Location)
	assert.Equal(t, int64(10), rec.InputTokens)
	assert.Equal(t, int64(2), rec.CacheReadTokens)
}

func TestRecordFromEmptyPayload(t *testing.T) {
	rec, err := Payload{}.Record(stopAt)
	assert.True(t, errors.Is(err, ErrNoUsage))

	wd, _ := os.Getwd()
	assert.Equal(t, wd, rec.Location)
	_, parseErr := uuid.Parse(rec.SessionID)
	assert.NoError(t, parseErr)
	assert.Zero(t, rec.InputTokens)
}

func TestReadTranscriptDedupesMessages(t *testing.T) {
	lines := []string{
		`{"type":"user","message":{"role":"user","content":"hi"}}`,
		`{"type":"assistant","message":{"id":"msg_1","usage":{"input_tokens":10,"output_tokens":1,"cache_read_input_tokens":100}}}`,
		`{"type":"assistant","message":{"id":"msg_1","usage":{"input_tokens":10,"output_tokens":7,"cache_read_input_tokens":100}}}`,
		`{"type":"assistant","message":{"id":"msg_2","usage":{"input_tokens":5,"output_tokens":3,"cache_creation_input_tokens":40}}}`,
		`{"type":"assistant","message":{"usage":{"input_tokens":1}}}`,
		`garbage line`,
		``,
	}
	path := filepath.Join(t.TempDir(), "session.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644))

	u, err := ReadTranscript(path)
	require.NoError(t, err)
	assert.Equal(t, Usage{InputTokens: 16, OutputTokens: 10, CacheWriteTokens: 40, CacheReadTokens: 100}, u)
}

func TestRecordFallsBackToTranscript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"message":{"id":"m","usage":{"input_tokens":3,"output_tokens":2}}}`+"\n"), 0644))

	p, err := Parse([]byte(`{"session_id":"s","cwd":"/tmp/x","transcript_path":"` + filepath.ToSlash(path) + `"}`))
	require.NoError(t, err)
	assert.Nil(t, p.Usage)

	rec, err := p.Record(stopAt)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec.InputTokens)
	assert.Equal(t, int64(2), rec.OutputTokens)
}

func TestRecordMissingTranscript(t *testing.T) {
	p := Payload{SessionID: "s", Cwd: "/tmp/x", TranscriptPath: "/does/not/exist.jsonl"}
	rec, err := p.Record(stopAt)
	assert.Error(t, err)
	assert.Equal(t, "s", rec.SessionID)
}
