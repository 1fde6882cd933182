// Package hook turns an assistant Stop-hook event into a usage record.
package hook

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/jrhoades1/claude-tracking/pkg/config"
	"github.com/jrhoades1/claude-tracking/pkg/models"
)

// CodeFile is the per-project file naming the tenant, relative to the session cwd.
var CodeFile = filepath.Join(".claude", "project-code.txt")

// maxTranscriptLine bounds a single JSONL transcript entry.
const maxTranscriptLine = 16 * 1024 * 1024

// Usage holds the four token counts reported for a session.
type Usage struct {
	InputTokens      int64
	OutputTokens     int64
	CacheWriteTokens int64
	CacheReadTokens  int64
}

// Payload is the subset of the Stop-hook event the tracker uses.
type Payload struct {
	SessionID      string
	Cwd            string
	HookEventName  string
	TranscriptPath string
	// Usage is nil when the event carries no usage object.
	Usage *Usage
}

// Parse decodes a hook event. Invalid JSON yields an empty payload and an
// error wrapping config.ErrMalformedInput; callers still log the session.
func Parse(data []byte) (Payload, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || !gjson.ValidBytes(data) {
		return Payload{}, fmt.Errorf("hook payload: %w", config.ErrMalformedInput)
	}
	p := Payload{
		SessionID:      gjson.GetBytes(data, "session_id").String(),
		Cwd:            gjson.GetBytes(data, "cwd").String(),
		HookEventName:  gjson.GetBytes(data, "hook_event_name").String(),
		TranscriptPath: gjson.GetBytes(data, "transcript_path").String(),
	}
	if u := gjson.GetBytes(data, "usage"); u.IsObject() {
		usage := usageFrom(u)
		p.Usage = &usage
	}
	return p, nil
}

// ReadPayload reads and parses the event from r.
func ReadPayload(r io.Reader) (Payload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Payload{}, fmt.Errorf("read hook payload: %w", err)
	}
	return Parse(data)
}

func usageFrom(u gjson.Result) Usage {
	return Usage{
		InputTokens:      u.Get("input_tokens").Int(),
		OutputTokens:     u.Get("output_tokens").Int(),
		CacheWriteTokens: u.Get("cache_creation_input_tokens").Int(),
		CacheReadTokens:  u.Get("cache_read_input_tokens").Int(),
	}
}

// ReadTranscript sums message usage across a JSONL transcript. Entries
// repeating a message id count once, using the last entry seen.
func ReadTranscript(path string) (Usage, error) {
	f, err := os.Open(path)
	if err != nil {
		return Usage{}, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	byID := make(map[string]Usage)
	var order []string
	var anonymous Usage

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxTranscriptLine)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || !gjson.ValidBytes(line) {
			continue
		}
		u := gjson.GetBytes(line, "message.usage")
		if !u.IsObject() {
			continue
		}
		usage := usageFrom(u)
		id := gjson.GetBytes(line, "message.id").String()
		if id == "" {
			anonymous.add(usage)
			continue
		}
		if _, seen := byID[id]; !seen {
			order = append(order, id)
		}
		byID[id] = usage
	}
	if err := scanner.Err(); err != nil {
		return Usage{}, fmt.Errorf("read transcript: %w", err)
	}

	total := anonymous
	for _, id := range order {
		total.add(byID[id])
	}
	return total, nil
}

func (u *Usage) add(o Usage) {
	u.InputTokens += o.InputTokens
	u.OutputTokens += o.OutputTokens
	u.CacheWriteTokens += o.CacheWriteTokens
	u.CacheReadTokens += o.CacheReadTokens
}

// TenantCode returns the first non-empty line of <cwd>/.claude/project-code.txt,
// falling back to the directory's base name.
func TenantCode(cwd string) string {
	data, err := os.ReadFile(filepath.Join(cwd, CodeFile))
	if err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			if code := strings.TrimSpace(line); code != "" {
				return code
			}
		}
	}
	return baseName(cwd)
}

// baseName handles both slash styles, since hook events from Windows
// sessions carry backslash paths.
func baseName(path string) string {
	path = strings.TrimRight(path, `/\`)
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// ErrNoUsage is returned by Record when neither the event nor a transcript
// supplied token counts. The record is still returned with zero counts.
var ErrNoUsage = errors.New("no usage in hook event")

// Record builds the usage record for the event at time now (UTC).
// A blank cwd falls back to the working directory and a blank session id
// to a fresh uuid.
func (p Payload) Record(now time.Time) (models.SessionUsageRecord, error) {
	now = now.UTC()
	cwd := p.Cwd
	if cwd == "" {
		if wd, err := os.Getwd(); err == nil {
			cwd = wd
		}
	}
	sessionID := p.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	rec := models.SessionUsageRecord{
		Date:       time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		Time:       now.Format("15:04:05"),
		TenantCode: TenantCode(cwd),
		SessionID:  sessionID,
		Location:   cwd,
	}

	var usage Usage
	var err error
	switch {
	case p.Usage != nil:
		usage = *p.Usage
	case p.TranscriptPath != "":
		usage, err = ReadTranscript(p.TranscriptPath)
	default:
		err = ErrNoUsage
	}

	rec.InputTokens = usage.InputTokens
	rec.OutputTokens = usage.OutputTokens
	rec.CacheWriteTokens = usage.CacheWriteTokens
	rec.CacheReadTokens = usage.CacheReadTokens
	return rec, err
}
