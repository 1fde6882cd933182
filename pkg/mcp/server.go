// Package mcp exposes usage reports to assistants as a stdio MCP server.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jrhoades1/claude-tracking/pkg/ledger"
	"github.com/jrhoades1/claude-tracking/pkg/models"
)

// Backend is the subset of the ledger engine the tools read from.
type Backend interface {
	BuildReport(ctx context.Context, q ledger.Query) (*ledger.Report, error)
	Expenses(ctx context.Context, p models.Period, code string) []ledger.TenantExpenses
	Tenants(ctx context.Context) models.Registry
}

// Server answers newline-delimited JSON-RPC 2.0 over a pair of streams.
type Server struct {
	backend Backend
	version string
	now     func() time.Time
}

// New creates a Server.
func New(b Backend, version string) *Server {
	return &Server{
		backend: b,
		version: version,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run serves requests read from r until r is exhausted or ctx is cancelled.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.write(w, errorFor(nil, CodeParseError, "parse error"))
			continue
		}
		if resp := s.dispatch(ctx, &req); resp != nil {
			s.write(w, resp)
		}
	}
	return scanner.Err()
}

func (s *Server) dispatch(ctx context.Context, req *Request) *Response {
	log.WithField("method", req.Method).Debug("mcp request")
	switch req.Method {
	case "initialize":
		return resultFor(req, InitializeResult{
			ProtocolVersion: protocolVersion,
			ServerInfo:      ServerInfo{Name: "cctrack", Version: s.version},
			Instructions:    "Reports assistant usage, allocated cost and project expenses per billing month.",
		})
	case "ping":
		return resultFor(req, struct{}{})
	case "tools/list":
		return resultFor(req, ToolsListResult{Tools: tools})
	case "tools/call":
		var params ToolCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorFor(req.ID, CodeInvalidParams, "invalid params")
		}
		return resultFor(req, s.call(ctx, params))
	}
	if req.IsNotification() {
		return nil
	}
	return errorFor(req.ID, CodeMethodNotFound, fmt.Sprintf("unknown method: %s", req.Method))
}

func (s *Server) write(w io.Writer, resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		log.WithError(err).Error("mcp: marshal response")
		return
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		log.WithError(err).Error("mcp: write response")
	}
}
