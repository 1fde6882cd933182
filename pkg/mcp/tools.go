package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jrhoades1/claude-tracking/pkg/ledger"
	"github.com/jrhoades1/claude-tracking/pkg/models"
	"github.com/jrhoades1/claude-tracking/pkg/registry"
	"github.com/jrhoades1/claude-tracking/pkg/report"
)

type reportArgs struct {
	Month   string `json:"month"`
	Project string `json:"project"`
	All     bool   `json:"all"`
	Format  string `json:"format"`
}

type toolHandler func(ctx context.Context, s *Server, args reportArgs) ToolCallResult

var handlers = map[string]toolHandler{
	"cctrack_report":   handleReport,
	"cctrack_expenses": handleExpenses,
	"cctrack_projects": handleProjects,
}

var (
	monthProp   = Property{Type: "string", Description: "Billing month as YYYY-MM (optional, defaults to the current month)"}
	projectProp = Property{Type: "string", Description: "Restrict to one project code (optional)"}
)

var tools = []Tool{
	{
		Name:        "cctrack_report",
		Description: "Token usage per project for a month, with each project's share of the subscription or metered cost and its expenses.",
		InputSchema: Schema{Type: "object", Properties: map[string]Property{
			"month":   monthProp,
			"project": projectProp,
			"all":     {Type: "boolean", Description: "Report all recorded sessions instead of one month"},
			"format":  {Type: "string", Description: `"text" (default) or "markdown"`},
		}},
	},
	{
		Name:        "cctrack_expenses",
		Description: "Project expenses due in a month, including recurring items that are not due with their next due month.",
		InputSchema: Schema{Type: "object", Properties: map[string]Property{
			"month":   monthProp,
			"project": projectProp,
		}},
	},
	{
		Name:        "cctrack_projects",
		Description: "Registered project codes with their working directory and the date they were last seen.",
		InputSchema: Schema{Type: "object", Properties: map[string]Property{}},
	},
}

func (s *Server) call(ctx context.Context, params ToolCallParams) ToolCallResult {
	h, ok := handlers[params.Name]
	if !ok {
		return errorResult(fmt.Sprintf("unknown tool: %s", params.Name))
	}
	var args reportArgs
	if len(params.Arguments) > 0 {
		if err := json.Unmarshal(params.Arguments, &args); err != nil {
			return errorResult("invalid arguments: " + err.Error())
		}
	}
	return h(ctx, s, args)
}

func (s *Server) period(month string) (models.Period, error) {
	if month == "" {
		return models.PeriodOf(s.now()), nil
	}
	return models.ParsePeriod(month)
}

func handleReport(ctx context.Context, s *Server, args reportArgs) ToolCallResult {
	q := ledger.Query{Tenant: args.Project}
	if !args.All {
		p, err := s.period(args.Month)
		if err != nil {
			return errorResult(err.Error())
		}
		q.Period = &p
	}
	rep, err := s.backend.BuildReport(ctx, q)
	if err != nil {
		return errorResult("Error building report: " + err.Error())
	}
	if args.Format == "markdown" {
		return textResult(report.Markdown(rep))
	}
	return textResult(report.Text(rep))
}

func handleExpenses(ctx context.Context, s *Server, args reportArgs) ToolCallResult {
	p, err := s.period(args.Month)
	if err != nil {
		return errorResult(err.Error())
	}
	return textResult(report.Expenses(p.ShortLabel(), s.backend.Expenses(ctx, p, args.Project)))
}

func handleProjects(ctx context.Context, s *Server, _ reportArgs) ToolCallResult {
	entries := registry.Sorted(s.backend.Tenants(ctx))
	if len(entries) == 0 {
		return textResult("No projects registered.")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-24s %-12s %s\n", "PROJECT", "LAST SEEN", "LOCATION")
	b.WriteString(strings.Repeat("-", 70) + "\n")
	for _, e := range entries {
		seen := "--"
		if !e.LastSeen.IsZero() {
			seen = e.LastSeen.Format(models.DateLayout)
		}
		fmt.Fprintf(&b, "%-24s %-12s %s\n", e.Code, seen, e.Location)
	}
	return textResult(b.String())
}

func textResult(text string) ToolCallResult {
	return ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

func errorResult(text string) ToolCallResult {
	return ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}, IsError: true}
}
