package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/xela07ax/blaxing-console/internal/domain"
)

var (
	okColor   = color.New(color.FgGreen)
	infoColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
	dimColor  = color.New(color.Faint)
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResult печатает объект как JSON либо одну строку итога.
func (g *globalFlags) printResult(w io.Writer, v any, level domain.NoticeLevel, msg string) error {
	if g.asJSON {
		return printJSON(w, v)
	}
	printNotice(w, level, msg)
	return nil
}

func printNotice(w io.Writer, level domain.NoticeLevel, msg string) {
	switch level {
	case domain.NoticeSuccess:
		okColor.Fprintf(w, "✓ %s\n", msg)
	case domain.NoticeInfo:
		infoColor.Fprintf(w, "• %s\n", msg)
	default:
		errColor.Fprintf(w, "✗ %s\n", msg)
	}
}

func stateColor(s domain.AgentState) *color.Color {
	switch s {
	case domain.StateActive:
		return okColor
	case domain.StateSleep:
		return dimColor
	default:
		return infoColor
	}
}

func printAgents(w io.Writer, agents []domain.Agent) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "AGENT\tSTATE\tUPTIME")
	for _, a := range agents {
		fmt.Fprintf(tw, "%s\t%s\t%ds\n", a.ID, stateColor(a.State).Sprint(a.State), a.Uptime)
	}
	tw.Flush()
}

func printAudit(w io.Writer, items []domain.AuditEntry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACTION\tAGENT\tRESULT")
	for _, e := range items {
		result := okColor.Sprint("ok")
		if !e.Success {
			result = errColor.Sprint("failed")
		}
		if e.UpstreamStatus > 0 {
			result = fmt.Sprintf("%s (%d)", result, e.UpstreamStatus)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Action, e.AgentID, result)
	}
	tw.Flush()
}
