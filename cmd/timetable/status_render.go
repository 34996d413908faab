package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"

	"timetable/internal/preflight"
	"timetable/internal/syncer"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

var statusStyles = map[statusKind]struct {
	label  string
	colors text.Colors
}{
	statusInfo:  {"INFO", text.Colors{text.FgBlue}},
	statusOK:    {"OK", text.Colors{text.FgGreen}},
	statusWarn:  {"WARN", text.Colors{text.FgYellow}},
	statusError: {"ERROR", text.Colors{text.FgRed}},
}

// statusReport accumulates labelled status lines grouped under section
// headers, e.g.
//
//	== Sync ==
//	  Last sync:           [OK] 2026-10-14 09:30:00 via primary
type statusReport struct {
	lines    []string
	colorize bool
}

func newStatusReport(colorize bool) *statusReport {
	return &statusReport{colorize: colorize}
}

func (r *statusReport) section(title string) {
	if len(r.lines) > 0 {
		r.lines = append(r.lines, "")
	}
	header := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	if r.colorize {
		header = text.Colors{text.FgBlue, text.Bold}.Sprint(header)
	}
	r.lines = append(r.lines, header)
}

func (r *statusReport) add(label string, kind statusKind, message string) {
	r.lines = append(r.lines, renderStatusLine(label, kind, message, r.colorize))
}

func (r *statusReport) raw(line string) {
	r.lines = append(r.lines, line)
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style, ok := statusStyles[kind]
	if !ok {
		style = statusStyles[statusInfo]
	}
	badge := "[" + style.label + "]"
	if message != "" {
		badge += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", badge)
	if colorize {
		return style.colors.Sprint(line)
	}
	return line
}

// phaseKind grades the orchestrator phase: a failed pass is an error, a pass
// in flight is informational.
func phaseKind(p syncer.Phase) statusKind {
	switch p {
	case syncer.PhaseFailed:
		return statusError
	case syncer.PhaseTryingFallback:
		return statusWarn
	case syncer.PhaseDone:
		return statusOK
	default:
		return statusInfo
	}
}

func freshnessKind(refreshDue bool) statusKind {
	if refreshDue {
		return statusWarn
	}
	return statusOK
}

func checkKind(r preflight.Result) statusKind {
	switch {
	case r.Skipped:
		return statusInfo
	case !r.Passed:
		return statusError
	default:
		return statusOK
	}
}
