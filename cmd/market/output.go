package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/robfig/cron/v3"
	"github.com/rxtech-lab/argo-marketdata/internal/logger"
)

// newTable returns a borderless table whose styles are bound to w, so
// color is only emitted when w is a terminal.
func newTable(w io.Writer, headers ...string) *table.Table {
	renderer := lipgloss.NewRenderer(w)
	cell := renderer.NewStyle().PaddingRight(2)
	header := cell.Bold(true)

	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}

			return cell
		}).
		Headers(headers...)
}

func printTable(w io.Writer, t *table.Table) {
	fmt.Fprintln(w, t.Render())
}

// cronLogger routes cron's own messages through zap.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}

// newScheduler builds a cron with a seconds field. A run that is still going
// when the next tick fires is skipped rather than overlapped.
func newScheduler(log *logger.Logger) *cron.Cron {
	cl := cronLogger{log: log}

	return cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
}
