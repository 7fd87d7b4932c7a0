package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/MimeLyc/gemini-sub-translator/internal/jobs"
	"github.com/MimeLyc/gemini-sub-translator/internal/llm"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func renderJobsTable(list []*jobs.Job) string {
	rows := make([][]string, 0, len(list))
	for _, job := range list {
		lines := "-"
		if job.Total > 0 {
			lines = fmt.Sprintf("%s/%s", humanize.Comma(int64(job.Done)), humanize.Comma(int64(job.Total)))
		}
		took := "-"
		if job.Duration > 0 {
			took = job.Duration.Round(time.Second).String()
		}
		rows = append(rows, []string{
			filepath.Base(job.Input),
			string(job.Status),
			lines,
			fmt.Sprintf("%d", job.Warnings),
			took,
			job.Output,
		})
	}
	return renderTable(
		[]string{"File", "Status", "Lines", "Warnings", "Time", "Output"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)
}

func renderModelsTable(models []llm.ModelInfo) string {
	rows := make([][]string, 0, len(models))
	for _, m := range models {
		rows = append(rows, []string{
			m.Name,
			dashIfEmpty(m.DisplayName),
			tokenCount(m.InputTokenLimit),
			tokenCount(m.OutputTokenLimit),
			yesNo(m.SupportsThinking),
		})
	}
	return renderTable(
		[]string{"Model", "Display Name", "Input Tokens", "Output Tokens", "Thinking"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}

func tokenCount(n int) string {
	if n <= 0 {
		return "-"
	}
	return humanize.Comma(int64(n))
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
