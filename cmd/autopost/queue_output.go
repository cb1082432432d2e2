package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"autopost/internal/ipc"
	"autopost/internal/preflight"
	"autopost/internal/queue"
)

var titleCaser = cases.Title(language.English)

func parsePositiveIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid item id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// buildQueueStatusRows lists every known status in lifecycle order, then any
// unexpected ones the database returned. Empty when the queue holds nothing.
func buildQueueStatusRows(stats map[string]int) [][]string {
	total := 0
	for _, count := range stats {
		total += count
	}
	if total == 0 {
		return nil
	}
	rows := make([][]string, 0, len(stats))
	seen := make(map[string]struct{}, len(stats))
	for _, status := range queue.AllStatuses() {
		key := string(status)
		seen[key] = struct{}{}
		rows = append(rows, []string{titleCaser.String(key), strconv.Itoa(stats[key])})
	}
	for key, count := range stats {
		if _, ok := seen[key]; ok {
			continue
		}
		rows = append(rows, []string{titleCaser.String(key), strconv.Itoa(count)})
	}
	return rows
}

func buildQueueListRows(items []ipc.QueueItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		note := item.Caption
		if item.ErrorMessage != "" {
			note = item.ErrorMessage
		}
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			item.Filename,
			titleCaser.String(item.Status),
			strconv.Itoa(item.RetryCount),
			formatTimestamp(item.CreatedAt),
			truncate(oneLine(note), 48),
		})
	}
	return rows
}

func printQueueItem(out io.Writer, item ipc.QueueItem) {
	fmt.Fprintf(out, "Item #%d\n", item.ID)
	fmt.Fprintf(out, "  File:        %s\n", preflight.DisplayPath(item.FilePath))
	fmt.Fprintf(out, "  Status:      %s\n", titleCaser.String(item.Status))
	fmt.Fprintf(out, "  Retries:     %d\n", item.RetryCount)
	if item.Caption != "" {
		fmt.Fprintf(out, "  Caption:     %s\n", item.Caption)
	}
	if item.SubmittedBy != "" {
		fmt.Fprintf(out, "  Submitted by: %s\n", item.SubmittedBy)
	}
	fmt.Fprintf(out, "  Created:     %s\n", formatTimestamp(item.CreatedAt))
	if item.PostedAt != nil {
		fmt.Fprintf(out, "  Posted:      %s\n", formatTimestamp(*item.PostedAt))
	}
	if item.ErrorMessage != "" {
		fmt.Fprintf(out, "  Last error:  %s\n", item.ErrorMessage)
	}
}

func formatTimestamp(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Local().Format("2006-01-02 15:04")
}

func oneLine(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
