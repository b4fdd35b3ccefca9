// Shared helpers for engram CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mesh-intelligence/engram/pkg/engram"
	"github.com/mesh-intelligence/engram/pkg/types"
)

// connectStore resolves the store root and returns a handle: a daemon
// client when a daemon owns the store, a direct session otherwise. The
// caller must defer handle.Close().
func connectStore() (engram.Handle, error) {
	root, err := resolveRoot()
	if err != nil {
		return nil, fmt.Errorf("resolve store root: %w", err)
	}
	return engram.Connect(root)
}

// openSession resolves the store root and opens a direct session,
// bypassing any daemon. Maintenance commands use this so they never race
// a daemon's writes.
func openSession() (*engram.Session, error) {
	root, err := resolveRoot()
	if err != nil {
		return nil, fmt.Errorf("resolve store root: %w", err)
	}
	return engram.Open(root)
}

// exitErr prints the error and exits 1 for user errors, 2 for
// environment errors.
func exitErr(prefix string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, err)
	if types.IsUserError(err) {
		os.Exit(exitUserError)
	}
	os.Exit(exitSysError)
}

// parseLabels splits a comma-separated label list, trimming whitespace
// and dropping empty entries.
func parseLabels(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			labels = append(labels, p)
		}
	}
	return labels
}

// itemLine renders one item in the list format:
// <status> <id> P<priority> <title> [labels].
func itemLine(item *types.Item) string {
	line := fmt.Sprintf("%s %s P%d %s", item.Status, item.ID, item.Priority, item.Title)
	if len(item.Labels) > 0 {
		line += fmt.Sprintf(" [%s]", strings.Join(item.Labels, ","))
	}
	return line
}

// printItems writes items one per line, or as a JSON array with --json.
func printItems(items []types.Item) {
	if flagJSON {
		printJSON(items)
		return
	}
	for i := range items {
		fmt.Println(itemLine(&items[i]))
	}
}

// printItem writes the full item: JSON with --json, a field listing
// otherwise.
func printItem(item *types.Item) {
	if flagJSON {
		printJSON(item)
		return
	}
	fmt.Printf("id:       %s\n", item.ID)
	fmt.Printf("title:    %s\n", item.Title)
	fmt.Printf("status:   %s\n", item.Status)
	fmt.Printf("priority: %d\n", item.Priority)
	if len(item.Labels) > 0 {
		fmt.Printf("labels:   %s\n", strings.Join(item.Labels, ","))
	}
	if item.Description != nil {
		fmt.Printf("description: %s\n", *item.Description)
	}
	fmt.Printf("created:  %s\n", item.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"))
	fmt.Printf("updated:  %s\n", item.UpdatedAt.Format("2006-01-02T15:04:05.000Z07:00"))
	if item.ClosedAt != nil {
		fmt.Printf("closed:   %s\n", item.ClosedAt.Format("2006-01-02T15:04:05.000Z07:00"))
	}
	if item.CloseReason != nil {
		fmt.Printf("reason:   %s\n", *item.CloseReason)
	}
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		exitErr("marshal JSON", err)
	}
	fmt.Println(string(out))
}
