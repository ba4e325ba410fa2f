package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/orbitflow/internal/telemetry"
	"github.com/papapumpkin/orbitflow/internal/ui"
)

var telemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "View JSONL telemetry events of past runs",
	Long: `Reads and formats a JSONL telemetry stream.

Without --stream, discovers the most recent telemetry file.
With --follow (-f), watches the file for new events (like tail -f).`,
	Args: cobra.NoArgs,
	RunE: runTelemetry,
}

func init() {
	telemetryCmd.Flags().String("stream", "", "stream name to view, e.g. sweep-20260101T120000 (default: most recent)")
	telemetryCmd.Flags().StringSlice("kind", nil, "only show events of these kinds")
	telemetryCmd.Flags().BoolP("follow", "f", false, "follow the file for new events")
	rootCmd.AddCommand(telemetryCmd)
}

func runTelemetry(cmd *cobra.Command, _ []string) error {
	stream, _ := cmd.Flags().GetString("stream")
	kinds, _ := cmd.Flags().GetStringSlice("kind")
	follow, _ := cmd.Flags().GetBool("follow")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path, err := resolveTelemetryPath(cfg.Telemetry.Dir, stream)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	defer f.Close()

	filter := kindFilter(kinds)
	out := cmd.OutOrStdout()

	// Print all existing events.
	reader := bufio.NewReader(f)
	if err := drainEvents(out, reader, filter); err != nil {
		return fmt.Errorf("telemetry: read %s: %w", path, err)
	}

	if !follow {
		return nil
	}

	ctx, cancel := setupSignalContext(ui.New())
	defer cancel()
	return tailFollow(ctx, out, reader, path, filter)
}

// kindFilter returns a predicate accepting the given kinds, or everything
// when kinds is empty.
func kindFilter(kinds []string) func(string) bool {
	if len(kinds) == 0 {
		return func(string) bool { return true }
	}
	set := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		set[strings.TrimSpace(k)] = true
	}
	return func(k string) bool { return set[k] }
}

// drainEvents prints every complete line currently available from r. A
// trailing partial line is printed too; the emitter always ends events with
// a newline, so a partial line only appears mid-write.
func drainEvents(w io.Writer, r *bufio.Reader, filter func(string) bool) error {
	for {
		line, err := r.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" {
			printEvent(w, line, filter)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// tailFollow watches the file for new data using fsnotify and prints new
// events until ctx is cancelled.
func tailFollow(ctx context.Context, w io.Writer, r *bufio.Reader, path string, filter func(string) bool) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("telemetry: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("telemetry: watch %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Write == 0 {
				continue
			}
			if err := drainEvents(w, r, filter); err != nil {
				return fmt.Errorf("telemetry: read %s: %w", path, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("telemetry: watch %s: %w", path, err)
		}
	}
}

// printEvent decodes a JSONL line and prints a human-readable representation.
func printEvent(w io.Writer, line string, filter func(string) bool) {
	var evt telemetry.Event
	if err := json.Unmarshal([]byte(line), &evt); err != nil {
		fmt.Fprintf(w, "??? %s\n", line)
		return
	}
	if !filter(evt.Kind) {
		return
	}

	ts := evt.Timestamp.Local().Format(time.TimeOnly)
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", ts))
	parts = append(parts, evt.Kind)

	if evt.Scenario != "" {
		parts = append(parts, fmt.Sprintf("scenario=%s", evt.Scenario))
	}
	if evt.RunID != "" {
		parts = append(parts, fmt.Sprintf("run=%s", evt.RunID))
	}
	if evt.Data != nil {
		if m, ok := evt.Data.(map[string]any); ok {
			parts = append(parts, formatDataMap(m))
		} else {
			data, _ := json.Marshal(evt.Data)
			parts = append(parts, string(data))
		}
	}

	fmt.Fprintln(w, strings.Join(parts, " "))
}

// formatDataMap formats a data map as key=value pairs sorted by key.
func formatDataMap(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", k, m[k])
	}
	return b.String()
}

// resolveTelemetryPath finds the JSONL file for the given stream, or
// discovers the most recent one if stream is empty.
func resolveTelemetryPath(dir, stream string) (string, error) {
	if stream != "" {
		path := telemetry.FileFor(dir, stream)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("telemetry: no file for stream %q: %w", stream, err)
		}
		return path, nil
	}
	return telemetry.Latest(dir)
}
