package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/ompbuild/internal/config"
	"github.com/papapumpkin/ompbuild/internal/telemetry"
)

var telemetryCmd = &cobra.Command{
	Use:   "telemetry [file]",
	Short: "View JSONL build events",
	Long: `Reads and formats a JSONL telemetry file written by 'ompbuild build --telemetry'.

Without a file argument, reads the file named by the telemetry setting.
With --follow (-f), watches the file for new events (like tail -f).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTelemetry,
}

func init() {
	telemetryCmd.Flags().BoolP("follow", "f", false, "follow the file for new events")
	rootCmd.AddCommand(telemetryCmd)
}

var errNoTelemetryFile = errors.New("telemetry: no file given and no telemetry path configured")

func runTelemetry(cmd *cobra.Command, args []string) error {
	follow, _ := cmd.Flags().GetBool("follow")

	path, err := resolveTelemetryPath(args)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	defer f.Close()

	// Print all existing events.
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		printEvent(cmd.OutOrStdout(), line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("telemetry: read %s: %w", path, err)
	}

	if !follow {
		return nil
	}

	return tailFollow(cmd, f, path)
}

// resolveTelemetryPath returns the file argument, or the configured path.
func resolveTelemetryPath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Telemetry == "" {
		return "", errNoTelemetryFile
	}
	return cfg.Telemetry, nil
}

// tailFollow watches the file for new data using fsnotify and prints new
// events until the command's context is done.
func tailFollow(cmd *cobra.Command, f *os.File, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("telemetry: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("telemetry: watch %s: %w", path, err)
	}

	w := cmd.OutOrStdout()
	reader := bufio.NewReader(f)
	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) {
				continue
			}
			// Read all new lines available.
			for {
				line, err := reader.ReadString('\n')
				line = strings.TrimSpace(line)
				if line != "" {
					printEvent(w, line)
				}
				if err != nil {
					break
				}
			}
		}
	}
}

// printEvent decodes a JSONL line and prints a human-readable representation.
func printEvent(w io.Writer, line string) {
	var evt telemetry.Event
	if err := json.Unmarshal([]byte(line), &evt); err != nil {
		fmt.Fprintf(w, "??? %s\n", line)
		return
	}

	ts := evt.Timestamp.Format(time.TimeOnly)
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", ts))
	parts = append(parts, evt.Kind)

	if len(evt.Build) >= 8 {
		parts = append(parts, fmt.Sprintf("build=%s", evt.Build[:8]))
	}
	if evt.Variant != "" {
		parts = append(parts, fmt.Sprintf("variant=%s", evt.Variant))
	}
	if evt.File != "" {
		parts = append(parts, fmt.Sprintf("file=%s", evt.File))
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

// formatDataMap formats a data map as key=value pairs sorted by key. Nested
// values are printed as compact JSON.
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
		switch v := m[k].(type) {
		case map[string]any, []any:
			data, _ := json.Marshal(v)
			fmt.Fprintf(&b, "%s=%s", k, data)
		default:
			fmt.Fprintf(&b, "%s=%v", k, v)
		}
	}
	return b.String()
}
