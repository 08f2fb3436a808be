package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"samesky/pkg/models"
)

// eventSummary aggregates the export rows of one FRB event.
type eventSummary struct {
	EventID  string
	Matches  int
	MinDelta float64
	FRBDate  models.Date
}

func summarizeCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize a JSONL match export per FRB event",
		Long: `Group a JSONL match export by event id and print the number of
coincident observations and the smallest |delta| for each event.

Examples:
  samesky summarize --input output/matches.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := loadMatchesJSONL(input)
			if err != nil {
				return fmt.Errorf("failed to load matches: %w", err)
			}
			return writeSummary(cmd.OutOrStdout(), summarizeMatches(rows), len(rows))
		},
	}

	cmd.Flags().StringVar(&input, "input", "output/matches.jsonl", "Match JSONL input path")
	return cmd
}

func loadMatchesJSONL(path string) ([]models.Match, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []models.Match
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var m models.Match
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, m)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// summarizeMatches groups rows by event id in first-seen order.
func summarizeMatches(rows []models.Match) []eventSummary {
	index := make(map[string]int)
	var out []eventSummary
	for _, m := range rows {
		i, ok := index[m.EventID]
		if !ok {
			i = len(out)
			index[m.EventID] = i
			out = append(out, eventSummary{EventID: m.EventID, MinDelta: math.Inf(1), FRBDate: m.FRBDate})
		}
		out[i].Matches++
		if d := math.Abs(m.DeltaMinutes); d < out[i].MinDelta {
			out[i].MinDelta = d
		}
	}
	return out
}

func writeSummary(w io.Writer, events []eventSummary, rows int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EVENT\tDATE\tMATCHES\tMIN |DELTA| (min)")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", e.EventID, e.FRBDate, e.Matches, strconv.FormatFloat(e.MinDelta, 'f', 3, 64))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "events=%d matches=%d\n", len(events), rows)
	return err
}
