package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/malbeclabs/analyst/agent/pkg/pipeline"
	"github.com/malbeclabs/analyst/internal/app"
	"github.com/malbeclabs/analyst/internal/config"
)

type AskCmd struct {
	cfg *config.Config
}

func NewAskCmd(cfg *config.Config) *AskCmd {
	return &AskCmd{cfg: cfg}
}

func (c *AskCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question with a generated report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			showRows, err := cmd.Flags().GetBool("show-rows")
			if err != nil {
				return fmt.Errorf("failed to get show-rows flag: %w", err)
			}
			showAttempts, err := cmd.Flags().GetBool("show-attempts")
			if err != nil {
				return fmt.Errorf("failed to get show-attempts flag: %w", err)
			}
			question := strings.Join(args, " ")

			log := newLogger(cmd)

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			a, err := app.Open(ctx, log, c.cfg, app.Options{
				WithAnalyst: true,
				OnProgress: func(p pipeline.Progress) {
					log.Debug("ask: progress", "state", p.State, "attempt", p.Attempt.Index)
				},
			})
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			analysis, err := a.Analyst.Analyze(ctx, question)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showAttempts {
				printAttempts(out, analysis.Attempts)
				fmt.Fprintln(out)
			}
			if showRows {
				printRows(out, analysis.Results)
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, analysis.Report)
			return nil
		},
	}

	cmd.Flags().Bool("show-rows", false, "print the result documents before the report")
	cmd.Flags().Bool("show-attempts", false, "print every pipeline attempt and its error")

	return cmd
}

func printAttempts(w io.Writer, attempts []pipeline.AttemptState) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetRowLine(true)
	table.SetHeader([]string{"Attempt", "Stages", "Outcome", "Pipeline"})

	for _, at := range attempts {
		stages := "-"
		if at.Pipeline != nil {
			stages = strconv.Itoa(len(at.Pipeline))
		}
		table.Append([]string{
			strconv.Itoa(at.Index),
			stages,
			outcome(at.Err),
			at.Text,
		})
	}
	table.Render()
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var malformed *pipeline.MalformedPipelineError
	if errors.As(err, &malformed) {
		return "malformed: " + err.Error()
	}
	return "rejected: " + err.Error()
}

// printRows renders documents as a table whose columns are the union of all
// keys in first-seen order.
func printRows(w io.Writer, rows pipeline.ResultSet) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no documents)")
		return
	}

	var columns []string
	seen := map[string]int{}
	for _, doc := range rows {
		for _, e := range doc {
			if _, ok := seen[e.Key]; !ok {
				seen[e.Key] = len(columns)
				columns = append(columns, e.Key)
			}
		}
	}

	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader(columns)

	for _, doc := range rows {
		row := make([]string, len(columns))
		for _, e := range doc {
			row[seen[e.Key]] = formatValue(e.Value)
		}
		table.Append(row)
	}
	table.Render()
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return v
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case primitive.DateTime:
		t := v.Time().UTC()
		if t.Equal(t.Truncate(24 * time.Hour)) {
			return t.Format(time.DateOnly)
		}
		return t.Format(time.RFC3339)
	case primitive.ObjectID:
		return v.Hex()
	case bson.D:
		data, err := bson.MarshalExtJSON(v, false, false)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
	return fmt.Sprint(v)
}
