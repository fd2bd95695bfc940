package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/malbeclabs/analyst/internal/app"
	"github.com/malbeclabs/analyst/internal/config"
)

type IngestCmd struct {
	cfg *config.Config
}

func NewIngestCmd(cfg *config.Config) *IngestCmd {
	return &IngestCmd{cfg: cfg}
}

func (c *IngestCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file.csv>",
		Short: "Load a superstore CSV export into MongoDB",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(cmd)

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			a, err := app.Open(ctx, log, c.cfg, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			res, err := a.Ingester.Ingest(ctx, f)
			if err != nil {
				return err
			}
			total, err := a.Store.Count(ctx)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetAutoFormatHeaders(false)
			table.SetBorder(true)
			table.SetHeader([]string{"File", "Parsed", "Stored", "Batches", "Duration", "Collection Total"})
			table.Append([]string{
				args[0],
				strconv.Itoa(res.Parsed),
				strconv.Itoa(res.Stored),
				strconv.Itoa(res.Batches),
				res.Duration.Round(time.Millisecond).String(),
				strconv.FormatInt(total, 10),
			})
			table.Render()
			return nil
		},
	}
}
