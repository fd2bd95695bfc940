package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/malbeclabs/analyst/agent/pkg/pipeline"
)

type SchemaCmd struct{}

func NewSchemaCmd() *SchemaCmd {
	return &SchemaCmd{}
}

func (c *SchemaCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the collection schema given to the pipeline generator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompts, err := pipeline.LoadPrompts()
			if err != nil {
				return fmt.Errorf("failed to load prompts: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), prompts.Schema)
			return nil
		},
	}
}
