package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func (c *client) assistCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assist PROJECT PROMPT...",
		Short: "Ask the project assistant",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			answer, err := c.opts.Assistant.Ask(cmd.Context(), strings.ToUpper(args[0]), strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			c.println(answer)
			return nil
		},
	}
}
