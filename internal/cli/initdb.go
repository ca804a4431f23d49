package cli

import (
	"fmt"

	"github.com/RezaEskandarii/cronfire/app"
	"github.com/spf13/cobra"
)

func newInitDBCmd(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "initdb",
		Short: "Create the jobs table and indexes if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dial, err := st.dialer()
			if err != nil {
				return err
			}
			c, err := app.NewContainer(st.cfg, st.log, app.WithDialer(dial))
			if err != nil {
				return err
			}
			defer c.Close()

			if _, err := c.OpenStore(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema ready (%s)\n", st.cfg.Database.Driver)
			return nil
		},
	}
}
