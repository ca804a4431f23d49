package cli

import (
	"fmt"
	"strings"

	"github.com/RezaEskandarii/cronfire/client"
	"github.com/RezaEskandarii/cronfire/internal/task"
	"github.com/RezaEskandarii/cronfire/internal/task/builtin"
	"github.com/spf13/cobra"
)

func newEnqueueCmd(st *rootState) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "enqueue TASK [JSON...]",
		Short: "Push a task onto the work queue",
		Long: `Push a task onto the work queue with keyword arguments given inline or in a file.

Examples:
  taskctl enqueue send_email '{"email":"a@b.com","message":"hi"}'
  taskctl enqueue send_email -- '{"email":"a@b.com","message":"hi"}'
  taskctl enqueue generate_report -f payload.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskName := args[0]

			var kwargs map[string]any
			var err error
			if file != "" {
				kwargs, err = client.ReadKwargsFile(file)
			} else {
				kwargs, err = client.ParseKwargs(strings.Join(args[1:], " "))
			}
			if err != nil {
				return err
			}

			warnIfUnregistered(st, taskName)

			dial, err := st.dialer()
			if err != nil {
				return err
			}
			q, err := dial(cmd.Context())
			if err != nil {
				return fmt.Errorf("connect to queue: %w", err)
			}
			defer q.Close()

			payload, err := client.NewProducer(q, st.log).Enqueue(cmd.Context(), taskName, kwargs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Task '%s' enqueued\n", taskName)
			fmt.Fprintf(out, "Payload: %s\n", payload)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to a JSON file with keyword arguments")
	return cmd
}

// warnIfUnregistered flags names the stock worker cannot run. The task is
// still enqueued since custom workers may register it.
func warnIfUnregistered(st *rootState, taskName string) {
	known := task.NewRegistry()
	if err := builtin.Register(known, builtin.Options{}); err != nil {
		return
	}
	if !known.Exists(taskName) {
		st.log.Warn().Str("task", taskName).Strs("registered", known.List()).
			Msg("task is not registered by the built-in workers")
	}
}
