// Package cli implements the taskctl command line.
package cli

import (
	"github.com/RezaEskandarii/cronfire/internal/logging"
	"github.com/RezaEskandarii/cronfire/internal/queue"
	"github.com/RezaEskandarii/cronfire/types/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Deps lets tests replace the environment and the queue connection.
type Deps struct {
	Lookup config.LookupFunc // nil means os.LookupEnv
	Dialer queue.Dialer      // nil means dial the configured queue
}

type rootState struct {
	deps      Deps
	logLevel  string
	logFormat string
	queueName string

	cfg *config.CronfireConfig
	log zerolog.Logger
}

// NewRootCmd creates the root cobra command for taskctl.
func NewRootCmd(deps Deps) *cobra.Command {
	st := &rootState{deps: deps}

	root := &cobra.Command{
		Use:   "taskctl",
		Short: "Enqueue ad-hoc tasks and manage the cronfire job store",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var extra []config.Option
			if st.queueName != "" {
				extra = append(extra, config.WithQueueName(st.queueName))
			}
			if st.logLevel != "" {
				extra = append(extra, config.WithLogLevel(st.logLevel))
			}
			cfg, err := config.Load(st.deps.Lookup, extra...)
			if err != nil {
				return err
			}
			format := cfg.Log.Format
			if st.logFormat != "" {
				format = st.logFormat
			}
			st.cfg = cfg
			st.log = logging.New(cfg.Log.Level, format, cmd.ErrOrStderr())
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&st.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&st.logFormat, "log-format", "", "Log format (text, json)")
	root.PersistentFlags().StringVar(&st.queueName, "queue", "", "Queue name (overrides QUEUE_NAME)")

	root.AddCommand(
		newEnqueueCmd(st),
		newInitDBCmd(st),
	)
	return root
}

func (st *rootState) dialer() (queue.Dialer, error) {
	if st.deps.Dialer != nil {
		return st.deps.Dialer, nil
	}
	return queue.NewDialer(st.cfg.Queue)
}
