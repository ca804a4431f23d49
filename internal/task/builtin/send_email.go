package builtin

import (
	"context"
	"errors"
	"strings"

	"github.com/RezaEskandarii/cronfire/internal/task"
	"github.com/RezaEskandarii/cronfire/types"
	"github.com/rs/zerolog"
)

type SendEmailArgs struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (a SendEmailArgs) Validate() error {
	email := strings.TrimSpace(a.Email)
	if email == "" {
		return errors.New("email must be a non-empty string")
	}
	if !strings.Contains(email, "@") {
		return errors.New("email must contain '@'")
	}
	if strings.TrimSpace(a.Message) == "" {
		return errors.New("message must be a non-empty string")
	}
	return nil
}

// SendEmail simulates a slow outbound email.
func SendEmail(opts Options) task.Handler {
	opts = opts.withDefaults()
	return task.New(SendEmailTask, []string{"email", "message"}, func(ctx context.Context, in SendEmailArgs) (types.TaskResult, error) {
		log := zerolog.Ctx(ctx)
		log.Info().Str("recipient", in.Email).Msg("sending email")

		sleep(ctx, opts.EmailDelay())
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		log.Info().Str("recipient", in.Email).Msg("email sent")
		return types.TaskResult{"status": "success", "recipient": in.Email}, nil
	})
}
