package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/vango-dev/wstask/internal/errors"
	"github.com/vango-dev/wstask/pkg/codec"
	"github.com/vango-dev/wstask/pkg/websocket"
)

// echoRequest describes one round trip.
type echoRequest struct {
	URL     string
	Mode    websocket.Mode
	Format  codec.Format
	Value   uint32
	Binary  bool
	Timeout time.Duration
	Options []websocket.Option
}

func echoCmd(a *app) *cobra.Command {
	var (
		flags   connectFlags
		binary  bool
		value   uint32
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "echo [url]",
		Short: "Send one value and print the echo",
		Long: `Connect, send {"value": n} once, wait for the echo and print it.

Examples:
  wstask echo
  wstask echo ws://localhost:8080/ws --binary --value=7
  wstask echo --format=compact --binary`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, mode, format, err := flags.resolve(a.cfg, args)
			if err != nil {
				return err
			}
			if timeout == 0 {
				if timeout, err = a.cfg.EchoTimeout(); err != nil {
					return err
				}
			}
			opts, err := a.taskOptions(nil)
			if err != nil {
				return err
			}

			got, err := runEcho(cmd.Context(), echoRequest{
				URL:     url,
				Mode:    mode,
				Format:  format,
				Value:   value,
				Binary:  binary,
				Timeout: timeout,
				Options: opts,
			})
			if err != nil {
				return err
			}
			a.success("Echoed value %d", got)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&binary, "binary", "b", false, "Send a binary frame instead of text")
	cmd.Flags().Uint32VarP(&value, "value", "v", defaultValue, "Value to send")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "Give up after this long (default from wstask.json)")

	return cmd
}

// runEcho connects, sends req.Value once the socket opens and returns the
// first decoded reply.
func runEcho(ctx context.Context, req echoRequest) (uint32, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	inbox := newMailbox()
	onMessage, onStatus := inbox.callbacks(1)
	task, err := websocket.Connect(req.URL, onMessage, onStatus, req.Mode, req.Options...)
	if err != nil {
		return 0, errors.New("W201").Wrap(err)
	}
	defer task.Close()

	p := encodeRequest(req.Format, req.Value, req.Binary)
	if err := p.err(); err != nil {
		return 0, errors.New("W205").Wrap(err).
			WithSuggestion("The compact format only supports --binary")
	}

	opened := false
	for {
		select {
		case <-ctx.Done():
			return 0, errors.New("W204").Wrap(ctx.Err()).
				WithDetail("No echo from " + task.URL() + " within " + req.Timeout.String())

		case <-inbox.Ready():
			for {
				ev, ok := inbox.Pop()
				if !ok {
					break
				}

				if ev.message != nil {
					var resp Response
					if err := codec.Restore(req.Format, *ev.message, &resp); err != nil {
						return 0, errors.New("W205").Wrap(err)
					}
					return resp.Value, nil
				}

				switch ev.status {
				case websocket.StatusOpened:
					opened = true
					p.sendTo(task)
				case websocket.StatusClosed, websocket.StatusError:
					if !opened {
						return 0, errors.New("W202").WithDetail("Could not connect to " + task.URL())
					}
					return 0, errors.New("W203")
				}
			}
		}
	}
}
