package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rpggio/motherai/internal/domain/project"
	"github.com/rpggio/motherai/internal/stream"
	"github.com/spf13/cobra"
)

func newChatCommand(r *runtime) *cobra.Command {
	var phaseNum int
	cmd := &cobra.Command{
		Use:   "chat <project-id> [message]",
		Short: "Chat with a phase agent",
		Long: `Send a message to the agent of a phase and stream its reply.

Without a message, lines read from stdin are sent one by one. In that mode
"/phase N" switches the phase and "/quit" ends the session.`,
		Args: cobra.RangeArgs(1, 2),
	}
	cmd.Flags().IntVar(&phaseNum, "phase", 0, "Phase to talk to (defaults to the project's current phase)")

	cmd.RunE = r.run(func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if _, err := r.app.Sessions.RequireApproved(ctx); err != nil {
			return err
		}
		view := r.app.NewView()
		if err := view.LoadProject(ctx, args[0]); err != nil {
			return err
		}
		if phaseNum != 0 {
			n, err := phaseFlag(phaseNum)
			if err != nil {
				return err
			}
			if err := view.SelectPhase(n); err != nil {
				return err
			}
		}

		if len(args) == 2 {
			return r.send(ctx, view, args[1])
		}
		return r.chatLoop(ctx, cmd, view)
	})
	return cmd
}

// send streams one reply to the terminal as it arrives.
func (r *runtime) send(ctx context.Context, view *project.View, content string) error {
	out := r.opts.Out
	err := view.SendMessage(ctx, content, stream.Handlers{
		OnToken: func(token string) { fmt.Fprint(out, token) },
		OnEnd:   func(string) { fmt.Fprintln(out) },
		OnError: func(message string) {
			fmt.Fprintln(out)
			fmt.Fprintln(r.opts.Err, warnStyle.Render("Response failed: "+message))
		},
	})
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(out)
	}
	return err
}

func (r *runtime) chatLoop(ctx context.Context, cmd *cobra.Command, view *project.View) error {
	p := view.Project()
	r.out.header("%s · %s", p.Name, view.SelectedPhase())
	r.out.println("%s", r.out.style(dimStyle, "Type a message and press enter. /phase N switches phase, /quit exits."))

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Fprint(r.opts.Out, r.out.style(roleStyles["user"], "> "))
		if !scanner.Scan() {
			fmt.Fprintln(r.opts.Out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case strings.HasPrefix(line, "/phase"):
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "/phase")))
			if err == nil {
				err = r.selectPhase(view, n)
			}
			if err != nil {
				fmt.Fprintln(r.opts.Err, warnStyle.Render(err.Error()))
				continue
			}
			r.out.header("%s", view.SelectedPhase())
			continue
		}

		if err := r.send(ctx, view, line); err != nil {
			if errors.Is(err, project.ErrResponseFailed) {
				continue
			}
			return err
		}
	}
}

func (r *runtime) selectPhase(view *project.View, n int) error {
	p, err := phaseFlag(n)
	if err != nil {
		return err
	}
	return view.SelectPhase(p)
}
