package cli

import (
	"fmt"
	"strconv"

	"github.com/rpggio/motherai/internal/domain/phase"
	"github.com/rpggio/motherai/internal/domain/project"
	"github.com/spf13/cobra"
)

func newPhasesCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:         "phases",
		Short:       "List the development phases",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationOffline: "true"},
		RunE: func(*cobra.Command, []string) error {
			var rows [][]string
			for _, d := range phase.All() {
				rows = append(rows, []string{strconv.Itoa(int(d.Number)), d.Title, d.Agent, d.Description})
			}
			r.out.table([]string{"#", "PHASE", "AGENT", "PURPOSE"}, rows)
			return nil
		},
	}
}

func newProjectsCommand(r *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project", "p"},
		Short:   "Manage projects",
	}
	cmd.AddCommand(
		newProjectsListCommand(r),
		newProjectsCreateCommand(r),
		newProjectsShowCommand(r),
		newProjectsDeleteCommand(r),
	)
	return cmd
}

func newProjectsListCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your projects",
		Args:    cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, _ []string) error {
			if _, err := r.app.Sessions.RequireApproved(cmd.Context()); err != nil {
				return err
			}
			projects, err := r.app.Projects.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				r.out.println("No projects yet. Create one with `motherai projects create <name>`.")
				return nil
			}
			r.out.header("%d project(s)", len(projects))
			var rows [][]string
			for _, p := range projects {
				rows = append(rows, []string{
					r.out.style(idStyle, p.ID),
					p.Name,
					phase.Clamp(int(p.CurrentPhase)).String(),
					p.CreatedAt,
				})
			}
			r.out.table([]string{"ID", "NAME", "PHASE", "CREATED"}, rows)
			return nil
		}),
	}
}

func newProjectsCreateCommand(r *runtime) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "What the project should build")

	cmd.RunE = r.run(func(cmd *cobra.Command, args []string) error {
		if _, err := r.app.Sessions.RequireApproved(cmd.Context()); err != nil {
			return err
		}
		p, err := r.app.Projects.Create(cmd.Context(), project.CreateRequest{Name: args[0], Description: description})
		if err != nil {
			return err
		}
		r.out.success("Created project %s", p.Name)
		r.out.println("id: %s", p.ID)
		return nil
	})
	return cmd
}

func newProjectsDeleteCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <project-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a project",
		Args:    cobra.ExactArgs(1),
		RunE: r.run(func(cmd *cobra.Command, args []string) error {
			if _, err := r.app.Sessions.RequireApproved(cmd.Context()); err != nil {
				return err
			}
			if err := r.app.Projects.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			r.out.success("Deleted project %s", args[0])
			return nil
		}),
	}
}

func newProjectsShowCommand(r *runtime) *cobra.Command {
	var phaseNum int
	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show phase progress and the history of one phase",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().IntVar(&phaseNum, "phase", 0, "Phase whose history to show (defaults to the current phase)")

	cmd.RunE = r.run(func(cmd *cobra.Command, args []string) error {
		if _, err := r.app.Sessions.RequireApproved(cmd.Context()); err != nil {
			return err
		}
		view := r.app.NewView()
		if err := view.LoadProject(cmd.Context(), args[0]); err != nil {
			return err
		}
		if phaseNum != 0 {
			if err := view.SelectPhase(phase.Number(phaseNum)); err != nil {
				return err
			}
		}
		r.printProject(view)
		return nil
	})
	return cmd
}

func (r *runtime) printProject(view *project.View) {
	p := view.Project()
	r.out.header("%s", p.Name)
	if p.Description != "" {
		r.out.println("%s", p.Description)
	}
	r.out.println("")

	var rows [][]string
	for _, pr := range view.PhaseProgress() {
		rows = append(rows, []string{strconv.Itoa(int(pr.Number)), pr.Title, r.out.status(string(pr.Status))})
	}
	r.out.table([]string{"#", "PHASE", "STATUS"}, rows)
	r.out.println("")

	selected := view.SelectedPhase()
	messages := view.Messages(selected)
	r.out.header("%s", selected)
	if len(messages) == 0 {
		r.out.println("%s", r.out.style(dimStyle, "No messages in this phase yet."))
		return
	}
	for _, m := range messages {
		r.printMessage(m)
	}
}

func (r *runtime) printMessage(m project.ChatMessage) {
	label := string(m.Role)
	if style, ok := roleStyles[label]; ok {
		label = r.out.style(style, label)
	}
	r.out.println("%s %s", label, r.out.style(dimStyle, m.CreatedAt))
	if m.Role == project.RoleAssistant {
		r.out.markdown(m.Content)
		return
	}
	r.out.println("%s\n", m.Content)
}

// phaseFlag validates a --phase value.
func phaseFlag(n int) (phase.Number, error) {
	p, err := phase.Parse(n)
	if err != nil {
		return 0, fmt.Errorf("--phase: %w", err)
	}
	return p, nil
}
