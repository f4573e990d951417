package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rpggio/motherai/internal/domain/workspace"
	"github.com/spf13/cobra"
)

func newFilesCommand(r *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Browse and edit generated files",
	}
	cmd.AddCommand(
		newFilesTreeCommand(r),
		newFilesCatCommand(r),
		newFilesSaveCommand(r),
	)
	return cmd
}

func (r *runtime) openWorkspace(cmd *cobra.Command, projectID string) (*workspace.Workspace, error) {
	if _, err := r.app.Sessions.RequireApproved(cmd.Context()); err != nil {
		return nil, err
	}
	ws := r.app.Workspace(projectID)
	if err := ws.Load(cmd.Context()); err != nil {
		return nil, err
	}
	return ws, nil
}

func newFilesTreeCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "tree <project-id>",
		Short: "Show the file tree",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(cmd *cobra.Command, args []string) error {
			ws, err := r.openWorkspace(cmd, args[0])
			if err != nil {
				return err
			}
			tree := ws.Tree()
			if len(tree) == 0 {
				r.out.println("%s", r.out.style(dimStyle, "No files generated yet."))
				return nil
			}
			r.printTree(tree, "")
			return nil
		}),
	}
}

func (r *runtime) printTree(nodes []*workspace.Node, indent string) {
	for i, n := range nodes {
		branch, next := "├── ", "│   "
		if i == len(nodes)-1 {
			branch, next = "└── ", "    "
		}
		if n.IsFolder() {
			r.out.println("%s%s%s", indent, branch, r.out.style(headerStyle, n.Name+"/"))
			r.printTree(n.Children, indent+next)
			continue
		}
		label := n.Name
		if n.Language != "" {
			label += " " + r.out.style(dimStyle, n.Language)
		}
		r.out.println("%s%s%s", indent, branch, label)
	}
}

func newFilesCatCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <project-id> <path>",
		Short: "Print a file with syntax highlighting",
		Args:  cobra.ExactArgs(2),
		RunE: r.run(func(cmd *cobra.Command, args []string) error {
			ws, err := r.openWorkspace(cmd, args[0])
			if err != nil {
				return err
			}
			path := workspace.NormalizePath(args[1])
			node := workspace.Find(ws.Tree(), path)
			if node != nil && node.IsFolder() {
				return fmt.Errorf("%s: %w", path, workspace.ErrNotAFile)
			}
			content, err := ws.LoadContent(cmd.Context(), path)
			if err != nil {
				return err
			}
			language := workspace.DetectLanguage(path)
			if node != nil && node.Language != "" {
				language = node.Language
			}
			r.out.code(content, language)
			if !strings.HasSuffix(content, "\n") {
				r.out.println("")
			}
			return nil
		}),
	}
}

func newFilesSaveCommand(r *runtime) *cobra.Command {
	var from, language string
	cmd := &cobra.Command{
		Use:   "save <project-id> <path>",
		Short: "Write a file from a local file or stdin",
		Args:  cobra.ExactArgs(2),
	}
	cmd.Flags().StringVar(&from, "from", "", "Local file to upload (reads stdin when omitted)")
	cmd.Flags().StringVar(&language, "language", "", "Language of the file (inferred from the path when omitted)")

	cmd.RunE = r.run(func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if from != "" {
			data, err = os.ReadFile(from)
		} else {
			data, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return fmt.Errorf("reading content: %w", err)
		}

		ws, err := r.openWorkspace(cmd, args[0])
		if err != nil {
			return err
		}
		if err := ws.SaveFile(cmd.Context(), args[1], string(data), language); err != nil {
			return err
		}
		r.out.success("Saved %s (%d bytes)", workspace.NormalizePath(args[1]), len(data))
		return nil
	})
	return cmd
}
