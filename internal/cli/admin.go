package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newAdminCommand(r *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Review applications and manage users (administrators only)",
	}
	cmd.AddCommand(
		newAdminApplicationsCommand(r),
		newAdminApproveCommand(r),
		newAdminRejectCommand(r),
		newAdminUsersCommand(r),
		newAdminStatusCommand(r, "suspend", "Suspend an account"),
		newAdminStatusCommand(r, "activate", "Reactivate a suspended account"),
		newAdminStatsCommand(r),
	)
	return cmd
}

func newAdminApplicationsCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "applications",
		Aliases: []string{"apps"},
		Short:   "List applications awaiting review",
		Args:    cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, _ []string) error {
			apps, err := r.app.Admin.PendingApplications(cmd.Context())
			if err != nil {
				return err
			}
			if len(apps) == 0 {
				r.out.println("No pending applications.")
				return nil
			}
			var rows [][]string
			for _, a := range apps {
				rows = append(rows, []string{r.out.style(idStyle, a.ID), a.Name, a.Email, a.AppliedAt, a.Purpose})
			}
			r.out.table([]string{"ID", "NAME", "EMAIL", "APPLIED", "PURPOSE"}, rows)
			return nil
		}),
	}
}

func newAdminApproveCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <application-id>",
		Short: "Approve an application",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(cmd *cobra.Command, args []string) error {
			d, err := r.app.Admin.Approve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			r.out.success("Approved %s", d.UserID)
			return nil
		}),
	}
}

func newAdminRejectCommand(r *runtime) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "reject <application-id>",
		Short: "Reject an application",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&reason, "reason", "", "Reason shown to the applicant (required)")

	cmd.RunE = r.run(func(cmd *cobra.Command, args []string) error {
		d, err := r.app.Admin.Reject(cmd.Context(), args[0], reason)
		if err != nil {
			return err
		}
		r.out.success("Rejected %s", d.UserID)
		return nil
	})
	return cmd
}

func newAdminUsersCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List all accounts",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, _ []string) error {
			accounts, err := r.app.Admin.Users(cmd.Context())
			if err != nil {
				return err
			}
			var rows [][]string
			for _, a := range accounts {
				rows = append(rows, []string{
					r.out.style(idStyle, a.ID),
					a.Name,
					a.Email,
					string(a.Role),
					r.out.status(string(a.Status)),
					strconv.Itoa(a.ProjectCount),
					a.LastLogin,
				})
			}
			r.out.table([]string{"ID", "NAME", "EMAIL", "ROLE", "STATUS", "PROJECTS", "LAST LOGIN"}, rows)
			return nil
		}),
	}
}

func newAdminStatusCommand(r *runtime, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <user-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(cmd *cobra.Command, args []string) error {
			call := r.app.Admin.Suspend
			if action == "activate" {
				call = r.app.Admin.Activate
			}
			if err := call(cmd.Context(), args[0]); err != nil {
				return err
			}
			r.out.success("%s: done for %s", action, args[0])
			return nil
		}),
	}
}

func newAdminStatsCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show platform API usage and cost",
		Args:  cobra.NoArgs,
		RunE: r.run(func(cmd *cobra.Command, _ []string) error {
			s, err := r.app.Admin.APIStats(cmd.Context())
			if err != nil {
				return err
			}
			r.out.header("API usage")
			r.out.table([]string{"", "REQUESTS", "COST"}, [][]string{
				{"total", strconv.FormatInt(s.TotalRequests, 10), money(s.TotalCost)},
				{"today", strconv.FormatInt(s.TodayRequests, 10), money(s.TodayCost)},
			})
			r.out.println("total tokens: %d", s.TotalTokens)

			if s.CacheStats != nil {
				r.out.println("")
				r.out.header("Prompt cache")
				r.out.table([]string{"", "CACHED REQUESTS", "HIT RATE"}, [][]string{
					{"total", strconv.FormatInt(s.CacheStats.TotalCachedRequests, 10), percent(s.CacheStats.TotalCacheHitRate)},
					{"today", strconv.FormatInt(s.CacheStats.TodayCachedRequests, 10), percent(s.CacheStats.TodayCacheHitRate)},
				})
			}

			if len(s.TopUsers) > 0 {
				r.out.println("")
				r.out.header("Top users")
				var rows [][]string
				for _, u := range s.TopUsers {
					rows = append(rows, []string{u.UserName, strconv.FormatInt(u.TotalRequests, 10), money(u.TotalCost)})
				}
				r.out.table([]string{"USER", "REQUESTS", "COST"}, rows)
			}

			if len(s.PhaseStats) > 0 {
				r.out.println("")
				r.out.header("By phase")
				var rows [][]string
				for _, p := range s.PhaseStats {
					rows = append(rows, []string{strconv.Itoa(p.Phase), strconv.FormatInt(p.TotalRequests, 10), strconv.FormatInt(p.TotalTokens, 10), money(p.TotalCost)})
				}
				r.out.table([]string{"PHASE", "REQUESTS", "TOKENS", "COST"}, rows)
			}
			return nil
		}),
	}
}

func money(v float64) string {
	return fmt.Sprintf("$%.4f", v)
}

// percent formats a hit rate; the backend reports it in percent.
func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
