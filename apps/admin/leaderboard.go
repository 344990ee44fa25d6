package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Evenson-7/OJTManagement-sub000/core/analytics"
	"github.com/Evenson-7/OJTManagement-sub000/core/user"
)

// leaderboardStyles holds the styles of the leaderboard report.
type leaderboardStyles struct {
	header    lipgloss.Style
	top       lipgloss.Style
	improving lipgloss.Style
	declining lipgloss.Style
	dim       lipgloss.Style
}

func newLeaderboardStyles(colorize bool) leaderboardStyles {
	if !colorize {
		plain := lipgloss.NewStyle()
		return leaderboardStyles{header: plain, top: plain, improving: plain, declining: plain, dim: plain}
	}
	return leaderboardStyles{
		header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		top:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		improving: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		declining: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (cli *commandLine) leaderboardCommand() *cobra.Command {
	var department string
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the cohort leaderboard",
		Long: `Ranks the interns by their average evaluation score (5-point scale) and prints the cohort insights.
Without --department, every intern is ranked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.leaderboard(cmd.Context(), cmd.OutOrStdout(), department, limit)
		},
	}
	cmd.Flags().StringVar(&department, "department", "", "only rank the interns of this department")
	cmd.Flags().IntVar(&limit, "limit", 0, "print the first N rows only")
	return cmd
}

func (cli *commandLine) leaderboard(ctx context.Context, out io.Writer, department string, limit int) error {
	// the report is computed as an admin, or as the coordinator of the department
	viewer := user.User{Role: user.RoleAdmin, IsActive: true}
	if department = strings.TrimSpace(department); department != "" {
		viewer = user.User{Role: user.RoleCoordinator, Department: department, IsActive: true}
	}

	res, err := cli.analytics.Cohort(ctx, viewer)
	if err != nil {
		return err
	}
	printLeaderboard(out, res, limit, newLeaderboardStyles(cli.color))
	return nil
}

func printLeaderboard(out io.Writer, res analytics.CohortAnalytics, limit int, styles leaderboardStyles) {
	if res.Insights.EvaluatedSubjects == 0 {
		fmt.Fprintln(out, styles.dim.Render("No evaluated interns yet."))
		return
	}

	rows := res.Leaderboard
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	fmt.Fprintln(out, styles.header.Render(fmt.Sprintf("%4s  %-28s %-12s %7s %7s %5s  %-9s %s",
		"RANK", "INTERN", "DEPARTMENT", "AVERAGE", "LATEST", "EVALS", "TREND", "BADGES")))
	for _, row := range rows {
		line := fmt.Sprintf("%4d  %-28s %-12s %7.2f %7.2f %5d  ",
			row.Rank, truncate(row.Name, 28), truncate(row.Department, 12), row.AverageScore, row.LatestScore, row.EvaluationCount)
		if row.Rank == 1 {
			line = styles.top.Render(line)
		}

		trend := fmt.Sprintf("%-9s", row.Trend)
		switch row.Trend {
		case analytics.TrendImproving:
			trend = styles.improving.Render(trend)
		case analytics.TrendDeclining:
			trend = styles.declining.Render(trend)
		}

		badges := make([]string, 0, len(row.Badges))
		for _, b := range row.Badges {
			badges = append(badges, b.Name)
		}
		fmt.Fprintln(out, line+trend+" "+styles.dim.Render(strings.Join(badges, ", ")))
	}

	ins := res.Insights
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Cohort average: %.2f (%d of %d interns evaluated, %d evaluations)\n",
		ins.CohortAverage, ins.EvaluatedSubjects, ins.TotalSubjects, ins.TotalEvaluations)
	if ins.TopPerformer != nil {
		fmt.Fprintf(out, "Top performer: %s (%.2f)\n", ins.TopPerformer.Name, ins.TopPerformer.Score)
	}
	if ins.MostImproved != nil {
		fmt.Fprintf(out, "Most improved: %s (+%.2f)\n", ins.MostImproved.Name, ins.MostImproved.Score)
	}
	if ins.StrongestSection != nil {
		fmt.Fprintf(out, "Strongest section: %s (%.2f)\n", ins.StrongestSection.Section, ins.StrongestSection.Average)
	}
	if ins.WeakestSection != nil {
		fmt.Fprintf(out, "Weakest section: %s (%.2f)\n", ins.WeakestSection.Section, ins.WeakestSection.Average)
	}
	if res.Skipped > 0 {
		fmt.Fprintln(out, styles.dim.Render(fmt.Sprintf("%d malformed evaluations skipped", res.Skipped)))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
