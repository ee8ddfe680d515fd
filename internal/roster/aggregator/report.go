package aggregator

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"roster-optimizer/internal/roster/solver"
)

const (
	heavyRule = "================================================================================"
	lightRule = "--------------------------------------------------------------------------------"
)

// WriteReport prints the league summary table followed by each group's
// roster by category. order fixes the category order of both sections;
// categories missing from order follow in ascending order.
func WriteReport(w io.Writer, standings []Standing, results map[string]solver.Result, req solver.Requirement, order []string) error {
	cats := categoryOrder(req, order)

	var b strings.Builder
	b.WriteString("\n" + heavyRule + "\n")
	b.WriteString("ROSTER OPTIMIZATION RESULTS\n")
	b.WriteString(heavyRule + "\n\n")

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Rank\tTeam\tTotal FPts\tRoster\tMethod")
	for _, s := range standings {
		counts := make([]string, 0, len(cats))
		for _, c := range cats {
			counts = append(counts, fmt.Sprintf("%s:%d", c, s.Counts[c]))
		}
		method := string(s.Method)
		if !s.Complete {
			method += " (incomplete)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\t%s\n", s.Rank, s.Group, s.Total, strings.Join(counts, " "), method)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	b.WriteString("\n" + heavyRule + "\n")
	b.WriteString("DETAILED BREAKDOWN BY TEAM\n")
	b.WriteString(heavyRule + "\n")

	for _, s := range standings {
		fmt.Fprintf(&b, "\n%s - Total FPts: %.2f\n", s.Group, s.Total)
		b.WriteString(lightRule[:60] + "\n")

		byCategory := make(map[string][]solver.Assignment)
		for _, a := range results[s.Group].Assignments {
			byCategory[a.Category] = append(byCategory[a.Category], a)
		}
		for _, c := range cats {
			assigned := byCategory[c]
			if len(assigned) == 0 {
				continue
			}
			fmt.Fprintf(&b, "  %s (%d):\n", c, len(assigned))
			for _, a := range assigned {
				fmt.Fprintf(&b, "    - %-30s (eligible: %-10s) %6.2f FPts\n", a.Candidate.Name, a.Candidate.Eligible(), a.Candidate.Value)
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func categoryOrder(req solver.Requirement, order []string) []string {
	seen := make(map[string]bool, len(req))
	cats := make([]string, 0, len(req))
	for _, c := range order {
		if _, ok := req[c]; ok && !seen[c] {
			seen[c] = true
			cats = append(cats, c)
		}
	}
	for _, c := range req.Categories() {
		if !seen[c] {
			cats = append(cats, c)
		}
	}
	return cats
}
