package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
	"github.com/kirillkom/documind-auditor/internal/core/ports"
)

func NewCriteriaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "criteria",
		Short: "Print the review criteria and score bands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(session ports.Session) error {
				rubric := session.Criteria()
				return newFormatter(cmd, rootOpts).print(rubric, func(w io.Writer) {
					printCriteria(w, rubric)
				})
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func printCriteria(w io.Writer, rubric domain.Rubric) {
	for _, group := range rubric.Criteria {
		fmt.Fprintf(w, "%s (%d%%)\n", group.Title, group.Weight)
		for _, item := range group.Items {
			fmt.Fprintf(w, "  - %s\n", item)
		}
	}
	if len(rubric.Bands) > 0 {
		fmt.Fprintln(w)
	}
	for _, band := range rubric.Bands {
		fmt.Fprintf(w, "%3d-%-3d %s: %s\n", band.Min, band.Max, band.Label, band.Description)
	}
}
