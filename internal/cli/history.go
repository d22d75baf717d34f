package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
	"github.com/kirillkom/documind-auditor/internal/core/ports"
)

const historyDateLayout = "02/01/2006 15:04"

func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List, export or clear past audits",
	}

	cmd.AddCommand(newHistoryListCommand(rootOpts))
	cmd.AddCommand(newHistoryReportCommand(rootOpts))
	cmd.AddCommand(newHistoryExportCommand(rootOpts))
	cmd.AddCommand(newHistoryClearCommand(rootOpts))

	return cmd
}

func newHistoryListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List audits, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(session ports.Session) error {
				entries := session.History()
				return newFormatter(cmd, rootOpts).print(entries, func(w io.Writer) {
					printHistory(w, entries)
				})
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func printHistory(w io.Writer, entries []domain.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No audits yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tFILE\tTYPE\tSCORE\tVERDICT")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			e.ID, e.Date.Local().Format(historyDateLayout), e.FileName, e.FileType, e.Result.Score, e.Result.OverallVerdict)
	}
	_ = tw.Flush()
}

func newHistoryReportCommand(rootOpts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "report <id>",
		Short: "Write the PDF report of a past audit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(session ports.Session) error {
				report, err := session.HistoryReport(cmd.Context(), args[0])
				if err != nil {
					return sessionError("compose report", err)
				}
				path := output
				if path == "" {
					path = report.FileName
				}
				if err := writeOutput(path, report.Data); err != nil {
					return err
				}
				return newFormatter(cmd, rootOpts).print(map[string]string{"path": path}, func(w io.Writer) {
					fmt.Fprintf(w, "Report written to %s\n", path)
				})
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (defaults to the report file name)")

	return cmd
}

func newHistoryExportCommand(rootOpts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the history to a spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(session ports.Session) error {
				data, err := session.ExportHistory(cmd.Context())
				if err != nil {
					return sessionError("export history", err)
				}
				if err := writeOutput(output, data); err != nil {
					return err
				}
				return newFormatter(cmd, rootOpts).print(map[string]string{"path": output}, func(w io.Writer) {
					fmt.Fprintf(w, "History exported to %s\n", output)
				})
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVarP(&output, "output", "o", "Lich_su_kiem_duyet.xlsx", "output path")

	return cmd
}

func newHistoryClearCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every audit from the history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, rootOpts, func(session ports.Session) error {
				outcome, err := session.ClearHistory(cmd.Context(), yes)
				if err != nil {
					return sessionError("clear history", err)
				}
				return newFormatter(cmd, rootOpts).print(outcome, func(w io.Writer) {
					fmt.Fprintln(w, "History cleared.")
					if outcome.RemoteWarning != "" {
						fmt.Fprintf(w, "Warning: %s\n", outcome.RemoteWarning)
					}
				})
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the deletion")

	return cmd
}
