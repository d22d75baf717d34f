package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
	"github.com/kirillkom/documind-auditor/internal/core/ports"
)

// mimeByExtension mirrors what a browser reports for the accepted upload types.
var mimeByExtension = map[string]string{
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
	"zip":  "application/zip",
	"rar":  "application/vnd.rar",
}

type auditOptions struct {
	report string
}

func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &auditOptions{}

	cmd := &cobra.Command{
		Use:   "audit <file>",
		Short: "Audit a document and record it in the history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd, rootOpts, opts, args[0])
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVarP(&opts.report, "report", "r", "", "write the PDF report to this path")

	return cmd
}

func runAudit(cmd *cobra.Command, rootOpts *RootOptions, opts *auditOptions, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "read file", err)
	}
	if info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("read file: %s is a directory", path))
	}

	return withSession(cmd, rootOpts, func(session ports.Session) error {
		// The tier ceiling is checked before the file is loaded into memory.
		if err := session.CheckUploadSize(info.Name(), info.Size()); err != nil {
			return sessionError("audit failed", err)
		}
		file, err := readUpload(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "read file", err)
		}
		entry, err := session.Submit(cmd.Context(), file)
		if err != nil {
			return sessionError("audit failed", err)
		}
		if opts.report != "" {
			report, err := session.CurrentReport(cmd.Context())
			if err != nil {
				return sessionError("compose report", err)
			}
			if err := writeOutput(opts.report, report.Data); err != nil {
				return err
			}
		}
		return newFormatter(cmd, rootOpts).print(entry, func(w io.Writer) {
			printEntry(w, entry)
			if opts.report != "" {
				fmt.Fprintf(w, "\nReport: %s\n", opts.report)
			}
		})
	})
}

func readUpload(path string) (domain.UploadedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.UploadedFile{}, err
	}
	file := domain.UploadedFile{
		Name: filepath.Base(path),
		Size: int64(len(data)),
		Data: data,
	}
	file.MimeType = mimeByExtension[file.Extension()]
	return file, nil
}

func writeOutput(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return WrapExitError(ExitFailure, "write "+path, err)
	}
	return nil
}

func printEntry(w io.Writer, entry domain.HistoryEntry) {
	r := entry.Result
	fmt.Fprintf(w, "%s (%s)\n", entry.FileName, entry.FileType)
	fmt.Fprintf(w, "Score:   %d/100  %s\n", r.Score, r.OverallVerdict)
	fmt.Fprintf(w, "Subject: %s\n", r.Subject)
	fmt.Fprintf(w, "\n%s\n", r.Summary)
	printList(w, "Ưu điểm", r.Pros)
	printList(w, "Hạn chế", r.Cons)
	fmt.Fprintf(w, "\nNội dung: %s\n", r.ContentFeedback)
	fmt.Fprintf(w, "Hình thức: %s\n", r.DesignFeedback)
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", strings.TrimSpace(item))
	}
}
