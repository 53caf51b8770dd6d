package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/docq-ai/docq-go/internal/logging"
)

// NewFilesCmd constructs the `docq files` command, which lists every
// document recorded in the ingestion ledger.
func NewFilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List ingested documents",
		Long: `List the documents recorded in the ingestion ledger, oldest first.

The ledger lives at ~/.docq/ledger.db by default; override with
DOCQ_LEDGER_DB.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.New()

			ledger := buildLedger(log)
			if ledger == nil {
				return fmt.Errorf("files: ledger is unavailable")
			}
			defer func() { _ = ledger.Close() }()

			records, err := ledger.List(ctx)
			if err != nil {
				return fmt.Errorf("files: %w", err)
			}

			if len(records) == 0 {
				fmt.Println("no documents ingested yet")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPAGES\tCHUNKS\tINGESTED")
			for _, rec := range records {
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\n",
					rec.Name, rec.Pages, rec.Chunks, rec.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}
