package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/shunichi-ikebuchi/bi-import/pkg/db"
	"github.com/shunichi-ikebuchi/bi-import/pkg/extract"
	"github.com/shunichi-ikebuchi/bi-import/pkg/ledger"
	"github.com/shunichi-ikebuchi/bi-import/pkg/parse"
	"github.com/shunichi-ikebuchi/bi-import/pkg/reconcile"
)

// confirmUpdate returns the prompt asked before existing documents are
// updated. With yes set it never asks.
func confirmUpdate(in io.Reader, out io.Writer, docType ledger.DocType, yes bool) func() bool {
	if yes {
		return nil
	}
	return func() bool {
		noun := "invoices"
		if docType == ledger.DocTypeBill {
			noun = "bills"
		}
		fmt.Fprintf(out, "Some of the %s already exist. Are you sure you have bills/invoices to update? [y/N] ", noun)

		answer, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && answer == "" {
			return false
		}
		return parse.Bool(answer)
	}
}

// printDocument returns an opener that prints a one-line summary per document.
func printDocument(out io.Writer) func(*ledger.Document) {
	return func(doc *ledger.Document) {
		status := "not posted"
		if doc.Posted {
			status = "posted to " + doc.PostedAccount.Name
		}
		owner := ""
		if doc.Owner != nil {
			owner = doc.Owner.ID
		}
		fmt.Fprintf(out, "%s %s: %s %s, %d line item(s), %s\n",
			strings.ToLower(string(doc.Type)), doc.ID, doc.Type.OwnerKind(), owner, len(doc.Entries), status)
	}
}

// writeReport writes the run report: counters, ignored lines and the info log.
func writeReport(w io.Writer, run *db.ImportRun, stats *extract.Stats, result reconcile.Result) {
	fmt.Fprintf(w, "Run:      %s\n", run.ID)
	fmt.Fprintf(w, "File:     %s\n", run.SourceFile)
	fmt.Fprintf(w, "Type:     %s\n", run.DocType)
	fmt.Fprintf(w, "Result:   %s\n", run.Result)
	fmt.Fprintf(w, "Imported: %d\n", stats.Imported)
	fmt.Fprintf(w, "Ignored:  %d\n", stats.Ignored)
	fmt.Fprintf(w, "Fixed:    %d\n", stats.Fixed)
	fmt.Fprintf(w, "Deleted:  %d\n", stats.Deleted)
	fmt.Fprintf(w, "Created:  %d\n", result.Created)
	fmt.Fprintf(w, "Updated:  %d\n", result.Updated)
	fmt.Fprintf(w, "Posted:   %d\n", len(result.Posted))

	fmt.Fprintln(w, "\n== Ignored lines ==")
	fmt.Fprint(w, stats.IgnoredText())

	fmt.Fprintln(w, "\n== Info ==")
	for _, msg := range stats.Info {
		fmt.Fprintln(w, msg)
	}
}
