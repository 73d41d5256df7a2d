package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shunichi-ikebuchi/bi-import/pkg/db"
	"github.com/shunichi-ikebuchi/bi-import/pkg/extract"
	"github.com/shunichi-ikebuchi/bi-import/pkg/ledger"
	"github.com/shunichi-ikebuchi/bi-import/pkg/reconcile"
)

func TestConfirmUpdate(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		confirm := confirmUpdate(strings.NewReader(tt.input), &out, ledger.DocTypeInvoice, false)
		if result := confirm(); result != tt.expected {
			t.Errorf("confirm(%q) = %v, expected %v", tt.input, result, tt.expected)
		}
		if !strings.Contains(out.String(), "Are you sure you have bills/invoices to update?") {
			t.Errorf("prompt = %q", out.String())
		}
	}

	if confirmUpdate(strings.NewReader(""), &bytes.Buffer{}, ledger.DocTypeBill, true) != nil {
		t.Error("confirmUpdate with yes should not ask")
	}
}

func TestPrintDocument(t *testing.T) {
	var out bytes.Buffer
	open := printDocument(&out)

	open(&ledger.Document{
		ID:      "INV1",
		Type:    ledger.DocTypeInvoice,
		Owner:   &ledger.Owner{ID: "cust1"},
		Entries: []*ledger.LineItem{{}, {}},
	})
	open(&ledger.Document{
		ID:            "B1",
		Type:          ledger.DocTypeBill,
		Owner:         &ledger.Owner{ID: "vend1"},
		Posted:        true,
		PostedAccount: &ledger.Account{Name: "Liabilities:Accounts Payable"},
	})

	assert.Equal(t,
		"invoice INV1: customer cust1, 2 line item(s), not posted\n"+
			"bill B1: vendor vend1, 0 line item(s), posted to Liabilities:Accounts Payable\n",
		out.String())
}

func TestWriteReport(t *testing.T) {
	var out bytes.Buffer
	run := &db.ImportRun{ID: "run-1", SourceFile: "in.txt", DocType: "INVOICE", Result: "OK"}
	stats := &extract.Stats{
		Imported:     2,
		Ignored:      1,
		IgnoredLines: []string{"garbage"},
		Info:         []string{"Invoice INV1 posted."},
	}

	writeReport(&out, run, stats, reconcile.Result{Created: 1, Posted: []*ledger.Document{{ID: "INV1"}}})

	report := out.String()
	assert.Contains(t, report, "Result:   OK\n")
	assert.Contains(t, report, "Created:  1\n")
	assert.Contains(t, report, "Posted:   1\n")
	assert.Contains(t, report, "== Ignored lines ==\ngarbage\n")
	assert.True(t, strings.HasSuffix(report, "== Info ==\nInvoice INV1 posted.\n"), report)
}

func TestLinePattern(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		pattern   string
		formatSet bool
		wantErr   bool
	}{
		{"default semicolon", "semicolon", "", false, false},
		{"comma", "comma", "", true, false},
		{"pattern implies custom", "semicolon", `^(?<id>.*)$`, false, false},
		{"explicit custom", "custom", `^(?<id>.*)$`, true, false},
		{"pattern with other format", "comma", `^(?<id>.*)$`, true, true},
		{"custom without pattern", "custom", "", true, true},
		{"unknown format", "tsv", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := linePattern(tt.format, tt.pattern, tt.formatSet)
			if (err != nil) != tt.wantErr {
				t.Fatalf("linePattern() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && result == "" {
				t.Error("linePattern() returned an empty pattern")
			}
		})
	}
}
