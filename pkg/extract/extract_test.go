package extract

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunichi-ikebuchi/bi-import/pkg/rows"
)

const simplePattern = `^(?<id>[^;]*);(?<owner_id>[^;]*);(?<price>[^;]*)$`

func TestReadMatchesAndIgnores(t *testing.T) {
	input := "INV1;cust1;10.00\nnot a record\nINV2; cust2 ;  \n"

	table := rows.NewTable()
	stats := &Stats{}
	err := New(Config{Pattern: simplePattern}).Read(strings.NewReader(input), table, stats)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Imported)
	assert.Equal(t, 1, stats.Ignored)
	assert.Equal(t, "not a record\n", stats.IgnoredText())

	require.Equal(t, 2, table.Len())
	assert.Equal(t, "INV1", table.Get(0, rows.ID))
	assert.Equal(t, "10.00", table.Get(0, rows.Price))
	assert.Equal(t, 1, table.At(0).Line)

	assert.Equal(t, "cust2", table.Get(1, rows.OwnerID), "values are trimmed")
	assert.Equal(t, "", table.Get(1, rows.Price), "blank values stay unset")
	assert.Equal(t, 3, table.At(1).Line)
}

func TestReadMaxRows(t *testing.T) {
	input := "A;c;1\nbad\nB;c;2\nC;c;3\n"

	table := rows.NewTable()
	stats := &Stats{}
	err := New(Config{Pattern: simplePattern, MaxRows: 2}).Read(strings.NewReader(input), table, stats)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Imported)
	assert.Equal(t, 1, stats.Ignored)
	assert.Equal(t, 1, table.Len())
}

func TestReadStripsCarriageReturnAndHandlesMissingNewline(t *testing.T) {
	table := rows.NewTable()
	stats := &Stats{}
	err := New(Config{Pattern: simplePattern}).Read(strings.NewReader("A;c;1\r\nB;c;2"), table, stats)
	require.NoError(t, err)

	require.Equal(t, 2, table.Len())
	assert.Equal(t, "1", table.Get(0, rows.Price))
	assert.Equal(t, "2", table.Get(1, rows.Price))
}

func TestReadLongLine(t *testing.T) {
	desc := strings.Repeat("x", 5000)
	table := rows.NewTable()
	err := New(Config{Pattern: `^(?<id>[^;]*);(?<desc>[^;]*)$`}).Read(strings.NewReader("A;"+desc+"\n"), table, nil)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, desc, table.Get(0, rows.Desc))
}

func TestReadDecodesLatin1(t *testing.T) {
	// "Café" in ISO-8859-1
	input := []byte("A;Caf\xe9\n")
	table := rows.NewTable()
	err := New(Config{Pattern: `^(?<id>[^;]*);(?<desc>[^;]*)$`, Encoding: "iso-8859-1"}).
		Read(strings.NewReader(string(input)), table, nil)
	require.NoError(t, err)
	assert.Equal(t, "Café", table.Get(0, rows.Desc))
}

func TestReadToleratesInvalidUTF8(t *testing.T) {
	table := rows.NewTable()
	err := New(Config{Pattern: `^(?<id>[^;]*);(?<desc>[^;]*)$`}).
		Read(strings.NewReader("A;bad\xff\n"), table, nil)
	require.NoError(t, err)
	assert.Equal(t, "bad\ufffd", table.Get(0, rows.Desc))
}

func TestReadDuplicateGroupNames(t *testing.T) {
	pattern, err := FormatComma.Pattern()
	require.NoError(t, err)

	fields := make([]string, len(rows.Fields()))
	fields[rows.ID] = "INV1"
	fields[rows.Desc] = `"Widget, ""large"""`
	fields[rows.Price] = "10.00"

	table := rows.NewTable()
	stats := &Stats{}
	err = New(Config{Pattern: pattern}).Read(strings.NewReader(strings.Join(fields, ",")+"\n"), table, stats)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Imported, "ignored: %q", stats.IgnoredLines)

	assert.Equal(t, "INV1", table.Get(0, rows.ID))
	assert.Equal(t, `Widget, ""large""`, table.Get(0, rows.Desc))
	assert.Equal(t, "10.00", table.Get(0, rows.Price))
}

func TestSemicolonFormat(t *testing.T) {
	pattern, err := FormatSemicolon.Pattern()
	require.NoError(t, err)

	fields := make([]string, len(rows.Fields()))
	for _, f := range rows.Fields() {
		fields[f] = f.String() + "-value"
	}

	table := rows.NewTable()
	err = New(Config{Pattern: pattern}).Read(strings.NewReader("\ufeff"+strings.Join(fields, ";")+"\n"), table, nil)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	for _, f := range rows.Fields() {
		assert.Equal(t, f.String()+"-value", table.Get(0, f))
	}
}

func TestInvalidPatternDoesNotOpenSource(t *testing.T) {
	table := rows.NewTable()
	err := New(Config{Pattern: `^(?<id>[^;]*`}).ReadFile(filepath.Join(t.TempDir(), "missing.txt"), table, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPattern), "got %v", err)
	assert.Equal(t, ResultErrorInRegexp, ResultOf(err))
	assert.Equal(t, "ERROR_IN_REGEXP", ResultOf(err).String())
	assert.Equal(t, 0, table.Len())
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoices.txt")
	require.NoError(t, os.WriteFile(path, []byte("INV1;cust1;5\n"), 0o644))

	table := rows.NewTable()
	err := New(Config{Pattern: simplePattern}).ReadFile(path, table, nil)
	require.NoError(t, err)
	assert.Equal(t, ResultOK, ResultOf(err))
	assert.Equal(t, 1, table.Len())

	err = New(Config{Pattern: simplePattern}).ReadFile(path+".missing", table, nil)
	assert.True(t, errors.Is(err, ErrSourceUnavailable), "got %v", err)
	assert.Equal(t, ResultOpenFailed, ResultOf(err))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
		wantErr  bool
	}{
		{"", FormatSemicolon, false},
		{"Comma", FormatComma, false},
		{"custom", FormatCustom, false},
		{"tsv", "", true},
	}

	for _, tt := range tests {
		result, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr || result != tt.expected {
			t.Errorf("ParseFormat(%q) = %q, %v; expected %q", tt.input, result, err, tt.expected)
		}
	}

	if _, err := FormatCustom.Pattern(); err == nil {
		t.Error("FormatCustom.Pattern() expected an error")
	}
}
