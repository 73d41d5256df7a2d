package extract

import (
	"fmt"
	"strings"

	"github.com/shunichi-ikebuchi/bi-import/pkg/rows"
)

// Format names a built-in line pattern.
type Format string

const (
	// FormatSemicolon reads unquoted fields separated by ";".
	FormatSemicolon Format = "semicolon"
	// FormatComma reads fields separated by ",", optionally wrapped in double
	// quotes with embedded quotes doubled.
	FormatComma Format = "comma"
	// FormatCustom uses a pattern supplied by the caller.
	FormatCustom Format = "custom"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatSemicolon, FormatComma, FormatCustom:
		return f, nil
	case "":
		return FormatSemicolon, nil
	}
	return "", fmt.Errorf("unknown format %q (expected semicolon, comma or custom)", s)
}

// Pattern returns the line pattern of a built-in format. Fields appear in
// column order; an optional byte order mark is skipped.
func (f Format) Pattern() (string, error) {
	var parts []string
	var sep string

	switch f {
	case FormatSemicolon:
		sep = ";"
		for _, field := range rows.Fields() {
			parts = append(parts, fmt.Sprintf(`(?<%s>[^;]*)`, field))
		}
	case FormatComma:
		sep = ","
		for _, field := range rows.Fields() {
			parts = append(parts, fmt.Sprintf(`(?:"(?<%[1]s>(?:[^"]|"")*)"|(?<%[1]s>[^,"]*))`, field))
		}
	default:
		return "", fmt.Errorf("format %q has no built-in pattern", f)
	}

	return `^(?:\x{FEFF})?` + strings.Join(parts, sep) + `$`, nil
}
