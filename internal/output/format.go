package output

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Format represents the output format type.
type Format string

const (
	// FormatText is human-readable key-value format (default).
	FormatText Format = "text"
	// FormatJSON is pretty-printed JSON format.
	FormatJSON Format = "json"
	// FormatTable is tabular format for lists.
	FormatTable Format = "table"
	// FormatYAML is YAML format.
	FormatYAML Format = "yaml"
)

// listKey is the key holding the items of a paginated response.
const listKey = "content"

// leadingColumns are shown first, in this order, when present.
var leadingColumns = []string{"id", "nome"}

// ParseFormat converts a string to a Format type.
// Empty string defaults to FormatText.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatTable:
		return FormatTable, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", errors.New("invalid --output format (expected text|json|table|yaml)")
	}
}

// String implements pflag.Value.
func (f *Format) String() string {
	if *f == "" {
		return string(FormatText)
	}
	return string(*f)
}

// Set implements pflag.Value.
func (f *Format) Set(s string) error {
	parsed, err := ParseFormat(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Type implements pflag.Value.
func (f *Format) Type() string {
	return "format"
}

// Printer handles output formatting across different formats.
type Printer struct {
	w      io.Writer
	format Format
}

// NewPrinter creates a new Printer that writes to w in the given format.
func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{
		w:      w,
		format: format,
	}
}

// Print outputs data in the configured format after applying any JSONPath
// expression and jq filter found in ctx.
func (p *Printer) Print(ctx context.Context, data interface{}) error {
	if data == nil {
		return nil
	}

	path := JSONPathFromContext(ctx)
	query := QueryFromContext(ctx)

	if p.format == FormatJSON && path == "" && query == "" {
		return p.printJSON(data)
	}

	normalized, err := normalizeToInterface(data)
	if err != nil {
		return err
	}

	if path != "" {
		if normalized, err = applyJSONPath(normalized, path); err != nil {
			return err
		}
	}

	if query != "" {
		results, err := runQuery(query, normalized)
		if err != nil {
			return err
		}
		switch len(results) {
		case 0:
			return nil
		case 1:
			normalized = results[0]
		default:
			if p.format == FormatJSON {
				for _, r := range results {
					if err := p.printJSON(r); err != nil {
						return err
					}
				}
				return nil
			}
			normalized = results
		}
	}

	switch p.format {
	case FormatJSON:
		return p.printJSON(normalized)
	case FormatYAML:
		return p.printYAML(normalized)
	case FormatTable:
		return p.printTable(normalized)
	case FormatText:
		return p.printText(normalized)
	default:
		return fmt.Errorf("unsupported format: %s", p.format)
	}
}

func (p *Printer) printJSON(data interface{}) error {
	enc := json.NewEncoder(p.w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (p *Printer) printYAML(data interface{}) error {
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()
	return enc.Encode(data)
}

// printText renders objects as sorted key-value pairs, lists as columns and
// paginated responses as columns followed by a page summary.
func (p *Printer) printText(data interface{}) error {
	switch v := data.(type) {
	case map[string]interface{}:
		if items, ok := v[listKey].([]interface{}); ok {
			return p.printPage(v, items)
		}
		return p.printKeyValues(v)
	case []interface{}:
		if len(v) == 0 {
			_, err := fmt.Fprintln(p.w, "(none)")
			return err
		}
		if !allObjects(v) {
			for _, item := range v {
				if _, err := fmt.Fprintln(p.w, formatCell(item)); err != nil {
					return err
				}
			}
			return nil
		}
		return p.printRows(v)
	default:
		_, err := fmt.Fprintln(p.w, formatCell(v))
		return err
	}
}

func (p *Printer) printPage(page map[string]interface{}, items []interface{}) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(p.w, "(none)")
		return err
	}
	if err := p.printRows(items); err != nil {
		return err
	}
	if _, ok := page["pageCount"]; !ok {
		return nil
	}
	// pages are zero-based on the wire
	current := toInt(page["page"]) + 1
	_, err := fmt.Fprintf(p.w, "\npage %d of %d (%d total)\n", current, toInt(page["pageCount"]), toInt(page["total"]))
	return err
}

func (p *Printer) printKeyValues(m map[string]interface{}) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for _, k := range keys {
		if _, err := fmt.Fprintf(tw, "%s:\t%s\n", k, formatCell(m[k])); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// printTable renders lists as columns and a single object as one row.
func (p *Printer) printTable(data interface{}) error {
	switch v := data.(type) {
	case map[string]interface{}:
		if items, ok := v[listKey].([]interface{}); ok {
			return p.printRows(items)
		}
		return p.printRows([]interface{}{v})
	case []interface{}:
		if !allObjects(v) {
			return errors.New("table output requires a list of objects")
		}
		return p.printRows(v)
	default:
		return errors.New("table output requires a list of objects")
	}
}

func (p *Printer) printRows(items []interface{}) error {
	columns := columnsOf(items)
	if len(columns) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = strings.ToUpper(c)
	}
	if _, err := fmt.Fprintln(tw, strings.Join(headers, "\t")); err != nil {
		return err
	}

	for _, item := range items {
		row, _ := item.(map[string]interface{})
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = formatCell(row[c])
		}
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func allObjects(items []interface{}) bool {
	for _, item := range items {
		if _, ok := item.(map[string]interface{}); !ok {
			return false
		}
	}
	return true
}

// columnsOf returns the union of keys across items: leading columns first,
// then the rest sorted.
func columnsOf(items []interface{}) []string {
	seen := map[string]bool{}
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			for k := range m {
				seen[k] = true
			}
		}
	}

	var columns []string
	for _, c := range leadingColumns {
		if seen[c] {
			columns = append(columns, c)
			delete(seen, c)
		}
	}
	rest := make([]string, 0, len(seen))
	for k := range seen {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(columns, rest...)
}

// formatCell renders a value on one line. Nested records collapse to their
// most recognizable field.
func formatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case string:
		if val == "" {
			return "-"
		}
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case map[string]interface{}:
		for _, k := range []string{"url", "nome", "id"} {
			if inner, ok := val[k]; ok && inner != nil {
				return formatCell(inner)
			}
		}
		data, _ := json.Marshal(val)
		return string(data)
	case []interface{}:
		if len(val) == 0 {
			return "-"
		}
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = formatCell(item)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", val)
	}
}

func toInt(v interface{}) int64 {
	if f, ok := v.(float64); ok {
		return int64(f)
	}
	return 0
}
