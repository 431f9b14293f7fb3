// Package output renders command results.
//
// Formats:
//   - text: key-value pairs for objects, aligned columns for lists (default)
//   - json: pretty-printed JSON
//   - yaml: YAML
//   - table: aligned columns; objects become a single row
//
// The format, a --jsonpath expression and a --jq filter are placed in the
// command context by the root command and read back by the Printer:
//
//	ctx = output.WithFormat(ctx, format)
//	ctx = output.WithQuery(ctx, jq)
//	...
//	return output.NewPrinter(os.Stdout, output.FormatFromContext(ctx)).Print(ctx, pet)
//
// When both are set the JSONPath extraction runs first and the jq filter is
// applied to its result.
package output
