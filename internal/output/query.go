package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/itchyny/gojq"

	clierrors "github.com/salmonumbrella/petadm/internal/errors"
)

// normalizeToInterface converts typed values to the generic map/slice form
// expected by gojq and jsonpath.
func normalizeToInterface(data interface{}) (interface{}, error) {
	switch data.(type) {
	case map[string]interface{}, []interface{}:
		return data, nil
	}
	buf, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode data: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(buf, &out); err != nil {
		return nil, fmt.Errorf("failed to decode data: %w", err)
	}
	return out, nil
}

// runQuery runs a jq filter over normalized data and collects every result.
func runQuery(query string, data interface{}) ([]interface{}, error) {
	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, clierrors.WrapUserError(err, "invalid --jq filter", "Example: --jq '.content[].nome'")
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, clierrors.WrapUserError(err, "invalid --jq filter", "Example: --jq '.content[].nome'")
	}

	var results []interface{}
	iter := code.Run(data)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if queryErr, isErr := v.(error); isErr {
			return nil, fmt.Errorf("jq error: %w", queryErr)
		}
		results = append(results, v)
	}
	return results, nil
}

// applyJSONPath extracts raw from normalized data. A leading "$" is optional.
func applyJSONPath(data interface{}, raw string) (interface{}, error) {
	path := normalizeJSONPath(raw)
	if path == "" {
		return nil, clierrors.NewUserError("invalid --jsonpath value", "Example: --jsonpath '$.content[0].id'")
	}
	value, err := jsonpath.Get(path, data)
	if err != nil {
		return nil, clierrors.WrapUserError(err, "invalid --jsonpath value", "Example: --jsonpath '$.content[0].id'")
	}
	return value, nil
}

func normalizeJSONPath(path string) string {
	path = strings.TrimSpace(path)
	switch {
	case path == "":
		return ""
	case strings.HasPrefix(path, "$"):
		return path
	case strings.HasPrefix(path, ".") || strings.HasPrefix(path, "["):
		return "$" + path
	default:
		return "$." + path
	}
}
