package cmdutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	clierrors "github.com/salmonumbrella/petadm/internal/errors"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{" 7 ", 7, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseID("id", tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if err != nil && !clierrors.IsValidationError(err) {
			t.Errorf("ParseID(%q) error should be a ValidationError, got %T", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseID(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestResolveJSONInput(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "pet.json")
	if err := os.WriteFile(testFile, []byte("  {\"nome\": \"Rex\"}\n"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name    string
		raw     string
		stdin   string
		want    string
		wantErr bool
	}{
		{name: "inline passthrough", raw: `{"nome": "Mimi"}`, want: `{"nome": "Mimi"}`},
		{name: "empty", raw: "", want: ""},
		{name: "@file", raw: "@" + testFile, want: `{"nome": "Rex"}`},
		{name: "@file with whitespace", raw: "  @" + testFile, want: `{"nome": "Rex"}`},
		{name: "missing file", raw: "@" + filepath.Join(tmpDir, "nope.json"), wantErr: true},
		{name: "bare @", raw: "@", wantErr: true},
		{name: "stdin", raw: "-", stdin: "\n{\"nome\": \"Bob\"}\n", want: `{"nome": "Bob"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveJSONInput(tt.raw, strings.NewReader(tt.stdin))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveJSONInput() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveJSONInput() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnmarshalJSONInput(t *testing.T) {
	var target struct {
		Nome  string `json:"nome"`
		Idade int    `json:"idade"`
	}

	if err := UnmarshalJSONInput(`"{\"nome\": \"Rex\", \"idade\": 3}"`, nil, &target); err != nil {
		t.Fatalf("UnmarshalJSONInput() error = %v", err)
	}
	if target.Nome != "Rex" || target.Idade != 3 {
		t.Errorf("unexpected target %+v", target)
	}

	err := UnmarshalJSONInput(`{nome: Rex}`, nil, &target)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if !clierrors.IsUserError(err) {
		t.Errorf("expected a user error, got %T", err)
	}
}

func TestReadInputSource(t *testing.T) {
	if _, err := ReadInputSource("", nil); err == nil {
		t.Error("expected error for empty path")
	}

	got, err := ReadInputSource("-", strings.NewReader("  hello  "))
	if err != nil {
		t.Fatalf("ReadInputSource(-) error = %v", err)
	}
	if got != "hello" {
		t.Errorf("ReadInputSource(-) = %q, want hello", got)
	}
}

func TestNormalizeJSONInput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty string", "", ""},
		{"whitespace-only", "   \t\n  ", "   \t\n  "},
		{"regular JSON object", `{"key": "value"}`, `{"key": "value"}`},
		{"regular JSON number", `42`, `42`},
		{"double-serialized object", `"{\"key\": \"value\"}"`, `{"key": "value"}`},
		{"double-serialized array", `"[1, 2, 3]"`, `[1, 2, 3]`},
		{"triple-serialized object unwraps one level", `"\"{\\\"key\\\": \\\"value\\\"}\""`, `"{\"key\": \"value\"}"`},
		{"JSON string containing non-JSON text", `"hello world"`, `"hello world"`},
		{"JSON string containing empty string", `""`, `""`},
		{"double-serialized with leading whitespace", `  "{\"key\": \"value\"}"`, `{"key": "value"}`},
		{"invalid JSON", `{invalid json}`, `{invalid json}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeJSONInput(tt.raw); got != tt.want {
				t.Fatalf("NormalizeJSONInput(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
