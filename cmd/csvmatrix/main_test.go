package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/csvmatrix/internal/core"
	"github.com/JonMunkholm/csvmatrix/internal/store"
)

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), err
}

const scores = "name,score\nalice,10\nbob,12.5\n"

func TestRead_Text(t *testing.T) {
	path := writeInput(t, "scores.csv", scores)

	out, err := run(t, "read", path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, want := range []string{"name", "(text)", "(numeric)", "alice", "2 rows, 2 columns"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRead_JSON(t *testing.T) {
	path := writeInput(t, "scores.csv", scores)

	out, err := run(t, "read", path, "--format", "json")
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var view core.TableView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if view.NumRows != 2 || view.ColumnTypes[1] != core.Numeric || view.Header[0] != "name" {
		t.Errorf("view = %+v", view)
	}
}

func TestRead_YAML(t *testing.T) {
	path := writeInput(t, "scores.csv", scores)

	out, err := run(t, "read", path, "--format", "yaml")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, want := range []string{"columnTypes:", "- numeric", "numRows: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("yaml missing %q:\n%s", want, out)
		}
	}
}

func TestRead_Options(t *testing.T) {
	tests := []struct {
		name    string
		content string
		args    []string
		wantErr bool
		want    string
	}{
		{"no header", "1,2\n", []string{"--header", "0"}, false, "1 rows, 2 columns"},
		{"tab delimiter", "a\tb\n1\t2\n", []string{"--delimiter", "tab"}, false, "1 rows, 2 columns"},
		{"strict short row", "a,b\n1\n", nil, true, ""},
		{"pad short row", "a,b\n1\n", []string{"--pad"}, false, "1 rows, 2 columns"},
		{"bad delimiter", "a\n", []string{"--delimiter", "::"}, true, ""},
		{"bad format", "a\n", []string{"--format", "xml"}, true, ""},
		{"too large", "a\n1\n2\n", []string{"--max-bytes", "3"}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeInput(t, "in.csv", tt.content)
			out, err := run(t, append([]string{"read", path}, tt.args...)...)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got output:\n%s", out)
				}
				return
			}
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	_, err := run(t, "read", filepath.Join(t.TempDir(), "nope.csv"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "FILE002") {
		t.Errorf("error should carry the user code: %v", err)
	}
}

func TestExport(t *testing.T) {
	path := writeInput(t, "scores.csv", scores)
	dest := filepath.Join(t.TempDir(), "out.parquet")

	out, err := run(t, "export", path, "-o", dest)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "wrote 2 rows") {
		t.Errorf("output = %q", out)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read parquet: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("PAR1")) {
		t.Error("output is not a Parquet file")
	}
}

func TestExport_ConversionFailureRemovesFile(t *testing.T) {
	path := writeInput(t, "dots.csv", "v\n.\n")
	dest := filepath.Join(t.TempDir(), "out.parquet")

	if _, err := run(t, "export", path, "-o", dest); err == nil {
		t.Fatal("expected numeric conversion error")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Errorf("partial output left behind: %v", err)
	}
}

func TestLoad_SQLite(t *testing.T) {
	path := writeInput(t, "Scores.csv", scores)
	db := filepath.Join(t.TempDir(), "data.db")

	out, err := run(t, "load", path, "--sqlite", db)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.Contains(out, "scores: loaded 2 rows") {
		t.Errorf("output = %q", out)
	}

	st, err := store.OpenSQLite(db)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()

	var sum float64
	if err := st.DB().QueryRow(`SELECT SUM(score) FROM scores`).Scan(&sum); err != nil {
		t.Fatalf("query: %v", err)
	}
	if sum != 22.5 {
		t.Errorf("sum = %v, want 22.5", sum)
	}
}

func TestLoad_NeedsOneTarget(t *testing.T) {
	path := writeInput(t, "a.csv", "a\n1\n")

	if _, err := run(t, "load", path); err == nil {
		t.Error("expected error with no target")
	}
	if _, err := run(t, "load", path, "--sqlite", "x.db", "--database-url", "postgres://x"); err == nil {
		t.Error("expected error with two targets")
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "0.3.0") {
		t.Errorf("version output = %q", out)
	}
}

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		"a.csv":          "a",
		"dir/b.csv.gz":   "b",
		"/x/y/report":    "report",
		".hidden.csv":    ".hidden",
		"sales-2024.tsv": "sales-2024",
	}
	for in, want := range tests {
		if got := baseName(in); got != want {
			t.Errorf("baseName(%q) = %q, want %q", in, got, want)
		}
	}
}
