package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/csvmatrix/internal/core"
)

// render writes t to w as text, json or yaml.
func render(w io.Writer, t *core.Table, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(t.View())

	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(t.View()); err != nil {
			return err
		}
		return enc.Close()

	case "text", "":
		return renderText(w, t)
	}
	return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
}

// renderText prints aligned columns: names, then reconciled types, then rows.
func renderText(w io.Writer, t *core.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	names := make([]string, t.NumColumns())
	types := make([]string, t.NumColumns())
	for j, et := range t.ColumnTypes() {
		names[j] = t.ColumnName(j)
		types[j] = "(" + et.String() + ")"
	}
	fmt.Fprintln(tw, strings.Join(names, "\t"))
	fmt.Fprintln(tw, strings.Join(types, "\t"))

	for _, row := range t.Rows() {
		fmt.Fprintln(tw, strings.Join(row.Values(), "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d rows, %d columns\n", t.NumRows(), t.NumColumns())
	return err
}
