package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dwoolworth/doccoll"
	"github.com/dwoolworth/doccoll/people"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the Person schema",
	Long:  "Display the parsed Person schema with fields, rules, indexes and hooks. Does not connect.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := doccoll.ParseSchema(&people.Person{}, people.CollectionName)
		if err != nil {
			return err
		}
		printSchema(cmd.OutOrStdout(), schema)
		return nil
	},
}

func printSchema(w io.Writer, schema *doccoll.Schema) {
	fmt.Fprintf(w, "%s (collection: %s)\n", schema.ModelName, schema.Collection)

	for i, field := range schema.Fields {
		connector := "├──"
		if i == len(schema.Fields)-1 {
			connector = "└──"
		}
		fmt.Fprintf(w, "  %s %-12s %-14s %s\n", connector, field.BSONName, field.Type, formatFieldAttrs(field))
	}

	var indexes []string
	for _, f := range schema.Fields {
		switch {
		case f.Unique:
			indexes = append(indexes, f.BSONName+"_1 (unique)")
		case f.Index:
			indexes = append(indexes, f.BSONName+"_1")
		}
	}
	for _, ci := range schema.CompoundIndexes {
		parts := make([]string, 0, len(ci.Fields)*2)
		for _, f := range ci.Fields {
			parts = append(parts, f, "1")
		}
		label := "(compound)"
		if ci.Unique {
			label = "(compound, unique)"
		}
		indexes = append(indexes, strings.Join(parts, "_")+" "+label)
	}
	if len(indexes) > 0 {
		fmt.Fprintln(w, "\n  Indexes:")
		for _, ix := range indexes {
			fmt.Fprintf(w, "    ✓ %s\n", ix)
		}
	}

	if len(schema.Hooks) > 0 {
		fmt.Fprintln(w, "\n  Hooks:")
		for _, h := range schema.Hooks {
			fmt.Fprintf(w, "    ⚡ %s\n", h)
		}
	}
}

func formatFieldAttrs(f doccoll.FieldSchema) string {
	var parts []string
	if f.Unique {
		parts = append(parts, "unique")
	}
	if f.Index {
		parts = append(parts, "indexed")
	}
	if f.Required {
		parts = append(parts, "required")
	}
	if f.Immutable {
		parts = append(parts, "immutable")
	}
	if len(f.Enum) > 0 {
		parts = append(parts, fmt.Sprintf("enum(%s)", strings.Join(f.Enum, "|")))
	}
	if f.Default != "" {
		parts = append(parts, "default: "+f.Default)
	}
	if f.Min != nil {
		parts = append(parts, fmt.Sprintf("min: %d", *f.Min))
	}
	if f.Max != nil {
		parts = append(parts, fmt.Sprintf("max: %d", *f.Max))
	}
	return strings.Join(parts, ", ")
}
