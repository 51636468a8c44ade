package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"dotgate/internal/diag"
	"dotgate/internal/rules"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List every diagnostic the gate can report",
	Args:  cobra.NoArgs,
	RunE:  runCatalog,
}

func init() {
	catalogCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	catalogCmd.Flags().String("category", "", "only list codes of this category (NAM|CST|TYP|ITR)")
}

type catalogEntry struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Severity    string   `json:"severity"`
	Positioning string   `json:"positioning"`
	Signature   string   `json:"signature"`
	Template    string   `json:"template"`
	Rules       []string `json:"rules"`
}

func collectCatalog(cat *rules.Catalog, category string) []catalogEntry {
	category = strings.ToUpper(strings.TrimSpace(category))
	ids := diag.All()
	out := make([]catalogEntry, 0, len(ids))
	for _, id := range ids {
		code := id.Code().ID()
		if category != "" && !strings.HasPrefix(code, category) {
			continue
		}
		ruleNames := cat.RulesFor(id)
		if ruleNames == nil {
			ruleNames = []string{}
		}
		out = append(out, catalogEntry{
			Code:        code,
			Name:        id.Name(),
			Severity:    id.Severity().Label(),
			Positioning: id.Positioning().String(),
			Signature:   id.Signature(),
			Template:    id.Template(),
			Rules:       ruleNames,
		})
	}
	return out
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	category, err := cmd.Flags().GetString("category")
	if err != nil {
		return fmt.Errorf("failed to get category flag: %w", err)
	}
	entries := collectCatalog(rules.Default(), category)

	switch strings.ToLower(format) {
	case "json":
		return encodeJSON(cmd.OutOrStdout(), entries)
	case "pretty", "":
		useColor, err := colorEnabled(cmd, os.Stdout)
		if err != nil {
			return err
		}
		renderCatalog(cmd.OutOrStdout(), entries, useColor)
		return nil
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
}

func renderCatalog(w io.Writer, entries []catalogEntry, useColor bool) {
	codeStyle := lipgloss.NewStyle()
	dim := lipgloss.NewStyle()
	if useColor {
		codeStyle = codeStyle.Bold(true)
		dim = dim.Foreground(lipgloss.Color("8"))
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s %-8s %s%s\n", codeStyle.Render(e.Code), e.Severity, e.Name, e.Signature)
		fmt.Fprintf(w, "    %s\n", e.Template)
		if len(e.Rules) > 0 {
			fmt.Fprintln(w, dim.Render("    rules: "+strings.Join(e.Rules, ", ")+"; position: "+e.Positioning))
		} else {
			fmt.Fprintln(w, dim.Render("    position: "+e.Positioning))
		}
	}
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
