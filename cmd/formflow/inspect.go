package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"formflow/internal/cli"
	"formflow/internal/template"
)

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the field schema a template requires",
		Long: `Parse a template's placeholder markers (and optionally its annotated
rendering) and print the required-field schema without running a session.`,
		RunE: runInspect,
	}

	cmd.Flags().StringP("template", "t", "", "form template path")
	cmd.Flags().String("annotations", "", "annotated rendering of the template (optional)")
	_ = cmd.MarkFlagRequired("template")

	_ = viper.BindPFlag("inspect.template", cmd.Flags().Lookup("template"))
	_ = viper.BindPFlag("inspect.annotations", cmd.Flags().Lookup("annotations"))

	return cmd
}

func runInspect(cmd *cobra.Command, _ []string) error {
	templatePath := viper.GetString("inspect.template")
	annotationPath := viper.GetString("inspect.annotations")

	discoverer := template.NewDiscoverer(template.NewPlaceholderProvider())
	fields, issues, err := discoverer.Discover(cmd.Context(), templatePath, annotationPath)
	if err != nil {
		return err
	}

	for _, issue := range issues {
		fmt.Println(cli.FormatWarning(issue.Description))
	}

	var content strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&content, "  %-24s %-12s %s", f.Key, f.TypeHint, f.Label)
		if len(f.AllowedValues) > 0 {
			fmt.Fprintf(&content, "  [%s]", strings.Join(f.AllowedValues, "|"))
		}
		if f.ContextHint != "" {
			fmt.Fprintf(&content, "\n  %s", cli.SubtleStyle.Render("  "+f.ContextHint))
		}
		content.WriteString("\n")
	}

	fmt.Println(cli.RenderBox(fmt.Sprintf("%d required fields", len(fields)), content.String()))
	return nil
}
