package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"alfredoptarigan/voice-screener/internal/script"
)

func newScriptCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "script",
		Short: "Inspect interview scripts",
	}

	var file string
	cmd.PersistentFlags().StringVarP(&file, "file", "f", "", "Script YAML (default: embedded script)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Render the script entries as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := script.Load(file)
			if err != nil {
				return err
			}
			renderScript(cmd.OutOrStdout(), s)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Report every problem in a script",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkScript(cmd.OutOrStdout(), file)
		},
	})

	return cmd
}

func renderScript(w io.Writer, s *script.Script) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.SetTitle("Phase 1 script")
	tw.AppendHeader(table.Row{"#", "ID", "Kind", "Question", "Options", "Gating"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, WidthMax: 60},
		{Number: 5, WidthMax: 40},
	})

	for i := 0; i < s.Len(); i++ {
		e := s.At(i)
		var opts []string
		for _, o := range e.Options {
			label := o.Label
			if o.Reject != "" {
				label += " ✗"
			}
			opts = append(opts, label)
		}
		if e.Kind == script.KindUpload {
			opts = append(opts, "upload: "+e.DocumentType)
		}
		gating := ""
		if e.Gating() {
			gating = "yes"
		}
		tw.AppendRow(table.Row{i + 1, e.ID, e.Kind, text.WrapSoft(e.Content, 60), strings.Join(opts, "\n"), gating})
	}
	tw.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d entries, name from %q, Phase 2 from %q", s.Len(), s.NameEntry, s.AnalysisDocument)})
	tw.Render()
}

func checkScript(w io.Writer, path string) error {
	if path == "" {
		s, err := script.Default()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "✅ embedded script is valid (%d entries)\n", s.Len())
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}

	var s script.Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to parse script: %w", err)
	}

	problems := s.Check()
	if len(problems) == 0 {
		fmt.Fprintf(w, "✅ %s is valid (%d entries)\n", path, s.Len())
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"#", "Problem"})
	for i, p := range problems {
		tw.AppendRow(table.Row{i + 1, p.Error()})
	}
	tw.Render()
	return fmt.Errorf("%s has %d problem(s)", path, len(problems))
}
