package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"alfredoptarigan/voice-screener/internal/config"
	"alfredoptarigan/voice-screener/internal/services"
)

type ingestOptions struct {
	role     string
	kind     string
	maxRunes int
	overlap  int
	dryRun   bool
}

func newIngestCommand() *cobra.Command {
	opts := ingestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest FILE...",
		Short: "Load role reference material into the question bank",
		Long: `Ingest reads PDF, Markdown or plain text files, splits them into chunks,
embeds every chunk with Gemini and stores it in Qdrant under the given role.

Re-ingesting a file replaces its earlier chunks.

  screenerctl ingest --role "Software Engineer" --kind technical swe_questions.md
  screenerctl ingest --role "Data Engineer" --kind job_description jd.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := readDocuments(args, services.NewPDFParserService(0))
			if err != nil {
				return err
			}

			if opts.dryRun {
				return runIngest(cmd.Context(), cmd.OutOrStdout(), docs, opts, nil, nil)
			}

			cfg := config.Load()
			gemini, err := services.NewGeminiService(cmd.Context(), cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Worker.RetryInitialDelay)
			if err != nil {
				return err
			}
			bank, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection)
			if err != nil {
				return err
			}
			defer bank.Close()
			if err := bank.InitCollection(cmd.Context()); err != nil {
				return err
			}

			return runIngest(cmd.Context(), cmd.OutOrStdout(), docs, opts, gemini, bank)
		},
	}

	cmd.Flags().StringVar(&opts.role, "role", "", "Role the material belongs to (required)")
	cmd.Flags().StringVar(&opts.kind, "kind", "reference", "Material kind: technical, behavioral, job_description, reference")
	cmd.Flags().IntVar(&opts.maxRunes, "chunk-size", 1000, "Maximum characters per chunk")
	cmd.Flags().IntVar(&opts.overlap, "overlap", 200, "Characters repeated between chunks")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Only chunk the files, do not embed or store")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}

type sourceDocument struct {
	Path string
	Text string
}

func readDocuments(paths []string, parser services.PDFParserService) ([]sourceDocument, error) {
	docs := make([]sourceDocument, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}

		text := string(data)
		if strings.EqualFold(filepath.Ext(p), ".pdf") {
			content, err := parser.ExtractText(data)
			if err != nil {
				return nil, fmt.Errorf("failed to extract %s: %w", p, err)
			}
			text = content.Text
		}

		docs = append(docs, sourceDocument{Path: filepath.ToSlash(filepath.Clean(p)), Text: text})
	}
	return docs, nil
}

// runIngest chunks, embeds and stores docs. With a nil bank it only counts
// chunks.
func runIngest(ctx context.Context, w io.Writer, docs []sourceDocument, opts ingestOptions, gemini services.GeminiService, bank services.QuestionBank) error {
	chunker := services.NewTextChunker(opts.maxRunes, opts.overlap)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Source", "Role", "Kind", "Chunks", "Stored", "Status"})

	failed := 0
	for _, doc := range docs {
		chunks := chunker.Chunk(doc.Text)
		stored, status := 0, "dry run"

		if bank != nil {
			var err error
			stored, err = storeChunks(ctx, doc.Path, chunks, opts, gemini, bank)
			status = "✅"
			if err != nil {
				log.Printf("❌ %s: %v", doc.Path, err)
				status = "❌ " + err.Error()
				failed++
			}
		}

		tw.AppendRow(table.Row{doc.Path, opts.role, opts.kind, len(chunks), stored, status})
	}
	tw.Render()

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed to ingest", failed, len(docs))
	}
	return nil
}

func storeChunks(ctx context.Context, source string, chunks []string, opts ingestOptions, gemini services.GeminiService, bank services.QuestionBank) (int, error) {
	entries := make([]services.BankEntry, 0, len(chunks))
	for i, chunk := range chunks {
		embedding, err := gemini.GenerateEmbedding(ctx, chunk)
		if err != nil {
			return 0, fmt.Errorf("chunk %d: %w", i+1, err)
		}
		entries = append(entries, services.BankEntry{
			Source:    source,
			Chunk:     i,
			Role:      opts.role,
			Kind:      opts.kind,
			Text:      chunk,
			Embedding: embedding,
		})
	}

	if err := bank.DeleteSource(ctx, source); err != nil {
		return 0, err
	}
	if err := bank.Upsert(ctx, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}
