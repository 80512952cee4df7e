package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"formflow/internal/clarify"
	"formflow/internal/cli"
	"formflow/internal/common"
	"formflow/internal/config"
	"formflow/internal/engine"
	"formflow/internal/extract"
	"formflow/internal/model"
	"formflow/internal/resolver"
	"formflow/internal/service"
	"formflow/internal/storage"
	"formflow/internal/template"
)

func fillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Run an interactive form-filling session",
		Long: `Extract text from the source documents, resolve the template's
required fields against it, ask about anything ambiguous or missing,
and write the validated filled document.`,
		RunE: runFill,
	}

	cmd.Flags().StringP("session", "s", "", "session (case) identifier, names the output artifact")
	cmd.Flags().StringP("template", "t", "", "form template path")
	cmd.Flags().String("annotations", "", "annotated rendering of the template (optional)")
	cmd.Flags().StringP("docs", "d", "", "directory of source documents")
	cmd.Flags().StringP("out", "o", "", "output directory (default from config)")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("template")
	_ = cmd.MarkFlagRequired("docs")

	_ = viper.BindPFlag("fill.session", cmd.Flags().Lookup("session"))
	_ = viper.BindPFlag("fill.template", cmd.Flags().Lookup("template"))
	_ = viper.BindPFlag("fill.annotations", cmd.Flags().Lookup("annotations"))
	_ = viper.BindPFlag("fill.docs", cmd.Flags().Lookup("docs"))
	_ = viper.BindPFlag("fill.out", cmd.Flags().Lookup("out"))

	return cmd
}

func runFill(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	sessionID := viper.GetString("fill.session")
	templatePath := viper.GetString("fill.template")
	annotationPath := viper.GetString("fill.annotations")
	docsDir := viper.GetString("fill.docs")
	outputDir := viper.GetString("fill.out")
	if outputDir == "" {
		outputDir = viper.GetString("engine.output_dir")
	}

	paths, err := collectDocumentPaths(docsDir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no source documents found in %s", docsDir)
	}

	prompter := cli.NewPrompter(os.Stdin, os.Stdout)

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Session %s: %d source documents", sessionID, len(paths))))

	aggregator := extract.NewAggregator(
		extract.NewOCRSidecarProvider(),
		extract.NewPDFProvider(),
		extract.NewPlainTextProvider(),
	)
	prompter.StartProgress(len(paths), "Extracting documents...")
	aggregator.OnDocument = func(_ model.SourceDocument) { prompter.AdvanceProgress() }

	docs, corpus, err := aggregator.Aggregate(ctx, paths)
	prompter.FinishProgress()
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	for _, doc := range docs {
		if doc.Empty() {
			fmt.Println(cli.FormatWarning(fmt.Sprintf("%s yielded no text and will contribute nothing", doc.ID)))
		}
	}

	store, err := openStorage(ctx)
	if err != nil {
		slog.Warn("Session archive unavailable, continuing without it", "error", err)
		store = nil
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	acceptThreshold := viper.GetFloat64("resolver.accept_threshold")
	tieMargin := viper.GetFloat64("resolver.tie_margin")
	if acceptThreshold <= 0 || acceptThreshold > 1 || tieMargin < 0 || tieMargin >= 1 {
		return fmt.Errorf("%w: resolver thresholds must satisfy 0 < accept_threshold <= 1 and 0 <= tie_margin < 1",
			common.ErrInvalidConfig)
	}

	fieldResolver := resolver.New(corpus, resolver.Config{
		AcceptThreshold: acceptThreshold,
		TieMargin:       tieMargin,
	})
	clarifier := clarify.New(prompter, viper.GetInt("clarify.max_attempts"))
	writer := template.NewWriter()
	discoverer := template.NewDiscoverer(template.NewPlaceholderProvider())

	eng := engine.New(discoverer, fieldResolver, clarifier, writer, store, engine.Config{
		MaxAttempts: viper.GetInt("engine.max_attempts"),
		OutputDir:   outputDir,
	})

	session, err := eng.Run(ctx, sessionID, templatePath, annotationPath)
	if err != nil {
		if engine.Abandoned(err) {
			fmt.Println(cli.FormatWarning("Session abandoned; no document was written."))
			return nil
		}
		return err
	}

	prompter.ShowWarnings(session.Issues)
	if session.State == model.StateDone {
		prompter.ShowSuccess(session)
		return nil
	}
	prompter.ShowFailure(session)
	return fmt.Errorf("session %s ended in %s", sessionID, session.State)
}

// collectDocumentPaths gathers source documents from a directory,
// skipping OCR sidecars (they are read through their base document).
func collectDocumentPaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read documents directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, extract.SidecarSuffix) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	sort.Strings(paths)
	return paths, nil
}

func openStorage(ctx context.Context) (service.Storage, error) {
	dbPath := config.ExpandPath(viper.GetString("storage.path"))
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
