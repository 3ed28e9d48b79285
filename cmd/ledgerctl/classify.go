package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/document/classifier"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/import/parser"
	importservice "github.com/FACorreiaa/finance-dashboard/internal/domain/import/service"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/reconcile"
	"github.com/FACorreiaa/finance-dashboard/pkg/ocr"
)

var ocrLanguages []string

// newImageTranscriber is swapped in tests.
var newImageTranscriber = func(languages []string) ocr.Transcriber {
	return ocr.NewTesseract(languages)
}

var classifyCmd = &cobra.Command{
	Use:   "classify FILE...",
	Short: "Transcribe, classify and reconcile documents against the ledger",
	Long: `Runs each file through the upload pipeline: OCR or PDF text extraction,
classification, field extraction and matching against pending obligations.
Nothing is appended to the ledger.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringSliceVar(&ocrLanguages, "lang", ocr.DefaultLanguages, "OCR languages")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	date, err := asOf()
	if err != nil {
		return err
	}

	files := make([]importservice.File, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		files = append(files, importservice.File{
			Name:        filepath.Base(path),
			ContentType: mime.TypeByExtension(filepath.Ext(path)),
			Data:        data,
		})
	}

	log := logger(cmd)
	svc := importservice.NewImportService(
		newImageTranscriber(ocrLanguages),
		parser.NewPDFTextExtractor(),
		classifier.NewDefault(),
		reconcile.New(newRepository(), nil, log),
		log,
	).WithMaxFiles(len(files))

	progress := func(_ int, name string, percent float64) {
		if verbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %3.0f%%\n", name, percent)
		}
	}
	batch := svc.ProcessBatch(context.Background(), files, date, progress)

	if jsonFlag {
		return printJSON(cmd, batch.Files)
	}

	for _, f := range batch.Files {
		u := f.Upload
		cmd.Printf("%s\n", u.FileName)
		cmd.Printf("  status: %s\n", u.Status)
		if f.Err != nil {
			cmd.Printf("  error:  %v\n", f.Err)
			continue
		}
		cmd.Printf("  type:   %s (%.0f%%)\n", u.Best.Type, u.Best.Confidence)
		if u.Match != nil {
			cmd.Printf("  match:  %s %s\n", u.Match.Key(), u.Match.Amount.Display())
		}
		for _, s := range u.Suggestions {
			cmd.Printf("  maybe:  %s (score %d)\n", s.Obligation.Key(), s.Score)
		}
	}

	if failed := len(batch.Failed()); failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(batch.Files))
	}
	return nil
}
