package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/colinbendell/bank-statement-processor/internal/classifier"
	"github.com/colinbendell/bank-statement-processor/internal/extractor"
	"github.com/colinbendell/bank-statement-processor/internal/logger"
	"github.com/colinbendell/bank-statement-processor/internal/models"
	"github.com/colinbendell/bank-statement-processor/internal/normalize"
	"github.com/colinbendell/bank-statement-processor/internal/pipeline"
	"github.com/colinbendell/bank-statement-processor/internal/writer"
)

const (
	extractedSuffix   = ".extracted.csv"
	processedSuffix   = ".processed.csv"
	categorizedSuffix = ".categorized.csv"
	stdout            = "-"
)

type convertOptions struct {
	categories string
	output     string
	source     string
	kind       string
	threshold  float64
	artifacts  bool
	overwrite  bool
	dryRun     bool
	useLLM     bool
	header     bool
}

func newConvertCommand(a *app) *cobra.Command {
	var opts convertOptions

	cmd := &cobra.Command{
		Use:   "convert <file|dir>...",
		Short: "Convert statements to normalized, optionally categorized, CSV",
		Long: `Convert PDF statements to normalized CSV.

Directories are searched recursively for *.pdf and *.extracted.csv files;
a PDF is skipped when its .extracted.csv sibling exists. Extracted and
normalized CSV files are accepted as input and re-normalized.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch models.StatementKind(opts.kind) {
			case "", models.KindCard, models.KindAccount:
			default:
				return fmt.Errorf("unknown --kind %q: use card or account", opts.kind)
			}
			return a.runConvert(cmd.Context(), cmd.OutOrStdout(), args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.categories, "categories", "C", "", "categories training CSV (Description, Amount, Category)")
	f.StringVarP(&opts.output, "output", "o", "", "output CSV path, - for stdout (default: input name with .csv)")
	f.StringVar(&opts.source, "source", "", "value for the File column (default: derived from the statement)")
	f.StringVar(&opts.kind, "kind", "", "force the statement layout: card or account")
	f.Float64Var(&opts.threshold, "threshold", 0, "fuzzy match threshold 0-100 (default from config)")
	f.BoolVar(&opts.artifacts, "artifacts", false, "also write .extracted, .processed and .categorized CSV files")
	f.BoolVarP(&opts.overwrite, "overwrite", "y", false, "overwrite existing CSV files")
	f.BoolVar(&opts.dryRun, "dry-run", false, "process without writing the output file")
	f.BoolVar(&opts.useLLM, "use-llm", false, "ask the configured model about uncategorized transactions")
	f.BoolVar(&opts.header, "header", false, "write statement metadata rows above the columns")
	return cmd
}

func (a *app) runConvert(ctx context.Context, out io.Writer, args []string, opts convertOptions) error {
	log := logger.FromContext(ctx)

	inputs, err := collectInputs(args)
	if err != nil {
		return err
	}
	if len(inputs) > 1 && opts.output != "" && opts.output != stdout {
		log.Warn().Str("output", opts.output).Msg("several inputs, writing one CSV per input instead")
		opts.output = ""
	}

	ix, err := a.loadIndex(opts.categories, opts.threshold)
	if err != nil {
		return err
	}
	categorizer := classifier.Categorizer{Index: ix, MaxExamples: a.cfg.LLM.MaxExamples}
	if opts.useLLM {
		categorizer.Fallback = a.fallback()
	}
	categorize := ix != nil || categorizer.Fallback != nil

	processor := pipeline.New(a.cfg.ParserOptions())
	processor.Kind = models.StatementKind(opts.kind)

	var failed int
	columnsWritten := false
	for _, in := range inputs {
		outPath := opts.output
		if outPath == "" {
			outPath = outputPath(in)
		}
		if outPath != stdout && !opts.overwrite && exists(outPath) {
			fmt.Fprintf(out, "SKIPPED: %s\n", outPath)
			continue
		}

		conv, err := a.load(ctx, processor, in, opts.source)
		if err != nil {
			failed++
			log.Error().Err(err).Str("file", in).Msg("conversion failed")
			fmt.Fprintf(out, "FAILED: %s - %v\n", in, err)
			continue
		}

		base := strings.TrimSuffix(outPath, filepath.Ext(outPath))
		if outPath == stdout {
			base = strings.TrimSuffix(strings.TrimSuffix(in, extractedSuffix), filepath.Ext(in))
		}
		w := &writer.CSVWriter{IncludeHeader: opts.header, Header: conv.header}

		if opts.artifacts && !opts.dryRun {
			if conv.extracted != nil {
				if err := w.WriteToFile(base+extractedSuffix, conv.extracted.Table()); err != nil {
					return err
				}
			}
			if err := w.WriteToFile(base+processedSuffix, writer.Transactions(conv.txns)); err != nil {
				return err
			}
		}

		var table writer.Table = writer.Transactions(conv.txns)
		if categorize {
			rows := categorizer.Categorize(ctx, conv.txns)
			table = writer.Categorized(rows)
			if opts.artifacts && !opts.dryRun {
				if err := w.WriteToFile(base+categorizedSuffix, table); err != nil {
					return err
				}
			}
		}

		switch {
		case outPath == stdout:
			w.OmitColumns = columnsWritten
			w.IncludeHeader = opts.header && !columnsWritten
			if err := w.Write(out, table); err != nil {
				return err
			}
			columnsWritten = true
		case opts.dryRun:
			fmt.Fprintf(out, "DRY RUN: %s (%d transactions)\n", outPath, len(conv.txns))
		default:
			if err := w.WriteToFile(outPath, table); err != nil {
				return err
			}
			fmt.Fprintf(out, "OK: %s (%d transactions)\n", outPath, len(conv.txns))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d statements failed", failed, len(inputs))
	}
	return nil
}

type conversion struct {
	header    writer.Header
	extracted *writer.Extracted
	txns      []models.Transaction
}

// load turns one input into normalized transactions: PDFs through the
// pipeline, CSV tables through the normalizer.
func (a *app) load(ctx context.Context, p *pipeline.Processor, path, source string) (*conversion, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		doc, err := extractor.Open(path)
		if err != nil {
			return nil, err
		}
		doc.Source = source
		res, err := p.Process(ctx, doc)
		if err != nil {
			return nil, err
		}
		return &conversion{
			header:    writer.Header{Metadata: res.Metadata, Period: res.Period},
			extracted: &writer.Extracted{Kind: res.Detection.Kind, Rows: res.Raw},
			txns:      res.Transactions,
		}, nil
	}

	raw, _, err := writer.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, pipeline.ErrNoTransactions
	}
	if source == "" {
		source = filepath.Base(strings.TrimSuffix(path, extractedSuffix))
	}
	txns, err := normalize.Transactions(raw, source)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", path, err)
	}
	return &conversion{txns: txns}, nil
}

// collectInputs expands directories into their statements. Within a
// directory a PDF with an .extracted.csv sibling is represented by the CSV.
func collectInputs(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var inputs []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			inputs = append(inputs, p)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(arg)
			continue
		}

		var pdfs []string
		extracted := make(map[string]bool)
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			name := strings.ToLower(d.Name())
			switch {
			case strings.HasSuffix(name, extractedSuffix):
				extracted[path] = true
				add(path)
			case strings.HasSuffix(name, ".pdf"):
				pdfs = append(pdfs, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		for _, pdf := range pdfs {
			if !extracted[strings.TrimSuffix(pdf, filepath.Ext(pdf))+extractedSuffix] {
				add(pdf)
			}
		}
	}

	sort.Strings(inputs)
	return inputs, nil
}

// outputPath maps "x.pdf" and "x.extracted.csv" to "x.csv".
func outputPath(in string) string {
	base := strings.TrimSuffix(in, extractedSuffix)
	if base == in {
		base = strings.TrimSuffix(in, filepath.Ext(in))
	}
	return base + ".csv"
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
