package commands

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/colinbendell/bank-statement-processor/internal/extractor"
	"github.com/colinbendell/bank-statement-processor/internal/metadata"
)

func newAccountsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts <file|dir>",
		Short: "Print account use, classification and numbers found in PDF statements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAccounts(cmd.OutOrStdout(), args[0])
		},
	}
}

func (a *app) runAccounts(out io.Writer, root string) error {
	pdfs, err := findPDFs(root)
	if err != nil {
		return err
	}
	if len(pdfs) == 0 {
		fmt.Fprintf(out, "No PDF files found in %s\n", root)
		return nil
	}

	for _, path := range pdfs {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		doc, err := extractor.Open(path)
		if err != nil {
			a.log.Error().Err(err).Str("file", path).Msg("cannot read statement")
			continue
		}
		meta := metadata.Detect(doc.Texts())
		for _, number := range meta.Numbers {
			fmt.Fprintf(out, "%s - %s/%s/%s\n", stem, meta.Use, meta.Classification, number)
		}
	}
	return nil
}

func findPDFs(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var pdfs []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			pdfs = append(pdfs, path)
		}
		return nil
	})
	sort.Strings(pdfs)
	return pdfs, err
}
