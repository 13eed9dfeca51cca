// Package pipeline runs decoded statements through metadata detection,
// grammar selection, period extraction, row extraction and normalization.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/colinbendell/bank-statement-processor/internal/logger"
	"github.com/colinbendell/bank-statement-processor/internal/metadata"
	"github.com/colinbendell/bank-statement-processor/internal/metrics"
	"github.com/colinbendell/bank-statement-processor/internal/models"
	"github.com/colinbendell/bank-statement-processor/internal/normalize"
	"github.com/colinbendell/bank-statement-processor/internal/parser"
)

// ErrNoTransactions is returned for documents that yield no transaction rows.
var ErrNoTransactions = errors.New("no transactions found")

// Processor turns documents into normalized transactions. The zero value
// is not useful; use New.
type Processor struct {
	Options parser.Options
	// Kind forces the extraction grammar when set.
	Kind models.StatementKind
	Now  func() time.Time
}

// New returns a Processor with the given extraction options.
func New(opts parser.Options) *Processor {
	return &Processor{Options: opts, Now: time.Now}
}

// Result is everything learned about one document.
type Result struct {
	DocumentID   string                  `json:"documentId"`
	Source       string                  `json:"source"`
	Metadata     models.AccountMetadata  `json:"metadata"`
	Detection    parser.Detection        `json:"detection"`
	Period       models.Period           `json:"period"`
	Raw          []models.RawTransaction `json:"-"`
	Transactions []models.Transaction    `json:"transactions"`
}

// Outcome is the per-document result of a batch run. Exactly one of Result
// and Err is set.
type Outcome struct {
	Document models.Document
	Result   *Result
	Err      error
}

// Process runs one document. Source defaults to a derived identifier when
// the document carries none.
func (p *Processor) Process(ctx context.Context, doc models.Document) (*Result, error) {
	res := &Result{DocumentID: doc.ID, Source: doc.Source}
	if res.DocumentID == "" {
		res.DocumentID = uuid.NewString()
	}
	log := logger.FromContext(ctx).With().Str("document_id", res.DocumentID).Logger()

	texts := doc.Texts()
	res.Metadata = metadata.Detect(texts)
	res.Detection = parser.Detect(texts)
	if p.Kind != "" {
		res.Detection.Kind = p.Kind
		res.Detection.Confident = true
		res.Detection.Rule = "forced"
	}
	if !res.Detection.Confident {
		log.Warn().Str("kind", string(res.Detection.Kind)).Bool("low_confidence", true).
			Msg("statement type not recognised, assuming card layout")
	}

	res.Period = parser.ExtractPeriod(texts, p.now())
	if res.Period.Provisional {
		log.Warn().Time("start", res.Period.Start).Time("end", res.Period.End).Msg("statement period not found, using provisional period")
	}
	if res.Source == "" {
		res.Source = metadata.SourceID(res.Metadata, res.Period.End)
	}

	kind := string(res.Detection.Kind)
	ex, err := parser.New(res.Detection.Kind, p.Options)
	if err != nil {
		metrics.StatementsTotal.WithLabelValues(kind, "error").Inc()
		return nil, err
	}
	res.Raw = ex.Extract(doc.Pages, res.Period)
	if len(res.Raw) == 0 {
		metrics.StatementsTotal.WithLabelValues(kind, "empty").Inc()
		return nil, fmt.Errorf("%s: %w", res.Source, ErrNoTransactions)
	}

	res.Transactions, err = normalize.Transactions(res.Raw, res.Source)
	if err != nil {
		metrics.StatementsTotal.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("normalize %s: %w", res.Source, err)
	}

	metrics.StatementsTotal.WithLabelValues(kind, "ok").Inc()
	metrics.TransactionsTotal.WithLabelValues(kind).Add(float64(len(res.Transactions)))
	log.Info().
		Str("kind", kind).
		Str("classification", res.Detection.Classification).
		Str("source", res.Source).
		Int("transactions", len(res.Transactions)).
		Msg("statement processed")
	return res, nil
}

// ProcessAll runs every document, recording failures per document rather
// than stopping. Documents not yet started when ctx is cancelled fail with
// the context error.
func (p *Processor) ProcessAll(ctx context.Context, docs []models.Document) []Outcome {
	log := logger.FromContext(ctx)
	out := make([]Outcome, len(docs))
	for i, doc := range docs {
		out[i].Document = doc
		if err := ctx.Err(); err != nil {
			out[i].Err = err
			continue
		}
		out[i].Result, out[i].Err = p.Process(ctx, doc)
		if out[i].Err != nil {
			log.Error().Err(out[i].Err).Str("document_id", doc.ID).Msg("statement failed")
		}
	}
	return out
}

func (p *Processor) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}
