// Package api serves statement conversion over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/colinbendell/bank-statement-processor/internal/classifier"
	"github.com/colinbendell/bank-statement-processor/internal/extractor"
	"github.com/colinbendell/bank-statement-processor/internal/logger"
	"github.com/colinbendell/bank-statement-processor/internal/models"
	"github.com/colinbendell/bank-statement-processor/internal/normalize"
	"github.com/colinbendell/bank-statement-processor/internal/pipeline"
	"github.com/colinbendell/bank-statement-processor/internal/writer"
)

// ConvertResponse is the JSON response from the /api/convert endpoint.
type ConvertResponse struct {
	Success      bool                            `json:"success"`
	Error        string                          `json:"error,omitempty"`
	DocumentID   string                          `json:"documentId,omitempty"`
	Source       string                          `json:"source,omitempty"`
	Kind         models.StatementKind            `json:"kind,omitempty"`
	Confident    bool                            `json:"confident"`
	Metadata     *models.AccountMetadata         `json:"metadata,omitempty"`
	Period       *models.Period                  `json:"period,omitempty"`
	Transactions []models.CategorizedTransaction `json:"transactions"`
	CSV          string                          `json:"csv,omitempty"`
	TotalDebit   decimal.Decimal                 `json:"totalDebit"`
	TotalCredit  decimal.Decimal                 `json:"totalCredit"`
	Count        int                             `json:"count"`
	Trace        []models.RowTrace               `json:"trace,omitempty"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Processor *pipeline.Processor
	Index     *classifier.Index           // nil disables categorization from history
	Fallback  classifier.BatchClassifier  // used when the request sets use_llm
	Examples  int
	Version   string
}

// ConvertRequest carries the form options of /api/convert.
type ConvertRequest struct {
	Source        string
	Kind          models.StatementKind
	UseLLM        bool
	IncludeHeader bool
	Debug         bool
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": h.Version,
	})
}

// HandleConvert accepts a multipart upload with a "file" PDF and returns
// its transactions.
func (h *Handler) HandleConvert(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "No file uploaded. Use form field 'file'.")
	}
	if !strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
		return writeError(c, fiber.StatusBadRequest, "Only PDF files are supported.")
	}

	req := ConvertRequest{
		Source:        c.FormValue("source"),
		Kind:          models.StatementKind(strings.ToLower(c.FormValue("kind"))),
		UseLLM:        c.FormValue("use_llm") == "true",
		IncludeHeader: c.FormValue("header") != "false",
		Debug:         c.FormValue("debug") == "true",
	}
	switch req.Kind {
	case "", models.KindCard, models.KindAccount:
	default:
		return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("Unknown kind %q. Use card or account.", req.Kind))
	}

	f, err := fh.Open()
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, "Failed to read uploaded file.")
	}
	defer f.Close()

	pages, err := extractor.Read(f, fh.Size)
	if err != nil {
		return writeError(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("PDF extraction failed: %v", err))
	}

	doc := models.Document{ID: uuid.NewString(), Source: req.Source, Pages: pages}
	resp, err := h.Convert(c.UserContext(), doc, req)
	if err != nil {
		return writeError(c, statusFor(err), err.Error())
	}
	return c.JSON(resp)
}

// Convert runs a decoded document through the pipeline and categorizer.
func (h *Handler) Convert(ctx context.Context, doc models.Document, req ConvertRequest) (*ConvertResponse, error) {
	p := *h.Processor
	if req.Kind != "" {
		p.Kind = req.Kind
	}
	var trace []models.RowTrace
	if req.Debug {
		p.Options.Trace = func(t models.RowTrace) { trace = append(trace, t) }
	}

	ctx = logger.WithContext(ctx, logger.FromContext(ctx).With().Str("document_id", doc.ID).Logger())
	res, err := p.Process(ctx, doc)
	if err != nil {
		return nil, err
	}

	categorizer := classifier.Categorizer{Index: h.Index, MaxExamples: h.Examples}
	if req.UseLLM {
		categorizer.Fallback = h.Fallback
	}
	rows := categorizer.Categorize(ctx, res.Transactions)

	resp := &ConvertResponse{
		Success:      true,
		DocumentID:   res.DocumentID,
		Source:       res.Source,
		Kind:         res.Detection.Kind,
		Confident:    res.Detection.Confident,
		Metadata:     &res.Metadata,
		Period:       &res.Period,
		Transactions: rows,
		Count:        len(rows),
		TotalDebit:   decimal.Zero,
		TotalCredit:  decimal.Zero,
		Trace:        trace,
	}
	for _, r := range rows {
		if r.Amount.IsNegative() {
			resp.TotalDebit = resp.TotalDebit.Add(r.Amount.Neg())
		} else {
			resp.TotalCredit = resp.TotalCredit.Add(r.Amount)
		}
	}

	var buf strings.Builder
	w := &writer.CSVWriter{IncludeHeader: req.IncludeHeader, Header: writer.Header{Metadata: res.Metadata, Period: res.Period}}
	if err := w.Write(&buf, writer.Categorized(rows)); err != nil {
		return nil, fmt.Errorf("CSV generation failed: %w", err)
	}
	resp.CSV = buf.String()
	return resp, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrNoTransactions), errors.Is(err, normalize.ErrUnsupportedDate):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ConvertResponse{
		Success:      false,
		Error:        msg,
		Transactions: []models.CategorizedTransaction{},
		TotalDebit:   decimal.Zero,
		TotalCredit:  decimal.Zero,
	})
}
