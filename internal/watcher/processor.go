package watcher

import (
	"context"
	"fmt"

	"github.com/feichai0017/invoice-extractor/internal/converter"
	"github.com/feichai0017/invoice-extractor/internal/models"
	"github.com/feichai0017/invoice-extractor/pkg/logger"
)

// Outcome is the classified result of processing one claimed item. A
// nil Err is success; Artifact is nil for pass-through items that the
// converter skipped.
type Outcome struct {
	Artifact *converter.Document
	Errors   []string
	Err      error
}

// Succeeded reports whether the item should be routed to done
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Processor delegates a claimed item's bytes to the conversion
// collaborator and classifies the result. It never touches the object
// store and attempts no retries: each claimed item is processed exactly
// once per claim.
type Processor struct {
	converter converter.Converter
	logger    logger.Logger
}

func NewProcessor(conv converter.Converter, log logger.Logger) *Processor {
	return &Processor{
		converter: conv,
		logger:    log.Named("processor"),
	}
}

// Convertible reports whether the collaborator handles this key
func (p *Processor) Convertible(key string) bool {
	return p.converter.CanConvert(key)
}

func (p *Processor) Process(ctx context.Context, item *models.WorkItem) Outcome {
	name := item.Name()

	p.logger.Info("Processing file",
		logger.String("key", item.OriginalKey),
		logger.String("filename", name),
		logger.Int("sizeBytes", len(item.Body)),
	)

	result, err := p.converter.Convert(ctx, item.Body, name)
	if err != nil {
		return Outcome{Err: err}
	}

	switch {
	case result.Status == converter.StatusSkipped:
		// not a convertible type; pass through with no artifact
		return Outcome{}
	case result.Status.Succeeded():
		return Outcome{Artifact: result.Document, Errors: result.Errors}
	default:
		return Outcome{
			Errors: result.Errors,
			Err: &converter.ConversionError{
				Name: name,
				Err:  fmt.Errorf("conversion returned status %s", result.Status),
			},
		}
	}
}
