package converter

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/invoice-extractor/pkg/logger"
)

const documentSchema = "invoice-extractor/document/v1"

// PDFConverter extracts page text from PDF files. Files without a .pdf
// extension are skipped, not failed.
type PDFConverter struct {
	maxWorkers int
	logger     logger.Logger
}

func NewPDFConverter(log logger.Logger) *PDFConverter {
	return &PDFConverter{
		maxWorkers: 4,
		logger:     log,
	}
}

// CanConvert reports whether the converter handles files with this name
func (c *PDFConverter) CanConvert(name string) bool {
	return strings.EqualFold(path.Ext(name), ".pdf")
}

// pageSource is the slice of the pdf reader the page workers touch
type pageSource interface {
	Page(num int) pdf.Page
}

// extractPage pulls the plain text of one page. The library panics on
// some malformed page data; the panic stays contained here so a bad
// page reads as a page failure, never a dead worker.
func extractPage(src pageSource, pageNum int) (text string, present bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, present = "", false
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()

	page := src.Page(pageNum)
	if page.V.IsNull() {
		return "", false, nil
	}
	text, err = page.GetPlainText(nil)
	return text, err == nil, err
}

func (c *PDFConverter) Convert(ctx context.Context, data []byte, originalName string) (result *Result, err error) {
	// the pdf library panics on some malformed inputs; a bad file must
	// classify as a conversion failure, not kill the worker
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &ConversionError{
				Name: originalName,
				Err:  fmt.Errorf("parser panic: %v", r),
			}
		}
	}()

	if !c.CanConvert(originalName) {
		c.logger.Warn("File is not a PDF, skipping conversion",
			logger.String("filename", originalName),
		)
		return &Result{Status: StatusSkipped}, nil
	}

	c.logger.Info("Starting conversion",
		logger.String("filename", originalName),
		logger.Int("sizeBytes", len(data)),
	)

	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, reader.Size())
	if err != nil {
		return nil, &ConversionError{
			Name: originalName,
			Err:  fmt.Errorf("failed to open PDF: %w", err),
		}
	}

	numPages := pdfReader.NumPage()

	var (
		mu       sync.Mutex
		pages    []Page
		pageErrs error
	)

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, c.maxWorkers)

	for i := 1; i <= numPages; i++ {
		pageNum := i
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gctx.Done():
				return gctx.Err()
			}

			text, present, err := extractPage(pdfReader, pageNum)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				pageErrs = multierr.Append(pageErrs,
					fmt.Errorf("page %d: %w", pageNum, err))
				return nil
			}
			if !present {
				return nil
			}
			pages = append(pages, Page{Number: pageNum, Text: text})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, &ConversionError{Name: originalName, Err: err}
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })

	status := StatusSuccess
	var errMsgs []string
	if pageErrs != nil {
		for _, e := range multierr.Errors(pageErrs) {
			errMsgs = append(errMsgs, e.Error())
		}
		if len(pages) == 0 {
			return nil, &ConversionError{
				Name: originalName,
				Err:  fmt.Errorf("no page could be extracted: %w", pageErrs),
			}
		}
		status = StatusPartialSuccess
		c.logger.Warn("Conversion partially succeeded",
			logger.String("filename", originalName),
			logger.Int("failedPages", len(errMsgs)),
		)
	}

	doc := &Document{
		SchemaName: documentSchema,
		Name:       originalName,
		PageCount:  numPages,
		Pages:      pages,
		Metadata: Metadata{
			OriginalFilename: originalName,
			FileSizeBytes:    int64(len(data)),
			ConversionStatus: string(status),
		},
	}

	c.logger.Info("Conversion successful",
		logger.String("filename", originalName),
		logger.Int("pages", len(pages)),
		logger.String("status", string(status)),
	)

	return &Result{
		Status:   status,
		Document: doc,
		Errors:   errMsgs,
	}, nil
}
