package converter

import (
	"context"
	"errors"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/invoice-extractor/pkg/logger"
)

// panickingSource fakes the parser blowing up inside page access, the
// way the library does on malformed page dictionaries
type panickingSource struct{}

func (panickingSource) Page(num int) pdf.Page {
	panic("malformed PDF: corrupt page dictionary")
}

type emptySource struct{}

func (emptySource) Page(num int) pdf.Page {
	return pdf.Page{}
}

func TestCanConvert(t *testing.T) {
	c := NewPDFConverter(logger.NewTestLogger())

	assert.True(t, c.CanConvert("invoice1.pdf"))
	assert.True(t, c.CanConvert("INVOICE.PDF"))
	assert.True(t, c.CanConvert("intake/nested/invoice.pdf"))
	assert.False(t, c.CanConvert("readme.txt"))
	assert.False(t, c.CanConvert("archive.pdf.gz"))
	assert.False(t, c.CanConvert("invoice"))
}

func TestConvertSkipsNonPDF(t *testing.T) {
	c := NewPDFConverter(logger.NewTestLogger())

	result, err := c.Convert(context.Background(), []byte("plain text"), "readme.txt")
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, result.Status)
	assert.Nil(t, result.Document)
	assert.Empty(t, result.Errors)
}

func TestConvertRejectsInvalidPDF(t *testing.T) {
	c := NewPDFConverter(logger.NewTestLogger())

	result, err := c.Convert(context.Background(), []byte("this is not a pdf"), "invoice1.pdf")
	require.Error(t, err)
	assert.Nil(t, result)

	var convErr *ConversionError
	require.True(t, errors.As(err, &convErr))
	assert.Equal(t, "invoice1.pdf", convErr.Name)
	assert.NotNil(t, errors.Unwrap(convErr))
}

func TestConvertRejectsEmptyInput(t *testing.T) {
	c := NewPDFConverter(logger.NewTestLogger())

	_, err := c.Convert(context.Background(), nil, "empty.pdf")
	var convErr *ConversionError
	require.True(t, errors.As(err, &convErr))
}

func TestExtractPageContainsParserPanic(t *testing.T) {
	text, present, err := extractPage(panickingSource{}, 2)

	require.Error(t, err, "a parser panic must surface as a page error")
	assert.Contains(t, err.Error(), "parser panic")
	assert.Contains(t, err.Error(), "corrupt page dictionary")
	assert.Empty(t, text)
	assert.False(t, present)
}

func TestExtractPageSkipsMissingPage(t *testing.T) {
	text, present, err := extractPage(emptySource{}, 1)

	require.NoError(t, err)
	assert.False(t, present)
	assert.Empty(t, text)
}

func TestStatusSucceeded(t *testing.T) {
	assert.True(t, StatusSuccess.Succeeded())
	assert.True(t, StatusPartialSuccess.Succeeded())
	assert.False(t, StatusSkipped.Succeeded())
	assert.False(t, StatusFailure.Succeeded())
}
