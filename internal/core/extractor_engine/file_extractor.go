package extractor_engine

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"time"

	"code.sajari.com/docconv"
	"go.uber.org/zap"

	"github.com/orgmind-ai/orgmind/internal/core"
	"github.com/orgmind-ai/orgmind/internal/core/errs"
)

const (
	mimePDF  = "application/pdf"
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var _ core.Extractor = (*DocExtractor)(nil)

// DocExtractor turns stored sources into plain text: files via docconv,
// URLs via a stripped-down scrape.
type DocExtractor struct {
	client *http.Client
	logger *zap.Logger
}

func NewDocExtractor(scrapeTimeout time.Duration, insecureTLS bool, logger *zap.Logger) *DocExtractor {
	return &DocExtractor{
		client: newScrapeClient(scrapeTimeout, insecureTLS),
		logger: logger,
	}
}

// ExtractFile parses file content according to its declared media type.
// Plain text and CSV are read verbatim; PDF and docx are parsed down to
// their textual content, discarding layout.
func (e *DocExtractor) ExtractFile(ctx context.Context, content []byte, contentType string) (string, error) {
	mediaType := contentType
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = mt
	}

	switch mediaType {
	case "text/plain", "text/csv":
		return string(content), nil
	case mimePDF, mimeDocx:
		res, err := docconv.Convert(bytes.NewReader(content), mediaType, false)
		if err != nil {
			e.logger.Warn("docconv extraction failed",
				zap.String("content_type", mediaType), zap.Error(err))
			return "", fmt.Errorf("extract %s: %w", mediaType, err)
		}
		return res.Body, nil
	default:
		return "", fmt.Errorf("%w: %s", errs.ErrUnsupportedFormat, mediaType)
	}
}
