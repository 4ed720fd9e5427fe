package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/retrodraw/retrodraw/internal/docclass"
	"github.com/retrodraw/retrodraw/internal/localocr"
	"github.com/retrodraw/retrodraw/internal/providers"
	"github.com/retrodraw/retrodraw/internal/textlayer"
)

// Request is one processing call.
type Request struct {
	Data      []byte
	MIMEType  string
	Languages []string
	// Method is the user's strategy override; "" or "auto" selects
	// automatically.
	Method string
	// Quality is the cost/accuracy bias; defaults to balanced.
	Quality string
	// Model pins the first remote model.
	Model string
	// NoFallback restricts execution to the primary tier and, within
	// the remote tier, to the pinned model.
	NoFallback bool
}

// Service runs the full pipeline: classify, select, orchestrate.
type Service struct {
	classifier   *docclass.Classifier
	reader       *textlayer.Reader
	rasterizer   Rasterizer
	local        *localocr.Recognizer
	remote       *providers.Cascade
	selector     *Selector
	orchestrator *Orchestrator
	logger       *slog.Logger
}

// Rasterizer turns a paged document into per-page images.
type Rasterizer interface {
	PageImages(data []byte) ([][]byte, error)
}

// NewService wires the pipeline. reader, rasterizer, local and remote
// may each be nil; the selector degrades around missing backends.
func NewService(classifier *docclass.Classifier, reader *textlayer.Reader, rasterizer Rasterizer, local *localocr.Recognizer, remote *providers.Cascade, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		classifier:   classifier,
		reader:       reader,
		rasterizer:   rasterizer,
		local:        local,
		remote:       remote,
		selector:     NewSelector(logger),
		orchestrator: NewOrchestrator(logger),
		logger:       logger,
	}
}

// Capabilities reports which backends the service can currently use
// for a document of the given shape.
func (s *Service) Capabilities(isPDF bool) Capabilities {
	return Capabilities{
		TextLayer: s.reader != nil && isPDF,
		Local:     s.local != nil && s.local.Available(),
		Remote:    s.remote.Available(),
	}
}

// Process runs one request to completion. It returns a result with
// non-empty text, or an *ExhaustedError carrying the trace of every
// tier attempted or skipped.
func (s *Service) Process(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	requestID := uuid.New().String()
	logger := s.logger.With("request_id", requestID)

	cls := s.classifier.Classify(req.Data, req.MIMEType)
	isPDF := textlayer.IsPDF(req.Data)
	caps := s.Capabilities(isPDF)

	quality := ParseQuality(req.Quality)
	strategy, reasoning, err := s.selector.Select(cls, req.Method, quality, caps)
	if err != nil {
		logger.Warn("strategy selection failed", "error", err)
		// Still orchestrate over the empty strategy so the caller gets
		// a trace naming every skipped tier.
	} else {
		logger.Info("strategy selected",
			"strategy", strategy.Kind, "quality", quality,
			"classification", cls.Kind, "pages", cls.PageCount,
			"reasoning", reasoning)
	}

	tiers := s.buildTiers(cls, caps, req, requestID)
	text, method, trace, err := s.orchestrator.Run(ctx, strategy, tiers, req.NoFallback)
	if err != nil {
		return nil, err
	}

	return &Result{
		Text:      text,
		Method:    method,
		PageCount: cls.PageCount,
		Elapsed:   time.Since(start),
		Trace:     trace,
		RequestID: requestID,
	}, nil
}

// buildTiers binds the backends to this request's document. Page
// rasterization is lazy and shared between the local and remote tiers.
func (s *Service) buildTiers(cls docclass.Classification, caps Capabilities, req Request, requestID string) Tiers {
	var (
		pagesOnce sync.Once
		pages     [][]byte
		pagesErr  error
	)
	pageImages := func() ([][]byte, error) {
		pagesOnce.Do(func() {
			if cls.IsImage {
				pages = [][]byte{req.Data}
				return
			}
			if s.rasterizer == nil {
				pagesErr = fmt.Errorf("no rasterizer configured")
				return
			}
			pages, pagesErr = s.rasterizer.PageImages(req.Data)
			if pagesErr == nil && len(pages) == 0 {
				pagesErr = fmt.Errorf("document yielded no page images")
			}
		})
		return pages, pagesErr
	}

	return Tiers{
		// Vector and mixed documents carry a text layer worth reading;
		// raster and unknown ones do not, and plain images never do.
		TextLayerApplicable: !cls.IsImage && (cls.Kind == docclass.Vector || cls.Kind == docclass.Mixed),
		TextLayerAvailable:  caps.TextLayer,
		LocalAvailable:      caps.Local,
		RemoteAvailable:     caps.Remote,

		RunTextLayer: func(ctx context.Context) (string, error) {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			text, _, err := s.reader.Extract(req.Data)
			return text, err
		},

		RunLocal: func(ctx context.Context) (string, error) {
			imgs, err := pageImages()
			if err != nil {
				return "", err
			}
			if len(imgs) == 1 {
				return s.local.Recognize(ctx, imgs[0], req.Languages)
			}
			return s.local.RecognizePages(ctx, imgs, req.Languages)
		},

		RunRemote: func(ctx context.Context) (string, []providers.ModelAttempt, error) {
			imgs, err := pageImages()
			if err != nil {
				return "", nil, err
			}
			return s.remoteAllPages(ctx, imgs, req, requestID)
		},
	}
}

// remoteAllPages runs the model cascade over every page and joins the
// page texts. A page that exhausts the cascade contributes an empty
// segment; the tier as a whole is empty only when every page is.
func (s *Service) remoteAllPages(ctx context.Context, pages [][]byte, req Request, requestID string) (string, []providers.ModelAttempt, error) {
	opts := providers.ExtractOptions{
		Model:      req.Model,
		NoFallback: req.NoFallback,
		RequestID:  requestID,
	}

	texts := make([]string, 0, len(pages))
	var attempts []providers.ModelAttempt
	anyText := false

	for _, page := range pages {
		text, model, pageAttempts, err := s.remote.ExtractText(ctx, page, req.Languages, opts)
		attempts = append(attempts, pageAttempts...)
		if err != nil {
			return "", attempts, err
		}
		if strings.TrimSpace(text) != "" {
			anyText = true
			// Lead with the model that just worked to spare the
			// remaining pages a walk through failing models.
			opts.Model = model
		}
		texts = append(texts, text)
	}

	if !anyText {
		return "", attempts, nil
	}
	return strings.Join(texts, localocr.PageBreakMarker), attempts, nil
}
