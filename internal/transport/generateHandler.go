package transport

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	apperrors "photoshoot-api/internal/common/errors"
	"photoshoot-api/internal/common/logger"
	"photoshoot-api/internal/common/ratelimit"
	"photoshoot-api/internal/models"
	"photoshoot-api/internal/transport/middleware"
	recordbatch "photoshoot-api/internal/workers/generation/record-batch"
	renderplaceholder "photoshoot-api/internal/workers/generation/render-placeholder"

	"github.com/gin-gonic/gin"
)

const (
	msgImagesRequired = "Both partner images are required."
	msgBadImageType   = "Only JPG, PNG, or WebP files are allowed."
	msgImageTooLarge  = "Each file must be ≤ 5MB."
	msgInvalidStyle   = "Invalid style selected."
)

var acceptedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Generator produces a full batch of images or fails the whole batch.
type Generator interface {
	GeneratePhotoset(ctx context.Context, prompt string, a, b models.ImageInput, count int) ([]models.GeneratedImage, error)
}

type PlaceholderRenderer interface {
	Execute(ctx context.Context, input *renderplaceholder.Input) (*renderplaceholder.Output, error)
}

type StyleCatalog interface {
	Lookup(id string) (models.Style, bool)
	List() []models.Style
}

// Journal records finished batches. Implementations must not fail the request.
type Journal interface {
	Record(ctx context.Context, input *recordbatch.Input)
}

type GenerateOptions struct {
	DemoMode     bool
	Count        int
	MaxFileBytes int64
	MaxBodyBytes int64
}

type GenerateHandler struct {
	opts        GenerateOptions
	generator   Generator
	placeholder PlaceholderRenderer
	catalog     StyleCatalog
	journal     Journal
	logger      logger.Logger
}

// NewGenerateHandler wires the generate endpoint. journal may be nil.
func NewGenerateHandler(opts GenerateOptions, generator Generator, placeholder PlaceholderRenderer, catalog StyleCatalog, journal Journal, log logger.Logger) *GenerateHandler {
	if opts.Count <= 0 {
		opts.Count = 10
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = 5 << 20
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 4*opts.MaxFileBytes + 1<<20
	}
	return &GenerateHandler{
		opts:        opts,
		generator:   generator,
		placeholder: placeholder,
		catalog:     catalog,
		journal:     journal,
		logger:      log,
	}
}

func (h *GenerateHandler) Generate(c *gin.Context) {
	style, req, err := h.parseRequest(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	start := time.Now()
	var images []models.GeneratedImage
	if h.opts.DemoMode {
		var out *renderplaceholder.Output
		out, err = h.placeholder.Execute(c.Request.Context(), &renderplaceholder.Input{
			StyleTitle: style.Title,
			Count:      req.Count,
		})
		if out != nil {
			images = out.Images
		}
	} else {
		images, err = h.generator.GeneratePhotoset(c.Request.Context(), req.Prompt, req.ImageA, req.ImageB, req.Count)
	}

	h.record(c, style.ID, len(images), time.Since(start), err)

	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := models.GenerateResponse{Images: make([]models.ImageResult, len(images))}
	for i, img := range images {
		resp.Images[i] = models.ImageResult{ID: i + 1, DataURL: img.DataURL()}
	}
	c.JSON(http.StatusOK, resp)
}

// maxFieldBytes bounds the styleId form value.
const maxFieldBytes = 1 << 10

// uploadedImage is one partner part as read off the wire. Data is dropped
// once the part exceeds the per-file limit.
type uploadedImage struct {
	filename string
	mime     string
	data     []byte
	tooLarge bool
}

type uploadForm struct {
	images  map[string]*uploadedImage
	styleID string
	// truncated is set when the body hit MaxBodyBytes; parts after the cut
	// were never seen.
	truncated bool
}

// parseRequest validates in order: presence, type, size, style.
func (h *GenerateHandler) parseRequest(c *gin.Context) (models.Style, *models.GenerationRequest, error) {
	form, err := h.readForm(c)
	if err != nil {
		return models.Style{}, nil, apperrors.NewValidationError(msgImagesRequired)
	}

	p1, p2 := form.images["partner1"], form.images["partner2"]
	if form.truncated {
		// only judge the parts that arrived before the cut
		if (p1 != nil && !acceptedTypes[p1.mime]) || (p2 != nil && !acceptedTypes[p2.mime]) {
			return models.Style{}, nil, apperrors.NewValidationError(msgBadImageType)
		}
		return models.Style{}, nil, apperrors.NewValidationError(msgImageTooLarge)
	}

	if p1 == nil || p2 == nil {
		return models.Style{}, nil, apperrors.NewValidationError(msgImagesRequired)
	}
	if !acceptedTypes[p1.mime] || !acceptedTypes[p2.mime] {
		return models.Style{}, nil, apperrors.NewValidationError(msgBadImageType)
	}
	if p1.tooLarge || p2.tooLarge {
		return models.Style{}, nil, apperrors.NewValidationError(msgImageTooLarge)
	}

	style, ok := h.catalog.Lookup(form.styleID)
	if !ok {
		return models.Style{}, nil, apperrors.NewValidationError(msgInvalidStyle)
	}

	return style, &models.GenerationRequest{
		Prompt: style.Prompt,
		ImageA: models.ImageInput{Data: p1.data, MIMEType: p1.mime, Filename: p1.filename},
		ImageB: models.ImageInput{Data: p2.data, MIMEType: p2.mime, Filename: p2.filename},
		Count:  h.opts.Count,
	}, nil
}

// readForm streams the multipart body part by part. At most MaxFileBytes of
// each partner image is kept; the rest is discarded so later part headers
// are still read. Unknown parts are skipped.
func (h *GenerateHandler) readForm(c *gin.Context) (*uploadForm, error) {
	body := &cappedBody{ReadCloser: http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxBodyBytes)}
	c.Request.Body = body

	mr, err := c.Request.MultipartReader()
	if err != nil {
		return nil, err
	}

	form := &uploadForm{images: make(map[string]*uploadedImage, 2)}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return form, nil
		}
		if err == nil {
			err = h.readPart(form, part)
			part.Close()
		}
		if err != nil {
			// multipart may rewrap the reader error, so ask the body itself
			if body.exceeded {
				form.truncated = true
				return form, nil
			}
			return nil, err
		}
	}
}

func (h *GenerateHandler) readPart(form *uploadForm, part *multipart.Part) error {
	name := part.FormName()
	switch {
	case name == "styleId" && form.styleID == "":
		value, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
		if err != nil {
			return err
		}
		form.styleID = string(value)

	case (name == "partner1" || name == "partner2") && part.FileName() != "" && form.images[name] == nil:
		img := &uploadedImage{
			filename: part.FileName(),
			mime:     part.Header.Get("Content-Type"),
		}
		form.images[name] = img

		data, err := io.ReadAll(io.LimitReader(part, h.opts.MaxFileBytes+1))
		if err != nil {
			return err
		}
		if int64(len(data)) > h.opts.MaxFileBytes {
			img.tooLarge = true
			data = nil
		}
		img.data = data
	}

	_, err := io.Copy(io.Discard, part)
	return err
}

// cappedBody remembers whether the wrapped MaxBytesReader hit its limit.
type cappedBody struct {
	io.ReadCloser
	exceeded bool
}

func (b *cappedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		b.exceeded = true
	}
	return n, err
}

func (h *GenerateHandler) record(c *gin.Context, styleID string, count int, elapsed time.Duration, err error) {
	if h.journal == nil {
		return
	}

	input := &recordbatch.Input{
		StyleID:    styleID,
		ClientKey:  ratelimit.ClientKey(c.Request),
		Demo:       h.opts.DemoMode,
		Status:     models.BatchStatusSuccess,
		ImageCount: count,
		DurationMS: elapsed.Milliseconds(),
	}
	if err != nil {
		stdErr := apperrors.Normalize(err)
		input.Status = models.BatchStatusFailed
		if stdErr.Code == apperrors.ErrCodeGenerationTimeout {
			input.Status = models.BatchStatusTimeout
		}
		input.ErrorCode = string(stdErr.Code)
		input.ImageCount = 0
	}
	h.journal.Record(context.WithoutCancel(c.Request.Context()), input)
}

func (h *GenerateHandler) writeError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	code := apperrors.Normalize(err).Code
	if status >= http.StatusInternalServerError {
		h.logger.Error("generate request failed", map[string]interface{}{
			"error":      err,
			"code":       code,
			"category":   apperrors.GetErrorCategory(code),
			"request_id": c.GetString(middleware.RequestIDKey),
		})
	}
	c.JSON(status, models.ErrorResponse{
		Error: apperrors.UserMessage(err),
		Code:  string(code),
	})
}
