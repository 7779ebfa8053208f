package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/upi-statement-converter/internal/adapter"
	"github.com/insightdelivered/upi-statement-converter/internal/extractor"
	"github.com/insightdelivered/upi-statement-converter/internal/filter"
	"github.com/insightdelivered/upi-statement-converter/internal/ingest"
	"github.com/insightdelivered/upi-statement-converter/internal/logger"
	"github.com/insightdelivered/upi-statement-converter/internal/merge"
	"github.com/insightdelivered/upi-statement-converter/internal/models"
	"github.com/insightdelivered/upi-statement-converter/internal/session"
	"github.com/insightdelivered/upi-statement-converter/internal/writer"
)

// Version is reported by the health endpoint.
var Version = "dev"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
}

// ConvertResponse is the JSON response from the /api/convert endpoint.
type ConvertResponse struct {
	Success bool                   `json:"success"`
	Files   []*ingest.IngestResult `json:"files"`
	Result  *ingest.BuildResult    `json:"result"`
	CSV     string                 `json:"csv"`
	Count   int                    `json:"count"`
	Version string                 `json:"version,omitempty"`
}

// SessionResponse is returned when a session is created.
type SessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
}

// FilesResponse lists what each uploaded file was recognized as.
type FilesResponse struct {
	Success bool                   `json:"success"`
	Files   []*ingest.IngestResult `json:"files"`
	Apps    []models.AppID         `json:"apps"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Service *ingest.Service
	Logger  zerolog.Logger
}

// NewApp builds a fiber app with every route registered. bodyLimit is in
// bytes; zero keeps fiber's default.
func NewApp(h *Handler, bodyLimit int) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "upi-statement-converter",
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          errorHandler,
	})
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	app.Use(requestid.New())
	app.Use(h.withLogger)

	api := app.Group("/api")
	api.Get("/health", HandleHealth)
	api.Post("/convert", h.HandleConvert)
	api.Post("/sessions", h.HandleCreateSession)
	api.Post("/sessions/:id/files", h.HandleUpload)
	api.Get("/sessions/:id/data", h.HandleData)
	api.Post("/sessions/:id/reset", h.HandleReset)
	api.Delete("/sessions/:id", h.HandleDeleteSession)
}

// withLogger puts the request logger into the user context so the pipeline
// logs under the request id.
func (h *Handler) withLogger(c *fiber.Ctx) error {
	start := time.Now()
	log := h.Logger.With().
		Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Logger()
	c.SetUserContext(logger.WithContext(c.UserContext(), log))

	err := c.Next()

	status := c.Response().StatusCode()
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	log.Debug().Int("status", status).Dur("took", time.Since(start)).Msg("Request handled")
	return err
}

// HandleHealth reports liveness.
func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": Version,
	})
}

// HandleCreateSession opens an upload session.
func (h *Handler) HandleCreateSession(c *fiber.Ctx) error {
	id := h.Service.Sessions().Create()
	return c.Status(fiber.StatusCreated).JSON(SessionResponse{Success: true, SessionID: id})
}

// HandleUpload ingests one or more files sent as multipart field "file".
// An optional "password" field unlocks encrypted statements.
func (h *Handler) HandleUpload(c *fiber.Ctx) error {
	id := c.Params("id")
	uploads, err := readUploads(c)
	if err != nil {
		return err
	}
	password := c.FormValue("password")

	ctx := c.UserContext()
	results := make([]*ingest.IngestResult, 0, len(uploads))
	for _, u := range uploads {
		r, err := h.Service.Ingest(ctx, id, u, password)
		if err != nil {
			return writeError(c, fmt.Errorf("%s: %w", u.Name, err))
		}
		results = append(results, r)
	}

	apps, err := h.Service.Sessions().Apps(id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(FilesResponse{Success: true, Files: results, Apps: apps})
}

// HandleData merges the session's uploads and returns the filtered dataset.
// Query parameters: year (a year or "all") and apps (comma separated).
func (h *Handler) HandleData(c *fiber.Ctx) error {
	res, err := h.Service.Build(c.UserContext(), c.Params("id"), queryFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "result": res})
}

// HandleReset drops the session's uploads.
func (h *Handler) HandleReset(c *fiber.Ctx) error {
	if err := h.Service.Sessions().Reset(c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleDeleteSession closes a session.
func (h *Handler) HandleDeleteSession(c *fiber.Ctx) error {
	if err := h.Service.Sessions().Delete(c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleConvert is the one-shot endpoint: files in, dataset and CSV out.
// Form fields: file (repeatable), password, year, apps, header.
func (h *Handler) HandleConvert(c *fiber.Ctx) error {
	uploads, err := readUploads(c)
	if err != nil {
		return err
	}
	q := filter.Query{Year: c.FormValue("year"), Apps: filter.SplitApps(c.FormValue("apps"))}
	includeHeader := c.FormValue("header") != "false"

	res, files, err := h.Service.Convert(c.UserContext(), uploads, c.FormValue("password"), q)
	if err != nil {
		return writeError(c, err)
	}

	var csvBuf bytes.Buffer
	csvWriter := &writer.CSVWriter{
		IncludeHeader: includeHeader,
		Meta:          writer.Metadata{Year: q.Year, Apps: q.Apps, TotalSpend: &res.Summary.TotalSpend},
	}
	if err := csvWriter.Write(&csvBuf, res.Data); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("CSV generation failed: %v", err))
	}

	return c.JSON(ConvertResponse{
		Success: true,
		Files:   files,
		Result:  res,
		CSV:     csvBuf.String(),
		Count:   len(res.Data.Transactions),
		Version: Version,
	})
}

func queryFrom(c *fiber.Ctx) filter.Query {
	return filter.Query{Year: c.Query("year"), Apps: filter.SplitApps(c.Query("apps"))}
}

func readUploads(c *fiber.Ctx) ([]models.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Failed to parse form: %v", err))
	}
	headers := form.File["file"]
	if len(headers) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "No file uploaded. Use form field 'file'.")
	}

	uploads := make([]models.Upload, 0, len(headers))
	for _, fh := range headers {
		data, err := readFile(fh)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Failed to read %s: %v", fh.Filename, err))
		}
		uploads = append(uploads, models.Upload{Name: fh.Filename, Data: data})
	}
	return uploads, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Classify maps a pipeline error to an HTTP status and a stable kind string.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return fiber.StatusNotFound, "session_not_found"
	case errors.Is(err, extractor.ErrPasswordRequired):
		return fiber.StatusUnauthorized, "password_required"
	case errors.Is(err, extractor.ErrWrongPassword):
		return fiber.StatusUnauthorized, "wrong_password"
	case errors.Is(err, adapter.ErrUnrecognizedFile):
		return fiber.StatusUnprocessableEntity, "unrecognized_file"
	case errors.Is(err, extractor.ErrContainerUnreadable):
		return fiber.StatusUnprocessableEntity, "container_unreadable"
	case errors.Is(err, adapter.ErrNoRecognizableData):
		return fiber.StatusUnprocessableEntity, "no_recognizable_data"
	case errors.Is(err, merge.ErrAllAppsFailed):
		return fiber.StatusUnprocessableEntity, "all_apps_failed"
	case errors.Is(err, filter.ErrInvalidYear):
		return fiber.StatusBadRequest, "invalid_query"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusRequestTimeout, "cancelled"
	}
	return fiber.StatusInternalServerError, "internal"
}

func writeError(c *fiber.Ctx, err error) error {
	status, kind := Classify(err)
	log := logger.FromContext(c.UserContext())
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
	} else {
		log.Info().Err(err).Str("kind", kind).Msg("Request rejected")
	}
	return c.Status(status).JSON(ErrorResponse{Success: false, Error: err.Error(), Kind: kind})
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(ErrorResponse{Success: false, Error: err.Error()})
}
