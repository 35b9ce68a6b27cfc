package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/fantasy-scoring/internal/platform/logging"
	"github.com/riskibarqy/fantasy-scoring/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

const maxRequestBodyBytes = 64 << 10

// strictJSON rejects unknown fields. Strings are copied because request bodies live in pooled buffers.
var strictJSON = sonic.Config{
	DisallowUnknownFields: true,
	CopyString:            true,
}.Froze()

type Handler struct {
	jobs      *usecase.GameweekJobService
	points    *usecase.PointsService
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(jobs *usecase.GameweekJobService, points *usecase.PointsService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		jobs:      jobs,
		points:    points,
		logger:    logger,
		validator: validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

// decodeOptionalJSON leaves dst untouched when the body is empty.
func decodeOptionalJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	n, err := buf.ReadFrom(io.LimitReader(r.Body, maxRequestBodyBytes+1))
	if err != nil {
		return fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err)
	}
	if n > maxRequestBodyBytes {
		return fmt.Errorf("%w: request body exceeds %d bytes", usecase.ErrInvalidInput, maxRequestBodyBytes)
	}
	if len(strings.TrimSpace(buf.String())) == 0 {
		return nil
	}

	if err := strictJSON.Unmarshal(buf.B, dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func pathGameweek(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.PathValue("gameweek"))
	gameweek, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: gameweek must be an integer, got %q", usecase.ErrInvalidInput, raw)
	}
	if gameweek <= 0 {
		return 0, fmt.Errorf("%w: gameweek must be positive, got %d", usecase.ErrInvalidInput, gameweek)
	}
	return gameweek, nil
}

func isClientError(err error) bool {
	return errors.Is(err, usecase.ErrInvalidInput) || errors.Is(err, usecase.ErrNotFound)
}
