package api

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"CryptoPulse/internal/domain/models"
	drepo "CryptoPulse/internal/domain/repository"
	"CryptoPulse/internal/service/cache"
	"CryptoPulse/internal/service/ratelimit"
	"CryptoPulse/internal/usecase"
	apphttp "CryptoPulse/pkg/http"
	applogger "CryptoPulse/pkg/logger"
	"CryptoPulse/pkg/util"
)

const predictCacheKey = "predict:latest"

// NowcastHandler exposes the ingestion and pipeline endpoints.
type NowcastHandler struct {
	nowcast  *usecase.NowcastService
	ingestor *usecase.SampleIngestor
	batch    *usecase.BatchRunner
	series   drepo.SeriesStore
	cache    cache.BytesCache
	limiter  *ratelimit.Limiter
	logger   *applogger.Logger

	predictTTL time.Duration
}

// NewNowcastHandler creates the handler. predictTTL <= 0 disables
// prediction caching.
func NewNowcastHandler(
	nowcast *usecase.NowcastService,
	ingestor *usecase.SampleIngestor,
	batch *usecase.BatchRunner,
	series drepo.SeriesStore,
	bytesCache cache.BytesCache,
	limiter *ratelimit.Limiter,
	logger *applogger.Logger,
	predictTTL time.Duration,
) *NowcastHandler {
	return &NowcastHandler{
		nowcast:    nowcast,
		ingestor:   ingestor,
		batch:      batch,
		series:     series,
		cache:      bytesCache,
		limiter:    limiter,
		logger:     logger,
		predictTTL: predictTTL,
	}
}

// RegisterRoutes registers all API routes.
func (h *NowcastHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")

	g.POST("/ingest", h.Ingest)
	g.POST("/ingest/batch", h.StartBatch)
	g.GET("/ingest/batch/status", h.BatchStatus)
	g.POST("/ingest/batch/stop", h.StopBatch)
	g.POST("/ingest/batch/reset", h.ResetBatch)

	g.POST("/train", h.Train)
	g.GET("/predict", h.Predict)
	g.GET("/prices", h.Prices)
	g.GET("/model", h.Model)
	g.GET("/health", h.Health)
}

// Ingest fetches and stores one spot price sample.
func (h *NowcastHandler) Ingest(c echo.Context) error {
	s, stored, err := h.ingestor.IngestOnce(c.Request().Context())
	if err != nil {
		h.logger.Error("ingest failed", applogger.Error(err))
		return apphttp.AppErrorResponse(c,
			apphttp.NewAppError("ERR_FEED", "price feed unavailable", 502).WithError(err))
	}
	return apphttp.SuccessResponse(c, models.IngestResponse{
		Timestamp: s.Timestamp,
		Price:     s.Price,
		Stored:    stored,
	})
}

// StartBatch launches the server-side collection loop.
func (h *NowcastHandler) StartBatch(c echo.Context) error {
	req := new(models.BatchIngestRequest)
	if errs := apphttp.ReadAndValidateRequest(c, req); errs != nil {
		return apphttp.BadRequestResponse(c, errs)
	}

	delay := time.Duration(req.DelaySeconds * float64(time.Second))
	if err := h.batch.Start(req.Count, delay); err != nil {
		if errors.Is(err, usecase.ErrBatchRunning) {
			return apphttp.AppErrorResponse(c,
				apphttp.ConflictError("ERR_BATCH_RUNNING", "batch collection already running"))
		}
		return apphttp.AppErrorResponse(c, apphttp.InternalError("failed to start batch"))
	}
	return apphttp.SuccessResponse(c, h.batch.Status())
}

// BatchStatus reports the collection loop state.
func (h *NowcastHandler) BatchStatus(c echo.Context) error {
	return apphttp.SuccessResponse(c, h.batch.Status())
}

// StopBatch requests a graceful stop of the loop.
func (h *NowcastHandler) StopBatch(c echo.Context) error {
	h.batch.Stop()
	return apphttp.SuccessResponse(c, h.batch.Status())
}

// ResetBatch clears loop counters while idle.
func (h *NowcastHandler) ResetBatch(c echo.Context) error {
	if !h.batch.Reset() {
		return apphttp.AppErrorResponse(c,
			apphttp.ConflictError("ERR_BATCH_RUNNING", "stop the batch before resetting"))
	}
	return apphttp.SuccessResponse(c, h.batch.Status())
}

// Train fits a fresh model from the stored series.
func (h *NowcastHandler) Train(c echo.Context) error {
	if h.limiter != nil && !h.limiter.Allow("train", 2, 1.0/30.0) {
		return apphttp.AppErrorResponse(c,
			apphttp.TooManyRequestsError("training is rate limited"))
	}

	req := new(models.TrainRequest)
	if errs := apphttp.ReadAndValidateRequest(c, req); errs != nil {
		return apphttp.BadRequestResponse(c, errs)
	}

	artifact, err := h.nowcast.Train(c.Request().Context(), req.MinRows, req.Limit)
	if err != nil {
		return h.pipelineError(c, err, "train")
	}

	h.invalidatePrediction()
	return apphttp.SuccessResponse(c, models.TrainResponse{
		Version:      artifact.Version,
		TestAccuracy: artifact.Metadata.TestAccuracy,
		TrainRows:    artifact.Metadata.TrainRows,
		TestRows:     artifact.Metadata.TestRows,
		LabeledRows:  artifact.Metadata.LabeledRows,
		TrainedAt:    artifact.Metadata.TrainedAt,
	})
}

// Predict nowcasts the direction of the next horizon step. Responses
// are cached briefly so a polling dashboard does not recompute per hit.
func (h *NowcastHandler) Predict(c echo.Context) error {
	if h.cache != nil && h.predictTTL > 0 {
		if b, ok, err := h.cache.GetBytes(predictCacheKey); err == nil && ok {
			var pred models.Prediction
			if json.Unmarshal(b, &pred) == nil {
				return apphttp.SuccessResponse(c, &pred)
			}
		}
	}

	pred, err := h.nowcast.Predict(c.Request().Context())
	if err != nil {
		return h.pipelineError(c, err, "predict")
	}

	if h.cache != nil && h.predictTTL > 0 {
		if b, err := json.Marshal(pred); err == nil {
			if err := h.cache.SetBytes(predictCacheKey, b, h.predictTTL); err != nil {
				h.logger.Warn("prediction cache write failed", applogger.Error(err))
			}
		}
	}
	return apphttp.SuccessResponse(c, pred)
}

// Prices returns the most recent stored samples.
func (h *NowcastHandler) Prices(c echo.Context) error {
	req := new(models.PricesRequest)
	if errs := apphttp.ReadAndValidateRequest(c, req); errs != nil {
		return apphttp.BadRequestResponse(c, errs)
	}

	points, err := h.nowcast.Prices(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("prices read failed", applogger.Error(err))
		return apphttp.AppErrorResponse(c, apphttp.InternalError("failed to read series"))
	}

	if since, ok := util.ParseTime(req.Since); ok {
		filtered := points[:0]
		for _, p := range points {
			if p.Timestamp.After(since) {
				filtered = append(filtered, p)
			}
		}
		points = filtered
	}
	return apphttp.ListResponse(c, points, int64(len(points)))
}

// Model returns the current artifact metadata.
func (h *NowcastHandler) Model(c echo.Context) error {
	artifact, err := h.nowcast.CurrentModel(c.Request().Context())
	if err != nil {
		return h.pipelineError(c, err, "model")
	}
	return apphttp.SuccessResponse(c, artifact)
}

// Health reports store reachability and sample count.
func (h *NowcastHandler) Health(c echo.Context) error {
	ctx := c.Request().Context()
	status := map[string]interface{}{"status": "ok"}

	if err := h.series.Health(ctx); err != nil {
		status["status"] = "degraded"
		status["series_store"] = err.Error()
		return apphttp.DataResponse(c, 503, status)
	}
	if count, err := h.nowcast.SampleCount(ctx); err == nil {
		status["samples"] = count
	}
	return apphttp.SuccessResponse(c, status)
}

// pipelineError maps domain errors onto API error codes.
func (h *NowcastHandler) pipelineError(c echo.Context, err error, op string) error {
	var trainErr *models.TrainingError
	var integrityErr *models.DataIntegrityError

	switch {
	case errors.Is(err, models.ErrInsufficientData):
		return apphttp.AppErrorResponse(c,
			apphttp.UnprocessableError("ERR_INSUFFICIENT_DATA", "not enough samples stored"))
	case errors.Is(err, models.ErrNoModel):
		return apphttp.AppErrorResponse(c,
			apphttp.NotFoundError("ERR_NO_MODEL", "no trained model available"))
	case errors.Is(err, models.ErrFeatureOrderMismatch):
		return apphttp.AppErrorResponse(c,
			apphttp.UnprocessableError("ERR_FEATURE_ORDER", "persisted model is incompatible").WithError(err))
	case errors.As(err, &trainErr):
		return apphttp.AppErrorResponse(c,
			apphttp.UnprocessableError("ERR_TRAINING", trainErr.Reason).WithParam("feature", trainErr.Feature))
	case errors.As(err, &integrityErr):
		return apphttp.AppErrorResponse(c,
			apphttp.UnprocessableError("ERR_DATA_INTEGRITY", integrityErr.Reason).WithParam("index", integrityErr.Index))
	default:
		h.logger.Error("pipeline operation failed",
			applogger.String("operation", op), applogger.Error(err))
		return apphttp.AppErrorResponse(c, apphttp.InternalError("pipeline operation failed"))
	}
}

func (h *NowcastHandler) invalidatePrediction() {
	if h.cache == nil {
		return
	}
	if err := h.cache.Delete(predictCacheKey); err != nil {
		h.logger.Warn("prediction cache invalidation failed", applogger.Error(err))
	}
}
