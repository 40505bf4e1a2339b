package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/your-org/lifexp-predictor/internal/dataset"
	"github.com/your-org/lifexp-predictor/internal/predlog"
	"github.com/your-org/lifexp-predictor/internal/serving"
)

// maxBodyBytes caps the size of a prediction request.
const maxBodyBytes = 1 << 20

// Predictor is the serving dependency of PredictHandler.
type Predictor interface {
	Predict(ctx context.Context, rec dataset.Record) (serving.Prediction, error)
}

// PredictResponse is the body of a successful prediction.
type PredictResponse struct {
	LifeExpectancy float64 `json:"life_expectancy"`
}

type errorResponse struct {
	Error  string   `json:"error"`
	Errors []string `json:"errors,omitempty"`
}

// PredictHandler は推論リクエストを処理します。
type PredictHandler struct {
	predictor Predictor
	validator *RequestValidator
	writer    predlog.Writer
	metrics   *Metrics
	logger    *zap.Logger
}

// NewPredictHandler は新しいPredictHandlerを作成します。validator が nil の場合はスキーマ検証を行いません。
func NewPredictHandler(p Predictor, validator *RequestValidator, writer predlog.Writer, metrics *Metrics, logger *zap.Logger) *PredictHandler {
	if writer == nil {
		writer = predlog.NopWriter{}
	}
	return &PredictHandler{predictor: p, validator: validator, writer: writer, metrics: metrics, logger: logger}
}

// RegisterRoutes はchiルーターに推論のルートを登録します。
func (h *PredictHandler) RegisterRoutes(r chi.Router) {
	r.Post("/predict", h.Predict)
}

// Predict decodes one JSON record and responds with the predicted life
// expectancy.
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()
	w.Header().Set("X-Request-ID", requestID)

	code := h.serve(w, r, requestID)
	if h.metrics != nil {
		h.metrics.requests.WithLabelValues(strconv.Itoa(code)).Inc()
		h.metrics.latency.Observe(time.Since(start).Seconds())
	}
}

func (h *PredictHandler) serve(w http.ResponseWriter, r *http.Request, requestID string) int {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
	}

	var rec dataset.Record
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil || rec == nil {
		return writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request body must be a JSON object"})
	}

	if h.validator != nil {
		violations, err := h.validator.Validate(body)
		if err != nil {
			h.logger.Error("Schema validation failed", zap.String("requestID", requestID), zap.Error(err))
			return writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		}
		if len(violations) > 0 {
			return writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid record", Errors: violations})
		}
	}

	pred, err := h.predictor.Predict(r.Context(), rec)
	if err != nil {
		h.logger.Error("Prediction failed", zap.String("requestID", requestID), zap.Error(err))
		return writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
	if math.IsNaN(pred.LifeExpectancy) || math.IsInf(pred.LifeExpectancy, 0) {
		h.logger.Error("Prediction is not finite", zap.String("requestID", requestID))
		return writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}

	h.writer.Save(predlog.Entry{
		Time:           time.Now().UTC(),
		RequestID:      requestID,
		BundleVersion:  pred.BundleVersion,
		Country:        pred.Row.Country,
		Year:           pred.Row.Year,
		Status:         pred.Row.Status,
		LifeExpectancy: pred.LifeExpectancy,
	})
	if h.metrics != nil {
		h.metrics.predicted.Observe(pred.LifeExpectancy)
	}
	h.logger.Debug("Served prediction",
		zap.String("requestID", requestID),
		zap.String("country", pred.Row.Country),
		zap.Float64("lifeExpectancy", pred.LifeExpectancy))
	return writeJSON(w, http.StatusOK, PredictResponse{LifeExpectancy: pred.LifeExpectancy})
}

func writeJSON(w http.ResponseWriter, code int, v any) int {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
	return code
}
