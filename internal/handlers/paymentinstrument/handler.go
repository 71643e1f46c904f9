package paymentinstrument

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/kevin07696/payment-experience/internal/adapters/ports"
	"github.com/kevin07696/payment-experience/internal/domain"
	"github.com/kevin07696/payment-experience/internal/services/anomaly"
	"github.com/kevin07696/payment-experience/internal/services/lifecycle"
	"github.com/kevin07696/payment-experience/internal/services/ratelimit"
	"github.com/kevin07696/payment-experience/pkg/observability"
	"go.uber.org/zap"
)

// FlightHeader carries the comma-separated feature flights for a request.
const FlightHeader = "x-ms-flight"

// Handler serves the payment instrument lifecycle endpoints.
type Handler struct {
	instruments ports.InstrumentServiceAccessor
	anomaly     *anomaly.Accessor
	detector    *ratelimit.Detector
	lifecycle   *lifecycle.StateManager
	logger      *zap.Logger
}

// NewHandler creates a payment instrument handler
func NewHandler(
	instruments ports.InstrumentServiceAccessor,
	anomalyAccessor *anomaly.Accessor,
	detector *ratelimit.Detector,
	stateManager *lifecycle.StateManager,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		instruments: instruments,
		anomaly:     anomalyAccessor,
		detector:    detector,
		lifecycle:   stateManager,
		logger:      logger,
	}
}

// RegisterRoutes registers the lifecycle endpoints on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v7.0/{accountId}/paymentInstrumentsEx", h.CreatePaymentInstrument)
	mux.HandleFunc("PUT /v7.0/{accountId}/paymentInstrumentsEx/{piid}", h.UpdatePaymentInstrument)
	mux.HandleFunc("POST /v7.0/{accountId}/paymentInstrumentsEx/{piid}/resume", h.ResumePendingOperation)
}

// requestContext is the per-request state shared by the three endpoints.
type requestContext struct {
	traceID  uuid.UUID
	account  string
	clientIP string
	partner  string
	country  string
	language string
	flights  *domain.Flights
	request  *domain.PaymentInstrumentRequest
}

// CreatePaymentInstrument handles POST /v7.0/{accountId}/paymentInstrumentsEx
func (h *Handler) CreatePaymentInstrument(w http.ResponseWriter, r *http.Request) {
	rc, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	// Card-testing pre-flight applies to credit card adds only
	if rc.request.PaymentMethodFamily == domain.FamilyCreditCard && h.blocked(rc) {
		h.detector.Record(rc.account, rc.clientIP, true)
		h.respondBlocked(w, r, rc)
		return
	}

	pi, serviceErr, err := h.instruments.PostPaymentInstrument(r.Context(), rc.account, rc.request)
	h.respond(w, r, domain.ActionPostPaymentInstrument, domain.RequestTypeAddPI, rc, pi, serviceErr, err)
}

// UpdatePaymentInstrument handles PUT /v7.0/{accountId}/paymentInstrumentsEx/{piid}
func (h *Handler) UpdatePaymentInstrument(w http.ResponseWriter, r *http.Request) {
	rc, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	pi, serviceErr, err := h.instruments.UpdatePaymentInstrument(r.Context(), rc.account, r.PathValue("piid"), rc.request)
	h.respond(w, r, domain.ActionUpdatePaymentInstrument, domain.RequestTypeUpdatePI, rc, pi, serviceErr, err)
}

// ResumePendingOperation handles POST /v7.0/{accountId}/paymentInstrumentsEx/{piid}/resume
func (h *Handler) ResumePendingOperation(w http.ResponseWriter, r *http.Request) {
	rc, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	pi, serviceErr, err := h.instruments.ResumePendingOperation(r.Context(), rc.account, r.PathValue("piid"), rc.request)

	// An instrument still pending after a resume round is re-read state,
	// so its client action is chosen as for a read.
	h.respond(w, r, domain.ActionResumePendingOperation, domain.RequestTypeGetPI, rc, pi, serviceErr, err)
}

func (h *Handler) parseRequest(w http.ResponseWriter, r *http.Request) (*requestContext, bool) {
	rc := &requestContext{
		traceID:  uuid.New(),
		account:  r.PathValue("accountId"),
		clientIP: clientIP(r),
		partner:  r.URL.Query().Get("partner"),
		country:  r.URL.Query().Get("country"),
		language: r.URL.Query().Get("language"),
		flights:  domain.ParseFlights(r.Header.Get(FlightHeader)),
	}

	request := &domain.PaymentInstrumentRequest{}
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		h.logger.Warn("Failed to decode request body",
			zap.String("trace_id", rc.traceID.String()),
			zap.Error(err),
		)
		h.writeJSON(w, http.StatusBadRequest, &domain.ServiceErrorResponse{
			ErrorCode: domain.ServiceErrorValidationFailed,
			Message:   "Invalid request body",
		})
		return nil, false
	}
	if request.PaymentMethodFamily == "" {
		h.writeJSON(w, http.StatusBadRequest, &domain.ServiceErrorResponse{
			ErrorCode: domain.ServiceErrorValidationFailed,
			Message:   "paymentMethodFamily is required",
		})
		return nil, false
	}

	rc.request = request
	return rc, true
}

// blocked runs the anomaly and rate-limit pre-flight checks.
func (h *Handler) blocked(rc *requestContext) bool {
	if h.anomaly.IsMaliciousAccountID(rc.traceID, rc.account) {
		return true
	}
	if h.anomaly.IsMaliciousClientIP(rc.traceID, rc.clientIP) {
		return true
	}
	return h.detector.IsMalicious(rc.account, rc.clientIP, rc.flights)
}

// respondBlocked rejects a blocked request. The response is shaped like
// an ordinary validation failure so probing traffic learns nothing about
// the detection.
func (h *Handler) respondBlocked(w http.ResponseWriter, r *http.Request, rc *requestContext) {
	observability.RecordInstrumentOperation(domain.ActionPostPaymentInstrument, rc.request.PaymentMethodFamily, "blocked")
	h.logger.Warn("Request blocked by pre-flight checks",
		zap.String("trace_id", rc.traceID.String()),
		zap.String("account_id", rc.account),
		zap.String("client_ip", rc.clientIP),
	)

	response := &domain.ServiceErrorResponse{ErrorCode: domain.ServiceErrorValidationFailed}
	h.lifecycle.SetError(r.Context(), domain.ActionPostPaymentInstrument, &lifecycle.ErrorState{
		Family:   rc.request.PaymentMethodFamily,
		Type:     rc.request.PaymentMethodType,
		Language: rc.language,
		Response: response,
	})
	h.writeJSON(w, http.StatusBadRequest, response)
}

// respond finishes an instrument operation: records the outcome data
// point, maps service errors, attaches client actions, and writes JSON.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, action, requestType string, rc *requestContext, pi *domain.PaymentInstrument, serviceErr *domain.ServiceErrorResponse, err error) {
	family := rc.request.PaymentMethodFamily
	isCreditCard := family == domain.FamilyCreditCard

	if err != nil {
		if isCreditCard {
			h.detector.Record(rc.account, rc.clientIP, true)
		}
		observability.RecordInstrumentOperation(action, family, "error")
		h.logger.Error("Instrument service call failed",
			zap.String("trace_id", rc.traceID.String()),
			zap.String("action", action),
			zap.Error(err),
		)
		h.writeJSON(w, http.StatusServiceUnavailable, h.genericError(r, action, rc))
		return
	}

	if serviceErr != nil {
		if isCreditCard {
			h.detector.Record(rc.account, rc.clientIP, true)
		}
		observability.RecordInstrumentOperation(action, family, "error")
		h.lifecycle.SetError(r.Context(), action, &lifecycle.ErrorState{
			Family:   family,
			Type:     rc.request.PaymentMethodType,
			Language: rc.language,
			Response: serviceErr,
		})
		h.writeJSON(w, http.StatusBadRequest, serviceErr)
		return
	}

	if isCreditCard {
		h.detector.Record(rc.account, rc.clientIP, false)
	}

	if err := h.lifecycle.SetClientAction(action, &lifecycle.ClientActionState{
		Instrument:  pi,
		Partner:     rc.partner,
		Country:     rc.country,
		Language:    rc.language,
		RequestType: requestType,
	}); err != nil {
		observability.RecordInstrumentOperation(action, family, "error")
		h.logger.Error("Client action resolution failed",
			zap.String("trace_id", rc.traceID.String()),
			zap.String("pi_id", pi.PaymentInstrumentID),
			zap.Error(err),
		)
		h.writeJSON(w, http.StatusInternalServerError, h.genericError(r, action, rc))
		return
	}

	status := "success"
	if pi.ClientAction != nil {
		status = "client_action"
	}
	observability.RecordInstrumentOperation(action, family, status)

	h.logger.Info("Instrument operation completed",
		zap.String("trace_id", rc.traceID.String()),
		zap.String("action", action),
		zap.String("pi_id", pi.PaymentInstrumentID),
		zap.String("status", pi.Status),
	)
	h.writeJSON(w, http.StatusOK, pi)
}

// genericError builds the catch-all mapped error response.
func (h *Handler) genericError(r *http.Request, action string, rc *requestContext) *domain.ServiceErrorResponse {
	response := &domain.ServiceErrorResponse{ErrorCode: string(domain.ErrorCodeInternalError)}
	h.lifecycle.SetError(r.Context(), action, &lifecycle.ErrorState{
		Family:   rc.request.PaymentMethodFamily,
		Type:     rc.request.PaymentMethodType,
		Language: rc.language,
		Response: response,
	})
	return response
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// clientIP extracts the originating client IP, preferring the first
// X-Forwarded-For hop set by the edge proxy.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
