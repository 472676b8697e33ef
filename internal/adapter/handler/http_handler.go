package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"

	"github.com/rl1809/teleshop-ledger/internal/adapter/excel"
	"github.com/rl1809/teleshop-ledger/internal/core/domain"
	"github.com/rl1809/teleshop-ledger/internal/core/service"
	"github.com/rl1809/teleshop-ledger/internal/port"
)

const maxUploadBytes = 10 << 20

// HTTPHandler is the caller surface: it accepts uploaded workbooks, runs them
// through the normalizer and engine, and renders outcome summaries verbatim.
type HTTPHandler struct {
	ingest *service.IngestService
	pickup *service.PickupService
	stock  *service.StockService
	regs   port.RegsRepository
}

func NewHTTPHandler(ingest *service.IngestService, pickup *service.PickupService, stock *service.StockService, regs port.RegsRepository) *HTTPHandler {
	return &HTTPHandler{ingest: ingest, pickup: pickup, stock: stock, regs: regs}
}

// Register installs all routes on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/api/upload/sales", h.UploadSales)
	mux.HandleFunc("/api/upload/pickup", h.UploadPickup)
	mux.HandleFunc("/api/stock", h.Stock)
	mux.HandleFunc("/api/stock/summary", h.StockSummary)
	mux.HandleFunc("/api/sim/status", h.SimStatus)
	mux.HandleFunc("/api/replenish", h.Replenish)
	mux.HandleFunc("/api/batch/delete", h.DeleteBatch)
}

type uploadSalesResponse struct {
	domain.OutcomeSummary
	ParseErrors []string `json:"parse_errors,omitempty"`
	DailyRegs   int      `json:"daily_regs"`
}

func (h *HTTPHandler) UploadSales(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	agentID := r.FormValue("agent_id")
	period := r.FormValue("period")
	if agentID == "" || period == "" {
		writeError(w, http.StatusBadRequest, "agent_id and period are required")
		return
	}
	data, _, ok := readUpload(w, r)
	if !ok {
		return
	}

	// The engine runs even when every row failed parsing: replacing the
	// previous batch is unconditional, and a fully invalid re-upload must
	// still clear the period it targets.
	rows, parseErrors, dailyRegs := excel.NormalizeSales(data, period, agentID)

	summary, err := h.ingest.IngestSales(r.Context(), agentID, period, rows)
	if err != nil {
		// The previous batch is already gone at this point; partial success
		// must never be claimed.
		writeError(w, http.StatusInternalServerError, "storage failure, previous report was removed: please re-upload")
		return
	}

	if dailyRegs > 0 && h.regs != nil {
		if err := h.regs.UpsertDailyRegs(r.Context(), agentID, period, dailyRegs); err != nil {
			parseErrors = append(parseErrors, "failed to record daily registrations")
		}
	}

	writeJSON(w, http.StatusOK, uploadSalesResponse{OutcomeSummary: summary, ParseErrors: parseErrors, DailyRegs: dailyRegs})
}

func (h *HTTPHandler) UploadPickup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	data, filename, ok := readUpload(w, r)
	if !ok {
		return
	}

	cards, err := excel.NormalizePickup(data, filepath.Base(filename))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	summary, err := h.pickup.IngestPickup(r.Context(), cards)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage failure: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *HTTPHandler) Stock(w http.ResponseWriter, r *http.Request) {
	agentID := r.URL.Query().Get("agent_id")
	if agentID == "" {
		writeError(w, http.StatusBadRequest, "agent_id is required")
		return
	}
	if raw := r.URL.Query().Get("item"); raw != "" {
		itemType, ok := domain.ResolveItemType(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown item type")
			return
		}
		qty, err := h.stock.Quantity(r.Context(), agentID, itemType)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"agent_id": agentID, "item": itemType, "quantity": qty})
		return
	}
	levels, err := h.stock.Levels(r.Context(), agentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, levels)
}

func (h *HTTPHandler) StockSummary(w http.ResponseWriter, r *http.Request) {
	totals, err := h.stock.Summary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (h *HTTPHandler) SimStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Get("gsm") != "":
		card, err := h.pickup.SimStatusByGSM(r.Context(), q.Get("gsm"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if card == nil {
			writeError(w, http.StatusNotFound, "GSM not registered")
			return
		}
		writeJSON(w, http.StatusOK, card)
	case q.Get("box") != "":
		counts, err := h.pickup.SimStatusByBox(r.Context(), q.Get("box"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, counts)
	case q.Get("carton") != "":
		counts, err := h.pickup.SimStatusByCarton(r.Context(), q.Get("carton"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, counts)
	default:
		writeError(w, http.StatusBadRequest, "one of gsm, box, carton is required")
	}
}

type replenishRequest struct {
	AgentID  string `json:"agent_id"`
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}

func (h *HTTPHandler) Replenish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req replenishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	itemType, ok := domain.ResolveItemType(req.Item)
	if !ok || req.AgentID == "" || req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "agent_id, a known item and a positive quantity are required")
		return
	}
	if err := h.ingest.Replenish(r.Context(), req.AgentID, itemType, req.Quantity); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type deleteBatchRequest struct {
	AgentID string `json:"agent_id"`
	Period  string `json:"period"`
}

func (h *HTTPHandler) DeleteBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req deleteBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AgentID == "" || req.Period == "" {
		writeError(w, http.StatusBadRequest, "agent_id and period are required")
		return
	}
	removed, err := h.ingest.DeleteBatch(r.Context(), req.AgentID, req.Period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readUpload pulls the uploaded file out of a multipart form. Writes the
// error response itself when the upload is unusable. Callers must have
// capped r.Body before any form access.
func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file upload")
		return nil, "", false
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read upload")
		return nil, "", false
	}
	return data, header.Filename, true
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
