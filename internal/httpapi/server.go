// Package httpapi exposes the IOU ledger over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/sheikh-saqib/iou-ledger/internal/client"
	"github.com/sheikh-saqib/iou-ledger/internal/ledger"
	"github.com/sheikh-saqib/iou-ledger/internal/models"
)

// CallerHeader carries the authenticated caller identity, set by the
// authenticating proxy in front of this service.
const CallerHeader = "X-Caller"

type Server struct {
	ledger *ledger.Ledger
	client *client.Client
	logger *logrus.Entry
	mux    *http.ServeMux
}

func NewServer(l *ledger.Ledger, c *client.Client, gatherer prometheus.Gatherer, logger *logrus.Entry) *Server {
	s := &Server{
		ledger: l,
		client: c,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.mux.HandleFunc("POST /ious", s.handleAddIOU)
	s.mux.HandleFunc("GET /ious/lookup", s.handleLookup)
	s.mux.HandleFunc("GET /users", s.handleUsers)
	s.mux.HandleFunc("GET /users/{id}/total-owed", s.handleTotalOwed)
	s.mux.HandleFunc("GET /users/{id}/creditors", s.handleCreditors)
	s.mux.HandleFunc("GET /users/{id}/last-active", s.handleLastActive)
	s.mux.HandleFunc("GET /path", s.handlePath)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

type addIOURequest struct {
	Debtor   string          `json:"debtor"`
	Creditor string          `json:"creditor"`
	Amount   decimal.Decimal `json:"amount"`
	Path     []string        `json:"path,omitempty"`
}

type addIOUResponse struct {
	IOUID     string          `json:"iou_id"`
	Settled   decimal.Decimal `json:"settled"`
	Cycle     []string        `json:"cycle,omitempty"`
	Duplicate bool            `json:"duplicate"`
}

func (s *Server) handleAddIOU(w http.ResponseWriter, r *http.Request) {
	var req addIOURequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	debtor := models.ParseIdentity(req.Debtor)
	creditor := models.ParseIdentity(req.Creditor)

	if caller := models.ParseIdentity(r.Header.Get(CallerHeader)); caller == "" || caller != debtor {
		writeError(w, http.StatusForbidden, ledger.ErrUnauthorized.Error())
		return
	}

	amount, err := models.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, ledger.ErrInvalidAmount.Error()+": "+err.Error())
		return
	}

	key := r.Header.Get("Idempotency-Key")

	var receipt ledger.Receipt
	if len(req.Path) > 0 {
		path := make([]models.Identity, len(req.Path))
		for i, id := range req.Path {
			path[i] = models.ParseIdentity(id)
		}
		receipt, err = s.ledger.RecordDebt(r.Context(), models.DebtRequest{
			IdempotencyKey: key,
			Debtor:         debtor,
			Creditor:       creditor,
			Amount:         int64(amount),
			Path:           path,
		})
	} else {
		receipt, err = s.client.AddIOU(r.Context(), key, debtor, creditor, int64(amount))
	}

	switch {
	case ledger.IsRejection(err):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.WithError(err).Error("Failed to record IOU")
		writeError(w, http.StatusInternalServerError, "failed to record iou")
		return
	}

	resp := addIOUResponse{
		IOUID:     receipt.IOU.ID,
		Settled:   receipt.Settled.Decimal(),
		Cycle:     identities(receipt.Cycle),
		Duplicate: receipt.Duplicate,
	}
	status := http.StatusCreated
	if receipt.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	debtor, creditor := models.ParseIdentity(q.Get("debtor")), models.ParseIdentity(q.Get("creditor"))
	if debtor == "" || creditor == "" {
		writeError(w, http.StatusBadRequest, "debtor and creditor are mandatory fields")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"debtor":   debtor,
		"creditor": creditor,
		"amount":   s.ledger.AmountOwed(debtor, creditor),
	})
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, identities(s.client.Users()))
}

func (s *Server) handleTotalOwed(w http.ResponseWriter, r *http.Request) {
	user := models.ParseIdentity(r.PathValue("id"))
	total, err := s.client.TotalOwed(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "total_owed": total})
}

func (s *Server) handleCreditors(w http.ResponseWriter, r *http.Request) {
	user := models.ParseIdentity(r.PathValue("id"))
	edges, err := s.client.Creditors(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, edges)
}

func (s *Server) handleLastActive(w http.ResponseWriter, r *http.Request) {
	user := models.ParseIdentity(r.PathValue("id"))
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "last_active": s.client.LastActive(user)})
}

func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to := models.ParseIdentity(q.Get("from")), models.ParseIdentity(q.Get("to"))
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "from and to are mandatory fields")
		return
	}

	path, err := s.client.FindPath(r.Context(), from, to)
	if err != nil {
		if errors.Is(err, r.Context().Err()) {
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": identities(path)})
}

func identities(ids []models.Identity) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
