package stub

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tyforge/client/internal/models"
)

func orderCreated(o *models.Order) time.Time { return o.CreatedAt }

func (s *Server) listPlans(w http.ResponseWriter, r *http.Request) {
	s.store.mu.RLock()
	plans := append([]models.Plan(nil), s.store.plans...)
	s.store.mu.RUnlock()
	respondJSON(r.Context(), w, http.StatusOK, plans)
}

// selectPlan opens a pending order for the chosen plan.
func (s *Server) selectPlan(w http.ResponseWriter, r *http.Request, user models.User) {
	var req struct {
		PlanID string `json:"plan_id"`
	}
	if err := decodeJSON(r, &req); err != nil || req.PlanID == "" {
		respondDetail(r.Context(), w, http.StatusBadRequest, "plan_id is required")
		return
	}

	s.store.mu.Lock()
	var plan *models.Plan
	for i := range s.store.plans {
		if s.store.plans[i].ID == req.PlanID {
			plan = &s.store.plans[i]
			break
		}
	}
	if plan == nil {
		s.store.mu.Unlock()
		respondDetail(r.Context(), w, http.StatusNotFound, "Plan not found")
		return
	}
	now := s.store.now()
	planID := plan.ID
	order := &models.Order{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		PlanID:    &planID,
		PlanName:  plan.Name,
		Amount:    plan.Price,
		Status:    models.OrderPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.store.orders = append(s.store.orders, order)
	if acct, ok := s.store.accounts[user.ID]; ok {
		acct.user.SelectedPlanID = &planID
	}
	out := *order
	s.store.mu.Unlock()

	respondJSON(r.Context(), w, http.StatusOK, out)
}

func (s *Server) myOrders(w http.ResponseWriter, r *http.Request, user models.User) {
	s.store.mu.RLock()
	out := copies(s.store.orders, func(o *models.Order) bool { return o.UserID == user.ID }, orderCreated)
	s.store.mu.RUnlock()
	respondJSON(r.Context(), w, http.StatusOK, out)
}

func (s *Server) allOrders(w http.ResponseWriter, r *http.Request, _ models.User) {
	s.store.mu.RLock()
	out := copies(s.store.orders, nil, orderCreated)
	s.store.mu.RUnlock()
	respondJSON(r.Context(), w, http.StatusOK, out)
}

// submitProof accepts a JPG or PNG screenshot and moves the order to "paid".
func (s *Server) submitProof(w http.ResponseWriter, r *http.Request, user models.User) {
	orderID := r.PathValue("id")
	f, ok := readFormFile(w, r)
	if !ok {
		return
	}
	switch strings.ToLower(filepath.Ext(f.name)) {
	case ".jpg", ".jpeg", ".png":
	default:
		respondDetail(r.Context(), w, http.StatusBadRequest, "Only JPG/JPEG/PNG images are allowed")
		return
	}

	s.store.mu.Lock()
	o, found := find(s.store.orders, func(o *models.Order) bool { return o.ID == orderID && o.UserID == user.ID })
	var out models.Order
	if found {
		now := s.store.now()
		s.store.proofs[o.ID] = f
		o.PaymentProofOriginalName = f.name
		o.PaymentProofUploadedAt = &now
		o.Status = models.OrderPaid
		o.UpdatedAt = now
		out = *o
	}
	s.store.mu.Unlock()

	if !found {
		respondDetail(r.Context(), w, http.StatusNotFound, "Order not found")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, out)
}

func (s *Server) paymentProof(w http.ResponseWriter, r *http.Request, _ models.User) {
	s.store.mu.RLock()
	f, ok := s.store.proofs[r.PathValue("id")]
	s.store.mu.RUnlock()
	if !ok {
		respondDetail(r.Context(), w, http.StatusNotFound, "Payment proof not found")
		return
	}
	if f.contentType == "" || f.contentType == "application/octet-stream" {
		f.contentType = "image/" + strings.TrimPrefix(strings.ToLower(filepath.Ext(f.name)), ".")
	}
	respondFile(w, f)
}

// approvePayment verifies an order that has a proof on file.
func (s *Server) approvePayment(w http.ResponseWriter, r *http.Request, _ models.User) {
	orderID := r.PathValue("id")

	s.store.mu.Lock()
	o, found := find(s.store.orders, func(o *models.Order) bool { return o.ID == orderID })
	_, hasProof := s.store.proofs[orderID]
	var out models.Order
	if found && hasProof {
		now := s.store.now()
		o.Status = models.OrderCompleted
		o.PaymentVerifiedAt = &now
		o.UpdatedAt = now
		out = *o
	}
	s.store.mu.Unlock()

	switch {
	case !found:
		respondDetail(r.Context(), w, http.StatusNotFound, "Order not found")
	case !hasProof:
		respondDetail(r.Context(), w, http.StatusBadRequest, "No payment proof uploaded")
	default:
		respondJSON(r.Context(), w, http.StatusOK, out)
	}
}
