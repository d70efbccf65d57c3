package views

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/tyforge/client/internal/auth"
	"github.com/tyforge/client/internal/models"
	"github.com/tyforge/client/internal/refresh"
)

var (
	// ErrProofType is returned for payment proofs that are not JPG or PNG images.
	ErrProofType = errors.New("payment proof must be a JPG or PNG image")
	// ErrNoPendingOrder is returned when there is nothing to pay for.
	ErrNoPendingOrder = errors.New("no order is awaiting payment")
)

// ProofImageAllowed reports whether filename has an accepted proof extension.
func ProofImageAllowed(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png":
		return true
	default:
		return false
	}
}

// PaymentPage shows the student's orders and takes payment proofs.
type PaymentPage struct {
	page
	Orders []models.Order
}

// OpenPayment guards and loads the student's orders.
func (e *Env) OpenPayment(ctx context.Context) *PaymentPage {
	p := &PaymentPage{page: e.newPage(ctx, "payment", auth.ScopeUser)}
	p.open("Failed to load orders", p.load)
	return p
}

func (p *PaymentPage) load(ctx context.Context) error {
	orders, err := p.env.API.MyOrders(ctx)
	if err != nil {
		return err
	}
	p.view.Apply(func() { p.Orders = orders })
	return nil
}

// Pending returns the order awaiting payment.
func (p *PaymentPage) Pending() (models.Order, bool) {
	return models.FirstPendingOrder(p.Orders)
}

// SubmitProof uploads a payment screenshot for orderID, or for the pending order
// when orderID is empty, then reloads the orders.
func (p *PaymentPage) SubmitProof(orderID, filename string, content io.Reader) refresh.Outcome {
	return p.mutate(refresh.Mutation{
		Name: "submit payment proof",
		Do: func(ctx context.Context) error {
			if !ProofImageAllowed(filename) {
				return ErrProofType
			}
			id := orderID
			if id == "" {
				pending, ok := p.Pending()
				if !ok {
					return ErrNoPendingOrder
				}
				id = pending.ID
			}
			_, err := p.env.API.SubmitPaymentProof(ctx, id, filepath.Base(filename), content)
			return err
		},
		Success: "Payment proof submitted! We will verify it shortly.",
		Failure: "Failed to submit payment proof",
		Refresh: []refresh.Refresher{{Name: "orders", Fetch: p.load}},
	})
}

// SelectPlan creates a pending order for planID and reloads the orders.
func (p *PaymentPage) SelectPlan(planID string) refresh.Outcome {
	return p.mutate(refresh.Mutation{
		Name: "select plan",
		Do: func(ctx context.Context) error {
			_, err := p.env.API.SelectPlan(ctx, planID)
			return err
		},
		Success: "Plan selected",
		Failure: "Failed to select plan",
		Refresh: []refresh.Refresher{{Name: "orders", Fetch: p.load}},
	})
}
