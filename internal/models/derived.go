package models

import "strings"

// ProgressPercent maps a project status onto the display-only progress bar value.
func (p Project) ProgressPercent() int {
	switch strings.ToLower(p.Status) {
	case ProjectCompleted:
		return 100
	case ProjectInProgress:
		return 60
	case ProjectSynopsisPending:
		return 40
	case ProjectIdeaPending:
		return 20
	default:
		return 0
	}
}

// IsCompleted reports whether the order's payment has been verified by an admin.
func (o Order) IsCompleted() bool {
	return o.Status == OrderCompleted
}

// HasPaymentOnRecord reports whether the student has at least submitted payment
// ("paid" awaits verification, "completed" is verified).
func (o Order) HasPaymentOnRecord() bool {
	return o.Status == OrderPaid || o.Status == OrderCompleted
}

// FirstPaidOrder returns the first order with payment on record.
func FirstPaidOrder(orders []Order) (Order, bool) {
	for _, o := range orders {
		if o.HasPaymentOnRecord() {
			return o, true
		}
	}
	return Order{}, false
}

// FirstPendingOrder returns the first order still waiting for payment.
func FirstPendingOrder(orders []Order) (Order, bool) {
	for _, o := range orders {
		if o.Status == OrderPending {
			return o, true
		}
	}
	return Order{}, false
}

// SelectPlan picks the order that represents a student's plan: the first completed
// order, otherwise the first order, otherwise none.
func SelectPlan(orders []Order) (Order, bool) {
	for _, o := range orders {
		if o.IsCompleted() {
			return o, true
		}
	}
	if len(orders) > 0 {
		return orders[0], true
	}
	return Order{}, false
}

// BelongsTo reports whether the submission joins to the given user: by user id when
// the submission carries one, otherwise by phone number equality.
func (s IdeaSubmission) BelongsTo(u User) bool {
	if s.UserID != nil && *s.UserID != "" {
		return *s.UserID == u.ID
	}
	return s.Phone != "" && u.Phone != "" && s.Phone == u.Phone
}

// IsOpen reports whether the help request still awaits an admin decision.
func (r AdminRequest) IsOpen() bool {
	return r.Status == RequestPending || r.Status == RequestInProgress
}
