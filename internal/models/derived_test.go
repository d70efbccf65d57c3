package models

import "testing"

func TestProgressPercent(t *testing.T) {
	cases := map[string]int{
		"completed":        100,
		"IN_PROGRESS":      60,
		"synopsis_pending": 40,
		"idea_pending":     20,
		"archived":         0,
		"":                 0,
	}
	for status, want := range cases {
		if got := (Project{Status: status}).ProgressPercent(); got != want {
			t.Fatalf("ProgressPercent(%q) = %d, want %d", status, got, want)
		}
	}
}

func TestSelectPlan(t *testing.T) {
	if _, ok := SelectPlan(nil); ok {
		t.Fatal("expected no plan for no orders")
	}

	orders := []Order{{ID: "a", Status: OrderPending}, {ID: "b", Status: OrderPaid}}
	plan, ok := SelectPlan(orders)
	if !ok || plan.ID != "a" {
		t.Fatalf("expected first order without a completed one, got %+v", plan)
	}

	orders = append(orders, Order{ID: "c", Status: OrderCompleted})
	if plan, _ = SelectPlan(orders); plan.ID != "c" {
		t.Fatalf("expected completed order, got %s", plan.ID)
	}
}

func TestFirstPaidOrderAcceptsPaidAndCompleted(t *testing.T) {
	orders := []Order{{ID: "a", Status: OrderPending}, {ID: "b", Status: OrderPaid}, {ID: "c", Status: OrderCompleted}}
	paid, ok := FirstPaidOrder(orders)
	if !ok || paid.ID != "b" {
		t.Fatalf("expected order b, got %+v", paid)
	}
	if _, ok := FirstPaidOrder(orders[:1]); ok {
		t.Fatal("pending order must not count as paid")
	}
}

func TestIdeaSubmissionBelongsTo(t *testing.T) {
	id := func(s string) *string { return &s }
	user := User{ID: "u1", Phone: "555"}

	cases := []struct {
		name string
		sub  IdeaSubmission
		want bool
	}{
		{"matching user id", IdeaSubmission{UserID: id("u1")}, true},
		{"other user id wins over phone", IdeaSubmission{UserID: id("u2"), Phone: "555"}, false},
		{"guest by phone", IdeaSubmission{Phone: "555"}, true},
		{"empty user id falls back to phone", IdeaSubmission{UserID: id(""), Phone: "555"}, true},
		{"guest without phone", IdeaSubmission{}, false},
	}
	for _, tc := range cases {
		if got := tc.sub.BelongsTo(user); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
	if (IdeaSubmission{}).BelongsTo(User{ID: "u3"}) {
		t.Fatal("blank phones must not match")
	}
}
