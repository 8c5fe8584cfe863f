package orders

import "testing"

func TestCanTransitionForwardOnly(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPendingPayment, StatusPaid},
		{StatusPaid, StatusProcessing},
		{StatusProcessing, StatusShipped},
		{StatusShipped, StatusDelivered},
		{StatusPendingPayment, StatusProcessing}, // skipping ahead is still forward
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("CanTransition(%s, %s) = false, want true", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusPaid, StatusPendingPayment},
		{StatusShipped, StatusProcessing},
		{StatusDelivered, StatusShipped},
		{StatusPaid, StatusPaid},
	}
	for _, tc := range denied {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("CanTransition(%s, %s) = true, want false", tc.from, tc.to)
		}
	}
}

func TestCancelledAndRefundedAreTrapStates(t *testing.T) {
	for _, from := range []Status{StatusPendingPayment, StatusPaid, StatusProcessing, StatusShipped} {
		if !CanTransition(from, StatusCancelled) {
			t.Errorf("CanTransition(%s, CANCELLED) = false, want true", from)
		}
		if !CanTransition(from, StatusRefunded) {
			t.Errorf("CanTransition(%s, REFUNDED) = false, want true", from)
		}
	}

	for _, from := range []Status{StatusCancelled, StatusRefunded, StatusDelivered} {
		for _, to := range []Status{StatusPendingPayment, StatusPaid, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded} {
			if from == to {
				continue
			}
			if CanTransition(from, to) {
				t.Errorf("CanTransition(%s, %s) = true, want false (terminal)", from, to)
			}
		}
	}
}

func TestCancellable(t *testing.T) {
	if !StatusProcessing.Cancellable() {
		t.Error("PROCESSING should be cancellable")
	}
	if StatusShipped.Cancellable() {
		t.Error("SHIPPED should not be cancellable")
	}
}

func TestShippingAddressEmpty(t *testing.T) {
	if !(ShippingAddress{}).Empty() {
		t.Error("zero address should be empty")
	}
	a := ShippingAddress{FullName: "Awa Ndiaye", Phone: "771234567", AddressLine: "Rue 10, Médina", City: "Dakar"}
	if a.Empty() {
		t.Error("complete address reported empty")
	}
}

func TestReferenceGenerator(t *testing.T) {
	gen := NewReferenceGenerator("test-secret")
	a := gen.Generate(1)
	b := gen.Generate(1)
	if a == b {
		t.Errorf("references should be unique, got %s twice", a)
	}
	if len(a) != len("SOUV-XXXX-XXXX") || a[:5] != "SOUV-" {
		t.Errorf("unexpected reference shape: %s", a)
	}
}
