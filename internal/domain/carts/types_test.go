package carts

import "testing"

func TestComputeSummaryTotals(t *testing.T) {
	items := []CartItem{
		{Quantity: 2, UnitPrice: 5000},
		{Quantity: 1, UnitPrice: 7500},
	}

	s := ComputeSummary(items, 1000)

	if s.Total != 17500 {
		t.Errorf("total = %d, want 17500", s.Total)
	}
	if s.ItemCount != 3 {
		t.Errorf("itemCount = %d, want 3", s.ItemCount)
	}
	if s.GrandTotal != s.Total+s.ShippingCost {
		t.Errorf("grandTotal = %d, want total+shipping = %d", s.GrandTotal, s.Total+s.ShippingCost)
	}
}

func TestComputeSummaryCheckoutScenario(t *testing.T) {
	// One line of 2 x 5000 with 1000 shipping.
	items := []CartItem{{Quantity: 2, UnitPrice: 5000}}

	s := ComputeSummary(items, 1000)

	if s.Total != 10000 {
		t.Errorf("total = %d, want 10000", s.Total)
	}
	if s.GrandTotal != 11000 {
		t.Errorf("grandTotal = %d, want 11000", s.GrandTotal)
	}
}

func TestComputeSummaryEmptyCart(t *testing.T) {
	s := ComputeSummary(nil, 1000)

	if s.Total != 0 || s.GrandTotal != 0 || s.ItemCount != 0 {
		t.Errorf("empty cart summary = %+v, want all zero", s)
	}
}
