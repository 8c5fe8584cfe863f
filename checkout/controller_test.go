package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"souvenir/client"
	"souvenir/internal/domain/carts"
	"souvenir/internal/domain/orders"
	"souvenir/internal/domain/payments"
	"souvenir/internal/gateway"
)

type stubSession struct{ ok bool }

func (s stubSession) Authenticated() bool { return s.ok }

type stubCart struct {
	mu      sync.Mutex
	items   []carts.CartItem
	cleared bool
}

func (c *stubCart) Summary() carts.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return carts.ComputeSummary(c.items, 1000)
}

func (c *stubCart) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleared = true
	c.items = nil
	return nil
}

func (c *stubCart) isCleared() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cleared
}

type stubOrders struct {
	mu    sync.Mutex
	order *orders.Order
	err   error
	calls int
}

func (o *stubOrders) CreateOrder(_ context.Context, ship orders.ShippingAddress) (*orders.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	if o.err != nil {
		return nil, o.err
	}
	return o.order, nil
}

type stubGateway struct {
	mu        sync.Mutex
	initiates int
	polls     int
	result    *client.InitiateResult
	initErr   error
	statuses  []payments.Status
}

func (g *stubGateway) Initiate(context.Context, client.InitiateParams) (*client.InitiateResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initiates++
	if g.initErr != nil {
		return nil, g.initErr
	}
	return g.result, nil
}

func (g *stubGateway) CheckStatus(_ context.Context, txID string) (*payments.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx := g.polls
	if idx >= len(g.statuses) {
		idx = len(g.statuses) - 1
	}
	g.polls++
	return &payments.Payment{TransactionID: txID, Status: g.statuses[idx]}, nil
}

func (g *stubGateway) initiateCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.initiates
}

func testOrder() *orders.Order {
	return &orders.Order{
		ID:          7,
		Reference:   "SOUV-TEST-0007",
		Status:      orders.StatusPendingPayment,
		TotalAmount: 11000,
	}
}

func testAddress() orders.ShippingAddress {
	return orders.ShippingAddress{
		FullName:    "Awa Diop",
		Phone:       "771234567",
		AddressLine: "Sacré-Cœur 3",
		City:        "Dakar",
	}
}

func newTestController(t *testing.T, session Session, cart Cart, ord OrderPlacer, gw Gateway, opener Opener) *Controller {
	t.Helper()
	c := NewController(Config{
		Session:      session,
		Cart:         cart,
		Orders:       ord,
		Gateway:      gw,
		Opener:       opener,
		PollInterval: 5 * time.Millisecond,
		PollTimeout:  time.Second,
	})
	t.Cleanup(c.Close)
	return c
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestSubmitShippingRejectsEmptyAddress(t *testing.T) {
	ord := &stubOrders{order: testOrder()}
	c := newTestController(t, stubSession{ok: true}, &stubCart{}, ord, &stubGateway{}, nil)

	if err := c.SubmitShipping(context.Background(), orders.ShippingAddress{City: "Dakar"}); err == nil {
		t.Fatal("incomplete address accepted")
	}
	if c.State() != StateShipping {
		t.Errorf("state = %s, want shipping", c.State())
	}
	if ord.calls != 0 {
		t.Errorf("order created despite invalid address")
	}
}

func TestSubmitShippingCreatesOrderAndAdvances(t *testing.T) {
	ord := &stubOrders{order: testOrder()}
	c := newTestController(t, stubSession{ok: true}, &stubCart{}, ord, &stubGateway{}, nil)

	if err := c.SubmitShipping(context.Background(), testAddress()); err != nil {
		t.Fatalf("SubmitShipping: %v", err)
	}
	if c.State() != StatePayment {
		t.Errorf("state = %s, want payment", c.State())
	}
	if got := c.Order().TotalAmount; got != 11000 {
		t.Errorf("order total = %d, want 11000", got)
	}
}

func TestMobileMoneyWithoutPhoneMakesNoNetworkCall(t *testing.T) {
	gw := &stubGateway{}
	c := newTestController(t, stubSession{ok: true}, &stubCart{}, &stubOrders{order: testOrder()}, gw, nil)

	if err := c.SubmitShipping(context.Background(), testAddress()); err != nil {
		t.Fatal(err)
	}
	if err := c.ChoosePaymentMethod("mobile_money"); err != nil {
		t.Fatal(err)
	}

	err := c.InitiatePayment(context.Background(), PaymentDetails{})
	if !errors.Is(err, gateway.ErrPhoneRequired) {
		t.Fatalf("err = %v, want ErrPhoneRequired", err)
	}
	if gw.initiateCount() != 0 {
		t.Errorf("gateway contacted %d times, want 0", gw.initiateCount())
	}
	if c.State() != StatePayment {
		t.Errorf("state = %s, want payment", c.State())
	}
}

func TestUnauthenticatedSessionBlocksInitiation(t *testing.T) {
	gw := &stubGateway{}
	c := newTestController(t, stubSession{ok: false}, &stubCart{}, &stubOrders{order: testOrder()}, gw, nil)

	if err := c.SubmitShipping(context.Background(), testAddress()); err != nil {
		t.Fatal(err)
	}
	if err := c.ChoosePaymentMethod("paypal"); err != nil {
		t.Fatal(err)
	}

	err := c.InitiatePayment(context.Background(), PaymentDetails{})
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("err = %v, want ErrNotAuthenticated", err)
	}
	if gw.initiateCount() != 0 {
		t.Errorf("gateway contacted while unauthenticated")
	}
}

func TestSuccessfulPaymentClearsCartAndReachesSuccess(t *testing.T) {
	cart := &stubCart{items: []carts.CartItem{{Quantity: 2, UnitPrice: 5000}}}
	gw := &stubGateway{
		result:   &client.InitiateResult{TransactionID: "TXN-1", Status: "PENDING"},
		statuses: []payments.Status{payments.StatusPending, payments.StatusSuccess},
	}
	c := newTestController(t, stubSession{ok: true}, cart, &stubOrders{order: testOrder()}, gw, nil)

	if err := c.SubmitShipping(context.Background(), testAddress()); err != nil {
		t.Fatal(err)
	}
	if err := c.ChoosePaymentMethod("mobile_money"); err != nil {
		t.Fatal(err)
	}
	err := c.InitiatePayment(context.Background(), PaymentDetails{Provider: "wave", PhoneNumber: "771234567"})
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}

	waitFor(t, func() bool { return c.State() == StateSuccess })
	waitFor(t, cart.isCleared)
}

func TestFailedPaymentKeepsCartAndAllowsRetry(t *testing.T) {
	cart := &stubCart{items: []carts.CartItem{{Quantity: 1, UnitPrice: 5000}}}
	gw := &stubGateway{
		result:   &client.InitiateResult{TransactionID: "TXN-2", Status: "PENDING"},
		statuses: []payments.Status{payments.StatusFailed},
	}
	c := newTestController(t, stubSession{ok: true}, cart, &stubOrders{order: testOrder()}, gw, nil)

	if err := c.SubmitShipping(context.Background(), testAddress()); err != nil {
		t.Fatal(err)
	}
	if err := c.ChoosePaymentMethod("mobile_money"); err != nil {
		t.Fatal(err)
	}
	if err := c.InitiatePayment(context.Background(), PaymentDetails{Provider: "wave", PhoneNumber: "771234567"}); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return c.State() == StateError })
	if cart.isCleared() {
		t.Error("cart cleared on failed payment")
	}
	if got := c.LastError(); got != "payment failed" {
		t.Errorf("last error = %q", got)
	}

	if err := c.Retry(); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if c.State() != StatePayment {
		t.Errorf("state after retry = %s, want payment", c.State())
	}
}

func TestRedirectOpensURLWithoutPrematureSuccess(t *testing.T) {
	var mu sync.Mutex
	var opened string
	opener := func(url string) {
		mu.Lock()
		opened = url
		mu.Unlock()
	}

	gw := &stubGateway{
		result:   &client.InitiateResult{TransactionID: "TXN-3", Status: "PENDING", PaymentURL: "https://pay.example/checkout?tx=TXN-3"},
		statuses: []payments.Status{payments.StatusPending},
	}
	c := newTestController(t, stubSession{ok: true}, &stubCart{}, &stubOrders{order: testOrder()}, gw, opener)

	if err := c.SubmitShipping(context.Background(), testAddress()); err != nil {
		t.Fatal(err)
	}
	if err := c.ChoosePaymentMethod("paypal"); err != nil {
		t.Fatal(err)
	}
	if err := c.InitiatePayment(context.Background(), PaymentDetails{}); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	url := opened
	mu.Unlock()
	if url == "" {
		t.Fatal("opener not invoked with the payment URL")
	}

	// redirect issued but nothing confirmed yet
	time.Sleep(30 * time.Millisecond)
	if c.State() != StatePayment {
		t.Errorf("state = %s, want payment while provider is pending", c.State())
	}
}

func TestSecondInitiateWhileInFlightIsRejected(t *testing.T) {
	gw := &stubGateway{
		result:   &client.InitiateResult{TransactionID: "TXN-4", Status: "PENDING"},
		statuses: []payments.Status{payments.StatusPending},
	}
	c := newTestController(t, stubSession{ok: true}, &stubCart{}, &stubOrders{order: testOrder()}, gw, nil)

	if err := c.SubmitShipping(context.Background(), testAddress()); err != nil {
		t.Fatal(err)
	}
	if err := c.ChoosePaymentMethod("mobile_money"); err != nil {
		t.Fatal(err)
	}
	details := PaymentDetails{Provider: "orange_money", PhoneNumber: "771234567"}
	if err := c.InitiatePayment(context.Background(), details); err != nil {
		t.Fatal(err)
	}

	err := c.InitiatePayment(context.Background(), details)
	if !errors.Is(err, ErrPaymentInFlight) {
		t.Fatalf("err = %v, want ErrPaymentInFlight", err)
	}
	if gw.initiateCount() != 1 {
		t.Errorf("gateway contacted %d times, want 1", gw.initiateCount())
	}
}

func TestSimultaneousInitiatesAdmitExactlyOne(t *testing.T) {
	gw := &stubGateway{
		result:   &client.InitiateResult{TransactionID: "TXN-7", Status: "PENDING"},
		statuses: []payments.Status{payments.StatusPending},
	}
	c := newTestController(t, stubSession{ok: true}, &stubCart{}, &stubOrders{order: testOrder()}, gw, nil)

	if err := c.SubmitShipping(context.Background(), testAddress()); err != nil {
		t.Fatal(err)
	}
	if err := c.ChoosePaymentMethod("mobile_money"); err != nil {
		t.Fatal(err)
	}

	details := PaymentDetails{Provider: "wave", PhoneNumber: "771234567"}
	const callers = 16
	errs := make([]error, callers)
	var start, wg sync.WaitGroup
	start.Add(1)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start.Wait()
			errs[i] = c.InitiatePayment(context.Background(), details)
		}(i)
	}
	start.Done()
	wg.Wait()

	var accepted, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, ErrPaymentInFlight):
			rejected++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if accepted != 1 {
		t.Errorf("accepted = %d, want 1", accepted)
	}
	if rejected != callers-1 {
		t.Errorf("rejected = %d, want %d", rejected, callers-1)
	}
	if gw.initiateCount() != 1 {
		t.Errorf("gateway contacted %d times, want 1", gw.initiateCount())
	}
}

func TestFailedPrecheckFreesTheAttemptSlot(t *testing.T) {
	gw := &stubGateway{
		result:   &client.InitiateResult{TransactionID: "TXN-8", Status: "PENDING"},
		statuses: []payments.Status{payments.StatusPending},
	}
	c := newTestController(t, stubSession{ok: true}, &stubCart{}, &stubOrders{order: testOrder()}, gw, nil)

	if err := c.SubmitShipping(context.Background(), testAddress()); err != nil {
		t.Fatal(err)
	}
	if err := c.ChoosePaymentMethod("mobile_money"); err != nil {
		t.Fatal(err)
	}

	// missing phone fails before any network call
	if err := c.InitiatePayment(context.Background(), PaymentDetails{}); !errors.Is(err, gateway.ErrPhoneRequired) {
		t.Fatalf("err = %v, want ErrPhoneRequired", err)
	}

	// the rejected attempt must not block a corrected one
	err := c.InitiatePayment(context.Background(), PaymentDetails{Provider: "wave", PhoneNumber: "771234567"})
	if err != nil {
		t.Fatalf("InitiatePayment after corrected details: %v", err)
	}
	if gw.initiateCount() != 1 {
		t.Errorf("gateway contacted %d times, want 1", gw.initiateCount())
	}
}

func TestPollTimeoutLandsInErrorState(t *testing.T) {
	gw := &stubGateway{
		result:   &client.InitiateResult{TransactionID: "TXN-5", Status: "PENDING"},
		statuses: []payments.Status{payments.StatusPending},
	}
	c := NewController(Config{
		Session:      stubSession{ok: true},
		Cart:         &stubCart{},
		Orders:       &stubOrders{order: testOrder()},
		Gateway:      gw,
		PollInterval: 5 * time.Millisecond,
		PollTimeout:  25 * time.Millisecond,
	})
	t.Cleanup(c.Close)

	if err := c.SubmitShipping(context.Background(), testAddress()); err != nil {
		t.Fatal(err)
	}
	if err := c.ChoosePaymentMethod("mobile_money"); err != nil {
		t.Fatal(err)
	}
	if err := c.InitiatePayment(context.Background(), PaymentDetails{Provider: "wave", PhoneNumber: "771234567"}); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return c.State() == StateError })
	if got := c.LastError(); got != "payment verification timed out" {
		t.Errorf("last error = %q, want timeout message", got)
	}
}

func TestBackDiscardsIntentAndIgnoresLateResult(t *testing.T) {
	gw := &stubGateway{
		result:   &client.InitiateResult{TransactionID: "TXN-6", Status: "PENDING"},
		statuses: []payments.Status{payments.StatusPending},
	}
	cart := &stubCart{items: []carts.CartItem{{Quantity: 1, UnitPrice: 5000}}}
	c := newTestController(t, stubSession{ok: true}, cart, &stubOrders{order: testOrder()}, gw, nil)

	if err := c.SubmitShipping(context.Background(), testAddress()); err != nil {
		t.Fatal(err)
	}
	if err := c.ChoosePaymentMethod("mobile_money"); err != nil {
		t.Fatal(err)
	}
	if err := c.InitiatePayment(context.Background(), PaymentDetails{Provider: "wave", PhoneNumber: "771234567"}); err != nil {
		t.Fatal(err)
	}

	if err := c.Back(); err != nil {
		t.Fatalf("Back: %v", err)
	}
	if c.State() != StateShipping {
		t.Errorf("state = %s, want shipping", c.State())
	}

	// a result for the abandoned attempt must not move the flow
	c.resolve("TXN-6", StateSuccess, "payment confirmed", true)
	if c.State() != StateShipping {
		t.Errorf("late result moved state to %s", c.State())
	}
	if cart.isCleared() {
		t.Error("late result cleared the cart")
	}
}

func TestChoosePaymentMethodRejectsUnknown(t *testing.T) {
	c := newTestController(t, stubSession{ok: true}, &stubCart{}, &stubOrders{order: testOrder()}, &stubGateway{}, nil)

	if err := c.SubmitShipping(context.Background(), testAddress()); err != nil {
		t.Fatal(err)
	}
	if err := c.ChoosePaymentMethod("bitcoin"); !errors.Is(err, gateway.ErrMethodNotHandled) {
		t.Fatalf("err = %v, want ErrMethodNotHandled", err)
	}
}
