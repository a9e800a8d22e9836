package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PartPalAI/partpal-mvp/engine/cart"
	"github.com/PartPalAI/partpal-mvp/engine/domain"
	"github.com/PartPalAI/partpal-mvp/engine/repair"
	"github.com/PartPalAI/partpal-mvp/engine/retrieval"
	"github.com/PartPalAI/partpal-mvp/engine/semantic"
)

type fakeResponder struct {
	reply    string
	err      error
	called   bool
	products []domain.Product
}

func (f *fakeResponder) Respond(_ context.Context, _ []domain.Message, products []domain.Product) (string, error) {
	f.called = true
	f.products = products
	return f.reply, f.err
}

func newTestDispatcher(t *testing.T, fallback Responder) (*Dispatcher, *cart.Store) {
	t.Helper()
	emb := semantic.NewHashingEmbedder(semantic.DefaultDimension)
	eng := retrieval.New(emb, semantic.NewFlatIndex(emb.Dimension()), nil)
	products := []domain.Product{
		{PartNumber: "PS12345678", Name: "Door Shelf Bin", Price: 36.08, Description: "Refrigerator door bin"},
		{PartNumber: "PS11756692", Name: "Rack Adjuster Kit", Price: 44.95, Description: "Dishwasher rack adjuster"},
	}
	for _, p := range products {
		if err := eng.Index(context.Background(), p); err != nil {
			t.Fatalf("index: %v", err)
		}
	}
	carts := cart.NewStore()
	return New(eng, carts, repair.New(nil), fallback, nil, nil), carts
}

func userTurn(text string) []domain.Message {
	return []domain.Message{{Role: domain.RoleUser, Content: text}}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Intent
	}{
		{"please add ps12345678 to my cart", IntentCartAdd},
		{"remove ps12345678 from my cart", IntentCartRemove},
		{"show my cart", IntentCartShow},
		{"view cart please", IntentCartShow},
		{"my refrigerator is broken", IntentRepair},
		{"dishwasher error code e4", IntentRepair},
		{"refrigerator door shelf", IntentSearch},
		{"what's your return policy", IntentFallback},
		{"add this to my cart, my dishwasher is broken", IntentCartAdd},
	}
	for _, tt := range tests {
		if got := Classify(strings.ToLower(tt.text)); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestDispatch_CartAdd(t *testing.T) {
	d, carts := newTestDispatcher(t, nil)
	reply := d.Dispatch(context.Background(), "s1", userTurn("please add PS12345678 to my cart"))
	if !strings.Contains(reply, "Door Shelf Bin") {
		t.Errorf("reply should name the product, got %q", reply)
	}
	items := carts.Items("s1")
	if len(items) != 1 || items[0].PartNumber != "PS12345678" || items[0].Quantity != 1 {
		t.Errorf("cart state after add: %+v", items)
	}
}

func TestDispatch_CartAddMissingIdentifier(t *testing.T) {
	d, carts := newTestDispatcher(t, nil)
	reply := d.Dispatch(context.Background(), "s1", userTurn("add this to my cart"))
	if !strings.Contains(reply, domain.PartNumberExample) {
		t.Errorf("expected clarification naming the format, got %q", reply)
	}
	if len(carts.Items("s1")) != 0 {
		t.Error("clarification path must not mutate the cart")
	}
}

func TestDispatch_CartAddUnknownPart(t *testing.T) {
	d, carts := newTestDispatcher(t, nil)
	reply := d.Dispatch(context.Background(), "s1", userTurn("add PS99999999 to my cart"))
	if !strings.Contains(reply, "not found") {
		t.Errorf("expected not-found reply, got %q", reply)
	}
	if len(carts.Items("s1")) != 0 {
		t.Error("unknown part must not be added")
	}
}

func TestDispatch_CartRemoveUsesPreRemovalName(t *testing.T) {
	d, carts := newTestDispatcher(t, nil)
	d.Dispatch(context.Background(), "s1", userTurn("add PS12345678 to my cart"))

	reply := d.Dispatch(context.Background(), "s1", userTurn("remove PS12345678 from my cart"))
	if !strings.Contains(reply, "Door Shelf Bin") {
		t.Errorf("expected pre-removal name in reply, got %q", reply)
	}
	if len(carts.Items("s1")) != 0 {
		t.Error("item should be removed")
	}

	// Removing again is idempotent and falls back to the identifier.
	again := d.Dispatch(context.Background(), "s1", userTurn("remove PS12345678 from my cart"))
	if !strings.Contains(again, "PS12345678") {
		t.Errorf("expected bare identifier in reply, got %q", again)
	}
}

func TestDispatch_CartShow(t *testing.T) {
	d, _ := newTestDispatcher(t, nil)
	empty := d.Dispatch(context.Background(), "s1", userTurn("show my cart"))
	if !strings.Contains(empty, "empty") {
		t.Errorf("expected empty-cart reply, got %q", empty)
	}

	d.Dispatch(context.Background(), "s1", userTurn("add PS12345678 to my cart"))
	d.Dispatch(context.Background(), "s1", userTurn("add PS12345678 to my cart"))
	reply := d.Dispatch(context.Background(), "s1", userTurn("show my cart"))
	if !strings.Contains(reply, "Quantity: 2") {
		t.Errorf("expected merged quantity 2, got %q", reply)
	}
	if !strings.Contains(reply, "Total: $72.16") {
		t.Errorf("expected two-decimal total, got %q", reply)
	}
}

func TestDispatch_SessionsIsolated(t *testing.T) {
	d, carts := newTestDispatcher(t, nil)
	d.Dispatch(context.Background(), "alice", userTurn("add PS12345678 to my cart"))
	if len(carts.Items("bob")) != 0 {
		t.Error("bob's cart must stay empty")
	}
}

func TestDispatch_Repair(t *testing.T) {
	d, _ := newTestDispatcher(t, nil)
	reply := d.Dispatch(context.Background(), "s1", userTurn("my refrigerator is broken, not cooling at all"))
	if !strings.Contains(reply, "mechanical") {
		t.Errorf("expected mechanical diagnosis, got %q", reply)
	}
	if !strings.Contains(reply, "Diagnosis steps:") {
		t.Errorf("expected structured report, got %q", reply)
	}
}

func TestDispatch_Search(t *testing.T) {
	d, _ := newTestDispatcher(t, nil)
	reply := d.Dispatch(context.Background(), "s1", userTurn("refrigerator door bin"))
	if !strings.Contains(reply, "PS12345678") {
		t.Errorf("expected search hit, got %q", reply)
	}
}

func TestDispatch_SearchCapsResults(t *testing.T) {
	emb := semantic.NewHashingEmbedder(semantic.DefaultDimension)
	eng := retrieval.New(emb, semantic.NewFlatIndex(emb.Dimension()), nil)
	for i := 0; i < 8; i++ {
		p := domain.Product{
			PartNumber:  "PS1000000" + string(rune('0'+i)),
			Name:        "Refrigerator Shelf",
			Price:       10,
			Description: "shelf part",
		}
		if err := eng.Index(context.Background(), p); err != nil {
			t.Fatalf("index: %v", err)
		}
	}
	d := New(eng, cart.NewStore(), repair.New(nil), nil, nil, nil)

	reply := d.Dispatch(context.Background(), "s1", userTurn("refrigerator shelf"))
	if n := strings.Count(reply, "PS1000000"); n > 5 {
		t.Errorf("rendered %d results, cap is 5", n)
	}
}

func TestDispatch_FallbackWithContext(t *testing.T) {
	f := &fakeResponder{reply: "happy to help"}
	d, _ := newTestDispatcher(t, f)
	reply := d.Dispatch(context.Background(), "s1", userTurn("do you ship to Canada?"))
	if reply != "happy to help" {
		t.Errorf("reply = %q", reply)
	}
	if !f.called {
		t.Error("fallback responder should be invoked")
	}
}

func TestDispatch_FallbackFailure(t *testing.T) {
	f := &fakeResponder{err: errors.New("upstream down")}
	d, _ := newTestDispatcher(t, f)
	reply := d.Dispatch(context.Background(), "s1", userTurn("do you ship to Canada?"))
	if reply != replyInternalError {
		t.Errorf("expected apology reply, got %q", reply)
	}
}

func TestDispatch_NoUserMessage(t *testing.T) {
	d, _ := newTestDispatcher(t, nil)
	reply := d.Dispatch(context.Background(), "s1", []domain.Message{{Role: domain.RoleAssistant, Content: "hi"}})
	if reply != replyNoUserMessage {
		t.Errorf("reply = %q", reply)
	}
	if got := d.Dispatch(context.Background(), "s1", nil); got != replyNoUserMessage {
		t.Errorf("nil conversation reply = %q", got)
	}
}
