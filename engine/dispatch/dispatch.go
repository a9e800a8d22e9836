// Package dispatch is the conversation entry point. It classifies the
// latest user utterance into an intent via an ordered keyword rule
// table, invokes the matching engine, and renders a plain-language
// reply. No engine error ever reaches the caller; every failure path
// degrades to a clarification or apology message.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/PartPalAI/partpal-mvp/engine/cart"
	"github.com/PartPalAI/partpal-mvp/engine/domain"
	"github.com/PartPalAI/partpal-mvp/engine/repair"
	"github.com/PartPalAI/partpal-mvp/engine/retrieval"
	"github.com/PartPalAI/partpal-mvp/pkg/metrics"
)

const (
	maxSearchResults   = 5
	fallbackContextK   = 3
	replyNoUserMessage = "I didn't receive any message. Please try again."
	replyInternalError = "I'm sorry, I encountered an error while processing your request. Please try again."
)

// Responder generates a free-form reply when no structured intent
// matches. Retrieved products are passed along as grounding context.
type Responder interface {
	Respond(ctx context.Context, conv []domain.Message, products []domain.Product) (string, error)
}

// Dispatcher routes conversations to the retrieval, cart, and repair
// engines.
type Dispatcher struct {
	retrieval *retrieval.Engine
	carts     *cart.Store
	repair    *repair.Engine
	fallback  Responder
	logger    *slog.Logger
	reg       *metrics.Registry
}

// New creates a dispatcher. The fallback responder may be nil, in
// which case unmatched utterances get a canned reply.
func New(r *retrieval.Engine, c *cart.Store, rep *repair.Engine, fallback Responder, logger *slog.Logger, reg *metrics.Registry) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if reg == nil {
		reg = metrics.New()
	}
	return &Dispatcher{
		retrieval: r,
		carts:     c,
		repair:    rep,
		fallback:  fallback,
		logger:    logger,
		reg:       reg,
	}
}

// Dispatch handles one conversation turn for a session and returns the
// reply text. It never returns an error; malformed input yields a
// clarification message.
func (d *Dispatcher) Dispatch(ctx context.Context, session string, conv []domain.Message) string {
	utterance, ok := lastUserMessage(conv)
	if !ok {
		return replyNoUserMessage
	}
	lower := strings.ToLower(utterance)
	intent := Classify(lower)
	d.reg.Counter(metrics.WithLabels("dispatch_intents_total", "intent", string(intent)), "Dispatched intents by type").Inc()
	defer d.reg.Histogram("dispatch_duration_seconds", "Dispatch handling latency", nil).Since(time.Now())
	d.logger.Info("dispatching", "session", session, "intent", intent)

	switch intent {
	case IntentCartAdd:
		return d.handleCartAdd(session, lower)
	case IntentCartRemove:
		return d.handleCartRemove(session, lower)
	case IntentCartShow:
		return d.handleCartShow(session)
	case IntentRepair:
		return d.handleRepair(lower)
	case IntentSearch:
		return d.handleSearch(ctx, utterance)
	default:
		return d.handleFallback(ctx, conv, utterance)
	}
}

func (d *Dispatcher) handleCartAdd(session, lower string) string {
	partNumber, ok := domain.ExtractPartNumber(lower)
	if !ok {
		return "Please include a valid part number, for example " + domain.PartNumberExample + "."
	}
	product, found := d.retrieval.LookupExact(partNumber)
	if !found {
		return "Product " + partNumber + " not found in our database."
	}
	if err := d.carts.Add(session, product.PartNumber, product.Name, product.Price, 1); err != nil {
		d.logger.Error("cart add failed", "session", session, "part_number", partNumber, "error", err)
		return "I couldn't add the item to your cart. Please try again."
	}
	return "I've added " + product.Name + " to your cart. You can view your cart by asking me to show it."
}

func (d *Dispatcher) handleCartRemove(session, lower string) string {
	partNumber, ok := domain.ExtractPartNumber(lower)
	if !ok {
		return "Please include a valid part number, for example " + domain.PartNumberExample + "."
	}
	// Resolve the display name before removal so the reply can use it.
	name := partNumber
	for _, it := range d.carts.Items(session) {
		if it.PartNumber == partNumber {
			name = it.Name
			break
		}
	}
	d.carts.Remove(session, partNumber)
	return "I've removed " + name + " from your cart."
}

func (d *Dispatcher) handleCartShow(session string) string {
	items := d.carts.Items(session)
	if len(items) == 0 {
		return "Your cart is empty. You can add items by asking me to add them to your cart."
	}
	return renderCart(items, d.carts.Total(session))
}

func (d *Dispatcher) handleRepair(lower string) string {
	// Two-way inference: "refrigerator" wins when present, anything
	// else that matched the repair rule mentioned "dishwasher".
	appliance := string(domain.ApplianceDishwasher)
	if strings.Contains(lower, string(domain.ApplianceRefrigerator)) {
		appliance = string(domain.ApplianceRefrigerator)
	}

	report, err := d.repair.Diagnose(appliance, lower)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnsupportedAppliance):
			return "I can only help with repairs for: " + supportedAppliances() + "."
		case errors.Is(err, domain.ErrNotRepairRelated):
			return "This appears to be a non-repair related issue. Please describe the repair problem."
		default:
			d.logger.Error("diagnosis failed", "error", err)
			return replyInternalError
		}
	}
	return renderReport(report)
}

func (d *Dispatcher) handleSearch(ctx context.Context, utterance string) string {
	products, err := d.retrieval.Search(ctx, utterance, maxSearchResults)
	if err != nil {
		d.logger.Error("search failed", "error", err)
		return replyInternalError
	}
	if len(products) == 0 {
		return "I found no matching products. Try describing the part or appliance differently."
	}
	return renderProducts(products)
}

func (d *Dispatcher) handleFallback(ctx context.Context, conv []domain.Message, utterance string) string {
	if d.fallback == nil {
		return "I can help you find appliance parts, manage your cart, or troubleshoot refrigerator and dishwasher problems. What do you need?"
	}
	// Best-effort grounding context; a failed lookup just means none.
	products, err := d.retrieval.Search(ctx, utterance, fallbackContextK)
	if err != nil {
		products = nil
	}
	reply, err := d.fallback.Respond(ctx, conv, products)
	if err != nil {
		d.logger.Error("fallback responder failed", "error", err)
		return replyInternalError
	}
	return reply
}

func lastUserMessage(conv []domain.Message) (string, bool) {
	for i := len(conv) - 1; i >= 0; i-- {
		if conv[i].Role == domain.RoleUser && strings.TrimSpace(conv[i].Content) != "" {
			return conv[i].Content, true
		}
	}
	return "", false
}

func supportedAppliances() string {
	names := make([]string, len(domain.SupportedAppliances))
	for i, a := range domain.SupportedAppliances {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}
