package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PartPalAI/partpal-mvp/engine/cart"
	"github.com/PartPalAI/partpal-mvp/engine/dispatch"
	"github.com/PartPalAI/partpal-mvp/engine/domain"
	"github.com/PartPalAI/partpal-mvp/engine/ingest"
	"github.com/PartPalAI/partpal-mvp/engine/repair"
	"github.com/PartPalAI/partpal-mvp/engine/retrieval"
	"github.com/PartPalAI/partpal-mvp/engine/semantic"
	"github.com/PartPalAI/partpal-mvp/pkg/metrics"
	"github.com/PartPalAI/partpal-mvp/pkg/mid"
)

// newTestServer wires the full chat stack on the in-memory index, the
// same way run() does minus the external dependencies.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.Default()

	embedder := semantic.NewHashingEmbedder(semantic.DefaultDimension)
	engine := retrieval.New(embedder, semantic.NewFlatIndex(embedder.Dimension()), logger)

	records := []ingest.CatalogRecord{
		{PartNumber: "PS11752778", Name: "Ice Maker Assembly", Price: 89.99, Description: "Replacement ice maker for top-freezer refrigerators"},
		{PartNumber: "PS733947", Name: "Door Shelf Bin", Price: 24.99, Description: "Clear door bin for refrigerator doors"},
	}
	deps := ingest.Deps{Retrieval: engine, Logger: logger}
	if n := ingest.BulkLoad(t.Context(), records, deps); n != 2 {
		t.Fatalf("loaded %d records", n)
	}

	carts := cart.NewStore()
	reg := metrics.New()
	dispatcher := dispatch.New(engine, carts, repair.New(logger), nil, logger, reg)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/chat", handleChat(dispatcher, logger))
	mux.HandleFunc("GET /api/cart", handleCartGet(carts))
	mux.Handle("GET /metrics", reg.Handler())

	handler := mid.Chain(mux, mid.Recover(logger), mid.Logger(logger), mid.CORS("*"))
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func chat(t *testing.T, srv *httptest.Server, userID, text string) string {
	t.Helper()
	body, _ := json.Marshal(ChatRequest{
		UserID:   userID,
		Messages: []domain.Message{{Role: domain.RoleUser, Content: text}},
	})
	resp, err := http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(string(body)))
	if err != nil {
		t.Fatalf("chat request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat status = %d", resp.StatusCode)
	}
	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	return out.Reply
}

func TestChatFlow_SearchAddShow(t *testing.T) {
	srv := newTestServer(t)

	reply := chat(t, srv, "u1", "I need an ice maker for my refrigerator")
	if !strings.Contains(reply, "Ice Maker Assembly") {
		t.Fatalf("search reply = %q", reply)
	}

	reply = chat(t, srv, "u1", "add PS11752778 to my cart")
	if !strings.Contains(reply, "added Ice Maker Assembly") {
		t.Fatalf("add reply = %q", reply)
	}

	reply = chat(t, srv, "u1", "show my cart")
	if !strings.Contains(reply, "Ice Maker Assembly") || !strings.Contains(reply, "$89.99") {
		t.Fatalf("show reply = %q", reply)
	}

	// Another session must not see u1's cart.
	reply = chat(t, srv, "u2", "show my cart")
	if !strings.Contains(reply, "empty") {
		t.Fatalf("u2 cart reply = %q", reply)
	}

	resp, err := http.Get(srv.URL + "/api/cart?user_id=u1")
	if err != nil {
		t.Fatalf("cart request: %v", err)
	}
	defer resp.Body.Close()
	var cr CartResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if len(cr.Items) != 1 || cr.Items[0].PartNumber != "PS11752778" {
		t.Fatalf("cart = %+v", cr)
	}
}

func TestChatFlow_RepairDiagnosis(t *testing.T) {
	srv := newTestServer(t)

	reply := chat(t, srv, "u1", "my refrigerator is not cooling, how do I fix it")
	if !strings.Contains(reply, "Diagnosis for your refrigerator") {
		t.Fatalf("repair reply = %q", reply)
	}
	if !strings.Contains(reply, "Tools needed:") {
		t.Fatalf("repair reply missing tools section: %q", reply)
	}
}

func TestMetricsExposed(t *testing.T) {
	srv := newTestServer(t)

	chat(t, srv, "u1", "show my cart")
	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(body), "dispatch_intents_total") {
		t.Fatalf("metrics output missing intent counter:\n%s", body)
	}
}
