// Package main implements the PartPal API server: the chat endpoint
// backed by the intent dispatcher, plus cart inspection, health, and
// metrics endpoints.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/PartPalAI/partpal-mvp/engine/cart"
	"github.com/PartPalAI/partpal-mvp/engine/compat"
	"github.com/PartPalAI/partpal-mvp/engine/dispatch"
	"github.com/PartPalAI/partpal-mvp/engine/domain"
	"github.com/PartPalAI/partpal-mvp/engine/ingest"
	"github.com/PartPalAI/partpal-mvp/engine/repair"
	"github.com/PartPalAI/partpal-mvp/engine/retrieval"
	"github.com/PartPalAI/partpal-mvp/engine/semantic"
	"github.com/PartPalAI/partpal-mvp/engine/websearch"
	"github.com/PartPalAI/partpal-mvp/pkg/fn"
	"github.com/PartPalAI/partpal-mvp/pkg/llm"
	"github.com/PartPalAI/partpal-mvp/pkg/metrics"
	"github.com/PartPalAI/partpal-mvp/pkg/mid"
	"github.com/PartPalAI/partpal-mvp/pkg/resilience"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Config holds all environment-based configuration.
type Config struct {
	Port        string
	CatalogPath string

	IndexBackend string // "flat" or "qdrant"
	QdrantURL    string
	Collection   string

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	NatsURL   string
	Neo4jURL  string
	Neo4jUser string
	Neo4jPass string

	BingKey      string
	BingEndpoint string

	CORSOrigin string
}

func loadConfig() Config {
	return Config{
		Port:         envOr("PORT", "8080"),
		CatalogPath:  envOr("CATALOG_PATH", "data/catalog.json"),
		IndexBackend: envOr("INDEX_BACKEND", "flat"),
		QdrantURL:    envOr("QDRANT_URL", "localhost:6334"),
		Collection:   envOr("QDRANT_COLLECTION", "partpal"),
		LLMBaseURL:   envOr("LLM_BASE_URL", ""),
		LLMAPIKey:    envOr("LLM_API_KEY", ""),
		LLMModel:     envOr("LLM_MODEL", "deepseek-chat"),
		NatsURL:      envOr("NATS_URL", ""),
		Neo4jURL:     envOr("NEO4J_URL", ""),
		Neo4jUser:    envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:    envOr("NEO4J_PASS", "password"),
		BingKey:      envOr("BING_API_KEY", ""),
		BingEndpoint: envOr("BING_ENDPOINT", ""),
		CORSOrigin:   envOr("CORS_ORIGIN", "*"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := metrics.New()

	// --- Embedding index ---
	embedder := semantic.NewHashingEmbedder(semantic.DefaultDimension)
	var index semantic.Index
	if cfg.IndexBackend == "qdrant" {
		qidx, err := semantic.NewQdrantIndex(cfg.QdrantURL, cfg.Collection, embedder.Dimension())
		if err != nil {
			return fmt.Errorf("qdrant connect: %w", err)
		}
		defer qidx.Close()
		if err := qidx.EnsureCollection(ctx); err != nil {
			return fmt.Errorf("qdrant collection: %w", err)
		}
		index = qidx
	} else {
		index = semantic.NewFlatIndex(embedder.Dimension())
	}

	engine := retrieval.New(embedder, index, logger)

	// --- Optional compatibility graph ---
	var compatDB *compat.Store
	var compatStore ingest.CompatStore
	if cfg.Neo4jURL != "" {
		driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
		if err != nil {
			return fmt.Errorf("neo4j driver: %w", err)
		}
		defer driver.Close(ctx)
		compatDB = compat.New(driver)
		compatStore = compatDB
	}

	// --- Catalog bulk load ---
	deps := ingest.Deps{Retrieval: engine, Compat: compatStore, Logger: logger}
	ingest.BulkLoad(ctx, ingest.LoadFile(cfg.CatalogPath, logger), deps)
	reg.Gauge("catalog_products", "Products in the retrieval index").Set(int64(engine.Count()))

	// --- Optional NATS catalog consumer ---
	if cfg.NatsURL != "" {
		nc, err := nats.Connect(cfg.NatsURL)
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Drain()
		sub, err := ingest.StartConsumer(nc, deps)
		if err != nil {
			return fmt.Errorf("catalog consumer: %w", err)
		}
		defer sub.Unsubscribe()
	}

	// --- Dispatcher ---
	var fallback dispatch.Responder
	if cfg.LLMBaseURL != "" {
		fallback = &llmResponder{
			client:  llm.New(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel),
			breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
		}
	}
	carts := cart.NewStore()
	dispatcher := dispatch.New(engine, carts, repair.New(logger), fallback, logger, reg)

	// --- HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/chat", handleChat(dispatcher, logger))
	mux.HandleFunc("GET /api/cart", handleCartGet(carts))
	mux.HandleFunc("DELETE /api/cart", handleCartClear(carts))
	mux.Handle("GET /metrics", reg.Handler())
	if compatDB != nil {
		mux.HandleFunc("GET /api/parts/{part_number}/models", handleCompatModels(compatDB, logger))
		mux.HandleFunc("GET /api/models/{model}/parts", handleModelParts(compatDB, logger))
	}
	if cfg.BingKey != "" {
		ws := websearch.New(cfg.BingEndpoint, cfg.BingKey, logger)
		mux.HandleFunc("GET /api/repair/guides", handleRepairGuides(ws, logger))
	}

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("partpal-api"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port, "index", cfg.IndexBackend, "products", engine.Count())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ChatRequest is the JSON body for POST /api/chat.
type ChatRequest struct {
	Messages []domain.Message `json:"messages"`
	UserID   string           `json:"user_id,omitempty"`
}

// ChatResponse is the JSON response for POST /api/chat.
type ChatResponse struct {
	Reply string `json:"reply"`
}

func handleChat(d *dispatch.Dispatcher, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if len(req.Messages) == 0 {
			http.Error(w, `{"error":"messages are required"}`, http.StatusBadRequest)
			return
		}

		reply := d.Dispatch(r.Context(), req.UserID, req.Messages)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ChatResponse{Reply: reply})
	}
}

// CartResponse is the JSON response for GET /api/cart.
type CartResponse struct {
	Items []domain.LineItem `json:"items"`
	Total float64           `json:"total"`
}

func handleCartGet(carts *cart.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := r.URL.Query().Get("user_id")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(CartResponse{
			Items: carts.Items(session),
			Total: carts.Total(session),
		})
	}
}

func handleCartClear(carts *cart.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		carts.Clear(r.URL.Query().Get("user_id"))
		w.WriteHeader(http.StatusNoContent)
	}
}

// ModelsResponse is the JSON response for GET /api/parts/{part_number}/models.
type ModelsResponse struct {
	PartNumber string   `json:"part_number"`
	Name       string   `json:"name,omitempty"`
	Models     []string `json:"models"`
}

func handleCompatModels(store *compat.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partNumber := strings.ToUpper(r.PathValue("part_number"))
		models, err := store.CompatibleModels(r.Context(), partNumber)
		if err != nil {
			logger.Error("compat lookup failed", "part_number", partNumber, "err", err)
			http.Error(w, `{"error":"compatibility lookup failed"}`, http.StatusInternalServerError)
			return
		}
		resp := ModelsResponse{PartNumber: partNumber, Models: models}
		// Part metadata is a nicety; a miss still returns the models.
		if part, err := store.GetPart(r.Context(), partNumber); err == nil {
			resp.Name = part.Name
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

// PartsResponse is the JSON response for GET /api/models/{model}/parts.
type PartsResponse struct {
	Model string        `json:"model"`
	Parts []compat.Part `json:"parts"`
}

func handleModelParts(store *compat.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		model := r.PathValue("model")
		parts, err := store.PartsForModel(r.Context(), model)
		if err != nil {
			logger.Error("model parts lookup failed", "model", model, "err", err)
			http.Error(w, `{"error":"compatibility lookup failed"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(PartsResponse{Model: model, Parts: parts})
	}
}

// GuidesResponse is the JSON response for GET /api/repair/guides.
type GuidesResponse struct {
	Query   string             `json:"query"`
	Results []websearch.Result `json:"results"`
	Stories []websearch.Story  `json:"stories,omitempty"`
}

func handleRepairGuides(ws *websearch.Client, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			http.Error(w, `{"error":"q is required"}`, http.StatusBadRequest)
			return
		}

		results, err := ws.SearchRepairInfo(r.Context(), query, 0)
		if err != nil {
			logger.Error("repair guide search failed", "query", query, "err", err)
			http.Error(w, `{"error":"search unavailable"}`, http.StatusBadGateway)
			return
		}
		// Stories are best effort on top of the guide results.
		stories, err := ws.SearchRepairStories(r.Context(), query)
		if err != nil {
			stories = nil
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(GuidesResponse{Query: query, Results: results, Stories: stories})
	}
}

// --- Adapters ---

const fallbackSystemPrompt = `You are PartPal, a customer support assistant for refrigerator and dishwasher parts.
Answer using ONLY the provided product context when it is relevant.
If you don't know, say so honestly. Be concise and helpful.`

// llmResponder adapts the llm client to the dispatch.Responder
// interface, folding retrieved products into the system context. A
// circuit breaker keeps a failing provider from stalling every chat.
type llmResponder struct {
	client  *llm.Client
	breaker *resilience.Breaker
}

func (a *llmResponder) Respond(ctx context.Context, conv []domain.Message, products []domain.Product) (string, error) {
	system := fallbackSystemPrompt
	if len(products) > 0 {
		system += "\n\nProduct context:"
		for _, p := range products {
			system += fmt.Sprintf("\n- %s %s ($%.2f): %s", p.PartNumber, p.Name, p.Price, p.Description)
		}
	}

	msgs := fn.Map(conv, func(m domain.Message) llm.Message {
		return llm.Message{Role: m.Role, Content: m.Content}
	})

	var reply string
	err := a.breaker.Call(ctx, func(ctx context.Context) error {
		var err error
		reply, err = a.client.Chat(ctx, system, msgs)
		return err
	})
	return reply, err
}
