package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"videoAssistant/config"
	"videoAssistant/processors"
	"videoAssistant/storage"
	"videoAssistant/web"
	"videoAssistant/youtube"
)

type app struct {
	cfg          *config.Config
	registry     *storage.VideoRegistry
	store        storage.VectorStore
	orchestrator *processors.Orchestrator
	summarizer   *processors.Summarizer
	yt           *youtube.Client
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	if !cfg.HasValidAPI() {
		config.PrintConfigInstructions()
		log.Printf("Warning: no API key configured, model calls will fail")
	}

	store := storage.NewVectorStore(cfg)
	backend := os.Getenv("STORE")
	if backend == "" {
		backend = "memory"
	}
	log.Printf("Vector store initialized: %s", backend)

	registry := storage.NewVideoRegistry(cfg.MaxConversationHistory)
	llm := processors.NewOpenAIGenerator(cfg)
	webClient := web.NewClient(cfg)

	a := &app{
		cfg:          cfg,
		registry:     registry,
		store:        store,
		orchestrator: processors.NewOrchestrator(cfg, llm, processors.NewPhraseClassifier(), store, registry, webClient),
		summarizer:   processors.NewSummarizer(llm, cfg),
		yt:           youtube.NewClient(),
	}

	// Routes
	http.HandleFunc("POST /videos/process", a.processVideoHandler)
	http.HandleFunc("GET /videos/list", a.listVideosHandler)
	http.HandleFunc("DELETE /videos/{id}", a.deleteVideoHandler)
	http.HandleFunc("POST /questions/ask", a.askQuestionHandler)
	http.HandleFunc("GET /questions/conversation/{id}", a.getConversationHandler)
	http.HandleFunc("DELETE /questions/conversation/{id}", a.clearConversationHandler)
	http.HandleFunc("POST /summaries/generate", a.generateSummaryHandler)
	http.HandleFunc("GET /health", healthHandler)
	http.HandleFunc("GET /{$}", rootHandler)

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}
	log.Printf("Server listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "videoAssistant API",
		"status":  "server is running",
		"version": "1.0.0",
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "server is running"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "write json error: %v", err)
	}
}
