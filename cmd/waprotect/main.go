package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/dennismutuku2005/WaProtect/pkg/ai"
	"github.com/dennismutuku2005/WaProtect/pkg/commands"
	"github.com/dennismutuku2005/WaProtect/pkg/config"
	"github.com/dennismutuku2005/WaProtect/pkg/patterns"
	"github.com/dennismutuku2005/WaProtect/pkg/pipeline"
	"github.com/dennismutuku2005/WaProtect/pkg/spam"
	"github.com/dennismutuku2005/WaProtect/pkg/stats"
)

const Version = "1.0.0"

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		return
	}

	switch args[0] {
	case "serve":
		port := ""
		if len(args) > 1 {
			port = args[1]
		}
		runHTTPServer(port)
	case "scan":
		if len(args) < 2 {
			fmt.Println("Usage: waprotect scan <text>")
			os.Exit(1)
		}
		runScan(args[1])
	case "version":
		fmt.Println("WaProtect", Version)
	default:
		printUsage()
	}
}

func printUsage() {
	fmt.Println("WaProtect - group chat scam protection")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  waprotect serve [port]   Start HTTP server (default: 3000)")
	fmt.Println("  waprotect scan <text>    Run the local analyzer on text")
	fmt.Println("  waprotect version        Show version")
	fmt.Println("")
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY                 API key for the AI review tier")
	fmt.Println("  WAPROTECT_POLICY_FILE          YAML detection policy overrides")
	fmt.Println("  WAPROTECT_REDIS_URL            Redis URL for action counters")
	fmt.Println("  WAPROTECT_CLASSIFIER_TIMEOUT_MS  Classifier deadline (default 15000)")
}

// runScan evaluates one message on the command line, the same diagnostic path
// as the operator's "test local" command.
func runScan(text string) {
	scorer := spam.NewScorer(nil)
	a := scorer.Evaluate(text)
	out, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(out))
	fmt.Printf("\nEscalate to AI review: %v\n", spam.ShouldEscalate(a))
}

func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, *stats.Counters, *patterns.Registry) {
	catalog := patterns.New(cfg.Policy)
	scorer := spam.NewScorer(catalog)
	counters := stats.NewCounters()

	classifierOpts := []ai.Option{ai.WithTimeout(cfg.ClassifierTimeout)}
	if cfg.GeminiBaseURL != "" {
		classifierOpts = append(classifierOpts, ai.WithBaseURL(cfg.GeminiBaseURL))
	}
	classifier := ai.NewClassifier(cfg.GeminiAPIKey, cfg.GeminiModel, classifierOpts...)
	if classifier.Enabled() {
		log.Printf("✓ AI review enabled (model: %s)", cfg.GeminiModel)
	} else {
		log.Println("○ AI review disabled (no API key); local analysis decides everything")
	}

	return pipeline.New(scorer, classifier, cfg.ClassifierConcurrency, counters, nil), counters, catalog
}

func runHTTPServer(portArg string) {
	cfg, err := config.NewDefaultConfig()
	if err != nil {
		log.Fatalf("[STARTUP] FATAL: %v", err)
	}
	port := cfg.Port
	if portArg != "" {
		port = portArg
	}

	pipe, counters, registry := buildPipeline(cfg)
	handler := commands.NewHandler(pipe, nil)
	startedAt := time.Now().UTC()

	var actions stats.CountStore
	if cfg.RedisURL != "" {
		store, err := stats.NewRedisCountStore(cfg.RedisURL)
		if err != nil {
			log.Printf("[WARN] redis unavailable (%v), using in-memory action counters", err)
			actions = stats.NewMemCountStore()
		} else {
			log.Println("✓ Redis action counters enabled")
			actions = store
		}
	} else {
		actions = stats.NewMemCountStore()
	}

	app := fiber.New(fiber.Config{
		AppName: "WaProtect",
	})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": Version})
	})

	app.Get("/status", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"connected":      true,
			"timestamp":      time.Now().UTC().Format(time.RFC3339),
			"startedAt":      startedAt.Format(time.RFC3339),
			"catalogVersion": registry.Version(),
			"rules":          registry.TotalRules(),
		})
	})

	app.Get("/stats", func(c fiber.Ctx) error {
		return c.JSON(counters.Get())
	})

	app.Post("/stats/reset", func(c fiber.Ctx) error {
		counters.Reset()
		return c.JSON(fiber.Map{"status": "reset"})
	})

	app.Get("/groups", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"groups": []any{}, "note": "no platform adapter connected"})
	})

	// Enforcement history for one group or sender, from the action counters.
	app.Get("/history/:kind/:action/:id", func(c fiber.Ctx) error {
		kind := c.Params("kind") // "group" or "sender"
		if kind != "group" && kind != "sender" {
			return c.Status(400).JSON(fiber.Map{"error": "kind must be group or sender"})
		}
		period := c.Query("period", stats.PeriodDay)
		n, err := actions.GetCount(c.Context(), kind+"/"+c.Params("action"), c.Params("id"), period)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"count": n, "period": period})
	})

	// Diagnostic scan: the same scoring path live messages take.
	app.Post("/scan", func(c fiber.Ctx) error {
		var req struct {
			Text string `json:"text"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.Text == "" {
			return c.Status(400).JSON(fiber.Map{"error": "text field is required"})
		}
		a := pipe.Evaluate(req.Text)
		return c.JSON(fiber.Map{
			"analysis": a,
			"escalate": spam.ShouldEscalate(a),
		})
	})

	// Operator command surface for integrations without a chat channel.
	app.Post("/command", func(c fiber.Ctx) error {
		var req struct {
			Text string `json:"text"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		return c.JSON(fiber.Map{"reply": handler.Handle(c.Context(), req.Text)})
	})

	log.Printf("[STARTUP] WaProtect %s listening on :%s (%d rules, catalog %s)",
		Version, port, registry.TotalRules(), registry.Version())

	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}
