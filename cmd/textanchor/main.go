package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/karrick/godirwalk"
	"github.com/reviewkit/textanchor/internal/ai"
	"github.com/reviewkit/textanchor/internal/config"
	"github.com/reviewkit/textanchor/internal/locate"
	"github.com/reviewkit/textanchor/pkg/models"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

type report struct {
	Located            []models.LocatedFinding `json:"located"`
	Summary            models.BatchSummary     `json:"summary"`
	DroppedSearchTexts []string                `json:"dropped_search_texts,omitempty"`
}

func main() {
	fs := pflag.NewFlagSet("textanchor", pflag.ExitOnError)

	cfg, err := config.Load("", fs)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	fs.Usage = cfg.Usage

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Invalid log level '%s': %v", cfg.LogLevel, err)
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	logger.Info().Str("provider", cfg.Provider).Str("log_level", cfg.LogLevel).Bool("model_fallback", cfg.UseModelFallback).Msg("starting textanchor")

	if cfg.Document == "" {
		log.Fatal("a document file is required (--document)")
	}
	docBytes, err := os.ReadFile(cfg.Document)
	if err != nil {
		log.Fatalf("Failed to read document: %v", err)
	}

	cands, err := collectFindings(cfg.Findings, cfg.FindingsDir)
	if err != nil {
		log.Fatalf("Failed to load findings: %v", err)
	}
	logger.Info().Int("candidates", len(cands)).Str("document", cfg.Document).Msg("loaded input")

	var client ai.Client
	if cfg.UseModelFallback {
		var clientConfig *ai.ClientConfig
		switch strings.ToLower(cfg.Provider) {
		case "openai":
			clientConfig = &ai.ClientConfig{
				APIKey:    cfg.APIKey,
				Model:     cfg.Model,
				ProjectID: cfg.ProjectID,
				Provider:  ai.ProviderOpenAI,
			}
		case "gemini", "google":
			clientConfig = &ai.ClientConfig{
				APIKey:    cfg.APIKey,
				Model:     cfg.Model,
				ProjectID: cfg.ProjectID,
				Location:  cfg.Location,
				Provider:  ai.ProviderGemini,
			}
		case "stub":
			clientConfig = &ai.ClientConfig{
				Provider: ai.ProviderStub,
			}
		default:
			log.Fatalf("unsupported provider: %s", cfg.Provider)
		}

		client, err = ai.NewClient(clientConfig)
		if err != nil {
			log.Fatalf("Failed to create locator client: %v", err)
		}
	}

	locator := locate.New(locate.Config{
		NormalizeQuotes:         cfg.NormalizeQuotes,
		AllowPartialMatch:       cfg.AllowPartialMatch,
		UseModelFallback:        cfg.UseModelFallback,
		IncludeModelExplanation: cfg.IncludeModelExplanation,
		ModelTimeout:            time.Duration(cfg.ModelTimeoutSeconds) * time.Second,
		ModelConcurrency:        cfg.ModelConcurrency,
		Workers:                 cfg.Workers,
	}, client, logger)

	res, err := locator.LocateAll(context.Background(), string(docBytes), cands)
	if err != nil {
		log.Fatalf("Resolution failed: %v", err)
	}

	out := report{
		Located:            res.Located,
		Summary:            res.Summary,
		DroppedSearchTexts: res.DroppedSearchTexts,
	}
	if err := writeReport(cfg.Output, out); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}
}

// collectFindings loads candidate findings from a single JSON file, a
// directory of JSON files, or both. A findings file holds a JSON array of
// candidates.
func collectFindings(file, dir string) ([]models.CandidateFinding, error) {
	var cands []models.CandidateFinding

	if file != "" {
		batch, err := loadFindings(file)
		if err != nil {
			return nil, err
		}
		cands = append(cands, batch...)
	}

	if dir != "" {
		err := godirwalk.Walk(dir, &godirwalk.Options{
			Callback: func(path string, de *godirwalk.Dirent) error {
				if de.IsDir() {
					return nil
				}
				if !strings.HasSuffix(path, ".json") {
					return nil
				}
				batch, err := loadFindings(path)
				if err != nil {
					return err
				}
				cands = append(cands, batch...)
				return nil
			},
		})
		if err != nil {
			return nil, err
		}
	}

	if len(cands) == 0 {
		return nil, fmt.Errorf("no candidate findings (use --findings or --findings-dir)")
	}
	return cands, nil
}

func loadFindings(path string) ([]models.CandidateFinding, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cands []models.CandidateFinding
	if err := json.Unmarshal(b, &cands); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cands, nil
}

func writeReport(path string, out report) error {
	w := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
