// Command ingest loads writing prompts into the topic bank and optionally
// indexes exemplar essays into the vector store.
//
//	ingest -pdf past-paper.pdf -level cet6
//	ingest -json topics.json
//	ingest -exemplars exemplars.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"

	"github.com/cmx-713/adaptive-english-writing/internal/config"
	"github.com/cmx-713/adaptive-english-writing/internal/database"
	"github.com/cmx-713/adaptive-english-writing/internal/models"
	"github.com/cmx-713/adaptive-english-writing/internal/repository"
	"github.com/cmx-713/adaptive-english-writing/internal/service"
	"github.com/cmx-713/adaptive-english-writing/pkg/llm"
)

func main() {
	pdfPath := flag.String("pdf", "", "past-paper PDF to mine for writing prompts")
	jsonPath := flag.String("json", "", "JSON file with topics to import")
	level := flag.String("level", models.LevelCET4, "exam band for imported topics (cet4 or cet6)")
	exemplarPath := flag.String("exemplars", "", "JSON file with model essays to index")
	flag.Parse()

	if *pdfPath == "" && *jsonPath == "" && *exemplarPath == "" {
		fmt.Fprintln(os.Stderr, "nothing to do: pass -pdf, -json or -exemplars")
		flag.Usage()
		os.Exit(2)
	}

	if !models.ValidLevel(*level) {
		log.Fatalf("unsupported level %q, want %s or %s", *level, models.LevelCET4, models.LevelCET6)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := context.Background()

	var batch []models.Topic

	if *pdfPath != "" {
		topics, err := topicsFromPDF(*pdfPath, *level)
		if err != nil {
			log.Fatalf("pdf import failed: %v", err)
		}
		logger.Info().Int("count", len(topics)).Str("file", *pdfPath).Msg("prompts extracted from paper")
		batch = append(batch, topics...)
	}

	if *jsonPath != "" {
		topics, err := topicsFromJSON(*jsonPath, *level)
		if err != nil {
			log.Fatalf("json import failed: %v", err)
		}
		batch = append(batch, topics...)
	}

	if len(batch) > 0 {
		db, err := database.ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}

		if err := db.AutoMigrate(&models.Topic{}); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}

		batch = dedupeByTitle(batch)
		if err := repository.NewTopicRepository(db).UpsertBatch(ctx, batch); err != nil {
			log.Fatalf("failed to upsert topics: %v", err)
		}
		logger.Info().Int("count", len(batch)).Msg("topic bank updated")
	}

	if *exemplarPath != "" {
		if err := indexExemplars(ctx, cfg, logger, *exemplarPath); err != nil {
			log.Fatalf("exemplar indexing failed: %v", err)
		}
	}
}

var (
	directionsRe = regexp.MustCompile(`(?i)directions\s*:`)
	partRe       = regexp.MustCompile(`Part\s+[IVX]+`)
	quotedRe     = regexp.MustCompile(`"([^"]{3,80})"|“([^”]{3,80})”`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// topicsFromPDF extracts the writing tasks from a past paper. Every part of a
// CET paper opens with a Directions paragraph; only the writing one tells the
// candidate to write, so the rest are filtered out.
func topicsFromPDF(path, level string) ([]models.Topic, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	var text strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		text.WriteString(content)
		text.WriteString("\n")
	}

	prompts := extractPrompts(text.String())
	if len(prompts) == 0 {
		return nil, fmt.Errorf("no writing directions found in %s", path)
	}

	source := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	topics := make([]models.Topic, 0, len(prompts))
	for _, prompt := range prompts {
		topics = append(topics, models.Topic{
			Title:  titleFromPrompt(prompt),
			Prompt: prompt,
			Level:  level,
			Source: source,
		})
	}

	return topics, nil
}

func extractPrompts(text string) []string {
	locs := directionsRe.FindAllStringIndex(text, -1)

	prompts := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}

		block := text[loc[1]:end]
		if stop := partRe.FindStringIndex(block); stop != nil {
			block = block[:stop[0]]
		}

		prompt := strings.TrimSpace(spaceRe.ReplaceAllString(block, " "))
		if len(prompt) < 40 || !strings.Contains(strings.ToLower(prompt), "write") {
			continue
		}

		prompts = append(prompts, prompt)
	}

	return prompts
}

// titleFromPrompt prefers the quoted essay title from the directions; papers
// without one fall back to the opening words.
func titleFromPrompt(prompt string) string {
	if m := quotedRe.FindStringSubmatch(prompt); m != nil {
		for _, group := range m[1:] {
			if group != "" {
				return strings.TrimSpace(group)
			}
		}
	}

	words := strings.Fields(prompt)
	if len(words) > 8 {
		words = words[:8]
	}

	return strings.Join(words, " ")
}

func topicsFromJSON(path, level string) ([]models.Topic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var topics []models.Topic
	if err := json.Unmarshal(data, &topics); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for i := range topics {
		topics[i].ID = 0
		if topics[i].Level == "" {
			topics[i].Level = level
		}
		if topics[i].Source == "" {
			topics[i].Source = filepath.Base(path)
		}

		if topics[i].Title == "" || topics[i].Prompt == "" {
			return nil, fmt.Errorf("topic %d is missing a title or prompt", i)
		}
		if !models.ValidLevel(topics[i].Level) {
			return nil, fmt.Errorf("topic %q has unsupported level %q", topics[i].Title, topics[i].Level)
		}
	}

	return topics, nil
}

// dedupeByTitle keeps the first topic per title. Postgres rejects ON CONFLICT
// updates that touch the same row twice in one statement.
func dedupeByTitle(topics []models.Topic) []models.Topic {
	seen := make(map[string]struct{}, len(topics))
	out := topics[:0]
	for _, topic := range topics {
		if _, ok := seen[topic.Title]; ok {
			continue
		}
		seen[topic.Title] = struct{}{}
		out = append(out, topic)
	}

	return out
}

func indexExemplars(ctx context.Context, cfg config.Config, logger zerolog.Logger, path string) error {
	if cfg.QdrantHost == "" {
		return fmt.Errorf("qdrant host must be configured to index exemplars")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var exemplars []service.Exemplar
	if err := json.Unmarshal(data, &exemplars); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	client, err := llm.New(llm.Config{
		Provider:    llm.Provider(cfg.LLMProvider),
		APIKey:      cfg.LLMAPIKey,
		BaseURL:     cfg.LLMBaseURL,
		Model:       cfg.LLMModel,
		EmbedModel:  cfg.LLMEmbedModel,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: float32(cfg.LLMTemperature),
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create llm client: %w", err)
	}

	store, err := service.NewExemplarService(service.ExemplarConfig{
		Host:       cfg.QdrantHost,
		Port:       cfg.QdrantPort,
		APIKey:     cfg.QdrantAPIKey,
		UseTLS:     cfg.QdrantUseTLS,
		Collection: cfg.QdrantCollection,
	}, client, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	if err := store.EnsureCollection(ctx); err != nil {
		return err
	}

	for i, exemplar := range exemplars {
		if exemplar.Text == "" {
			return fmt.Errorf("exemplar %d has no text", i)
		}
		if exemplar.Level != "" && !models.ValidLevel(exemplar.Level) {
			return fmt.Errorf("exemplar %d has unsupported level %q", i, exemplar.Level)
		}

		if err := store.Index(ctx, exemplar); err != nil {
			return fmt.Errorf("failed to index exemplar %d: %w", i, err)
		}
	}

	logger.Info().Int("count", len(exemplars)).Str("collection", cfg.QdrantCollection).Msg("exemplars indexed")
	return nil
}
