package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"chunk-gate/internal/adapter/augur"
	"chunk-gate/internal/adapter/openaix"
	"chunk-gate/internal/domain"
	"chunk-gate/internal/infra/config"
	"chunk-gate/internal/usecase"
)

var (
	version = "dev"

	// Global flags
	verbose bool

	// Filter command flags
	inputFile     string
	query         string
	minScore      float64
	maxChunks     int
	preserveOrder bool
	batchSize     int
	noReflection  bool
	noCritic      bool
	offline       bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "gate-cli",
	Short:   "Assess and filter RAG chunks through the quality gate",
	Version: version,
}

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter a JSON file of chunks against a query",
	Long: `Filter reads a JSON array of chunks, runs the three-stage quality
assessment on each, and prints the chunks that pass.

The input file holds objects with "id", "content", and an optional flat
"metadata" object.

Examples:
  # Filter against a query with defaults
  gate-cli filter --input chunks.json --query "machine learning"

  # Keep only the 5 best chunks, in original document order
  gate-cli filter --input chunks.json --query "vector search" --max-chunks 5 --preserve-order

  # Heuristics only, no model calls
  gate-cli filter --input chunks.json --query "indexing" --offline`,
	RunE: runFilter,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	filterCmd.Flags().StringVarP(&inputFile, "input", "i", "", "path to JSON chunk file (required)")
	filterCmd.Flags().StringVarP(&query, "query", "q", "", "query to score relevance against")
	filterCmd.Flags().Float64Var(&minScore, "min-score", usecase.DefaultMinRelevanceScore, "combined-score pass threshold")
	filterCmd.Flags().IntVar(&maxChunks, "max-chunks", 0, "cap on passing chunks (0 = unlimited)")
	filterCmd.Flags().BoolVar(&preserveOrder, "preserve-order", false, "sort results by metadata index instead of score")
	filterCmd.Flags().IntVar(&batchSize, "batch-size", usecase.DefaultBatchSize, "chunks assessed concurrently per batch")
	filterCmd.Flags().BoolVar(&noReflection, "no-reflection", false, "disable the self-reflection stage")
	filterCmd.Flags().BoolVar(&noCritic, "no-critic", false, "disable the critic validation stage")
	filterCmd.Flags().BoolVar(&offline, "offline", false, "skip model calls, heuristics only")
	_ = filterCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(filterCmd)
}

type chunkFileEntry struct {
	ID       string                     `json:"id"`
	Content  string                     `json:"content"`
	Metadata map[string]json.RawMessage `json:"metadata,omitempty"`
}

func runFilter(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()
	cfg := config.Load()

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	chunks, err := loadChunks(inputFile)
	if err != nil {
		return err
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	opts := usecase.DefaultFilterOptions()
	opts.MinRelevanceScore = minScore
	opts.MaxChunks = maxChunks
	opts.PreserveOrder = preserveOrder
	opts.BatchSize = batchSize
	opts.UseSelfReflection = !noReflection
	opts.UseCriticValidation = !noCritic

	assessUsecase := usecase.NewAssessChunkUsecase(provider, log)
	filterUsecase := usecase.NewFilterChunksUsecase(assessUsecase, log)

	results, err := filterUsecase.Execute(cmd.Context(), chunks, query, opts)
	if err != nil {
		return fmt.Errorf("filtering failed: %w", err)
	}

	printResults(cmd.OutOrStdout(), results, len(chunks))
	return nil
}

func loadChunks(path string) ([]domain.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var entries []chunkFileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	chunks := make([]domain.Chunk, 0, len(entries))
	for _, e := range entries {
		chunk := domain.Chunk{ID: e.ID, Content: e.Content}
		if len(e.Metadata) > 0 {
			chunk.Metadata = make(map[string]domain.MetaValue, len(e.Metadata))
			for key, raw := range e.Metadata {
				if value, ok := parseMetaValue(raw); ok {
					chunk.Metadata[key] = value
				}
			}
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func parseMetaValue(raw json.RawMessage) (domain.MetaValue, bool) {
	var asInt int64
	if err := json.Unmarshal(raw, &asInt); err == nil {
		return domain.MetaInt(asInt), true
	}
	var asFloat float64
	if err := json.Unmarshal(raw, &asFloat); err == nil {
		return domain.MetaFloat(asFloat), true
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if ts, terr := time.Parse(time.RFC3339, asString); terr == nil {
			return domain.MetaTime(ts), true
		}
		return domain.MetaString(asString), true
	}
	return domain.MetaValue{}, false
}

func buildProvider(cfg *config.Config) (domain.CompletionProvider, error) {
	if offline {
		return nil, nil
	}
	switch cfg.Provider {
	case "ollama":
		return augur.NewCompletionClient(
			cfg.OllamaURL,
			cfg.OllamaModel,
			time.Duration(cfg.OllamaTimeout)*time.Second,
			cfg.OllamaRPS,
		), nil
	case "openai":
		return openaix.NewCompletionClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.Provider)
	}
}

func printResults(w io.Writer, results []domain.FilteredChunk, total int) {
	fmt.Fprintf(w, "%-12s %-9s %-9s %-9s %s\n", "CHUNK", "RELEVANCE", "QUALITY", "COMBINED", "REASON")
	for _, r := range results {
		fmt.Fprintf(w, "%-12s %-9.2f %-9.2f %-9.2f %s\n",
			r.Chunk.ID, r.RelevanceScore, r.QualityScore, r.CombinedScore, r.Reason)
	}
	fmt.Fprintf(w, "\n%d of %d chunks passed\n", len(results), total)
}
