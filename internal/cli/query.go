package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"kbrag/internal/domain"
	"kbrag/internal/usecase"
)

var (
	queryText        string
	queryTopK        int
	queryJSON        bool
	queryContext     bool
	queryInteractive bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Find the document chunks closest to a question",
	Long: `Embed the question and rank every cached chunk by cosine similarity.
Documents are embedded first if the cache is missing or stale.

Examples:
  rag query -q "what does the starter plan include"
  rag query -q "support hours" -k 5 --json
  rag query -q "api rate limits" --context
  rag query --interactive`,
	Args: cobra.NoArgs,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "question to search for")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output sources as JSON")
	queryCmd.Flags().BoolVar(&queryContext, "context", false, "output the rendered prompt context")
	queryCmd.Flags().BoolVarP(&queryInteractive, "interactive", "i", false, "read questions from stdin, one per line")
}

func runQuery(cmd *cobra.Command, args []string) error {
	if !queryInteractive && strings.TrimSpace(queryText) == "" {
		return fmt.Errorf("a query is required: use -q or --interactive")
	}
	if queryJSON && queryContext {
		return fmt.Errorf("cannot specify both --json and --context")
	}

	cfg := GetConfig()

	st, err := buildStack(cfg, GetRootDir(), logger)
	if err != nil {
		return err
	}
	defer st.Close()

	uc, qc := st.retriever(cfg)

	topK := cfg.Retrieve.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	if !queryInteractive {
		results, err := initializeAndRetrieve(cmd.Context(), st, uc, queryText, topK)
		if err != nil {
			return err
		}
		return printResults(cmd.OutOrStdout(), queryText, results)
	}

	if _, err := st.store.Initialize(cmd.Context()); err != nil {
		return fmt.Errorf("failed to initialize vector store: %w", err)
	}

	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case "exit", "quit":
			return nil
		default:
			results, err := uc.Retrieve(cmd.Context(), line, topK)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
			} else if err := printResults(out, line, results); err != nil {
				return err
			}
		}
		fmt.Fprint(out, "> ")
	}

	hits, misses := qc.Stats()
	logger.Debug().Uint64("hits", hits).Uint64("misses", misses).Msg("Query embedding cache")
	return scanner.Err()
}

func printResults(out io.Writer, query string, results []domain.ScoredChunk) error {
	if queryJSON {
		data, err := json.MarshalIndent(usecase.Sources(results), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if queryContext {
		fmt.Fprintln(out, usecase.BuildContext(results))
		return nil
	}

	if len(results) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}

	fmt.Fprintf(out, "Found %d results for: %s\n\n", len(results), query)
	for i, r := range results {
		fmt.Fprintf(out, "--- [%d] %s #%d (similarity: %.3f) ---\n", i+1, r.Chunk.Metadata.Title, r.Chunk.Metadata.ChunkIndex, r.Similarity)
		// Truncate long text for display
		text := r.Chunk.Content
		if len(text) > 500 {
			text = text[:500] + "..."
		}
		fmt.Fprintln(out, text)
		fmt.Fprintln(out)
	}
	return nil
}
