package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"kbrag/internal/port"
	"kbrag/internal/usecase"
)

var indexNoProgress bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed new or changed documents and refresh the cache",
	Long: `Load every document under documents.dir, reuse cached embeddings for files
that have not changed since they were cached, embed the rest and write the
cache back.

Examples:
  rag index                 # Use ./rag.yaml
  rag index -d /srv/kb      # Knowledge base rooted elsewhere`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&indexNoProgress, "no-progress", false, "disable the progress bar")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	root := GetRootDir()

	log := logger
	var observers []port.Observer
	if !indexNoProgress {
		observers = append(observers, newProgressObserver(cmd.ErrOrStderr()))
		// Per-document log lines would tear the progress bar.
		log = logger.Level(maxLevel(logger.GetLevel(), zerolog.WarnLevel))
	}

	st, err := buildStack(cfg, root, log, observers...)
	if err != nil {
		return err
	}
	defer st.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "Scanning %s...\n", cfg.DocumentsDir(root))

	result, err := st.store.Initialize(cmd.Context())
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	printInitResult(cmd, result, st)
	return nil
}

func printInitResult(cmd *cobra.Command, result *usecase.InitResult, st *stack) {
	out := cmd.OutOrStdout()
	snap := st.stats.Snapshot()

	fmt.Fprintf(out, "\nIndexing complete:\n")
	fmt.Fprintf(out, "  Documents cached:   %d (unchanged)\n", result.DocumentsCached)
	fmt.Fprintf(out, "  Documents embedded: %d\n", result.DocumentsEmbedded)
	fmt.Fprintf(out, "  Chunks embedded:    %d\n", result.ChunksEmbedded)
	fmt.Fprintf(out, "  Total chunks:       %d\n", result.TotalChunks)
	if result.EntriesPruned > 0 {
		fmt.Fprintf(out, "  Entries pruned:     %d (removed documents)\n", result.EntriesPruned)
	}
	if snap.ChunksEmbedded > 0 {
		fmt.Fprintf(out, "  Mean latency:       %s\n", formatDuration(snap.MeanLatency()))
	}
	fmt.Fprintf(out, "  Duration:           %s\n", formatDuration(result.Duration))

	if result.ChunksFailed > 0 {
		fmt.Fprintf(out, "\nWarnings:\n")
		fmt.Fprintf(out, "  - %d chunks failed to embed across %d documents\n", result.ChunksFailed, result.DocumentsPartial)
		if GetConfig().Cache.PartialDocuments == string(usecase.PartialSkip) {
			fmt.Fprintf(out, "  - incomplete documents were not cached and will be retried next run\n")
		}
	}

	if result.CacheSaved && st.cache.Path() != "" {
		fmt.Fprintf(out, "\nCache stored at: %s\n", st.cache.Path())
	}
}

func maxLevel(a, b zerolog.Level) zerolog.Level {
	if a > b {
		return a
	}
	return b
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
