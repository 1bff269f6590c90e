package cli

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the embedding cache",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show cached documents, chunk counts and vector dimensions",
	Args:  cobra.NoArgs,
	RunE:  runCacheInfo,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached embedding so the next run embeds from scratch",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheInfo(cmd *cobra.Command, args []string) error {
	backend, err := openCache(GetConfig(), GetRootDir())
	if err != nil {
		return err
	}
	if c, ok := backend.(io.Closer); ok {
		defer c.Close()
	}

	cache, err := backend.Load()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if backend.Path() != "" {
		fmt.Fprintf(out, "Cache: %s (%s)\n", backend.Path(), GetConfig().Cache.Backend)
	} else {
		fmt.Fprintf(out, "Cache: disabled\n")
	}

	if len(cache) == 0 {
		fmt.Fprintln(out, "No cached documents.")
		return nil
	}

	paths := make([]string, 0, len(cache))
	for path := range cache {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	total := 0
	fmt.Fprintln(out)
	for _, path := range paths {
		entry := cache[path]
		dim := 0
		if len(entry.EmbeddedChunks) > 0 {
			dim = len(entry.EmbeddedChunks[0].Embedding)
		}
		total += len(entry.EmbeddedChunks)
		fmt.Fprintf(out, "  %s\n    chunks: %d  dimension: %d  modified: %s\n",
			path, len(entry.EmbeddedChunks), dim, entry.LastModified.Format(time.RFC3339))
	}
	fmt.Fprintf(out, "\n%d documents, %d chunks\n", len(cache), total)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	backend, err := openCache(GetConfig(), GetRootDir())
	if err != nil {
		return err
	}
	if c, ok := backend.(io.Closer); ok {
		defer c.Close()
	}

	if err := backend.Clear(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared embedding cache %s\n", backend.Path())
	return nil
}
