package cli

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/spf13/cobra"
	"kbrag/internal/domain"
	"kbrag/internal/usecase"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

var (
	promptQuery       string
	promptTopK        int
	promptWithSources bool
	promptNoQuestion  bool
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Render the grounded system prompt for a question",
	Long: `Retrieve the chunks closest to the question and render the system prompt a
chat model would receive, with the chunks as knowledge base context.

Examples:
  rag prompt -q "how do I contact sales"
  rag prompt -q "enterprise pricing" --sources`,
	Args: cobra.NoArgs,
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().StringVarP(&promptQuery, "query", "q", "", "question to answer (required)")
	promptCmd.Flags().IntVarP(&promptTopK, "top-k", "k", 0, "number of context chunks (default from config)")
	promptCmd.Flags().BoolVar(&promptWithSources, "sources", false, "append the source list with similarities")
	promptCmd.Flags().BoolVar(&promptNoQuestion, "no-question", false, "leave the question out of the prompt")
	promptCmd.MarkFlagRequired("query")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	st, err := buildStack(cfg, GetRootDir(), logger)
	if err != nil {
		return err
	}
	defer st.Close()

	uc, _ := st.retriever(cfg)

	topK := cfg.Retrieve.TopK
	if promptTopK > 0 {
		topK = promptTopK
	}

	results, err := initializeAndRetrieve(cmd.Context(), st, uc, promptQuery, topK)
	if err != nil {
		return err
	}

	data := PromptData{Context: usecase.BuildContext(results)}
	if !promptNoQuestion {
		data.Question = promptQuery
	}
	if promptWithSources {
		data.Sources = usecase.Sources(results)
	}

	rendered, err := renderPrompt("templates/system_prompt.txt", data)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return nil
}

type PromptData struct {
	Context  string
	Question string
	Sources  []domain.Source
}

func renderPrompt(name string, data PromptData) (string, error) {
	tmplContent, err := promptTemplates.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("template not found: %w", err)
	}

	tmpl, err := template.New("prompt").Funcs(templateFuncs()).Parse(string(tmplContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatSources": func(sources []domain.Source) string {
			var sb strings.Builder
			for i, s := range sources {
				if i > 0 {
					sb.WriteString("\n")
				}
				sb.WriteString(fmt.Sprintf("[%d] %s (similarity: %.3f)", i+1, s.Metadata.Title, s.Similarity))
			}
			return sb.String()
		},
	}
}
