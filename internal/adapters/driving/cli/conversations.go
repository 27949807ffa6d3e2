package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/domain"
)

var (
	conversationsLimit int
	conversationsJSON  bool
	findLimit          int
)

var conversationsCmd = &cobra.Command{
	Use:   "conversations",
	Short: "List, show, and locate stored conversations",
}

var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored conversations",
	Args:  cobra.NoArgs,
	RunE:  runConversationsList,
}

var conversationsShowCmd = &cobra.Command{
	Use:   "show [conversation-id]",
	Short: "Reconstruct a full conversation from its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsShow,
}

var conversationsFindCmd = &cobra.Command{
	Use:   "find [query]",
	Short: "Find the conversations most relevant to a query",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsFind,
}

func init() {
	conversationsListCmd.Flags().IntVarP(&conversationsLimit, "limit", "n", 0, "maximum conversations to list (0 = all)")
	conversationsListCmd.Flags().BoolVar(&conversationsJSON, "json", false, "output as JSON")
	conversationsShowCmd.Flags().BoolVar(&conversationsJSON, "json", false, "output as JSON")
	conversationsFindCmd.Flags().IntVarP(&findLimit, "limit", "n", 10, "maximum conversations to return")
	conversationsFindCmd.Flags().BoolVar(&conversationsJSON, "json", false, "output as JSON")

	conversationsCmd.AddCommand(conversationsListCmd)
	conversationsCmd.AddCommand(conversationsShowCmd)
	conversationsCmd.AddCommand(conversationsFindCmd)
	rootCmd.AddCommand(conversationsCmd)
}

func runConversationsList(cmd *cobra.Command, _ []string) error {
	if reconstructService == nil {
		return errors.New("reconstruct service not configured")
	}

	summaries, err := reconstructService.List(cmd.Context(), conversationsLimit)
	if err != nil {
		return fmt.Errorf("listing conversations failed: %w", err)
	}

	if conversationsJSON {
		return outputJSON(cmd, summaries)
	}
	return outputSummaries(cmd, summaries, false)
}

func runConversationsShow(cmd *cobra.Command, args []string) error {
	if reconstructService == nil {
		return errors.New("reconstruct service not configured")
	}

	conv, err := reconstructService.Reconstruct(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("conversation %s not found", args[0])
		}
		return fmt.Errorf("reconstruction failed: %w", err)
	}

	if conversationsJSON {
		return outputJSON(cmd, conv)
	}

	header := color.New(color.FgCyan, color.Bold).SprintFunc()
	sender := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	title := conv.Title
	if title == "" {
		title = conv.ConversationID
	}
	cmd.Println(header(title))
	cmd.Printf("%s\n\n", dim(fmt.Sprintf("%d messages (%d human, %d assistant), %d chunks, categories: %s",
		len(conv.Messages), conv.HumanMessages, conv.AssistantMessages,
		conv.TotalChunks, joinCategories(conv.Categories))))

	for _, m := range conv.Messages {
		when := ""
		if !m.CreatedAt.IsZero() {
			when = dim(" " + m.CreatedAt.Format("2006-01-02 15:04"))
		}
		cmd.Printf("%s%s\n%s\n\n", sender(m.Sender+":"), when, m.Content)
	}
	return nil
}

func runConversationsFind(cmd *cobra.Command, args []string) error {
	if reconstructService == nil {
		return errors.New("reconstruct service not configured")
	}

	summaries, err := reconstructService.Find(cmd.Context(), args[0], findLimit)
	if err != nil {
		return fmt.Errorf("find failed: %w", err)
	}

	if conversationsJSON {
		return outputJSON(cmd, summaries)
	}
	return outputSummaries(cmd, summaries, true)
}

func outputSummaries(cmd *cobra.Command, summaries []domain.ConversationSummary, withScore bool) error {
	if len(summaries) == 0 {
		cmd.Println("No conversations found.")
		return nil
	}

	dim := color.New(color.Faint).SprintFunc()
	for _, s := range summaries {
		title := s.Title
		if title == "" {
			title = s.ConversationID
		}
		detail := fmt.Sprintf("%d chunks", s.ChunkCount)
		if withScore {
			detail = fmt.Sprintf("relevance %.3f, %s", s.RelevanceScore, detail)
		}
		if len(s.Categories) > 0 {
			detail += ", " + joinCategories(s.Categories)
		}
		cmd.Printf("%s  %s\n    %s\n", title, dim("["+s.ConversationID+"]"), dim(detail))
	}
	return nil
}

func joinCategories(cats []domain.Category) string {
	if len(cats) == 0 {
		return "none"
	}
	parts := make([]string, len(cats))
	for i, c := range cats {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}
