// Package categorizer assigns content categories to chunk text using
// weighted keyword matching. Classification is deterministic: the same text
// always yields the same category.
package categorizer

import (
	"strings"

	"github.com/triepod-ai/claude-ai-conversation-analyzer/internal/core/domain"
)

// phraseBonus is the extra weight a multi-word phrase match earns on top of
// its base hit. Phrases are stronger signals than single keywords.
const phraseBonus = 2

// keywords maps each category to the terms that vote for it. Matching is
// case-insensitive substring containment.
var keywords = map[domain.Category][]string{
	domain.CategoryLegalCompliance: {
		"ada", "compliance", "violation", "formal notice", "legal",
		"lawsuit", "discrimination", "pip", "performance improvement",
		"employment", "accommodation", "disability", "notice",
		"regulation", "fsrao", "ifrs", "audit", "regulatory",
	},
	domain.CategoryBusinessAnalysis: {
		"requirements", "business", "analysis", "specification",
		"process", "workflow", "stakeholder", "client", "documentation",
		"fintech", "ccm", "integration", "sow", "statement of work",
		"estimate", "proposal", "architecture",
	},
	domain.CategoryTechnicalDevelopment: {
		"code", "api", "database", "sql", "python", "script",
		"development", "programming", "vba", "automation", "etl",
		"oracle", "integration", "technical", "devops", "deployment",
		"migration", "data model", "ingestion", "flat file",
	},
	domain.CategoryDataAnalytics: {
		"data", "analytics", "reporting", "cube", "warehouse", "bi",
		"business intelligence", "metrics", "analysis", "query",
		"table", "column", "entity", "ifrs", "central 1", "loan data",
		"summarization",
	},
	domain.CategoryCommunication: {
		"email", "letter", "correspondence", "communication", "reply",
		"response", "meeting", "discussion", "chat", "conversation",
		"ticket", "update", "client communication",
	},
	domain.CategoryResearchStrategy: {
		"research", "strategy", "analysis", "investigation",
		"assessment", "evaluation", "planning", "approach",
		"methodology", "study", "learning arc",
	},
	domain.CategoryProjectManagement: {
		"project", "management", "timeline", "milestone", "task",
		"deliverable", "handoff", "planning", "coordination",
		"tracking", "estimate", "hours", "ticket", "status", "workflow",
	},
	domain.CategoryAIAssistance: {
		"claude", "ai", "assistant", "prompt", "structured",
		"magic approach", "help me", "organize", "draft", "generate",
		"analysis",
	},
}

// Categorize classifies text on its own, without conversation context.
func Categorize(text string) domain.Category {
	return CategorizeWithContext(text, "")
}

// CategorizeWithContext classifies text together with its conversation
// name. The name often carries the strongest topical signal, so it votes
// alongside the body. Ties resolve to the earliest category in declaration
// order; no keyword hits at all yield the general category.
func CategorizeWithContext(text, conversationName string) domain.Category {
	combined := strings.ToLower(conversationName + " " + text)

	best := domain.CategoryGeneral
	bestScore := 0

	for _, cat := range domain.Categories {
		terms, ok := keywords[cat]
		if !ok {
			continue
		}

		score := 0
		for _, term := range terms {
			if !strings.Contains(combined, term) {
				continue
			}
			score++
			if strings.Contains(term, " ") {
				score += phraseBonus
			}
		}

		if score > bestScore {
			best = cat
			bestScore = score
		}
	}

	return best
}
