package domain

// Category labels chunk content. The set is closed; CategoryGeneral is the
// sentinel when no keyword matches.
type Category string

const (
	CategoryLegalCompliance      Category = "legal_compliance"
	CategoryBusinessAnalysis     Category = "business_analysis"
	CategoryTechnicalDevelopment Category = "technical_development"
	CategoryDataAnalytics        Category = "data_analytics"
	CategoryCommunication        Category = "communication"
	CategoryResearchStrategy     Category = "research_strategy"
	CategoryProjectManagement    Category = "project_management"
	CategoryAIAssistance         Category = "ai_assistance"
	CategoryGeneral              Category = "general"
)

// Categories lists every category in priority order. The order is the
// tie-break for keyword scoring: when two categories score equally, the
// first declared wins.
var Categories = []Category{
	CategoryLegalCompliance,
	CategoryBusinessAnalysis,
	CategoryTechnicalDevelopment,
	CategoryDataAnalytics,
	CategoryCommunication,
	CategoryResearchStrategy,
	CategoryProjectManagement,
	CategoryAIAssistance,
	CategoryGeneral,
}

// ValidCategory reports whether s names a known category.
func ValidCategory(s string) bool {
	for _, c := range Categories {
		if string(c) == s {
			return true
		}
	}
	return false
}
