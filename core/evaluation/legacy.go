package evaluation

import "github.com/Evenson-7/OJTManagement-sub000/core/scoring"

// LegacyTemplateID is the ID of the built-in five-domain template.
const LegacyTemplateID = "legacy-five-domain"

// LegacyTemplate is the fixed five-domain form. It is the only built-in template
// scored with section weights, since its sections have a fixed meaning.
func LegacyTemplate() Template {
	return Template{
		ID:            LegacyTemplateID,
		Title:         "OJT Performance Evaluation",
		ScaleID:       scoring.ScaleNumeric,
		ScoringMethod: scoring.MethodWeighted,
		Sections: []Section{
			{ID: "behavior", Title: "Behavior at Work", Weight: 0.25, Items: []Item{
				{ID: "punctuality", Text: "Reports to work on time and observes office hours"},
				{ID: "compliance", Text: "Follows company rules and policies"},
				{ID: "initiative", Text: "Works without being told and volunteers for tasks"},
			}},
			{ID: "academic", Title: "Academic Competence", Weight: 0.30, Items: []Item{
				{ID: "knowledge", Text: "Applies knowledge learned in school to assigned tasks"},
				{ID: "quality", Text: "Produces accurate and complete work"},
				{ID: "learning", Text: "Learns new tasks and tools quickly"},
			}},
			{ID: "social", Title: "Social Skills", Weight: 0.25, Items: []Item{
				{ID: "teamwork", Text: "Works well with co-workers"},
				{ID: "communication", Text: "Communicates clearly, orally and in writing"},
				{ID: "respect", Text: "Shows courtesy and respect to others"},
			}},
			{ID: "personality", Title: "Personality", Weight: 0.15, Items: []Item{
				{ID: "grooming", Text: "Observes proper grooming and attire"},
				{ID: "composure", Text: "Stays calm under pressure and accepts criticism"},
			}},
			{ID: "cost", Title: "Cost-Consciousness", Weight: 0.05, Items: []Item{
				{ID: "resources", Text: "Uses company supplies and equipment responsibly"},
			}},
		},
		Essays: []Essay{
			{ID: "strengths", Prompt: "What are the trainee's notable strengths?"},
			{ID: "improvements", Prompt: "What should the trainee improve on?"},
		},
	}
}
