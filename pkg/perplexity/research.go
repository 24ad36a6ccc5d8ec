package perplexity

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-scout/internal/model"
)

// StructuredLead is one lead returned by Research.
type StructuredLead struct {
	URL            string              `json:"url"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Contacts       model.ContactBundle `json:"contacts"`
	RelevanceScore float64             `json:"relevanceScore"`
	Tags           []string            `json:"tags"`
}

// Score returns the relevance score clamped to 0-100.
func (l StructuredLead) Score() int {
	return int(math.Round(math.Max(0, math.Min(100, l.RelevanceScore))))
}

// EnrichResult is the company profile returned by Enrich.
type EnrichResult struct {
	CompanyInfo        string              `json:"companyInfo"`
	Industry           string              `json:"industry"`
	Size               string              `json:"size"`
	Funding            string              `json:"funding"`
	TechStack          []string            `json:"techStack"`
	KeyPeople          []model.KeyPerson   `json:"keyPeople"`
	AdditionalContacts model.ContactBundle `json:"additionalContacts"`
}

// Enrichment converts the result to the lead's stored enrichment.
func (r *EnrichResult) Enrichment() *model.Enrichment {
	return &model.Enrichment{
		CompanyInfo: r.CompanyInfo,
		Industry:    r.Industry,
		Size:        r.Size,
		Funding:     r.Funding,
		TechStack:   r.TechStack,
		KeyPeople:   r.KeyPeople,
	}
}

var targetLabels = map[model.Kind]string{
	model.KindEmails:    "email addresses",
	model.KindPhones:    "phone numbers",
	model.KindWebsites:  "website URLs",
	model.KindWhatsApp:  "WhatsApp numbers",
	model.KindInstagram: "Instagram handles",
	model.KindGitHub:    "GitHub profiles",
	model.KindTwitter:   "Twitter/X handles",
	model.KindLinkedIn:  "LinkedIn profiles",
	model.KindTelegram:  "Telegram handles",
	model.KindDiscord:   "Discord servers",
}

const researchSystemPrompt = `You are a lead generation research assistant. Search for relevant companies/people and return structured data.
Return ONLY valid JSON, no markdown or explanations.%s

Return an array of leads in this exact format:
[
  {
    "url": "https://example.com",
    "title": "Company/Person Name",
    "description": "Brief description of what they do",
    "contacts": {
      "emails": [], "phones": [], "websites": [], "whatsapp": [], "instagram": [],
      "github": [], "twitter": [], "linkedin": [], "telegram": [], "discord": []
    },
    "relevanceScore": 85,
    "tags": ["startup", "b2b"]
  }
]`

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

// Research asks for up to ten leads matching query with the requested
// contact kinds. Leads without a url or title are dropped.
func Research(ctx context.Context, c Client, query string, targets []model.Kind, projectContext string) ([]StructuredLead, error) {
	labels := make([]string, 0, len(targets))
	for _, k := range targets {
		if l, ok := targetLabels[k]; ok {
			labels = append(labels, l)
		}
	}

	var ctxNote string
	if projectContext != "" {
		ctxNote = "\n\nContext for filtering results: " + projectContext
	}

	resp, err := c.ChatCompletion(ctx, ChatCompletionRequest{
		Messages: []Message{
			{Role: "system", Content: fmt.Sprintf(researchSystemPrompt, ctxNote)},
			{Role: "user", Content: fmt.Sprintf(`Search for: %q

Find companies/people matching this query and extract their contact information.
Focus on finding: %s

Return up to 10 relevant leads as a JSON array. Include relevance scores (0-100) based on how well they match the search intent.`,
				query, strings.Join(labels, ", "))},
		},
		Temperature: floatPtr(0.1),
		MaxTokens:   intPtr(4096),
	})
	if err != nil {
		return nil, eris.Wrap(err, "perplexity: research")
	}

	var leads []StructuredLead
	if err := decodeJSON(resp.Content(), &leads); err != nil {
		return nil, eris.Wrap(err, "perplexity: parse research")
	}

	out := leads[:0]
	for _, l := range leads {
		if strings.TrimSpace(l.URL) == "" || strings.TrimSpace(l.Title) == "" {
			continue
		}
		out = append(out, l)
	}
	zap.L().Debug("perplexity: research complete",
		zap.String("query", query),
		zap.Int("returned", len(leads)),
		zap.Int("kept", len(out)),
	)
	return out, nil
}

// ImproveQuery rewrites query for better lead results. Any failure returns
// query unchanged.
func ImproveQuery(ctx context.Context, c Client, query string, targets []model.Kind, projectContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original query: %q\n", query)
	if projectContext != "" {
		fmt.Fprintf(&b, "Business context: %s\n", projectContext)
	}
	if len(targets) > 0 {
		names := make([]string, len(targets))
		for i, k := range targets {
			names[i] = string(k)
		}
		fmt.Fprintf(&b, "Looking for: %s\n", strings.Join(names, ", "))
	}
	b.WriteString("\nImprove this query to be more effective for finding business leads with contact information. Keep it concise but comprehensive.")

	resp, err := c.ChatCompletion(ctx, ChatCompletionRequest{
		Messages: []Message{
			{Role: "system", Content: "You are a search query optimizer. Improve the given search query to find better lead generation results. Return ONLY the improved query, nothing else."},
			{Role: "user", Content: b.String()},
		},
		Temperature: floatPtr(0.3),
		MaxTokens:   intPtr(200),
	})
	if err != nil {
		zap.L().Warn("perplexity: improve query failed", zap.String("query", query), zap.Error(err))
		return query
	}
	improved := strings.Trim(strings.TrimSpace(resp.Content()), `"`)
	if improved == "" {
		return query
	}
	return improved
}

// Enrich researches a single lead in depth.
func Enrich(ctx context.Context, c Client, l *model.Lead, projectContext string) (*EnrichResult, error) {
	system := "You are a business intelligence researcher. Research the given company/entity and return detailed information.\nReturn ONLY valid JSON, no markdown or explanations."
	if projectContext != "" {
		system += "\nRelevance context: " + projectContext
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Research this company/entity:\nName: %s\nURL: %s\n", l.Title, l.URL)
	if l.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", l.Description)
	}
	b.WriteString(`
Return JSON with this structure:
{
  "companyInfo": "Brief company description",
  "industry": "Primary industry",
  "size": "Employee count range (e.g., 10-50)",
  "funding": "Funding status if known",
  "techStack": ["technology1"],
  "keyPeople": [{"name": "Jane Doe", "role": "CEO", "contact": "email or linkedin"}],
  "additionalContacts": {"emails": [], "phones": [], "linkedin": [], "twitter": []}
}`)

	resp, err := c.ChatCompletion(ctx, ChatCompletionRequest{
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: b.String()},
		},
		Temperature: floatPtr(0.1),
		MaxTokens:   intPtr(2048),
	})
	if err != nil {
		return nil, eris.Wrap(err, "perplexity: enrich")
	}

	var res EnrichResult
	if err := decodeJSON(resp.Content(), &res); err != nil {
		return nil, eris.Wrap(err, "perplexity: parse enrichment")
	}
	return &res, nil
}

// decodeJSON unmarshals content after removing any markdown code fences.
func decodeJSON(content string, v any) error {
	s := StripFences(content)
	if s == "" {
		return eris.New("empty response")
	}
	return json.Unmarshal([]byte(s), v)
}

// StripFences removes ```json and ``` fences around a model reply.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "```") {
		return s
	}
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
