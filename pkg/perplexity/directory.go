package perplexity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-scout/internal/model"
)

// EntityResult is one entity returned by SearchEntities. Contact fields are
// single values as the model reports them; callers validate them.
type EntityResult struct {
	Name         string           `json:"name"`
	Type         model.EntityType `json:"type"`
	Description  string           `json:"description"`
	Image        string           `json:"image"`
	Title        string           `json:"title"`
	Role         string           `json:"role"`
	Company      string           `json:"company"`
	Industry     string           `json:"industry"`
	Size         string           `json:"size"`
	Founded      string           `json:"founded"`
	Headquarters string           `json:"headquarters"`
	Author       string           `json:"author"`
	Publisher    string           `json:"publisher"`
	Year         string           `json:"year"`
	Website      string           `json:"website"`
	Email        string           `json:"email"`
	Twitter      string           `json:"twitter"`
	LinkedIn     string           `json:"linkedin"`
	Tags         []string         `json:"tags"`
}

// EntityProfile is the contact research returned by EnrichEntity.
type EntityProfile struct {
	Website   string `json:"website"`
	Email     string `json:"email"`
	Twitter   string `json:"twitter"`
	LinkedIn  string `json:"linkedin"`
	GitHub    string `json:"github"`
	Instagram string `json:"instagram"`
	YouTube   string `json:"youtube"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Bio       string `json:"bio"`
	Founded   string `json:"founded"`
	Size      string `json:"size"`
	Funding   string `json:"funding"`
}

var entityTypeLabels = map[model.EntityType]string{
	model.EntityPerson:       "people/individuals",
	model.EntityOrganization: "companies/organizations",
	model.EntityBook:         "books/publications",
	model.EntityProduct:      "products/services",
	model.EntityEvent:        "events/conferences",
	model.EntityPlace:        "places/locations",
}

const entitySearchPrompt = `Search for %s related to: %q

Return a JSON array of entities with this structure:
[
  {
    "name": "Entity Name",
    "type": "person|organization|book|product|event|place",
    "description": "Brief description (1-2 sentences)",
    "image": "URL to image or logo if known",
    "title": "Job title (people)",
    "role": "Role or position",
    "company": "Company name (people)",
    "industry": "Industry or sector",
    "size": "Company size (organizations)",
    "founded": "Year founded",
    "headquarters": "Location",
    "author": "Author name (books)",
    "publisher": "Publisher (books)",
    "year": "Publication year",
    "website": "Official website URL",
    "email": "Public contact email",
    "twitter": "Twitter handle without @",
    "linkedin": "LinkedIn profile slug",
    "tags": ["relevant", "tags"]
  }
]

Return 10-20 relevant entities. Only include fields that are applicable and known.
Focus on well-known, verifiable entities. Return ONLY the JSON array, no other text.`

// SearchEntities asks for well-known entities of entityType related to term.
// EntityAll or an unknown type searches every type. Entities without a name
// are dropped.
func SearchEntities(ctx context.Context, c Client, term string, entityType model.EntityType) ([]EntityResult, error) {
	label, ok := entityTypeLabels[entityType]
	if !ok {
		label = "people, organizations, books, products, events, or places"
	}

	resp, err := c.ChatCompletion(ctx, ChatCompletionRequest{
		Messages: []Message{
			{Role: "system", Content: "You are a research assistant that finds and structures information about entities. Always return valid JSON arrays only."},
			{Role: "user", Content: fmt.Sprintf(entitySearchPrompt, label, term)},
		},
		Temperature: floatPtr(0.2),
		MaxTokens:   intPtr(4096),
	})
	if err != nil {
		return nil, eris.Wrap(err, "perplexity: search entities")
	}

	var entities []EntityResult
	if err := decodeSpan(resp.Content(), '[', ']', &entities); err != nil {
		return nil, eris.Wrap(err, "perplexity: parse entities")
	}

	out := entities[:0]
	for _, e := range entities {
		if strings.TrimSpace(e.Name) == "" {
			continue
		}
		out = append(out, e)
	}
	zap.L().Debug("perplexity: entity search complete",
		zap.String("term", term),
		zap.String("type", string(entityType)),
		zap.Int("kept", len(out)),
	)
	return out, nil
}

// EnrichEntity looks up contact details and social profiles for e.
func EnrichEntity(ctx context.Context, c Client, e *model.Entity) (*EntityProfile, error) {
	subject := e.Name
	switch e.Type {
	case model.EntityPerson:
		if e.Company != "" {
			subject += " at " + e.Company
		}
		if e.Title != "" {
			subject += ", " + e.Title
		}
	case model.EntityOrganization:
		subject += " company"
		if e.Industry != "" {
			subject += " in " + e.Industry
		}
	}

	resp, err := c.ChatCompletion(ctx, ChatCompletionRequest{
		Messages: []Message{
			{Role: "system", Content: "You are a research assistant finding verified contact information. Return only valid JSON."},
			{Role: "user", Content: "Find contact information and social media profiles for: " + subject + `

Return a JSON object with these fields (only include fields you can verify):
{
  "website": "official website URL",
  "email": "public contact email",
  "twitter": "Twitter/X handle without @",
  "linkedin": "LinkedIn profile URL slug",
  "github": "GitHub username",
  "instagram": "Instagram handle",
  "youtube": "YouTube channel",
  "phone": "public phone number",
  "address": "headquarters or office address",
  "bio": "brief updated bio (1-2 sentences)",
  "founded": "year founded (organizations)",
  "size": "company size (organizations)",
  "funding": "funding information if known"
}

Only return verified, current information. Return ONLY the JSON object, no other text.`},
		},
		Temperature: floatPtr(0.1),
		MaxTokens:   intPtr(1024),
	})
	if err != nil {
		return nil, eris.Wrap(err, "perplexity: enrich entity")
	}

	var p EntityProfile
	if err := decodeSpan(resp.Content(), '{', '}', &p); err != nil {
		return nil, eris.Wrap(err, "perplexity: parse entity profile")
	}
	return &p, nil
}

// decodeSpan unmarshals the outermost open..close span of content, so prose
// around the JSON is tolerated.
func decodeSpan(content string, open, closing byte, v any) error {
	s := StripFences(content)
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, closing)
	if start < 0 || end <= start {
		return eris.New("no JSON in response")
	}
	return json.Unmarshal([]byte(s[start:end+1]), v)
}
