package perplexity

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-scout/internal/model"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*ChatCompletionResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func reply(content string) *ChatCompletionResponse {
	return &ChatCompletionResponse{Choices: []Choice{{Message: Message{Role: "assistant", Content: content}}}}
}

func TestStripFences(t *testing.T) {
	tests := map[string]string{
		"[]":                            "[]",
		"```json\n[1]\n```":             "[1]",
		"```\n{\"a\":1}\n```":           `{"a":1}`,
		"  Here:\n```JSON\n[]\n```  \n": "Here:\n\n[]",
	}
	for in, want := range tests {
		assert.Equal(t, want, StripFences(in))
	}
}

func TestResearch(t *testing.T) {
	m := new(mockClient)
	m.On("ChatCompletion", mock.Anything, mock.MatchedBy(func(req ChatCompletionRequest) bool {
		return len(req.Messages) == 2 &&
			req.Messages[0].Role == "system" &&
			containsAll(req.Messages[0].Content, "Context for filtering results: B2B SaaS") &&
			containsAll(req.Messages[1].Content, `"nostr relays"`, "email addresses, GitHub profiles")
	})).Return(reply("```json\n"+`[
		{"url":"https://acme.com","title":"Acme","description":"Relays","contacts":{"emails":["jane@acme.com"],"facebook":["x"]},"relevanceScore":87.6,"tags":["relay"]},
		{"url":"","title":"No URL"},
		{"url":"https://untitled.io","title":" "}
	]`+"\n```"), nil)

	leads, err := Research(context.Background(), m, "nostr relays",
		[]model.Kind{model.KindEmails, model.KindGitHub}, "B2B SaaS")
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "https://acme.com", leads[0].URL)
	assert.Equal(t, []string{"jane@acme.com"}, leads[0].Contacts.Emails)
	assert.Equal(t, 88, leads[0].Score())
	assert.Equal(t, []string{"relay"}, leads[0].Tags)
	m.AssertExpectations(t)
}

func TestResearch_Errors(t *testing.T) {
	m := new(mockClient)
	m.On("ChatCompletion", mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()
	_, err := Research(context.Background(), m, "q", nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "perplexity: research")

	m.On("ChatCompletion", mock.Anything, mock.Anything).Return(reply("Sorry, I can't help."), nil).Once()
	_, err = Research(context.Background(), m, "q", nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "perplexity: parse research")
}

func TestImproveQuery(t *testing.T) {
	m := new(mockClient)
	m.On("ChatCompletion", mock.Anything, mock.Anything).Return(reply(`  "nostr relay operators contact email"  `), nil).Once()
	assert.Equal(t, "nostr relay operators contact email",
		ImproveQuery(context.Background(), m, "nostr relays", []model.Kind{model.KindEmails}, "ctx"))

	m.On("ChatCompletion", mock.Anything, mock.Anything).Return(nil, errors.New("down")).Once()
	assert.Equal(t, "nostr relays", ImproveQuery(context.Background(), m, "nostr relays", nil, ""))

	m.On("ChatCompletion", mock.Anything, mock.Anything).Return(reply("   "), nil).Once()
	assert.Equal(t, "nostr relays", ImproveQuery(context.Background(), m, "nostr relays", nil, ""))
}

func TestEnrich(t *testing.T) {
	m := new(mockClient)
	m.On("ChatCompletion", mock.Anything, mock.MatchedBy(func(req ChatCompletionRequest) bool {
		return containsAll(req.Messages[1].Content, "Name: Acme", "URL: https://acme.com", "Description: Widgets")
	})).Return(reply(`{
		"companyInfo": "Acme builds widgets",
		"industry": "Manufacturing",
		"size": "10-50",
		"techStack": ["Go"],
		"keyPeople": [{"name": "Jane Doe", "role": "CEO", "contact": "jane@acme.com"}],
		"additionalContacts": {"emails": ["bob@acme.com"], "twitter": ["acmecorp"]}
	}`), nil)

	res, err := Enrich(context.Background(), m, &model.Lead{Title: "Acme", URL: "https://acme.com", Description: "Widgets"}, "")
	require.NoError(t, err)
	assert.Equal(t, "Manufacturing", res.Industry)
	assert.Equal(t, []string{"bob@acme.com"}, res.AdditionalContacts.Emails)
	assert.Equal(t, []string{"acmecorp"}, res.AdditionalContacts.Twitter)

	e := res.Enrichment()
	assert.Equal(t, "Acme builds widgets", e.CompanyInfo)
	require.Len(t, e.KeyPeople, 1)
	assert.Equal(t, "CEO", e.KeyPeople[0].Role)
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
