package agent

import (
	"context"

	"github.com/Ironclad/ironclad/internal/domain"
)

const (
	chatConversation = "conversation"
	chatWebSearch    = "webSearch"
	chatKnowledge    = "knowledge"

	webSearchResults = 5
)

func chatStrategy() *strategy {
	return &strategy{
		kind:          domain.AgentChat,
		keywords:      []string{"hello", "hi there", "hey there", "thank you", "thanks", "what can you do", "help me understand"},
		actions:       []string{chatConversation, chatWebSearch, chatKnowledge},
		defaultAction: chatConversation,
		resolve:       resolveChat,
		execute:       executeChat,
		template:      chatTemplate,
		prompt: "You are the admin assistant for a firearms services business offering Cerakote, " +
			"gunsmithing and engraving through its own shop and partner stores. " +
			"You can help with the dashboard, products, orders, partner stores, commissions, customers and service inquiries. " +
			"Be concise. Use the reference material below when it is relevant and say so when you are unsure.",
		suggest:     suggestChat,
		streaming:   true,
		withHistory: true,
	}
}

func resolveChat(in *domain.AgentInput) Action {
	msg := in.Message
	switch {
	case containsAny(msg, "search the web", "web search", "google", "look online", "latest news", "regulation", "atf"):
		return newAction(chatWebSearch, "query", msg)
	case containsAny(msg, "how do", "how does", "what is", "what are", "explain", "policy", "process for", "help me understand"):
		return newAction(chatKnowledge, "query", msg)
	}
	return newAction(chatConversation)
}

func executeChat(ctx context.Context, a *Agent, action Action, in *domain.AgentInput) (*Result, error) {
	res := newResult()
	res.Bindings["knowledge"] = ""
	res.Bindings["web"] = ""
	res.Bindings["sources"] = []map[string]interface{}{}
	res.Bindings["knowledgeAvailable"] = true
	res.Bindings["webAvailable"] = true

	switch action.Name {
	case chatKnowledge:
		ks := a.deps.Services.Knowledge
		if ks == nil {
			res.set("knowledgeAvailable", false)
			return res, nil
		}
		opt := optional(ctx, a, "knowledge base", func(ctx context.Context) (*domain.KnowledgeContext, error) {
			return ks.Retrieve(ctx, a.deps.KnowledgeTable, action.Param("query"), a.deps.TopK)
		})
		kc, ok := opt.Get()
		res.set("knowledgeAvailable", ok)
		if ok {
			res.use("lancedb:search")
			res.Bindings["knowledge"] = kc.Text
			res.Data["sources"] = len(kc.Results)
		}

	case chatWebSearch:
		ws := a.deps.Services.WebSearch
		if ws == nil {
			res.set("webAvailable", false)
			return res, nil
		}
		opt := optional(ctx, a, "web search", func(ctx context.Context) (*domain.WebSearchResponse, error) {
			return ws.Search(ctx, domain.WebSearchRequest{
				Query:         action.Param("query"),
				IncludeAnswer: true,
				MaxResults:    webSearchResults,
			})
		})
		resp, ok := opt.Get()
		res.set("webAvailable", ok)
		if ok {
			res.use("tavily:search")
			res.Bindings["web"] = resp.Answer
			sources := make([]map[string]interface{}, 0, len(resp.Results))
			for _, r := range resp.Results {
				sources = append(sources, map[string]interface{}{"title": r.Title, "url": r.URL})
			}
			res.Bindings["sources"] = sources
			res.Data["sources"] = resp.Results
		}
	}
	return res, nil
}

func suggestChat(action Action, res *Result) []domain.SuggestedAction {
	return []domain.SuggestedAction{
		suggestion("Today's dashboard", dashboardOverview, "gauge"),
		suggestion("Recent orders", orderList, "bag"),
		suggestion("Eligible commissions", commissionList, "dollarsign.circle"),
	}
}

const chatTemplate = `Today is {{ today }}.
{% if knowledge != "" %}### Reference material
{{ knowledge }}
{% elsif knowledgeAvailable == false %}The knowledge base is unavailable right now.
{% endif %}{% if web != "" %}### Web search summary
{{ web }}
{% for s in sources %}- {{ s.title }} ({{ s.url }})
{% endfor %}{% elsif webAvailable == false %}Web search is unavailable right now.
{% endif %}`
