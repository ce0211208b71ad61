package agent

import (
	"context"

	"github.com/Ironclad/ironclad/internal/domain"
)

// strategy is everything that differs between agents. The pipeline in
// agent.go is shared. actions lists every action name the agent
// understands, ActionCustom included where it applies.
type strategy struct {
	kind          domain.AgentKind
	keywords      []string
	actions       []string
	defaultAction string
	resolve       func(in *domain.AgentInput) Action
	execute       func(ctx context.Context, a *Agent, action Action, in *domain.AgentInput) (*Result, error)
	template      string
	prompt        string
	suggest       func(action Action, res *Result) []domain.SuggestedAction
	streaming     bool
	withHistory   bool
}

// strategies is keyed by kind; NewAgents walks domain.AgentKinds so the
// registration order stays in one place.
var strategies = map[domain.AgentKind]func() *strategy{
	domain.AgentDashboard:  dashboardStrategy,
	domain.AgentProducts:   productsStrategy,
	domain.AgentChat:       chatStrategy,
	domain.AgentVendor:     vendorStrategy,
	domain.AgentCustomer:   customerStrategy,
	domain.AgentOrder:      orderStrategy,
	domain.AgentInquiry:    inquiryStrategy,
	domain.AgentCommission: commissionStrategy,
}

// NewAgents builds one agent per kind in registration order.
func NewAgents(deps *Deps) []*Agent {
	agents := make([]*Agent, 0, len(domain.AgentKinds))
	for _, kind := range domain.AgentKinds {
		build, ok := strategies[kind]
		if !ok {
			continue
		}
		agents = append(agents, newAgent(build(), deps))
	}
	return agents
}

func suggestion(title, actionID, icon string) domain.SuggestedAction {
	return domain.SuggestedAction{Title: title, ActionID: actionID, Icon: icon}
}
