package domain

// Repositories bundles the data sources agents read from. Analytics is nil
// when no reporting database is configured.
type Repositories struct {
	Orders      OrderRepository
	Commissions CommissionRepository
	Partners    PartnerRepository
	Inquiries   InquiryRepository
	Products    ProductRepository
	Discounts   DiscountRepository
	Audience    AudienceRepository
	Analytics   AnalyticsRepository
}

// Services bundles the non-document backends. Any of them may be nil when
// not configured; agents degrade the affected action.
type Services struct {
	LLM       LLMService
	Knowledge KnowledgeService
	WebSearch WebSearchService
}
