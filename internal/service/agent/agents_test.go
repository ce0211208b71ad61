package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ironclad/ironclad/internal/domain"
)

func TestOrderAgent_UpdateStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	deps, m := newTestDeps(t, ctrl)

	m.orders.EXPECT().Get(gomock.Any(), "IR-1001").Return(&domain.Order{
		ID: "o1", OrderNumber: "IR-1001", CustomerName: "Ann", CustomerEmail: "ann@example.com",
		Status: domain.OrderStatusInProgress, Totals: domain.OrderTotals{Total: 45000},
	}, nil)
	m.orders.EXPECT().UpdateStatus(gomock.Any(), "o1", domain.OrderStatusCompleted).Return(nil)

	out, err := agentFor(t, deps, domain.AgentOrder).Process(context.Background(), &domain.AgentInput{Message: "mark order #IR-1001 as completed"})
	require.NoError(t, err)
	assert.Contains(t, out.Response, "status changed from In Progress to Completed")
	assert.Equal(t, true, out.Data["updated"])
	assert.Equal(t, []string{"orders:getByOrderNumber", "orders:updateStatus"}, out.ToolsUsed)
}

func TestOrderAgent_UpdateFailureIsWrapped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	deps, m := newTestDeps(t, ctrl)

	updateErr := errors.New("mutation rejected")
	m.orders.EXPECT().Get(gomock.Any(), "IR-1001").Return(&domain.Order{ID: "o1", OrderNumber: "IR-1001"}, nil)
	m.orders.EXPECT().UpdateStatus(gomock.Any(), "o1", domain.OrderStatusCancelled).Return(updateErr)

	_, err := agentFor(t, deps, domain.AgentOrder).Process(context.Background(), &domain.AgentInput{Message: "change order #IR-1001 to cancelled"})
	assert.ErrorIs(t, err, updateErr)
	assert.ErrorContains(t, err, "IR-1001")
}

func TestOrderAgent_ListByStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	deps, m := newTestDeps(t, ctrl)

	m.orders.EXPECT().List(gomock.Any(), orderFetchLimit).Return([]domain.Order{
		{OrderNumber: "IR-1", Status: domain.OrderStatusPending},
		{OrderNumber: "IR-2", Status: domain.OrderStatusAwaitingShipment, CustomerName: "Bob"},
		{OrderNumber: "IR-3", Status: domain.OrderStatusCompleted},
	}, nil)

	out, err := agentFor(t, deps, domain.AgentOrder).Process(context.Background(), &domain.AgentInput{Message: "show orders awaiting shipment"})
	require.NoError(t, err)
	assert.Contains(t, out.Response, "Filter: Awaiting Shipment (1 shown)")
	assert.Contains(t, out.Response, "IR-2 | Bob")
	assert.NotContains(t, out.Response, "IR-3")
}

func TestResolveOrder(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"mark order #IR-1001 as completed", orderUpdate},
		{"order #IR-1001 completed?", orderDetails},
		{"what's the status of order number 1042", orderDetails},
		{"how many orders this month", orderStats},
		{"pending orders", orderList},
		{"latest orders", orderList},
		{"order stuff", ActionCustom},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveOrder(&domain.AgentInput{Message: tt.message}).Name)
		})
	}
}

func TestResolvers_ShortTokensMatchWholeWords(t *testing.T) {
	tests := []struct {
		name    string
		resolve func(*domain.AgentInput) Action
		message string
		want    string
	}{
		{"commission recall", resolveCommission, "commissions tied to the recall", ActionCustom},
		{"commission all", resolveCommission, "all commissions", commissionList},
		{"customer install", resolveCustomer, "customers from the install day", ActionCustom},
		{"customer stopwatch", resolveCustomer, "customers who wanted a stopwatch", ActionCustom},
		{"customer top", resolveCustomer, "top customers", customerTop},
		{"customer all", resolveCustomer, "all customers", customerList},
		{"inquiry install", resolveInquiry, "inquiry about a scope install", ActionCustom},
		{"inquiry all", resolveInquiry, "all inquiries", inquiryList},
		{"vendor small stop", resolveVendor, "small stores near the bus stop", ActionCustom},
		{"vendor top", resolveVendor, "top partners", vendorPerformance},
		{"vendor all", resolveVendor, "all partners", vendorList},
		{"products small", resolveProducts, "small parts", ActionCustom},
		{"products all", resolveProducts, "all products", productList},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.resolve(&domain.AgentInput{Message: tt.message}).Name)
		})
	}
}

func testInquiry() *domain.ServiceInquiry {
	return &domain.ServiceInquiry{
		ID: "q123", CustomerName: "Bob", CustomerEmail: "bob@example.com",
		ProductTitle: "Cerakote full rifle", Status: domain.InquiryStatusNew, CreatedAt: millis(testNow),
	}
}

func TestInquiryAgent_Mutations(t *testing.T) {
	t.Run("send quote", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		deps, m := newTestDeps(t, ctrl)
		m.inquiries.EXPECT().Get(gomock.Any(), "q123").Return(testInquiry(), nil)
		m.inquiries.EXPECT().SendQuote(gomock.Any(), "q123", domain.Cents(35000)).Return(nil)

		out, err := agentFor(t, deps, domain.AgentInquiry).Process(context.Background(), &domain.AgentInput{Message: "send a quote of $350 for inquiry q123"})
		require.NoError(t, err)
		assert.Contains(t, out.Response, "Quote of $350.00 sent to bob@example.com")
		assert.Contains(t, out.Response, "Status: Quoted | Quoted: $350.00")
		assert.Equal(t, []string{"serviceInquiries:get", "serviceInquiries:sendQuote"}, out.ToolsUsed)
	})

	t.Run("non positive quote is rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		deps, m := newTestDeps(t, ctrl)
		m.inquiries.EXPECT().Get(gomock.Any(), "q123").Return(testInquiry(), nil)

		_, err := agentFor(t, deps, domain.AgentInquiry).Process(context.Background(), &domain.AgentInput{
			Message: "quote inquiry q123",
			Context: map[string]string{ContextAmount: "0"},
		})
		var validation domain.ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("add notes", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		deps, m := newTestDeps(t, ctrl)
		m.inquiries.EXPECT().Get(gomock.Any(), "q123").Return(testInquiry(), nil)
		m.inquiries.EXPECT().AddNotes(gomock.Any(), "q123", "called back, wants OD green").Return(nil)

		out, err := agentFor(t, deps, domain.AgentInquiry).Process(context.Background(), &domain.AgentInput{Message: "inquiry q123 notes: called back, wants OD green"})
		require.NoError(t, err)
		assert.Contains(t, out.Response, "Admin notes: called back, wants OD green")
	})

	t.Run("update status", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		deps, m := newTestDeps(t, ctrl)
		m.inquiries.EXPECT().Get(gomock.Any(), "q123").Return(testInquiry(), nil)
		m.inquiries.EXPECT().UpdateStatus(gomock.Any(), "q123", domain.InquiryStatusReviewed).Return(nil)

		out, err := agentFor(t, deps, domain.AgentInquiry).Process(context.Background(), &domain.AgentInput{Message: "mark inquiry q123 as reviewed"})
		require.NoError(t, err)
		assert.Contains(t, out.Response, "Status changed from New to Reviewed")
	})

	t.Run("unknown inquiry", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		deps, m := newTestDeps(t, ctrl)
		notFound := &domain.ErrNotFound{Entity: "inquiry", ID: "q404"}
		m.inquiries.EXPECT().Get(gomock.Any(), "q404").Return(nil, notFound)

		_, err := agentFor(t, deps, domain.AgentInquiry).Process(context.Background(), &domain.AgentInput{Message: "inquiry q404"})
		assert.ErrorIs(t, err, notFound)
	})
}

func TestInquiryAgent_ListOpen(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	deps, m := newTestDeps(t, ctrl)

	m.inquiries.EXPECT().List(gomock.Any()).Return([]domain.ServiceInquiry{
		{ID: "q1", CustomerName: "Old", Status: domain.InquiryStatusNew, CreatedAt: millis(testNow.AddDate(0, 0, -3))},
		{ID: "q2", CustomerName: "Done", Status: domain.InquiryStatusCompleted, CreatedAt: millis(testNow.AddDate(0, 0, -2))},
		{ID: "q3", CustomerName: "Recent", Status: domain.InquiryStatusQuoted, CreatedAt: millis(testNow.AddDate(0, 0, -1))},
	}, nil)

	out, err := agentFor(t, deps, domain.AgentInquiry).Process(context.Background(), &domain.AgentInput{Message: "show open inquiries"})
	require.NoError(t, err)
	assert.Contains(t, out.Response, "Total inquiries: 3")
	assert.Contains(t, out.Response, "### Open (2 shown)")
	assert.NotContains(t, out.Response, "q2 |")

	matched := out.Data["inquiries"].([]domain.ServiceInquiry)
	require.Len(t, matched, 2)
	assert.Equal(t, "q3", matched[0].ID, "newest first")
}

func TestVendorAgent(t *testing.T) {
	partners := []domain.PartnerStore{
		{ID: "p1", StoreName: "Ace Guns", StoreCode: "ACE", Active: true, OnboardingComplete: true, CommissionRate: 10, PayoutMethod: domain.PayoutMethodPaypal},
		{ID: "p2", StoreName: "Bravo Arms", StoreCode: "BRV", Active: true, OnboardingComplete: false, CommissionRate: 8},
	}

	t.Run("details by name", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		deps, m := newTestDeps(t, ctrl)
		m.partners.EXPECT().List(gomock.Any()).Return(partners, nil)

		out, err := agentFor(t, deps, domain.AgentVendor).Process(context.Background(), &domain.AgentInput{Message: "what's the commission rate for partner Ace Guns"})
		require.NoError(t, err)
		assert.Contains(t, out.Response, "### Ace Guns (ACE)")
		p, ok := out.Data["partner"].(*domain.PartnerStore)
		require.True(t, ok)
		assert.Equal(t, "p1", p.ID)
	})

	t.Run("details not found lists partners", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		deps, m := newTestDeps(t, ctrl)
		m.partners.EXPECT().List(gomock.Any()).Return(partners, nil)

		out, err := agentFor(t, deps, domain.AgentVendor).Process(context.Background(), &domain.AgentInput{Message: "details on partner Zulu"})
		require.NoError(t, err)
		assert.Contains(t, out.Response, "No partner matched the request")
		assert.Contains(t, out.Response, "Bravo Arms")
	})

	t.Run("onboarding", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		deps, m := newTestDeps(t, ctrl)
		m.partners.EXPECT().List(gomock.Any()).Return(partners, nil)

		out, err := agentFor(t, deps, domain.AgentVendor).Process(context.Background(), &domain.AgentInput{Message: "partner onboarding status"})
		require.NoError(t, err)
		assert.Equal(t, []domain.PartnerStore{partners[1]}, out.Data["partners"])
		assert.Equal(t, 1, out.Data["needsAttention"])
	})

	t.Run("performance", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		deps, m := newTestDeps(t, ctrl)
		m.partners.EXPECT().List(gomock.Any()).Return(partners, nil)
		m.orders.EXPECT().List(gomock.Any(), orderFetchLimit).Return([]domain.Order{
			{PartnerStoreID: "p2", Status: domain.OrderStatusCompleted, Totals: domain.OrderTotals{Total: 90000}},
			{PartnerStoreID: "p1", Status: domain.OrderStatusCompleted, Totals: domain.OrderTotals{Total: 30000}},
		}, nil)
		m.commissions.EXPECT().List(gomock.Any(), "").Return([]domain.Commission{
			{PartnerStoreID: "p2", CommissionAmount: 7200, Status: domain.CommissionStatusEligible},
		}, nil)

		out, err := agentFor(t, deps, domain.AgentVendor).Process(context.Background(), &domain.AgentInput{Message: "partner performance ranking"})
		require.NoError(t, err)
		assert.Contains(t, out.Response, "- Bravo Arms: 1 orders, $900.00 revenue, $72.00 commission ($72.00 eligible)")
		assert.ElementsMatch(t, []string{"partnerStores:list", "orders:list", "commissions:list"}, out.ToolsUsed)
	})
}

func TestComputePartnerPerformance(t *testing.T) {
	partners := []domain.PartnerStore{{ID: "p1", StoreName: "Ace"}, {ID: "p2", StoreName: "Bravo"}}
	orders := []domain.Order{
		{PartnerStoreID: "p1", Status: domain.OrderStatusCompleted, Totals: domain.OrderTotals{Total: 1000}},
		{PartnerStoreID: "p1", Status: domain.OrderStatusCancelled, Totals: domain.OrderTotals{Total: 99999}},
		{PartnerStoreID: "p2", Status: domain.OrderStatusPending, Totals: domain.OrderTotals{Total: 5000}},
		{PartnerStoreID: "", Status: domain.OrderStatusCompleted, Totals: domain.OrderTotals{Total: 7000}},
	}
	commissions := []domain.Commission{
		{PartnerStoreID: "p1", CommissionAmount: 100, Status: domain.CommissionStatusPaid},
		{PartnerStoreID: "p1", CommissionAmount: 500, Status: domain.CommissionStatusVoided},
		{PartnerStoreID: "p2", CommissionAmount: 400, Status: domain.CommissionStatusEligible},
	}

	perf := computePartnerPerformance(partners, orders, commissions)
	require.Len(t, perf, 2)
	assert.Equal(t, partnerPerformance{PartnerStoreID: "p2", Name: "Bravo", Orders: 1, Revenue: 5000, Commission: 400, Eligible: 400}, perf[0])
	assert.Equal(t, partnerPerformance{PartnerStoreID: "p1", Name: "Ace", Orders: 1, Revenue: 1000, Commission: 100}, perf[1])
}

func stubCustomerSources(m *testMocks) {
	m.orders.EXPECT().List(gomock.Any(), customerOrderScan).Return([]domain.Order{
		{CustomerEmail: "Ann@Example.com", CustomerName: "Ann", Totals: domain.OrderTotals{Total: 50000}, CreatedAt: millis(testNow.AddDate(0, 0, -10))},
		{CustomerEmail: "ann@example.com", Totals: domain.OrderTotals{Total: 25000}, CreatedAt: millis(testNow.AddDate(0, 0, -1))},
		{CustomerEmail: "cal@example.com", CustomerName: "Cal", Totals: domain.OrderTotals{Total: 10000}, CreatedAt: millis(testNow.AddDate(0, 0, -5))},
	}, nil)
	m.inquiries.EXPECT().List(gomock.Any()).Return([]domain.ServiceInquiry{
		{CustomerEmail: "bob@example.com", CustomerName: "Bob", CreatedAt: millis(testNow.AddDate(0, 0, -2))},
	}, nil)
	m.audience.EXPECT().ListSubscribers(gomock.Any()).Return([]domain.NewsletterSubscriber{
		{Email: "dee@example.com", Name: "Dee", CreatedAt: millis(testNow.AddDate(0, 0, -3))},
		{Email: "ann@example.com", CreatedAt: millis(testNow.AddDate(0, 0, -20))},
	}, nil)
	m.audience.EXPECT().ListContactSubmissions(gomock.Any()).Return(nil, nil)
}

func TestCustomerAgent(t *testing.T) {
	t.Run("top customers by spend", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		deps, m := newTestDeps(t, ctrl)
		stubCustomerSources(m)

		out, err := agentFor(t, deps, domain.AgentCustomer).Process(context.Background(), &domain.AgentInput{Message: "who are our top customers"})
		require.NoError(t, err)
		top := out.Data["customers"].([]domain.Customer)
		require.NotEmpty(t, top)
		assert.Equal(t, "ann@example.com", top[0].Email)
		assert.Equal(t, domain.Cents(75000), top[0].TotalSpent)
		assert.Equal(t, 2, top[0].OrderCount)
		assert.Equal(t, 4, out.Data["customerCount"])
		assert.Len(t, out.ToolsUsed, 4)
	})

	t.Run("details by email", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		deps, m := newTestDeps(t, ctrl)
		stubCustomerSources(m)

		out, err := agentFor(t, deps, domain.AgentCustomer).Process(context.Background(), &domain.AgentInput{Message: "customer ANN@example.com"})
		require.NoError(t, err)
		assert.Contains(t, out.Response, "### Ann <ann@example.com>")
		assert.Contains(t, out.Response, "Orders: 2 | Total spent: $750.00")
		assert.Contains(t, out.Response, "Sources: order, newsletter")
	})

	t.Run("unknown email", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		deps, m := newTestDeps(t, ctrl)
		stubCustomerSources(m)

		_, err := agentFor(t, deps, domain.AgentCustomer).Process(context.Background(), &domain.AgentInput{Message: "customer zed@example.com"})
		var notFound *domain.ErrNotFound
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("newsletter subscribers", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		deps, m := newTestDeps(t, ctrl)
		stubCustomerSources(m)

		out, err := agentFor(t, deps, domain.AgentCustomer).Process(context.Background(), &domain.AgentInput{Message: "list newsletter subscribers"})
		require.NoError(t, err)
		assert.Equal(t, 2, out.Data["matched"])
		assert.Contains(t, out.Response, "### Matching customers")
	})

	t.Run("source failure is fatal", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		deps, m := newTestDeps(t, ctrl)
		audienceErr := errors.New("newsletter table missing")
		m.orders.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
		m.inquiries.EXPECT().List(gomock.Any()).Return(nil, nil).AnyTimes()
		m.audience.EXPECT().ListSubscribers(gomock.Any()).Return(nil, audienceErr)
		m.audience.EXPECT().ListContactSubmissions(gomock.Any()).Return(nil, nil).AnyTimes()

		_, err := agentFor(t, deps, domain.AgentCustomer).Process(context.Background(), &domain.AgentInput{Message: "list customers"})
		assert.ErrorIs(t, err, audienceErr)
	})
}

func TestBuildCustomerFilter(t *testing.T) {
	filter := buildCustomerFilter(&domain.AgentInput{Message: "buyers who spent over $500 this month"}, newAction(customerList), testNow)
	assert.Equal(t, []domain.CustomerSource{domain.CustomerSourceOrder}, filter.Sources)
	require.NotNil(t, filter.MinSpent)
	assert.Equal(t, domain.Cents(50000), *filter.MinSpent)
	assert.Equal(t, domain.MonthStart(testNow), filter.DateRange.From)

	search := buildCustomerFilter(&domain.AgentInput{Message: "find customer named smith"}, newAction(customerSearch, "query", "smith"), testNow)
	assert.Equal(t, "smith", search.Search)
	assert.Empty(t, search.Sources)
}

func TestProductsAgent(t *testing.T) {
	products := []domain.Product{
		{ID: "pr1", Title: "Cerakote Full Rifle", Category: "Cerakote", Price: 35000, InStock: true, Active: true},
		{ID: "pr2", Title: "Trigger Job", Category: "Gunsmithing", Price: 12000, InStock: false, Active: true},
		{ID: "pr3", Title: "Slide Engraving", Category: "Engraving", Price: 18000, InStock: true, Active: true},
	}

	t.Run("search with product knowledge", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		deps, m := newTestDeps(t, ctrl)
		deps.Services.Knowledge = m.knowledge
		m.products.EXPECT().List(gomock.Any()).Return(products, nil)
		m.knowledge.EXPECT().Retrieve(gomock.Any(), "products", "cerakote", 3).Return(&domain.KnowledgeContext{
			Query: "cerakote", Text: "Cerakote turnaround is two weeks.", Results: []domain.VectorResult{{ID: "doc1"}},
		}, nil)

		out, err := agentFor(t, deps, domain.AgentProducts).Process(context.Background(), &domain.AgentInput{Message: "do we offer cerakote?"})
		require.NoError(t, err)
		assert.Contains(t, out.Response, "Cerakote Full Rifle | Cerakote | $350.00 | in stock")
		assert.Contains(t, out.Response, "Cerakote turnaround is two weeks.")
		assert.NotContains(t, out.Response, "Trigger Job")
		assert.Contains(t, out.ToolsUsed, "lancedb:search")
	})

	t.Run("search degrades without knowledge", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		deps, m := newTestDeps(t, ctrl)
		deps.Services.Knowledge = m.knowledge
		m.products.EXPECT().List(gomock.Any()).Return(products, nil)
		m.knowledge.EXPECT().Retrieve(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("lancedb down"))

		out, err := agentFor(t, deps, domain.AgentProducts).Process(context.Background(), &domain.AgentInput{Message: "search for engraving"})
		require.NoError(t, err)
		assert.Equal(t, false, out.Data["knowledgeAvailable"])
		assert.Contains(t, out.Response, "Slide Engraving")
		assert.Contains(t, out.Response, "Product knowledge search unavailable.")
	})

	t.Run("in stock list", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		deps, m := newTestDeps(t, ctrl)
		m.products.EXPECT().List(gomock.Any()).Return(products, nil)

		out, err := agentFor(t, deps, domain.AgentProducts).Process(context.Background(), &domain.AgentInput{Message: "what's in stock"})
		require.NoError(t, err)
		assert.Contains(t, out.Response, "3 products, 2 in stock")
		assert.NotContains(t, out.Response, "Trigger Job")
	})

	t.Run("discount codes", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		deps, m := newTestDeps(t, ctrl)
		m.discounts.EXPECT().List(gomock.Any()).Return([]domain.DiscountCode{
			{Code: "ACE15", PartnerStoreID: "p1", DiscountType: domain.DiscountTypePercentage, DiscountValue: 15, Active: true},
			{Code: "OLD10", DiscountType: domain.DiscountTypeFixed, DiscountValue: 1000, Active: true, UsageCount: 5, MaxUsage: 5},
		}, nil)
		m.partners.EXPECT().List(gomock.Any()).Return([]domain.PartnerStore{{ID: "p1", StoreName: "Ace Guns"}}, nil)

		out, err := agentFor(t, deps, domain.AgentProducts).Process(context.Background(), &domain.AgentInput{Message: "list discount codes"})
		require.NoError(t, err)
		assert.Contains(t, out.Response, "2 discount codes, 1 usable now")
		assert.Contains(t, out.Response, "- ACE15 | 15% off | used 0 | usable | partner Ace Guns")
		assert.Contains(t, out.Response, "- OLD10 | $10.00 off | used 5/5 | not usable")
	})
}

func TestChatAgent(t *testing.T) {
	t.Run("knowledge lookup", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		deps, m := newTestDeps(t, ctrl)
		deps.Services.Knowledge = m.knowledge
		m.knowledge.EXPECT().Retrieve(gomock.Any(), "knowledge", "explain the refund policy", 3).Return(&domain.KnowledgeContext{
			Text: "Refunds are issued within 30 days.",
		}, nil)

		out, err := agentFor(t, deps, domain.AgentChat).Process(context.Background(), &domain.AgentInput{Message: "explain the refund policy"})
		require.NoError(t, err)
		assert.Contains(t, out.Response, "Refunds are issued within 30 days.")
		assert.Equal(t, []string{"lancedb:search"}, out.ToolsUsed)
	})

	t.Run("knowledge not configured", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		deps, _ := newTestDeps(t, ctrl)

		out, err := agentFor(t, deps, domain.AgentChat).Process(context.Background(), &domain.AgentInput{Message: "what is the warranty policy"})
		require.NoError(t, err)
		assert.Contains(t, out.Response, "The knowledge base is unavailable right now.")
	})

	t.Run("web search", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		deps, m := newTestDeps(t, ctrl)
		deps.Services.WebSearch = m.webSearch
		m.webSearch.EXPECT().Search(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req domain.WebSearchRequest) (*domain.WebSearchResponse, error) {
				assert.True(t, req.IncludeAnswer)
				assert.Equal(t, webSearchResults, req.MaxResults)
				return &domain.WebSearchResponse{
					Answer:  "The rule takes effect in May.",
					Results: []domain.WebSearchResult{{Title: "Federal Register", URL: "https://example.gov/rule"}},
				}, nil
			})

		out, err := agentFor(t, deps, domain.AgentChat).Process(context.Background(), &domain.AgentInput{Message: "search the web for the new ATF rule"})
		require.NoError(t, err)
		assert.Contains(t, out.Response, "The rule takes effect in May.")
		assert.Contains(t, out.Response, "- Federal Register (https://example.gov/rule)")
		assert.Equal(t, []string{"tavily:search"}, out.ToolsUsed)
	})

	t.Run("plain conversation touches no backend", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		deps, _ := newTestDeps(t, ctrl)

		out, err := agentFor(t, deps, domain.AgentChat).Process(context.Background(), &domain.AgentInput{Message: "hello there"})
		require.NoError(t, err)
		assert.Empty(t, out.ToolsUsed)
		assert.NotContains(t, out.Response, "unavailable")
	})
}
