package agent

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Ironclad/ironclad/internal/domain"
)

const (
	productList      = "listProducts"
	productSearch    = "searchProducts"
	productDiscounts = "listDiscounts"

	productRowsShown = 25
)

func productsStrategy() *strategy {
	return &strategy{
		kind:          domain.AgentProducts,
		keywords:      []string{"product", "catalog", "inventory", "discount", "coupon", "promo code", "pricing", "in stock"},
		actions:       []string{productList, productSearch, productDiscounts, ActionCustom},
		defaultAction: ActionCustom,
		resolve:       resolveProducts,
		execute:       executeProducts,
		template:      productsTemplate,
		prompt: "You are the catalog assistant for a firearms services business. " +
			"The catalog lists services such as Cerakote, gunsmithing and engraving with their prices. " +
			"Answer from the context, quote prices exactly, and mention which discount codes are usable.",
		suggest: suggestProducts,
	}
}

func resolveProducts(in *domain.AgentInput) Action {
	msg := in.Message
	switch {
	case containsAny(msg, "discount", "coupon", "promo"):
		return newAction(productDiscounts)
	case containsAny(msg, "search", "find", "looking for", "do we have", "do we offer", "about"):
		return newAction(productSearch, "query", firstNonEmpty(
			extractQuery(msg, "search for", "search", "find", "looking for", "do we have", "do we offer", "about"),
			msg,
		))
	case containsWord(msg, "all") || containsAny(msg, "list", "show", "catalog", "inventory", "in stock", "pricing"):
		return newAction(productList)
	}
	return newAction(ActionCustom)
}

func executeProducts(ctx context.Context, a *Agent, action Action, in *domain.AgentInput) (*Result, error) {
	repos := a.deps.Repos
	now := a.deps.now()
	res := newResult()

	switch action.Name {
	case productDiscounts:
		var (
			codes    []domain.DiscountCode
			partners = domain.Failed[[]domain.PartnerStore](errSourceNotConfigured)
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			list, err := repos.Discounts.List(gctx)
			if err != nil {
				return fmt.Errorf("failed to list discount codes: %w", err)
			}
			codes = list
			return nil
		})
		if repos.Partners != nil {
			g.Go(func() error {
				partners = optional(gctx, a, "partners", repos.Partners.List)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		res.use("discountCodes:list")
		names := map[string]string{}
		if list, ok := partners.Get(); ok {
			res.use("partnerStores:list")
			names = domain.PartnerNames(list)
		}

		usable := 0
		rows := make([]map[string]interface{}, 0, len(codes))
		for i := range codes {
			if codes[i].IsUsable(now) {
				usable++
			}
			rows = append(rows, discountView(&codes[i], names, now))
		}
		res.Bindings["discounts"] = rows
		res.set("discountCount", len(codes))
		res.set("usableDiscounts", usable)
		res.Data["discounts"] = codes
		return res, nil

	case productSearch:
		return searchProducts(ctx, a, action, res)
	}

	products, err := repos.Products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	res.use("products:list")

	shown := products
	if containsAny(in.Message, "in stock", "available") {
		shown = make([]domain.Product, 0, len(products))
		for _, p := range products {
			if p.InStock && p.Active {
				shown = append(shown, p)
			}
		}
	}
	inStock := 0
	for _, p := range products {
		if p.InStock {
			inStock++
		}
	}
	shown = limitSlice(shown, productRowsShown)
	res.Bindings["products"] = productViews(shown)
	res.set("productCount", len(products))
	res.set("inStock", inStock)
	res.Data["products"] = shown
	return res, nil
}

// searchProducts matches the catalog by text and, when configured, pulls
// the closest passages from the product knowledge table.
func searchProducts(ctx context.Context, a *Agent, action Action, res *Result) (*Result, error) {
	query := action.Param("query")
	var (
		products  []domain.Product
		knowledge = domain.Failed[*domain.KnowledgeContext](errSourceNotConfigured)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := a.deps.Repos.Products.List(gctx)
		if err != nil {
			return fmt.Errorf("failed to list products: %w", err)
		}
		products = list
		return nil
	})
	if ks := a.deps.Services.Knowledge; ks != nil {
		g.Go(func() error {
			knowledge = optional(gctx, a, "product knowledge", func(ctx context.Context) (*domain.KnowledgeContext, error) {
				return ks.Retrieve(ctx, a.deps.ProductTable, query, a.deps.TopK)
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res.use("products:list")

	matched := limitSlice(domain.SearchProducts(products, query), productRowsShown)
	res.Bindings["query"] = query
	res.Bindings["products"] = productViews(matched)
	res.set("matched", len(matched))
	res.Data["products"] = matched

	kc, ok := knowledge.Get()
	res.set("knowledgeAvailable", ok)
	res.Bindings["knowledge"] = ""
	if ok {
		res.use("lancedb:search")
		res.Bindings["knowledge"] = kc.Text
		res.Data["sources"] = len(kc.Results)
	}
	return res, nil
}

func suggestProducts(action Action, res *Result) []domain.SuggestedAction {
	switch action.Name {
	case productDiscounts:
		return []domain.SuggestedAction{
			suggestion("Product catalog", productList, "square.grid.2x2"),
			suggestion("Partner stores", vendorList, "building.2"),
		}
	}
	return []domain.SuggestedAction{
		suggestion("Discount codes", productDiscounts, "tag"),
		suggestion("In-stock items", productList, "shippingbox"),
	}
}

const productsTemplate = `## Catalog ({{ today }})
{% if action == "listDiscounts" %}
{{ discountCount }} discount codes, {{ usableDiscounts }} usable now
{% for d in discounts %}- {{ d.code }} | {{ d.offer }} | used {{ d.usage }} | {% if d.usable %}usable{% else %}not usable{% endif %}{% if d.partner != "" %} | partner {{ d.partner }}{% endif %}{% if d.expires != "" %} | expires {{ d.expires }}{% endif %}{% if d.product != "" %} | product {{ d.product }}{% endif %}{% if d.override %} | custom commission{% endif %}
{% endfor %}
{% elsif action == "searchProducts" %}
Search: "{{ query }}" ({{ matched }} catalog matches)
{% for p in products %}- {{ p.title }} | {{ p.category }} | {{ p.price }} | {% if p.inStock %}in stock{% else %}out of stock{% endif %}
{% endfor %}
{% if knowledge != "" %}### Product knowledge
{{ knowledge }}
{% elsif knowledgeAvailable == false %}Product knowledge search unavailable.
{% endif %}
{% else %}
{{ productCount }} products, {{ inStock }} in stock
{% for p in products %}- {{ p.title }} | {{ p.category }} | {{ p.price }} | {% if p.inStock %}in stock{% else %}out of stock{% endif %}{% if p.active == false %} | inactive{% endif %}
{% endfor %}
{% endif %}`
