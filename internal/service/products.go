package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/nikolayk812/podstore/internal/port"
)

// listingLimit caps a listing page. Provider products are also fetched in
// pages of this size when a local id is mapped by listing position.
const listingLimit = 50

// ListedProduct is a provider product together with the local id the cart uses for it.
type ListedProduct struct {
	LocalID int
	Product domain.Product
}

type Products struct {
	provider port.FulfillmentProvider
	catalog  port.Catalog
}

func NewProducts(provider port.FulfillmentProvider, catalog port.Catalog) *Products {
	return &Products{provider: provider, catalog: catalog}
}

// List returns a provider listing page. A product linked in the catalog is
// listed under its catalog id. Any other product is listed under
// catalog.MaxID() plus its listing position, so the two never share an id.
func (s *Products) List(ctx context.Context, page, limit int) ([]ListedProduct, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > listingLimit {
		limit = listingLimit
	}

	listing, err := s.provider.ListProducts(ctx, page, limit)
	if err != nil {
		return nil, upstreamError("ListProducts", err)
	}

	out := make([]ListedProduct, 0, len(listing.Products))
	for i, p := range listing.Products {
		localID := unlinkedID(s.catalog, (page-1)*limit+i+1)
		if cp, ok := s.catalog.ByProviderID(p.ID); ok {
			localID = cp.ID
		}
		out = append(out, ListedProduct{LocalID: localID, Product: p})
	}
	return out, nil
}

// unlinkedID is the local id of the provider product at a 1-based listing
// position when the catalog does not link it.
func unlinkedID(catalog port.Catalog, position int) int {
	return catalog.MaxID() + position
}

// Get accepts a local numeric id or a provider product id.
func (s *Products) Get(ctx context.Context, ref string) (domain.Product, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return domain.Product{}, domain.Invalid("productId", "is empty")
	}

	if localID, err := strconv.Atoi(ref); err == nil {
		return newProductResolver(s.provider, s.catalog).resolve(ctx, localID)
	}

	p, err := s.provider.GetProduct(ctx, ref)
	if err != nil {
		return domain.Product{}, upstreamError("GetProduct", err)
	}
	return p, nil
}

// Variants returns the product's enabled variants and the option values they use.
func (s *Products) Variants(ctx context.Context, ref string) (domain.Product, []domain.OptionGroup, error) {
	p, err := s.Get(ctx, ref)
	if err != nil {
		return domain.Product{}, nil, err
	}

	options := domain.AvailableOptions(p)
	p.Variants = p.EnabledVariants()
	return p, options, nil
}

// productResolver maps local product ids onto provider products. It caches for
// the lifetime of one request so a checkout fetches each product once.
type productResolver struct {
	provider port.FulfillmentProvider
	catalog  port.Catalog

	byLocal map[int]domain.Product
	pages   map[int][]domain.Product
}

func newProductResolver(provider port.FulfillmentProvider, catalog port.Catalog) *productResolver {
	return &productResolver{
		provider: provider,
		catalog:  catalog,
		byLocal:  map[int]domain.Product{},
		pages:    map[int][]domain.Product{},
	}
}

// resolve follows the same numbering as Products.List. Catalog ids use the
// linked provider product; a catalog entry without a link falls back to the
// listing position equal to its id. Ids above the catalog are listing
// positions of unlinked products.
func (r *productResolver) resolve(ctx context.Context, localID int) (domain.Product, error) {
	if localID <= 0 {
		return domain.Product{}, domain.Invalid("id", "product id must be positive")
	}
	if p, ok := r.byLocal[localID]; ok {
		return p, nil
	}

	var (
		p   domain.Product
		err error
	)
	cp, inCatalog := r.catalog.Product(localID)
	switch {
	case inCatalog && cp.ProviderProductID != "":
		p, err = r.provider.GetProduct(ctx, cp.ProviderProductID)
		if err != nil {
			return domain.Product{}, upstreamError("GetProduct", err)
		}
	case inCatalog:
		p, err = r.atPosition(ctx, localID, localID)
	case localID > r.catalog.MaxID():
		p, err = r.atPosition(ctx, localID, localID-r.catalog.MaxID())
		if err == nil {
			if linked, ok := r.catalog.ByProviderID(p.ID); ok {
				err = domain.NotFound("id", fmt.Sprintf("product not found for id %d, it is listed as %d", localID, linked.ID))
			}
		}
	default:
		err = domain.NotFound("id", fmt.Sprintf("product not found for id %d", localID))
	}
	if err != nil {
		return domain.Product{}, err
	}

	r.byLocal[localID] = p
	return p, nil
}

func (r *productResolver) atPosition(ctx context.Context, localID, position int) (domain.Product, error) {
	page := (position-1)/listingLimit + 1

	products, ok := r.pages[page]
	if !ok {
		listing, err := r.provider.ListProducts(ctx, page, listingLimit)
		if err != nil {
			return domain.Product{}, upstreamError("ListProducts", err)
		}
		products = listing.Products
		r.pages[page] = products
	}

	idx := (position - 1) % listingLimit
	if idx >= len(products) {
		return domain.Product{}, domain.NotFound("id", fmt.Sprintf("product not found for id %d", localID))
	}
	return products[idx], nil
}

// upstreamError classifies provider failures. A provider 404 stays a not-found.
func upstreamError(op string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.Error{Kind: domain.KindNotFound, Op: op, Msg: "provider resource not found", Err: err}
	}
	return &domain.Error{Kind: domain.KindUpstream, Op: op, Msg: "fulfillment provider request failed", Err: err}
}
