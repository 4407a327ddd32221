package product

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/LeoWanLW/Megano-Store/api/web"
	"github.com/LeoWanLW/Megano-Store/api/weberr"
	"github.com/LeoWanLW/Megano-Store/cache"
	"github.com/LeoWanLW/Megano-Store/config"
	"github.com/LeoWanLW/Megano-Store/core/claims"
	"github.com/LeoWanLW/Megano-Store/validate"
	"github.com/jmoiron/sqlx"
)

// cachedList serves a product listing through the cache: cached values are
// returned as-is, misses run the query and write back in non-debug mode only.
func cachedList(ctx context.Context, ch cache.Cache, debug bool, key string, ttl time.Duration, fetch func() ([]Listed, error)) ([]Listed, error) {
	items := []Listed{}
	if ok, err := ch.Get(ctx, key, &items); err != nil {
		return nil, fmt.Errorf("reading cached listing[%s]: %w", key, err)
	} else if ok {
		return items, nil
	}

	items, err := fetch()
	if err != nil {
		return nil, err
	}

	if !debug {
		if err := ch.Set(ctx, key, items, ttl); err != nil {
			return nil, fmt.Errorf("caching listing[%s]: %w", key, err)
		}
	}

	return items, nil
}

func HandleCatalog(db *sqlx.DB, ch cache.Cache, cfg config.Catalog, debug bool) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		f := Filter{
			Category:     web.Query(r, "category"),
			Search:       web.Query(r, "filter[name]"),
			Available:    web.Query(r, "filter[available]"),
			FreeDelivery: web.Query(r, "filter[freeDelivery]"),
			PriceMin:     web.Query(r, "filter[minPrice]"),
			PriceMax:     web.Query(r, "filter[maxPrice]"),
			Sort:         web.Query(r, "sort"),
			SortType:     web.Query(r, "sortType"),
			Tags:         web.QueryAll(r, "tags[]"),
		}

		page := 1
		if raw := web.Query(r, "currentPage"); raw != "" {
			var err error
			if page, err = strconv.Atoi(raw); err != nil {
				return weberr.BadRequest(fmt.Errorf("parsing currentPage: %w", err))
			}
		}

		limit := cfg.PageLimit
		if raw := web.Query(r, "limit"); raw != "" {
			var err error
			if limit, err = strconv.Atoi(raw); err != nil || limit < 1 {
				return weberr.BadRequest(fmt.Errorf("parsing limit[%s]", raw))
			}
		}

		items, err := cachedList(ctx, ch, debug, f.CacheKey(), cache.ListingTTL, func() ([]Listed, error) {
			items, err := FetchCatalog(ctx, db, f)
			if err != nil {
				return nil, weberr.BadRequest(err)
			}
			return items, nil
		})
		if err != nil {
			return err
		}

		p := Page{
			Items:       Paginate(items, page, limit),
			CurrentPage: page,
			LastPage:    LastPage(len(items), limit),
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB, ch cache.Cache, debug bool) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := strconv.ParseInt(web.Param(r, "id"), 10, 64)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("parsing product id: %w", err))
		}

		key := "product" + strconv.FormatInt(id, 10)

		var d Detailed
		if ok, err := ch.Get(ctx, key, &d); err != nil {
			return fmt.Errorf("reading cached product[%s]: %w", key, err)
		} else if ok {
			return web.Respond(ctx, w, d, http.StatusOK)
		}

		d, err = FetchDetailed(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if !debug {
			if err := ch.Set(ctx, key, d, cache.ListingTTL); err != nil {
				return fmt.Errorf("caching product[%s]: %w", key, err)
			}
		}

		return web.Respond(ctx, w, d, http.StatusOK)
	}
}

func HandleCategories(db *sqlx.DB, ch cache.Cache, debug bool) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		const key = "categories"

		tree := []CategoryNode{}
		if ok, err := ch.Get(ctx, key, &tree); err != nil {
			return fmt.Errorf("reading cached categories: %w", err)
		} else if ok {
			return web.Respond(ctx, w, tree, http.StatusOK)
		}

		roots, err := FetchCategories(ctx, db, true)
		if err != nil {
			return err
		}
		subs, err := FetchCategories(ctx, db, false)
		if err != nil {
			return err
		}

		for _, root := range roots {
			node := CategoryNode{
				ID:            root.ID,
				Title:         root.Title,
				Image:         Image{Src: root.ImageSrc, Alt: root.ImageAlt},
				Subcategories: []CategoryNode{},
			}
			for _, sub := range subs {
				if sub.ParentID != nil && *sub.ParentID == root.ID {
					node.Subcategories = append(node.Subcategories, CategoryNode{
						ID:    sub.ID,
						Title: sub.Title,
						Image: Image{Src: sub.ImageSrc, Alt: sub.ImageAlt},
					})
				}
			}
			tree = append(tree, node)
		}

		if !debug {
			if err := ch.Set(ctx, key, tree, cache.MetadataTTL); err != nil {
				return fmt.Errorf("caching categories: %w", err)
			}
		}

		return web.Respond(ctx, w, tree, http.StatusOK)
	}
}

func HandleTags(db *sqlx.DB, ch cache.Cache, debug bool) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		category := web.Query(r, "category")

		key := "alltags"
		if category != "" {
			key = "tagsfor" + category
		}

		tags := []Tag{}
		if ok, err := ch.Get(ctx, key, &tags); err != nil {
			return fmt.Errorf("reading cached tags[%s]: %w", key, err)
		} else if ok {
			return web.Respond(ctx, w, tags, http.StatusOK)
		}

		tags, err := FetchTags(ctx, db, category)
		if err != nil {
			return weberr.BadRequest(err)
		}

		if !debug {
			if err := ch.Set(ctx, key, tags, cache.MetadataTTL); err != nil {
				return fmt.Errorf("caching tags[%s]: %w", key, err)
			}
		}

		return web.Respond(ctx, w, tags, http.StatusOK)
	}
}

func HandleBanners(db *sqlx.DB, ch cache.Cache, cfg config.Catalog, debug bool) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		key := "banners" + strconv.FormatInt(cfg.BannersCategory, 10)

		items, err := cachedList(ctx, ch, debug, key, cache.ListingTTL, func() ([]Listed, error) {
			return FetchSection(ctx, db, `p.category_id = ?`, cfg.SectionLimit, cfg.BannersCategory)
		})
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, items, http.StatusOK)
	}
}

func HandleLimited(db *sqlx.DB, ch cache.Cache, cfg config.Catalog, debug bool) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		items, err := cachedList(ctx, ch, debug, "limited", cache.ListingTTL, func() ([]Listed, error) {
			return FetchSection(ctx, db, `p.limited_edition = TRUE`, cfg.SectionLimit)
		})
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, items, http.StatusOK)
	}
}

func HandlePopular(db *sqlx.DB, ch cache.Cache, cfg config.Catalog, debug bool) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		key := "popular" + cfg.PopularRating

		items, err := cachedList(ctx, ch, debug, key, cache.ListingTTL, func() ([]Listed, error) {
			return FetchSection(ctx, db, `p.rating > ?`, cfg.SectionLimit, cfg.PopularRating)
		})
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, items, http.StatusOK)
	}
}

func HandleSales(db *sqlx.DB, ch cache.Cache, cfg config.Catalog, debug bool) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		page := 1
		if raw := web.Query(r, "currentPage"); raw != "" {
			var err error
			if page, err = strconv.Atoi(raw); err != nil {
				return weberr.BadRequest(fmt.Errorf("parsing currentPage: %w", err))
			}
		}

		const key = "sales"

		sales := []Sale{}
		ok, err := ch.Get(ctx, key, &sales)
		if err != nil {
			return fmt.Errorf("reading cached sales: %w", err)
		}
		if !ok {
			if sales, err = FetchSales(ctx, db); err != nil {
				return err
			}

			if !debug {
				if err := ch.Set(ctx, key, sales, cache.MetadataTTL); err != nil {
					return fmt.Errorf("caching sales: %w", err)
				}
			}
		}

		p := SalesPage{
			Items:       PaginateSales(sales, page, cfg.PageLimit),
			CurrentPage: page,
			LastPage:    LastPage(len(sales), cfg.PageLimit),
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

// HandleCreateReview publishes a review and refreshes the product rating.
// Anonymous visitors get the current review list back with a 400, mirroring
// the storefront contract.
func HandleCreateReview(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := strconv.ParseInt(web.Param(r, "id"), 10, 64)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("parsing product id: %w", err))
		}

		if _, err := Fetch(ctx, db, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		clm, err := claims.Get(ctx)
		if err != nil {
			reviews, err := FetchReviews(ctx, db, id)
			if err != nil {
				return err
			}
			return web.Respond(ctx, w, reviews, http.StatusBadRequest)
		}

		var rev ReviewNew
		if err := web.Decode(w, r, &rev); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding review: %w", err))
		}

		if err := validate.Check(rev); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		if err := CreateReview(ctx, db, id, clm.UserID, rev, time.Now().UTC()); err != nil {
			return err
		}

		if err := RefreshRating(ctx, db, id); err != nil {
			return err
		}

		reviews, err := FetchReviews(ctx, db, id)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, reviews, http.StatusCreated)
	}
}
