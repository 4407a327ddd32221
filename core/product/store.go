package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("product not found")

const listedColumns = `
	p.product_id, p.category_id, p.title, p.description_short, p.price,
	p.free_delivery, p.created_at, p.rating, p.count,
	(SELECT COUNT(*) FROM product_reviews r WHERE r.product_id = p.product_id) AS reviews_count`

func Fetch(ctx context.Context, db sqlx.ExtContext, id int64) (Product, error) {
	const q = `SELECT * FROM products WHERE product_id = $1`

	var p Product
	if err := sqlx.GetContext(ctx, db, &p, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("fetching product[%d]: %w", id, err)
	}

	return p, nil
}

// FetchListed returns the short form of the given products, in no particular
// order. Missing ids are silently skipped.
func FetchListed(ctx context.Context, db sqlx.ExtContext, ids []int64) ([]Listed, error) {
	if len(ids) == 0 {
		return []Listed{}, nil
	}

	q := `SELECT` + listedColumns + ` FROM products p WHERE p.product_id IN (?)`
	q, args, err := sqlx.In(q, ids)
	if err != nil {
		return nil, fmt.Errorf("expanding product ids: %w", err)
	}

	items := []Listed{}
	if err := sqlx.SelectContext(ctx, db, &items, db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("fetching products: %w", err)
	}

	if err := attachRelations(ctx, db, items); err != nil {
		return nil, err
	}

	return items, nil
}

// FetchCatalog runs the filtered, sorted, unpaginated listing query.
func FetchCatalog(ctx context.Context, db sqlx.ExtContext, f Filter) ([]Listed, error) {
	q := `SELECT DISTINCT` + listedColumns + ` FROM products p`

	var clauses []string
	var args []interface{}

	if len(f.Tags) > 0 {
		q += ` JOIN product_tags pt ON pt.product_id = p.product_id`

		tagIDs := make([]int64, 0, len(f.Tags))
		for _, t := range f.Tags {
			id, err := strconv.ParseInt(t, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parsing tag id[%s]: %w", t, err)
			}
			tagIDs = append(tagIDs, id)
		}

		in, inArgs, err := sqlx.In(`pt.tag_id IN (?)`, tagIDs)
		if err != nil {
			return nil, fmt.Errorf("expanding tag ids: %w", err)
		}
		clauses = append(clauses, in)
		args = append(args, inArgs...)
	}

	if f.Category != "" {
		id, err := strconv.ParseInt(f.Category, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing category id[%s]: %w", f.Category, err)
		}
		clauses = append(clauses, `p.category_id = ?`)
		args = append(args, id)
	}

	if f.Available == "true" {
		clauses = append(clauses, `p.available = TRUE`)
	}

	if f.FreeDelivery == "true" {
		clauses = append(clauses, `p.free_delivery = TRUE`)
	}

	if f.Search != "" {
		clauses = append(clauses, `p.title ILIKE ?`)
		args = append(args, "%"+f.Search+"%")
	}

	if f.PriceMin != "" {
		clauses = append(clauses, `p.price > ?`)
		args = append(args, f.PriceMin)
	}

	if f.PriceMax != "" {
		clauses = append(clauses, `p.price <= ?`)
		args = append(args, f.PriceMax)
	}

	for i, c := range clauses {
		if i == 0 {
			q += ` WHERE ` + c
		} else {
			q += ` AND ` + c
		}
	}

	q += ` ORDER BY ` + f.orderBy()

	items := []Listed{}
	if err := sqlx.SelectContext(ctx, db, &items, db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}

	if err := attachRelations(ctx, db, items); err != nil {
		return nil, err
	}

	return items, nil
}

// FetchSection serves the homepage sections. The extra condition is a trusted
// SQL fragment chosen by the handlers, never client input.
func FetchSection(ctx context.Context, db sqlx.ExtContext, cond string, limit int, args ...interface{}) ([]Listed, error) {
	q := `SELECT` + listedColumns + ` FROM products p WHERE p.available = TRUE`
	if cond != "" {
		q += ` AND ` + cond
	}
	q += ` ORDER BY p.created_at LIMIT ` + strconv.Itoa(limit)

	items := []Listed{}
	if err := sqlx.SelectContext(ctx, db, &items, db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("fetching product section: %w", err)
	}

	if err := attachRelations(ctx, db, items); err != nil {
		return nil, err
	}

	return items, nil
}

func attachRelations(ctx context.Context, db sqlx.ExtContext, items []Listed) error {
	for i := range items {
		items[i].Images = []Image{}
		items[i].Tags = []Tag{}
	}
	if len(items) == 0 {
		return nil
	}

	index := make(map[int64]*Listed, len(items))
	ids := make([]int64, 0, len(items))
	for i := range items {
		index[items[i].ID] = &items[i]
		ids = append(ids, items[i].ID)
	}

	qi, argsI, err := sqlx.In(`SELECT product_id, src, alt FROM product_images WHERE product_id IN (?) ORDER BY image_id`, ids)
	if err != nil {
		return fmt.Errorf("expanding image ids: %w", err)
	}

	var images []struct {
		ProductID int64  `db:"product_id"`
		Src       string `db:"src"`
		Alt       string `db:"alt"`
	}
	if err := sqlx.SelectContext(ctx, db, &images, db.Rebind(qi), argsI...); err != nil {
		return fmt.Errorf("fetching product images: %w", err)
	}
	for _, img := range images {
		p := index[img.ProductID]
		p.Images = append(p.Images, Image{Src: img.Src, Alt: img.Alt})
	}

	qt, argsT, err := sqlx.In(`
		SELECT pt.product_id, t.tag_id, t.value FROM product_tags pt
		JOIN tags t ON t.tag_id = pt.tag_id
		WHERE pt.product_id IN (?) ORDER BY t.tag_id`, ids)
	if err != nil {
		return fmt.Errorf("expanding tag ids: %w", err)
	}

	var tags []struct {
		ProductID int64  `db:"product_id"`
		TagID     int64  `db:"tag_id"`
		Value     string `db:"value"`
	}
	if err := sqlx.SelectContext(ctx, db, &tags, db.Rebind(qt), argsT...); err != nil {
		return fmt.Errorf("fetching product tags: %w", err)
	}
	for _, tg := range tags {
		p := index[tg.ProductID]
		p.Tags = append(p.Tags, Tag{ID: tg.TagID, Name: tg.Value})
	}

	return nil
}

func FetchDetailed(ctx context.Context, db sqlx.ExtContext, id int64) (Detailed, error) {
	items, err := FetchListed(ctx, db, []int64{id})
	if err != nil {
		return Detailed{}, err
	}
	if len(items) == 0 {
		return Detailed{}, ErrNotFound
	}

	d := Detailed{Listed: items[0]}

	const qf = `SELECT description_full FROM products WHERE product_id = $1`
	if err := sqlx.GetContext(ctx, db, &d.FullDescription, qf, id); err != nil {
		return Detailed{}, fmt.Errorf("fetching product description[%d]: %w", id, err)
	}

	const qs = `SELECT name, value FROM product_specs WHERE product_id = $1 ORDER BY name`
	d.Specifications = []Spec{}
	if err := sqlx.SelectContext(ctx, db, &d.Specifications, qs, id); err != nil {
		return Detailed{}, fmt.Errorf("fetching product specs[%d]: %w", id, err)
	}

	d.ReviewList, err = FetchReviews(ctx, db, id)
	if err != nil {
		return Detailed{}, err
	}

	return d, nil
}

func FetchCategories(ctx context.Context, db sqlx.ExtContext, roots bool) ([]Category, error) {
	q := `SELECT * FROM categories WHERE parent_id IS NULL ORDER BY category_id`
	if !roots {
		q = `SELECT * FROM categories WHERE parent_id IS NOT NULL ORDER BY category_id`
	}

	cats := []Category{}
	if err := sqlx.SelectContext(ctx, db, &cats, q); err != nil {
		return nil, fmt.Errorf("fetching categories: %w", err)
	}

	return cats, nil
}

func FetchTags(ctx context.Context, db sqlx.ExtContext, category string) ([]Tag, error) {
	q := `SELECT DISTINCT t.tag_id, t.value FROM tags t`
	var args []interface{}

	if category != "" {
		id, err := strconv.ParseInt(category, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing category id[%s]: %w", category, err)
		}
		q += `
			JOIN product_tags pt ON pt.tag_id = t.tag_id
			JOIN products p ON p.product_id = pt.product_id
			WHERE p.category_id = ?`
		args = append(args, id)
	}

	q += ` ORDER BY t.tag_id`

	tags := []Tag{}
	if err := sqlx.SelectContext(ctx, db, &tags, db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("fetching tags: %w", err)
	}

	return tags, nil
}

func FetchSales(ctx context.Context, db sqlx.ExtContext) ([]Sale, error) {
	const q = `
		SELECT s.product_id, p.price, s.sale_price, s.date_from, s.date_to, p.title
		FROM sales s
		JOIN products p ON p.product_id = s.product_id
		ORDER BY s.product_id`

	sales := []Sale{}
	if err := sqlx.SelectContext(ctx, db, &sales, q); err != nil {
		return nil, fmt.Errorf("fetching sales: %w", err)
	}

	for i := range sales {
		sales[i].Images = []Image{}

		const qi = `SELECT src, alt FROM product_images WHERE product_id = $1 ORDER BY image_id`
		if err := sqlx.SelectContext(ctx, db, &sales[i].Images, qi, sales[i].ID); err != nil {
			return nil, fmt.Errorf("fetching sale images[%d]: %w", sales[i].ID, err)
		}
	}

	return sales, nil
}

func FetchReviews(ctx context.Context, db sqlx.ExtContext, productID int64) ([]Review, error) {
	const q = `
		SELECT
			CASE WHEN TRIM(u.first_name || ' ' || u.last_name) <> ''
				THEN TRIM(u.first_name || ' ' || u.last_name)
				ELSE u.username || ' (nickname)'
			END AS author,
			u.email, r.text, r.rate, r.created_at
		FROM product_reviews r
		JOIN users u ON u.user_id = r.user_id
		WHERE r.product_id = $1
		ORDER BY r.created_at`

	reviews := []Review{}
	if err := sqlx.SelectContext(ctx, db, &reviews, q, productID); err != nil {
		return nil, fmt.Errorf("fetching reviews[%d]: %w", productID, err)
	}

	return reviews, nil
}

func CreateReview(ctx context.Context, db sqlx.ExtContext, productID int64, userID string, rev ReviewNew, now time.Time) error {
	const q = `
		INSERT INTO product_reviews (product_id, user_id, text, rate, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := db.ExecContext(ctx, q, productID, userID, rev.Text, rev.Rate, now); err != nil {
		return fmt.Errorf("creating review[%d]: %w", productID, err)
	}

	return nil
}

// RefreshRating recomputes the product's rating as the mean of its review
// rates.
func RefreshRating(ctx context.Context, db sqlx.ExtContext, productID int64) error {
	const q = `
		UPDATE products SET rating = COALESCE(
			(SELECT AVG(rate) FROM product_reviews WHERE product_id = $1), 0)
		WHERE product_id = $1`

	if _, err := db.ExecContext(ctx, q, productID); err != nil {
		return fmt.Errorf("refreshing rating[%d]: %w", productID, err)
	}

	return nil
}

// UpdateStock sets the remaining stock and availability, part of the payment
// transaction.
func UpdateStock(ctx context.Context, db sqlx.ExtContext, productID int64, count int, available bool, now time.Time) error {
	const q = `
		UPDATE products SET count = $2, available = $3, updated_at = $4
		WHERE product_id = $1`

	if _, err := db.ExecContext(ctx, q, productID, count, available, now); err != nil {
		return fmt.Errorf("updating stock[%d]: %w", productID, err)
	}

	return nil
}
