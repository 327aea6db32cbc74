package query

import (
	"context"
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination carries the next/prev descriptors; either is omitted when the
// edge of the result set has been reached.
type Pagination struct {
	Next *PageRef `json:"next,omitempty"`
	Prev *PageRef `json:"prev,omitempty"`
}

type Result struct {
	Count      int
	Total      int64
	Pagination Pagination
}

// Paginate executes the descriptor against col and decodes the page of
// records into out (a pointer to a slice). Total reflects the post-search
// filter, not just the field filters. Read-only; safe for concurrent use.
func Paginate(ctx context.Context, col *mongo.Collection, d *Descriptor, out any) (*Result, error) {
	filter := d.FilterBSON()

	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}

	opts := options.Find().
		SetSort(d.Sort).
		SetSkip(int64((d.Page - 1) * d.Limit)).
		SetLimit(int64(d.Limit))
	if proj := d.projection(); proj != nil {
		opts.SetProjection(proj)
	}

	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	return &Result{
		Count:      reflect.ValueOf(out).Elem().Len(),
		Total:      total,
		Pagination: paginationFor(d.Page, d.Limit, total),
	}, nil
}

func paginationFor(page, limit int, total int64) Pagination {
	var p Pagination
	if int64(page)*int64(limit) < total {
		p.Next = &PageRef{Page: page + 1, Limit: limit}
	}
	if page > 1 {
		p.Prev = &PageRef{Page: page - 1, Limit: limit}
	}
	return p
}
