package query

import (
	"regexp"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Filter is a tagged-variant condition tree. Conditions are built by parsing
// recognized operator tokens and rendered to a Mongo filter document only at
// execution time, never by textual substitution.
type Filter interface {
	bsonM() bson.M
}

type Op string

const (
	OpGt  Op = "$gt"
	OpGte Op = "$gte"
	OpLt  Op = "$lt"
	OpLte Op = "$lte"
)

type Eq struct {
	Field string
	Value any
}

func (f Eq) bsonM() bson.M { return bson.M{f.Field: f.Value} }

type Cmp struct {
	Field string
	Op    Op
	Value any
}

func (f Cmp) bsonM() bson.M { return bson.M{f.Field: bson.M{string(f.Op): f.Value}} }

type In struct {
	Field  string
	Values []any
}

func (f In) bsonM() bson.M { return bson.M{f.Field: bson.M{"$in": f.Values}} }

// Regex matches case-insensitively; the pattern is already quoted by the
// builder so user input can never change the query shape.
type Regex struct {
	Field   string
	Pattern string
}

func (f Regex) bsonM() bson.M {
	return bson.M{f.Field: bson.M{"$regex": f.Pattern, "$options": "i"}}
}

type Or []Filter

func (f Or) bsonM() bson.M {
	parts := make([]bson.M, 0, len(f))
	for _, c := range f {
		parts = append(parts, c.bsonM())
	}
	return bson.M{"$or": parts}
}

type And []Filter

func (f And) bsonM() bson.M {
	switch len(f) {
	case 0:
		return bson.M{}
	case 1:
		return f[0].bsonM()
	}
	parts := make([]bson.M, 0, len(f))
	for _, c := range f {
		parts = append(parts, c.bsonM())
	}
	return bson.M{"$and": parts}
}

// searchFields are the fields a free-text search term is matched against.
// A regex on tags matches any element of the array.
var searchFields = []string{"name", "description", "tags"}

func searchClause(term string) Or {
	pattern := regexp.QuoteMeta(term)
	clause := make(Or, 0, len(searchFields))
	for _, field := range searchFields {
		clause = append(clause, Regex{Field: field, Pattern: pattern})
	}
	return clause
}
