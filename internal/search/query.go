package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/bookcrush/bookcrush-server/internal/normalize"
)

// SearchParams configures a catalog search.
type SearchParams struct {
	Query   string
	MinYear int
	MaxYear int
	Limit   int
	Offset  int
}

// SearchResult holds the hits for a query.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit is a single matching book.
type SearchHit struct {
	ID            string            `json:"id"`
	Score         float64           `json:"score"`
	Title         string            `json:"title"`
	Author        string            `json:"author"`
	ISBN          string            `json:"isbn,omitempty"`
	PublishedYear int               `json:"published_year,omitempty"`
	Highlights    map[string]string `json:"highlights,omitempty"`
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Search runs a fuzzy full-text query against titles and authors.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := params.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params), limit, max(params.Offset, 0), false)
	req.Fields = []string{"id", "title", "author", "isbn", "published_year"}
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField("title")
	req.Highlight.AddField("author")

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(res.Hits)),
	}

	for _, hit := range res.Hits {
		h := SearchHit{ID: hit.ID, Score: hit.Score}
		if v, ok := hit.Fields["title"].(string); ok {
			h.Title = v
		}
		if v, ok := hit.Fields["author"].(string); ok {
			h.Author = v
		}
		if v, ok := hit.Fields["isbn"].(string); ok {
			h.ISBN = v
		}
		if v, ok := hit.Fields["published_year"].(float64); ok {
			h.PublishedYear = int(v)
		}
		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string, len(hit.Fragments))
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, h)
	}

	return result, nil
}

// buildSearchQuery combines the text match with the year range filter.
// An empty query matches every book.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		queries = append(queries, textQuery(q))
	}

	if params.MinYear > 0 || params.MaxYear > 0 {
		var lo, hi *float64
		if params.MinYear > 0 {
			v := float64(params.MinYear)
			lo = &v
		}
		if params.MaxYear > 0 {
			v := float64(params.MaxYear)
			hi = &v
		}
		inclusive := true
		rq := bleve.NewNumericRangeInclusiveQuery(lo, hi, &inclusive, &inclusive)
		rq.SetField("published_year")
		queries = append(queries, rq)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}

func textQuery(q string) query.Query {
	folded := normalize.Fold(q)

	titleMatch := bleve.NewMatchQuery(q)
	titleMatch.SetField("title")
	titleMatch.SetBoost(3.0)

	authorMatch := bleve.NewMatchQuery(q)
	authorMatch.SetField("author")
	authorMatch.SetBoost(2.0)

	titleFolded := bleve.NewMatchQuery(folded)
	titleFolded.SetField("title_folded")
	titleFolded.SetBoost(2.0)

	authorFolded := bleve.NewMatchQuery(folded)
	authorFolded.SetField("author_folded")
	authorFolded.SetBoost(1.5)

	// Typo tolerance on each folded term.
	titleFuzzy := bleve.NewMatchQuery(folded)
	titleFuzzy.SetField("title_folded")
	titleFuzzy.SetFuzziness(1)
	titleFuzzy.SetBoost(0.8)

	authorFuzzy := bleve.NewMatchQuery(folded)
	authorFuzzy.SetField("author_folded")
	authorFuzzy.SetFuzziness(1)
	authorFuzzy.SetBoost(0.6)

	descMatch := bleve.NewMatchQuery(q)
	descMatch.SetField("description")
	descMatch.SetBoost(0.3)

	queries := []query.Query{titleMatch, authorMatch, titleFolded, authorFolded, titleFuzzy, authorFuzzy, descMatch}

	// Prefix for autocomplete (minimum 2 chars).
	if len(folded) >= 2 && !strings.Contains(folded, " ") {
		prefix := bleve.NewPrefixQuery(folded)
		prefix.SetField("title_folded")
		prefix.SetBoost(0.5)
		queries = append(queries, prefix)
	}

	if isbn, ok := normalize.ISBN(q); ok {
		isbnQuery := bleve.NewTermQuery(isbn)
		isbnQuery.SetField("isbn")
		isbnQuery.SetBoost(5.0)
		queries = append(queries, isbnQuery)
	}

	return bleve.NewDisjunctionQuery(queries...)
}
