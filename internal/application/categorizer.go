package application

import (
	"context"
	"sort"
	"strings"

	"github.com/farstore/checkout-core/internal/domain"
)

// Scorer rates how well a product fits one store pattern. Swapping the scorer
// changes weights and matching without touching the assignment loop.
type Scorer interface {
	Score(product domain.Product, pattern domain.StorePattern) int
}

// KeywordScorer is the default heuristic: bidirectional-substring matches on
// type, vendor and tags, plus literal keyword hits in the concatenated text.
type KeywordScorer struct{}

const (
	scoreProductType = 15
	scoreVendor      = 10
	scoreTag         = 8
	scoreKeyword     = 1
)

func (KeywordScorer) Score(product domain.Product, pattern domain.StorePattern) int {
	score := 0
	productType := strings.ToLower(strings.TrimSpace(product.ProductType))
	vendor := strings.ToLower(strings.TrimSpace(product.Vendor))

	if productType != "" {
		for _, pt := range pattern.ProductTypes {
			if fuzzyMatch(productType, strings.ToLower(pt)) {
				score += scoreProductType
				break
			}
		}
	}
	if vendor != "" {
		for _, v := range pattern.Vendors {
			if fuzzyMatch(vendor, strings.ToLower(v)) {
				score += scoreVendor
				break
			}
		}
	}
	for _, tag := range product.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		for _, pt := range pattern.Tags {
			if fuzzyMatch(tag, strings.ToLower(pt)) {
				score += scoreTag
				break
			}
		}
	}

	haystack := strings.ToLower(strings.Join(append([]string{product.Title, product.Description, product.ProductType}, product.Tags...), " "))
	for _, kw := range pattern.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(haystack, kw) {
			score += scoreKeyword
		}
	}
	return score
}

// fuzzyMatch is substring containment in either direction. Both inputs are
// expected lowercased.
func fuzzyMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// Categorize scores the product against the cached store patterns and returns
// the winning store, or assigned=false when the best score stays under the
// threshold. The first-encountered maximum wins ties; pattern order is the
// order the cache returns, so the result is deterministic for a fixed table.
func (s *Service) Categorize(ctx context.Context, product domain.Product) (storeID string, score int, assigned bool, err error) {
	patterns, err := s.cache.Get(ctx)
	if err != nil {
		return "", 0, false, err
	}
	storeID, score = s.categorizeAgainst(product, patterns)
	if score < s.cfg.AssignThreshold {
		return "", score, false, nil
	}
	now := s.nowFn()
	if err := s.enqueueProductCategorized(ctx, product.ProductID, storeID, score, now); err != nil {
		s.logger.WarnContext(ctx, "product categorized event enqueue failed",
			"module", "application.categorizer",
			"layer", "application",
			"operation", "categorize",
			"outcome", "degraded",
			"product_id", product.ProductID,
			"error", err,
		)
	}
	return storeID, score, true, nil
}

func (s *Service) categorizeAgainst(product domain.Product, patterns []domain.StorePattern) (string, int) {
	bestStore := ""
	bestScore := -1
	for _, pattern := range patterns {
		if sc := s.scorer.Score(product, pattern); sc > bestScore {
			bestScore = sc
			bestStore = pattern.StoreID
		}
	}
	if bestScore < 0 {
		return "", 0
	}
	return bestStore, bestScore
}

// RefreshPatterns rebuilds the pattern table from the currently assigned
// catalog and replaces both the durable copy and the cache.
func (s *Service) RefreshPatterns(ctx context.Context) (int, error) {
	products, err := s.products.ListAssigned(ctx)
	if err != nil {
		return 0, err
	}
	patterns := AnalyzeExistingProducts(products)
	if err := s.patterns.ReplaceAll(ctx, patterns); err != nil {
		return 0, err
	}
	if err := s.cache.Refresh(ctx, patterns); err != nil {
		return 0, err
	}
	return len(patterns), nil
}

// InitializePatterns loads the durable pattern table into the cache at startup,
// analyzing the catalog from scratch when none was stored yet.
func (s *Service) InitializePatterns(ctx context.Context) error {
	patterns, err := s.patterns.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(patterns) == 0 {
		products, err := s.products.ListAssigned(ctx)
		if err != nil {
			return err
		}
		patterns = AnalyzeExistingProducts(products)
		if err := s.patterns.ReplaceAll(ctx, patterns); err != nil {
			return err
		}
	}
	return s.cache.Initialize(ctx, patterns)
}

// AnalyzeExistingProducts derives one pattern per store from its assigned
// products: the distinct types, vendors and tags, plus the most frequent title
// words as keywords.
func AnalyzeExistingProducts(products []domain.Product) []domain.StorePattern {
	type bucket struct {
		types    map[string]struct{}
		vendors  map[string]struct{}
		tags     map[string]struct{}
		wordFreq map[string]int
	}
	buckets := map[string]*bucket{}
	order := []string{}
	for _, p := range products {
		if p.StoreID == "" {
			continue
		}
		b, ok := buckets[p.StoreID]
		if !ok {
			b = &bucket{types: map[string]struct{}{}, vendors: map[string]struct{}{}, tags: map[string]struct{}{}, wordFreq: map[string]int{}}
			buckets[p.StoreID] = b
			order = append(order, p.StoreID)
		}
		if t := strings.TrimSpace(p.ProductType); t != "" {
			b.types[t] = struct{}{}
		}
		if v := strings.TrimSpace(p.Vendor); v != "" {
			b.vendors[v] = struct{}{}
		}
		for _, tag := range p.Tags {
			if tag = strings.TrimSpace(tag); tag != "" {
				b.tags[tag] = struct{}{}
			}
		}
		for _, word := range strings.Fields(strings.ToLower(p.Title)) {
			word = strings.Trim(word, ".,;:!?\"'()")
			if len(word) > 3 {
				b.wordFreq[word]++
			}
		}
	}

	patterns := make([]domain.StorePattern, 0, len(buckets))
	for _, storeID := range order {
		b := buckets[storeID]
		patterns = append(patterns, domain.StorePattern{
			StoreID:      storeID,
			Keywords:     topWords(b.wordFreq, 20),
			ProductTypes: sortedKeys(b.types),
			Vendors:      sortedKeys(b.vendors),
			Tags:         sortedKeys(b.tags),
		})
	}
	return patterns
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func topWords(freq map[string]int, limit int) []string {
	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > limit {
		words = words[:limit]
	}
	return words
}
