package ai

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
)

// DefaultLexicalTopK is how many chunks the lexical ranker returns.
const DefaultLexicalTopK = 8

// Ensure LexicalRanker implements the interface.
var _ driven.RankingService = (*LexicalRanker)(nil)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`)

var stopwords = toSet(strings.Fields(`a an the and or but if then else for to of in on at by with as is are
was were be been being it its this that these those from up down over under again further than so such
into about between through during before after above below out off own same too very can will just
should now what which who how why when where do does did not no`))

// LexicalRanker scores chunks locally by keyword overlap with the topic
// using the Ochiai coefficient. It makes no network calls.
type LexicalRanker struct {
	topK int
}

// NewLexicalRanker creates a lexical ranker returning up to topK indices.
func NewLexicalRanker(topK int) *LexicalRanker {
	if topK <= 0 {
		topK = DefaultLexicalTopK
	}
	return &LexicalRanker{topK: topK}
}

// Rank returns the best-scoring chunk indices as a comma-separated list,
// highest score first. Chunks sharing no terms with the topic are never
// returned, so an unrelated topic yields an empty response.
func (r *LexicalRanker) Rank(ctx context.Context, req driven.RankRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	query := toSet(tokenize(req.Topic))
	if len(query) == 0 {
		return "", nil
	}

	type scored struct {
		index int
		score float64
	}
	var hits []scored
	for i, chunk := range req.Chunks {
		if s := ochiai(query, toSet(tokenize(chunk.Content))); s > 0 {
			hits = append(hits, scored{index: i, score: s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if len(hits) > r.topK {
		hits = hits[:r.topK]
	}
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = strconv.Itoa(h.index)
	}
	return strings.Join(parts, ", "), nil
}

// ochiai is |A∩B| / sqrt(|A||B|).
func ochiai(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(a))*float64(len(b)))
}

func tokenize(text string) []string {
	raw := wordPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := stopwords[t]; !stop {
			out = append(out, t)
		}
	}
	return out
}

func toSet(tokens []string) map[string]struct{} {
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}
