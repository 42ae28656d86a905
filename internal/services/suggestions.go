package services

import (
	"math"
	"sort"
	"strings"

	"github.com/connecthub/connecthub/internal/models"
)

// MaxSuggestions caps the ranked suggestion list.
const MaxSuggestions = 10

// NormalizeInterests trims tags and drops blanks and duplicates, keeping the
// first occurrence's order.
func NormalizeInterests(interests []string) []string {
	seen := make(map[string]struct{}, len(interests))
	out := make([]string, 0, len(interests))
	for _, tag := range interests {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// CommonInterests returns the tags of candidate that mine also has, in the
// candidate's order and without repeats.
func CommonInterests(mine, candidate []string) []string {
	set := make(map[string]struct{}, len(mine))
	for _, tag := range NormalizeInterests(mine) {
		set[tag] = struct{}{}
	}
	common := []string{}
	for _, tag := range NormalizeInterests(candidate) {
		if _, ok := set[tag]; ok {
			common = append(common, tag)
		}
	}
	return common
}

// SimilarityScore is round(100 * common / mine). It is 0 when mine is 0.
func SimilarityScore(common, mine int) int {
	if mine <= 0 {
		return 0
	}
	return int(math.Round(float64(common) / float64(mine) * 100))
}

// scored pairs a candidate with its overlap.
type scored struct {
	user   models.User
	common []string
	score  int
}

// RankCandidates scores candidates against mine, drops those with no overlap,
// orders by score, overlap size and username, and keeps at most limit.
// The summarize func projects each surviving user.
func RankCandidates(mine []string, candidates []models.User, limit int, summarize func(*models.User) models.UserSummary) []models.Suggestion {
	mine = NormalizeInterests(mine)
	if len(mine) == 0 {
		return []models.Suggestion{}
	}

	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		common := CommonInterests(mine, c.Interests)
		if len(common) == 0 {
			continue
		}
		ranked = append(ranked, scored{
			user:   c,
			common: common,
			score:  SimilarityScore(len(common), len(mine)),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if len(a.common) != len(b.common) {
			return len(a.common) > len(b.common)
		}
		return a.user.Username < b.user.Username
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]models.Suggestion, len(ranked))
	for i := range ranked {
		out[i] = models.Suggestion{
			UserSummary:     summarize(&ranked[i].user),
			CommonInterests: ranked[i].common,
			SimilarityScore: ranked[i].score,
		}
	}
	return out
}
