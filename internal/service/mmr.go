package service

import "math"

// DefaultMMRLambda weighs relevance and novelty equally.
const DefaultMMRLambda = 0.5

// Diversify re-ranks candidates with Maximal Marginal Relevance and returns at
// most k of them. Candidates must be sorted by Score descending; the first one
// is always selected. Each following pick maximizes
//
//	lambda*score - (1-lambda)*max cosine similarity to the picks so far
//
// and ties go to the earlier candidate. Returned candidates are copies
// without embeddings.
func Diversify(candidates []*SearchCandidate, k int, lambda float64) []*SearchCandidate {
	if k <= 0 || len(candidates) == 0 {
		return []*SearchCandidate{}
	}
	if len(candidates) <= k {
		out := make([]*SearchCandidate, len(candidates))
		for i, c := range candidates {
			out[i] = c.withoutEmbedding()
		}
		return out
	}

	lambda = clampLambda(lambda)

	selected := make([]*SearchCandidate, 0, k)
	picked := make([]bool, len(candidates))
	maxSim := make([]float64, len(candidates))
	for i := range maxSim {
		maxSim[i] = math.Inf(-1)
	}

	pick := func(idx int) {
		picked[idx] = true
		chosen := candidates[idx]
		selected = append(selected, chosen.withoutEmbedding())
		for i, c := range candidates {
			if picked[i] {
				continue
			}
			if sim := cosineSimilarity(chosen.Embedding, c.Embedding); sim > maxSim[i] {
				maxSim[i] = sim
			}
		}
	}

	pick(0)
	for len(selected) < k {
		best := -1
		bestScore := math.Inf(-1)
		for i, c := range candidates {
			if picked[i] {
				continue
			}
			mmr := lambda*c.Score - (1-lambda)*maxSim[i]
			if best == -1 || mmr > bestScore {
				best = i
				bestScore = mmr
			}
		}
		if best == -1 {
			break
		}
		pick(best)
	}

	return selected
}

func clampLambda(lambda float64) float64 {
	switch {
	case math.IsNaN(lambda):
		return DefaultMMRLambda
	case lambda < 0:
		return 0
	case lambda > 1:
		return 1
	}
	return lambda
}
