package spotify

const minArtistSimilarity = 0.80

// bestArtistMatch picks the candidate whose normalized name is closest to
// want. Ties keep the earlier (more popular) search result.
func bestArtistMatch(want string, candidates []spotifyArtist) (spotifyArtist, bool) {
	target := normalizeSearchInput(want)
	if target == "" {
		return spotifyArtist{}, false
	}

	var (
		best      spotifyArtist
		bestScore float64
		found     bool
	)
	for _, c := range candidates {
		name := normalizeSearchInput(c.Name)
		if name == "" || c.ID == "" {
			continue
		}
		score := similarity(target, name)
		if score < minArtistSimilarity {
			continue
		}
		if !found || score > bestScore {
			best, bestScore, found = c, score, true
		}
	}
	return best, found
}

func similarity(a string, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}

	distance := levenshteinDistance(a, b)
	return 1.0 - float64(distance)/float64(maxLen)
}

func levenshteinDistance(a string, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 0
			if ra[i-1] != rb[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,
				curr[j-1]+1,
				prev[j-1]+cost,
			)
		}
		copy(prev, curr)
	}

	return prev[len(rb)]
}
