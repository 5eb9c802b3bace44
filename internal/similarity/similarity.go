// Package similarity implements the text-similarity measure shared by the
// content clusterer and the duplicate-page culler: a longest-matching-block
// ratio over whitespace-normalized text, symmetric and in [0, 1].
package similarity

import "strings"

// Ratio returns the similarity between two texts. Whitespace runs are
// collapsed to single spaces before comparison. A missing text on either
// side yields 0 — similarity against an untranscribed page is never
// attempted.
func Ratio(text1, text2 string) float64 {
	t1 := normalize(text1)
	t2 := normalize(text2)
	if t1 == "" || t2 == "" {
		return 0.0
	}

	a := []rune(t1)
	b := []rune(t2)
	matched := matchedSize(a, b, 0, len(a), 0, len(b))
	return 2.0 * float64(matched) / float64(len(a)+len(b))
}

func normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// matchedSize sums the sizes of matching blocks: it finds the longest common
// run inside the window, then recurses on the unmatched regions to its left
// and right.
func matchedSize(a, b []rune, alo, ahi, blo, bhi int) int {
	i, j, size := longestMatch(a, b, alo, ahi, blo, bhi)
	if size == 0 {
		return 0
	}
	return size +
		matchedSize(a, b, alo, i, blo, j) +
		matchedSize(a, b, i+size, ahi, j+size, bhi)
}

// longestMatch finds the longest run a[i:i+size] == b[j:j+size] with
// alo <= i < i+size <= ahi and blo <= j < j+size <= bhi. Ties resolve to the
// earliest i, then the earliest j, so the result is deterministic.
func longestMatch(a, b []rune, alo, ahi, blo, bhi int) (besti, bestj, bestsize int) {
	b2j := make(map[rune][]int, bhi-blo)
	for j := blo; j < bhi; j++ {
		b2j[b[j]] = append(b2j[b[j]], j)
	}

	besti, bestj = alo, blo
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestsize
}
