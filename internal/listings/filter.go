package listings

import (
	"sort"
	"strings"

	"github.com/logistyczniepl/marketplace/internal/database/models"
)

// DistanceAll is the sentinel the search form sends for "any distance".
// Distance is not geodesically computed; the predicate only recognizes
// this sentinel.
const DistanceAll = "Wszystkie"

// Criteria are the browse-page search inputs.
type Criteria struct {
	Keyword  string
	Location string
	Distance string
}

// Filter returns the listings matching all criteria, promoted first and
// otherwise in input order. An empty criteria set matches everything.
func Filter(items []models.Warehouse, c Criteria) []models.Warehouse {
	keyword := strings.ToLower(strings.TrimSpace(c.Keyword))
	location := strings.ToLower(strings.TrimSpace(c.Location))

	matched := make([]models.Warehouse, 0, len(items))
	for _, w := range items {
		if keyword != "" &&
			!strings.Contains(strings.ToLower(w.Title), keyword) &&
			!strings.Contains(strings.ToLower(w.Description), keyword) {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(w.Location), location) {
			continue
		}
		if c.Distance != "" && c.Distance != DistanceAll {
			continue
		}
		matched = append(matched, w)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Promoted && !matched[j].Promoted
	})

	return matched
}

// NextImage advances the carousel index cyclically.
func NextImage(i, n int) int {
	if n <= 0 {
		return 0
	}
	return (i + 1) % n
}

// PrevImage steps the carousel index back cyclically.
func PrevImage(i, n int) int {
	if n <= 0 {
		return 0
	}
	return (i - 1 + n) % n
}
