package cluster

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/panbanda/dei/pkg/models"
)

// Verbs and filler too generic to name a responsibility.
var stopTokens = map[string]bool{
	"get": true, "set": true, "add": true, "remove": true, "delete": true,
	"update": true, "create": true, "save": true, "load": true, "handle": true,
	"process": true, "execute": true, "run": true, "do": true, "is": true,
	"has": true, "can": true,
}

const maxJustifiedNames = 5

// SuggestName derives a name from the most frequent meaningful tokens of
// the members: the top two, alphabetically among ties, plus "Service".
// Without any such token it falls back to "<class>Component".
func SuggestName(className string, members []models.MethodMetrics) string {
	freq := make(map[string]int)
	for _, m := range members {
		for _, tok := range m.Tokens {
			tok = strings.ToLower(tok)
			if len(tok) <= 2 || stopTokens[tok] {
				continue
			}
			freq[tok]++
		}
	}
	if len(freq) == 0 {
		return className + "Component"
	}

	best := 0
	for _, n := range freq {
		best = max(best, n)
	}
	var top []string
	for tok, n := range freq {
		if n == best {
			top = append(top, tok)
		}
	}
	sort.Strings(top)
	if len(top) > 2 {
		top = top[:2]
	}

	// Casers are stateful; one per call.
	title := cases.Title(language.English)
	var b strings.Builder
	for _, tok := range top {
		b.WriteString(title.String(tok))
	}
	b.WriteString("Service")
	return b.String()
}

// Cohesion scores how much the members share state, in [0,1], and returns
// the fields accessed by at least size/2 members, rounding down: in a group
// of three one member is enough. A single member scores 0.5 and members
// touching no fields score 0.3.
func Cohesion(members []models.MethodMetrics) (float64, []string) {
	size := len(members)
	if size < 2 {
		return 0.5, nil
	}

	counts := make(map[string]int)
	total := 0
	for _, m := range members {
		for _, f := range m.AccessedFields {
			counts[f]++
			total++
		}
	}

	var shared []string
	for f, n := range counts {
		if n >= size/2 {
			shared = append(shared, f)
		}
	}
	sort.Strings(shared)

	avg := float64(total) / float64(size)
	if avg == 0 {
		return 0.3, shared
	}
	return math.Min(float64(len(shared))/avg, 1), shared
}

// Justify explains a cluster by listing up to five member names.
func Justify(names []string) string {
	shown := names
	if len(shown) > maxJustifiedNames {
		shown = shown[:maxJustifiedNames]
	}
	return fmt.Sprintf("Cohesive group of %d method(s): %s", len(names), strings.Join(shown, ", "))
}
