// Package classifier decides whether a scraped court opinion looks like a
// personal-injury case before any expensive processing is spent on it.
// Classification is purely lexical: co-occurrence of vocabulary from
// configurable signal sets. Precision is deliberately favored over recall —
// a single generic word like "injury" is never enough on its own.
package classifier

import "strings"

// Policy holds the vocabulary for one relevance decision. Two rules are
// available and are combined by the caller (the pipeline ORs them at
// scrape time and uses only the text rule at label time):
//
//   - text rule: at least MinPositive case-insensitive hits from Positive
//     and zero hits from Negative
//   - name rule: at least one phrase from IncludePhrases and none from
//     ExcludePhrases, substring containment
//
// Policies are plain values so scrape-time and label-time filters can carry
// different vocabularies and be tested independently.
type Policy struct {
	Positive       []string
	Negative       []string
	IncludePhrases []string
	ExcludePhrases []string
	MinPositive    int
}

// TextRelevant applies the text rule to free-form case text. Empty text is
// never relevant.
func (p Policy) TextRelevant(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range p.Negative {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	hits := 0
	for _, kw := range p.Positive {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	return hits >= p.MinPositive
}

// NameRelevant applies the name rule to a case caption. Empty names are
// never relevant. Matching is substring containment, not tokenized, so
// ambiguous substrings are an accepted false-positive source.
func (p Policy) NameRelevant(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	lower := strings.ToLower(name)
	for _, bad := range p.ExcludePhrases {
		if strings.Contains(lower, bad) {
			return false
		}
	}
	for _, good := range p.IncludePhrases {
		if strings.Contains(lower, good) {
			return true
		}
	}
	return false
}

// Relevant reports whether either rule accepts the case.
func (p Policy) Relevant(text, name string) bool {
	return p.TextRelevant(text) || p.NameRelevant(name)
}

// ScrapePolicy is the retention filter applied to freshly fetched opinions.
// It is looser than LabelPolicy because keeping a borderline case in the raw
// set is cheap.
func ScrapePolicy() Policy {
	return Policy{
		Positive: []string{
			"personal injury", "negligence", "medical malpractice", "slip and fall",
			"wrongful death", "pain and suffering", "bodily harm", "trauma",
			"injury", "accident", "damages",
		},
		Negative: []string{
			"sexual assault", "criminal", "child custody", "termination of parental rights",
			"unpaid wages", "overtime", "foreclosure", "arbitration",
			"disciplinary", "custody", "appeal denied", "drug trafficking", "head shop",
		},
		IncludePhrases: []string{
			"personal injury", "negligence", "medical malpractice", "wrongful death",
			"slip and fall", "trip and fall", "car accident", "motor vehicle",
			"tort", "fracture", "spinal cord", "brain injury", "premises liability",
			"burn injury", "back injury", "bodily harm",
		},
		ExcludePhrases: []string{
			"criminal", "murder", "homicide", "sexual assault", "real estate",
			"landlord", "tenant", "eviction", "contract", "loan", "bankruptcy",
			"labor", "overtime", "minimum wage", "retaliation", "discrimination",
		},
		MinPositive: 2,
	}
}

// LabelPolicy gates entry into LLM labeling. The vocabulary overlaps
// ScrapePolicy but is stricter: labeling costs an API call per case, so a
// false positive here is more expensive than one at scrape time.
func LabelPolicy() Policy {
	return Policy{
		Positive: []string{
			"injury", "accident", "negligence", "pain", "suffering",
			"medical malpractice", "damages", "fracture", "hospital", "treatment",
			"settlement", "claimant", "plaintiff", "liability",
		},
		Negative: []string{
			"criminal", "sexual", "tenant", "appeal denied", "parole",
			"fraud", "custody", "disciplinary", "wage", "discrimination",
		},
		MinPositive: 2,
	}
}
