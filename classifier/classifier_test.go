package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextRelevantRequiresTwoPositiveSignals(t *testing.T) {
	p := ScrapePolicy()

	assert.False(t, p.TextRelevant("the plaintiff suffered an injury"), "one signal is too weak")
	assert.True(t, p.TextRelevant("the plaintiff suffered an injury in the accident and seeks damages"))
}

func TestTextRelevantEmptyText(t *testing.T) {
	p := ScrapePolicy()

	assert.False(t, p.TextRelevant(""))
	assert.False(t, p.TextRelevant("   \n\t"))
}

func TestTextRelevantNegativeSignalIsSticky(t *testing.T) {
	p := ScrapePolicy()

	accepted := "negligence caused the accident and the jury awarded damages for the injury"
	assert.True(t, p.TextRelevant(accepted))

	// A single negative keyword rejects, no matter how many positive hits.
	rejected := accepted + " in this criminal matter"
	assert.False(t, p.TextRelevant(rejected))

	// Adding further negative occurrences never flips it back.
	assert.False(t, p.TextRelevant(rejected+" criminal custody"))
}

func TestNameRelevant(t *testing.T) {
	p := ScrapePolicy()

	assert.True(t, p.NameRelevant("Jones v. Acme Corp (slip and fall)"))
	assert.False(t, p.NameRelevant("Smith v. Smith (child custody)"))
	assert.False(t, p.NameRelevant("In re: Eviction of Doe, slip and fall"), "exclude phrase wins")
	assert.False(t, p.NameRelevant(""))
	assert.False(t, p.NameRelevant("Smith v. Jones"), "no include phrase")
}

func TestRelevantCombinesRulesWithOr(t *testing.T) {
	p := ScrapePolicy()

	// Text rule fails (one signal) but the name rule carries it.
	assert.True(t, p.Relevant("an injury occurred", "Doe v. City (premises liability)"))
	// Neither rule fires.
	assert.False(t, p.Relevant("an injury occurred", "Doe v. City"))
}

func TestLabelPolicyIsStricterVocabulary(t *testing.T) {
	scrape := ScrapePolicy()
	label := LabelPolicy()

	// "wage" alone rejects at label time but "unpaid wages"/"overtime" are the
	// scrape-time spellings; the vocabularies overlap without being identical.
	text := "the plaintiff claims damages for an injury and lost wage payments"
	assert.True(t, scrape.TextRelevant(text))
	assert.False(t, label.TextRelevant(text))
}

func TestPoliciesAreIndependent(t *testing.T) {
	custom := Policy{
		Positive:    []string{"dog bite"},
		MinPositive: 1,
	}
	assert.True(t, custom.TextRelevant("severe dog bite to the arm"))
	assert.False(t, ScrapePolicy().TextRelevant("severe dog bite to the arm"))
}
