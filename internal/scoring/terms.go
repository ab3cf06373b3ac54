package scoring

// Term is one weighted taxonomy entry. Multi-word phrases and single words
// are both valid; weight must be positive.
type Term struct {
	Phrase string  `yaml:"phrase" json:"phrase"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// Table is an ordered weighted term taxonomy. Declaration order matters:
// it is the tie-break for matched-term ordering, so a Table is a slice, not
// a map. Tables are immutable once built and safe to share across
// concurrent Score calls.
type Table []Term

// WeightOf returns the weight of a phrase, or zero when absent.
func (t Table) WeightOf(phrase string) float64 {
	for _, term := range t {
		if term.Phrase == phrase {
			return term.Weight
		}
	}
	return 0
}

// MaxPossible is the normalization denominator: the theoretical raw score
// if every term appeared in the title. Weights and bonuses are summed
// independently per term, so this is a loose upper bound and real scores
// rarely approach 1.0.
func (t Table) MaxPossible() float64 {
	var sum float64
	for _, term := range t {
		sum += term.Weight
	}
	return sum * 2
}

// TableFromPhrases builds an override table from caller-supplied phrases,
// all at weight 2.
func TableFromPhrases(phrases []string) Table {
	table := make(Table, 0, len(phrases))
	for _, p := range phrases {
		table = append(table, Term{Phrase: p, Weight: 2})
	}
	return table
}

// DefaultTable is the process-wide ad-fraud and scam-advertising taxonomy.
// Weight 3 marks highly specific core terms, 1 marks general supporting
// terms.
func DefaultTable() Table {
	return Table{
		// Core ad fraud terms
		{Phrase: "malvertising", Weight: 3},
		{Phrase: "ad fraud", Weight: 3},
		{Phrase: "scam ads", Weight: 3},
		{Phrase: "fake ads", Weight: 3},
		{Phrase: "fraudulent advertising", Weight: 3},
		{Phrase: "deepfake ads", Weight: 3},
		{Phrase: "AI-generated scam ads", Weight: 3},

		// Specific scam types
		{Phrase: "celebrity scam ads", Weight: 2.5},
		{Phrase: "crypto scam ads", Weight: 2.5},
		{Phrase: "financial scam ads", Weight: 2.5},
		{Phrase: "investment scam ads", Weight: 2.5},
		{Phrase: "fake celebrity endorsements", Weight: 2.5},
		{Phrase: "phishing ads", Weight: 2.5},

		// Important broader terms
		{Phrase: "deceptive ads", Weight: 2},
		{Phrase: "misleading ads", Weight: 2},
		{Phrase: "ad scams", Weight: 2},
		{Phrase: "gambling ads", Weight: 2},
		{Phrase: "betting ads", Weight: 2},
		{Phrase: "romance scam ads", Weight: 2},
		{Phrase: "lottery scam ads", Weight: 2},
		{Phrase: "tech support scam ads", Weight: 2},
		{Phrase: "impersonation ads", Weight: 2},
		{Phrase: "synthetic media ads", Weight: 2},
		{Phrase: "manipulated media ads", Weight: 2},
		{Phrase: "counterfeit ads", Weight: 2},

		// Political advertising
		{Phrase: "political ad regulations", Weight: 2},
		{Phrase: "political ad compliance", Weight: 2},
		{Phrase: "political ad transparency", Weight: 2},
		{Phrase: "EU political ad regulations", Weight: 2},
		{Phrase: "US political ad laws", Weight: 2},
		{Phrase: "UK political ad rules", Weight: 2},

		// Supporting terms
		{Phrase: "political advertising", Weight: 1.5},
		{Phrase: "election advertising rules", Weight: 1.5},
		{Phrase: "political ad disclosure", Weight: 1.5},
		{Phrase: "campaign finance ads", Weight: 1.5},
		{Phrase: "political ad verification", Weight: 1.5},
		{Phrase: "political ad labeling", Weight: 1.5},
		{Phrase: "sponsored political content", Weight: 1.5},
		{Phrase: "issue advocacy ads", Weight: 1.5},
		{Phrase: "political ad restrictions", Weight: 1.5},

		// General terms
		{Phrase: "social engineering", Weight: 1},
	}
}
