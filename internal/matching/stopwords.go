package matching

// stopWords is the English stop list applied to both the tagged and the fallback path.
var stopWords = toSet(
	"a", "about", "above", "across", "after", "again", "against", "all", "almost", "along", "also",
	"although", "always", "am", "among", "an", "and", "another", "any", "anyone", "anything", "are",
	"around", "as", "at", "be", "became", "because", "become", "been", "before", "being", "below",
	"between", "both", "but", "by", "can", "cannot", "could", "did", "do", "does", "doing", "done",
	"down", "during", "each", "either", "else", "etc", "even", "ever", "every", "few", "for", "from",
	"further", "get", "gets", "give", "given", "had", "has", "have", "having", "he", "her", "here",
	"hers", "herself", "him", "himself", "his", "how", "however", "i", "if", "in", "into", "is", "it",
	"its", "itself", "just", "least", "less", "like", "made", "make", "many", "may", "me", "might",
	"more", "most", "much", "must", "my", "myself", "neither", "never", "no", "nor", "not", "now",
	"of", "off", "often", "on", "once", "one", "only", "onto", "or", "other", "others", "our", "ours",
	"ourselves", "out", "over", "own", "per", "perhaps", "please", "plus", "quite", "rather", "really",
	"same", "see", "seem", "several", "shall", "she", "should", "since", "so", "some", "something",
	"such", "than", "that", "the", "their", "theirs", "them", "themselves", "then", "there", "these",
	"they", "thing", "things", "this", "those", "though", "through", "thus", "to", "together", "too",
	"toward", "under", "until", "up", "upon", "us", "use", "used", "using", "very", "via", "was", "we",
	"well", "were", "what", "whatever", "when", "where", "whether", "which", "while", "who", "whom",
	"whose", "why", "will", "with", "within", "without", "would", "yet", "you", "your", "yours",
	"yourself", "yourselves",
	// Job-posting filler that carries no skill signal.
	"ability", "candidate", "candidates", "experience", "including", "job", "knowledge", "looking",
	"plus", "preferred", "required", "requirement", "requirements", "responsibilities", "role",
	"strong", "team", "work", "working", "year", "years",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func isStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}
