// Package features derives the structured half of a project's hybrid vector.
//
// Categories map onto eight fixed buckets by keyword match, technologies onto
// thirty fixed slots by first substring match. Both mappings are heuristics
// behind the Classifier interface so they can be replaced independently of
// the encoder.
package features

import (
	"slices"
	"strings"
	"unicode"
)

// Bucket is a named slot in the structured feature vector.
type Bucket string

// Classifier maps a free-form name onto zero or more buckets.
type Classifier interface {
	Classify(name string) []Bucket
	// Buckets returns every bucket in vector order.
	Buckets() []Bucket
}

// Category buckets, in vector order.
const (
	CategoryWeb         Bucket = "web"
	CategoryMobile      Bucket = "mobile"
	CategoryDataAI      Bucket = "data_ai"
	CategoryDevOpsCloud Bucket = "devops_cloud"
	CategorySecurity    Bucket = "security"
	CategoryGames       Bucket = "games"
	CategoryBlockchain  Bucket = "blockchain"
	CategoryOther       Bucket = "other"
)

type keywordRule struct {
	bucket   Bucket
	keywords []string
}

var defaultCategoryRules = []keywordRule{
	{CategoryWeb, []string{"web", "frontend", "front-end", "backend", "back-end", "fullstack", "full-stack", "website", "http", "api"}},
	{CategoryMobile, []string{"mobile", "android", "ios", "iphone", "tablet", "app store"}},
	{CategoryDataAI, []string{"data", "machine learning", "ml", "ai", "artificial intelligence", "deep learning", "analytics", "nlp", "vision"}},
	{CategoryDevOpsCloud, []string{"devops", "cloud", "infrastructure", "ci/cd", "deployment", "container", "kubernetes", "serverless", "sre"}},
	{CategorySecurity, []string{"security", "crypto", "privacy", "authentication", "oauth", "pentest", "vulnerability"}},
	{CategoryGames, []string{"game", "graphics", "unreal", "godot"}},
	{CategoryBlockchain, []string{"blockchain", "web3", "ethereum", "smart contract", "defi", "nft", "bitcoin"}},
}

// KeywordClassifier assigns every bucket whose keywords occur in the name,
// case-insensitively. Keywords of up to three characters must match a whole
// word ("ai" matches "open ai" but not "email"). A name matching no bucket
// lands in CategoryOther.
type KeywordClassifier struct {
	rules    []keywordRule
	fallback Bucket
	buckets  []Bucket
}

// NewKeywordClassifier returns the category classifier with the built-in rules.
func NewKeywordClassifier() *KeywordClassifier {
	buckets := make([]Bucket, 0, len(defaultCategoryRules)+1)
	for _, rule := range defaultCategoryRules {
		buckets = append(buckets, rule.bucket)
	}
	buckets = append(buckets, CategoryOther)

	return &KeywordClassifier{
		rules:    defaultCategoryRules,
		fallback: CategoryOther,
		buckets:  buckets,
	}
}

// Classify returns the matching buckets in vector order.
func (c *KeywordClassifier) Classify(name string) []Bucket {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return nil
	}

	words := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var matched []Bucket
	for _, rule := range c.rules {
		for _, keyword := range rule.keywords {
			if containsKeyword(normalized, words, keyword) {
				matched = append(matched, rule.bucket)
				break
			}
		}
	}
	if len(matched) == 0 {
		return []Bucket{c.fallback}
	}
	return matched
}

func containsKeyword(name string, words []string, keyword string) bool {
	if len(keyword) > 3 {
		return strings.Contains(name, keyword)
	}
	return slices.Contains(words, keyword)
}

// Buckets returns the eight category buckets.
func (c *KeywordClassifier) Buckets() []Bucket {
	return c.buckets
}

// defaultTechnologies is ordered so longer names shadow their prefixes:
// "typescript" and "javascript" before "java", "django" and "mongodb" before "go".
var defaultTechnologies = []Bucket{
	"typescript", "javascript", "java", "python", "rust",
	"c++", "c#", "ruby", "php", "swift",
	"kotlin", "react", "vue", "angular", "node",
	"django", "flask", "spring", "docker", "kubernetes",
	"aws", "postgresql", "mongodb", "redis", "tensorflow",
	"pytorch", "graphql", "html", "css", "go",
}

// TableClassifier matches a name against a fixed ordered table; the first
// table entry contained in the name wins. Unmatched names yield nothing.
type TableClassifier struct {
	table []Bucket
}

// NewTableClassifier returns the technology classifier with the built-in table.
func NewTableClassifier() *TableClassifier {
	return &TableClassifier{table: defaultTechnologies}
}

// Classify returns at most one bucket.
func (c *TableClassifier) Classify(name string) []Bucket {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return nil
	}
	for _, tech := range c.table {
		if strings.Contains(normalized, string(tech)) {
			return []Bucket{tech}
		}
	}
	return nil
}

// Buckets returns the thirty technology slots.
func (c *TableClassifier) Buckets() []Bucket {
	return c.table
}
