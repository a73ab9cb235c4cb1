package capture

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"clipvault/internal/clipboard"
	"clipvault/internal/database"
	"clipvault/internal/util"
)

// Candidate is a typed, hashed capture that has not yet passed admission.
type Candidate struct {
	Type      database.ContentType
	Text      string
	Language  string
	Image     []byte
	FilePaths []string
	SourceApp string
}

// Hash computes the deduplication key over the type-specific normalized
// representation: UTF-8 bytes for text, raw bytes for images, sorted
// "|"-joined paths for file lists.
func (c *Candidate) Hash() string {
	switch c.Type {
	case database.TypeImage:
		return util.HashImage(c.Image)
	case database.TypeFile:
		return util.HashFilePaths(c.FilePaths)
	default:
		return util.HashText(c.Text)
	}
}

// Classifier turns a raw clipboard snapshot into a typed candidate.
// Extraction priority is file > image > text: a single clipboard write may
// expose several representations and the richer structural type wins.
// Classification never fails; ambiguous text falls back to plain text.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

func (cl *Classifier) Classify(snap clipboard.Snapshot) *Candidate {
	if len(snap.FilePaths) > 0 {
		return &Candidate{
			Type:      database.TypeFile,
			FilePaths: snap.FilePaths,
			SourceApp: snap.SourceApp,
		}
	}

	if len(snap.Image) > 0 {
		return &Candidate{
			Type:      database.TypeImage,
			Image:     snap.Image,
			SourceApp: snap.SourceApp,
		}
	}

	if len(bytes.TrimSpace(snap.Text)) == 0 {
		return nil
	}

	text := string(snap.Text)
	trimmed := strings.TrimSpace(text)

	if isLink(trimmed) {
		return &Candidate{
			Type:      database.TypeLink,
			Text:      trimmed,
			SourceApp: snap.SourceApp,
		}
	}

	if lang, ok := detectLanguage(text); ok {
		return &Candidate{
			Type:      database.TypeCode,
			Text:      text,
			Language:  lang,
			SourceApp: snap.SourceApp,
		}
	}

	return &Candidate{
		Type:      database.TypeText,
		Text:      text,
		SourceApp: snap.SourceApp,
	}
}

var urlPattern = regexp.MustCompile(`^https?://\S+$`)

func isLink(trimmed string) bool {
	return urlPattern.MatchString(trimmed)
}

// languageSignature pairs a language name with the patterns that suggest it.
// A text is classified as that language when at least minHits patterns match.
type languageSignature struct {
	name     string
	minHits  int
	patterns []*regexp.Regexp
}

// Ordered: the first matching signature wins, so stricter signatures come
// first.
var languageSignatures = []languageSignature{
	{
		name:    "go",
		minHits: 2,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^package \w+$`),
			regexp.MustCompile(`\bfunc \w+\(`),
			regexp.MustCompile(`:=`),
			regexp.MustCompile(`\bfmt\.\w+\(`),
			regexp.MustCompile(`\bgo func\(`),
		},
	},
	{
		name:    "rust",
		minHits: 2,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bfn \w+\(`),
			regexp.MustCompile(`\blet mut \w+`),
			regexp.MustCompile(`\bimpl \w+`),
			regexp.MustCompile(`println!\(`),
			regexp.MustCompile(`\bmatch \w+ \{`),
		},
	},
	{
		name:    "python",
		minHits: 2,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^\s*def \w+\(.*\):`),
			regexp.MustCompile(`(?m)^\s*(import \w+|from \w+ import)`),
			regexp.MustCompile(`\bself\.\w+`),
			regexp.MustCompile(`(?m)^\s*(elif |if .+:$)`),
			regexp.MustCompile(`\bprint\(`),
		},
	},
	{
		name:    "java",
		minHits: 2,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bpublic (class|interface|static|void|final) `),
			regexp.MustCompile(`System\.out\.print`),
			regexp.MustCompile(`(?m)^\s*(private|protected) \w+(<.*>)? \w+`),
			regexp.MustCompile(`\bnew \w+\(.*\);`),
		},
	},
	{
		name:    "c",
		minHits: 2,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^#include\s*[<"]`),
			regexp.MustCompile(`\bint main\s*\(`),
			regexp.MustCompile(`\bprintf\s*\(`),
			regexp.MustCompile(`\b(struct|typedef) \w+`),
		},
	},
	{
		name:    "javascript",
		minHits: 2,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bfunction\s*\w*\s*\(`),
			regexp.MustCompile(`\b(const|let) \w+ =`),
			regexp.MustCompile(`=>`),
			regexp.MustCompile(`\bconsole\.\w+\(`),
			regexp.MustCompile(`\brequire\(['"]`),
		},
	},
	{
		// Statements whose shape is unambiguous on their own.
		name:    "sql",
		minHits: 1,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?is)\binsert\s+into\s+\w+\b.+\bvalues\b`),
			regexp.MustCompile(`(?is)\bcreate\s+(table|index|view)\s+\w+`),
			regexp.MustCompile(`(?is)\bupdate\s+\w+\s+set\b.+=`),
			regexp.MustCompile(`(?is)\bdelete\s+from\s+\w+`),
		},
	},
	{
		// A bare SELECT reads like prose, so it needs a second signal.
		name:    "sql",
		minHits: 2,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?is)\bselect\b.+\bfrom\b`),
			regexp.MustCompile(`(?i)\bwhere\b`),
			regexp.MustCompile(`(?i)\b(inner|left|right|outer)\s+join\b`),
			regexp.MustCompile(`(?i)\b(order|group)\s+by\b`),
		},
	},
	{
		name:    "shell",
		minHits: 1,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?m)^#!/(usr/)?bin/(env )?(ba|z)?sh`),
			regexp.MustCompile(`(?m)^\s*(sudo|chmod|chown|mkdir -p) \S+`),
			regexp.MustCompile(`\|\s*(grep|awk|sed|xargs)\b`),
			regexp.MustCompile(`(?m)^\s*if \[\[? `),
		},
	},
	{
		name:    "html",
		minHits: 1,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)<!doctype html>`),
			regexp.MustCompile(`(?is)<(html|head|body|div|span|table)\b[^>]*>.*</`),
			regexp.MustCompile(`(?is)<\?xml\b`),
		},
	},
	{
		name:    "css",
		minHits: 1,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?s)[.#@]?[\w-]+\s*\{\s*[\w-]+\s*:[^{}]+;\s*[^{}]*\}`),
		},
	},
}

func detectLanguage(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)

	// Strict check first: a JSON document is code, not prose.
	if (strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")) &&
		len(trimmed) > 2 && json.Valid([]byte(trimmed)) {
		return "json", true
	}

	for _, sig := range languageSignatures {
		hits := 0
		for _, p := range sig.patterns {
			if p.MatchString(text) {
				hits++
				if hits >= sig.minHits {
					return sig.name, true
				}
			}
		}
	}

	return "", false
}
