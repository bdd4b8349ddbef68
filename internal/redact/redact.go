package redact

import "regexp"

// Placeholder replaces every detected secret.
const Placeholder = "[REDACTED]"

// Rule is a named secret shape.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

// rules are applied in order, one pass each. An earlier rule consumes its
// span before later rules see the text.
var rules = []Rule{
	{"api_key", regexp.MustCompile(`sk-[A-Za-z0-9_-]{8,}`)},
	{"jwt", regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{20,}`)},
	{"aws_access_key_id", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"slack_token", regexp.MustCompile(`xox[abprs]-[A-Za-z0-9-]+`)},
	{"email", regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)},
	// Leftmost-greedy matching always takes a maximal run of the class, and
	// alphanumerics are in the class, so a match is never glued to another
	// alphanumeric.
	{"base64_run", regexp.MustCompile(`[A-Za-z0-9/+]{32,}`)},
}

// Rules returns the ordered rule table.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Result is the redacted text, the number of replacements made, and the
// per-rule breakdown of that number. Hits is nil when Count is 0.
type Result struct {
	Text  string
	Count int
	Hits  map[string]int
}

func (r *Result) hit(rule string) {
	if r.Hits == nil {
		r.Hits = map[string]int{}
	}
	r.Hits[rule]++
	r.Count++
}

// Scan replaces every secret-shaped substring of text with [Placeholder].
func Scan(text string) Result {
	res := Result{Text: text}
	for _, rule := range rules {
		res.Text = rule.Pattern.ReplaceAllStringFunc(res.Text, func(string) string {
			res.hit(rule.Name)
			return Placeholder
		})
	}
	return res
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	return Scan(text).Text
}

// Walk rebuilds v with visit applied to every string it contains. Maps,
// []any and []string are descended into; other values pass through.
func Walk(v any, visit func(string) string) any {
	switch val := v.(type) {
	case string:
		return visit(val)
	case []string:
		out := make([]string, len(val))
		for i, s := range val {
			out[i] = visit(s)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Walk(item, visit)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Walk(item, visit)
		}
		return out
	default:
		return v
	}
}

// Deep redacts every string inside v and returns the rebuilt value with the
// total number of replacements.
func Deep(v any) (any, int) {
	out, hits := DeepHits(v)
	total := 0
	for _, n := range hits {
		total += n
	}
	return out, total
}

// DeepHits is [Deep] with the replacements counted per rule name.
func DeepHits(v any) (any, map[string]int) {
	var hits map[string]int
	out := Walk(v, func(s string) string {
		r := Scan(s)
		hits = Merge(hits, r.Hits)
		return r.Text
	})
	return out, hits
}

// Merge adds the counts in src to dst and returns dst, allocating it if
// needed. A nil src leaves dst unchanged.
func Merge(dst, src map[string]int) map[string]int {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]int, len(src))
	}
	for k, n := range src {
		dst[k] += n
	}
	return dst
}
