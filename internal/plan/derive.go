package plan

import (
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// DefaultMaxTasks caps how many tasks one derivation produces.
const DefaultMaxTasks = 8

// Keywords holds the keyword sets driving priority and lane inference.
// The lists are configuration, not validated behavior: free-text scans will
// misclassify edge cases and that is accepted.
type Keywords struct {
	P0          []string `yaml:"p0"`
	P1          []string `yaml:"p1"`
	Frontend    []string `yaml:"frontend"`
	Backend     []string `yaml:"backend"`
	ActionVerbs []string `yaml:"action_verbs"`
}

// DefaultKeywords returns the compiled-in keyword sets.
func DefaultKeywords() Keywords {
	return Keywords{
		P0: []string{"p0", "blocker", "critical", "must", "urgent", "asap", "now", "immediately"},
		P1: []string{"p1", "important", "high", "next", "soon"},
		Frontend: []string{
			"ui", "ux", "frontend", "front end", "css", "button", "page", "screen",
			"layout", "render", "rendering", "scene", "canvas", "animation",
			"drag", "pointer", "interaction", "sticky", "color", "ar",
		},
		Backend: []string{
			"api", "server", "backend", "storage", "store", "db", "database",
			"persist", "auth", "speech", "stt", "transcribe", "transcription",
			"llm", "model", "prompt", "plan", "export", "endpoint", "deploy",
		},
		ActionVerbs: []string{
			"add", "implement", "create", "build", "fix", "wire", "connect",
			"render", "place", "capture", "summarize", "export", "apply",
			"clear", "detect", "enable", "toggle", "support", "show", "group",
			"prioritize",
		},
	}
}

var (
	sentenceEndRe = regexp.MustCompile(`[.!?]\s+`)
	clauseSplitRe = regexp.MustCompile(`(?i);\s+|,\s+then\s+|\s+and\s+then\s+|\s+then\s+`)
	bulletRe      = regexp.MustCompile(`^\s*[-*•]\s+`)
	numberingRe   = regexp.MustCompile(`^\s*\d+[.)]\s+`)
	leadConnectRe = regexp.MustCompile(`(?i)^((and\s+)?then|next)[,:]?\s+`)
	trailParenRe  = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
	nonAlnumRe    = regexp.MustCompile(`[^a-z0-9 ]+`)
)

// Derive builds a task list directly from transcript text using sentence
// segmentation and keyword heuristics. It is the fallback path that keeps the
// pipeline from dead-ending when no model backend is available. Returns nil
// for blank input and never fails.
func Derive(text string, maxTasks int) []DerivedTask {
	return DeriveWithKeywords(text, maxTasks, DefaultKeywords())
}

// DeriveWithKeywords is Derive with caller-supplied keyword sets.
func DeriveWithKeywords(text string, maxTasks int, kw Keywords) []DerivedTask {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if maxTasks <= 0 {
		maxTasks = DefaultMaxTasks
	}

	seen := make(map[string]bool)
	var tasks []DerivedTask

collect:
	for _, line := range strings.Split(text, "\n") {
		wasBullet := bulletRe.MatchString(line)
		for _, sentence := range splitSentences(line) {
			for _, clause := range clauseSplitRe.Split(sentence, -1) {
				candidate := normalizeCandidate(clause)
				if len(candidate) < 6 {
					continue
				}
				if !isActionable(candidate, wasBullet, kw) {
					continue
				}
				key := dedupeKey(candidate)
				if seen[key] {
					continue
				}
				seen[key] = true

				tasks = append(tasks, DerivedTask{
					ID:    uuid.NewString(),
					Title: candidate,
					Lane:  inferLane(candidate, kw),
					Prio:  inferPriority(candidate, kw),
				})
				if len(tasks) >= maxTasks {
					break collect
				}
			}
		}
	}

	// Stable sort: P0 first, ties keep discovery order.
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Prio < tasks[j].Prio
	})
	return tasks
}

// splitSentences cuts text on sentence-ending punctuation followed by
// whitespace, keeping the punctuation with the preceding sentence.
func splitSentences(text string) []string {
	var out []string
	rest := text
	for {
		loc := sentenceEndRe.FindStringIndex(rest)
		if loc == nil {
			break
		}
		out = append(out, rest[:loc[0]+1])
		rest = rest[loc[1]:]
	}
	if strings.TrimSpace(rest) != "" {
		out = append(out, rest)
	}
	return out
}

// normalizeCandidate strips bullet markers, numbering, leading sequence
// connectives, and trailing parenthetical asides.
func normalizeCandidate(clause string) string {
	s := bulletRe.ReplaceAllString(clause, "")
	s = numberingRe.ReplaceAllString(s, "")
	s = leadConnectRe.ReplaceAllString(s, "")
	s = trailParenRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// isActionable keeps lines that start with a known imperative verb, carry a
// sequencing connective, were bullet-marked in the source, mention task/step
// literally, or name a priority keyword.
func isActionable(line string, wasBullet bool, kw Keywords) bool {
	if wasBullet {
		return true
	}
	lower := strings.ToLower(line)
	first := lower
	if idx := strings.IndexAny(first, " \t"); idx >= 0 {
		first = first[:idx]
	}
	first = strings.Trim(first, ",.:;!?")
	for _, verb := range kw.ActionVerbs {
		if first == verb {
			return true
		}
	}
	for _, conn := range []string{" then ", " next ", " after ", "so that"} {
		if strings.Contains(lower, conn) {
			return true
		}
	}
	if strings.Contains(lower, "task") || strings.Contains(lower, "step") {
		return true
	}
	return matchesAny(lower, kw.P0) || matchesAny(lower, kw.P1)
}

// dedupeKey lowercases, keeps alphanumerics and spaces, and truncates to 80
// chars. First occurrence of a key wins.
func dedupeKey(line string) string {
	key := nonAlnumRe.ReplaceAllString(strings.ToLower(line), "")
	if len(key) > 80 {
		key = key[:80]
	}
	return key
}

// inferPriority scans for priority keywords: P0 set first, then P1, else P2.
func inferPriority(line string, kw Keywords) int {
	lower := strings.ToLower(line)
	if matchesAny(lower, kw.P0) {
		return 0
	}
	if matchesAny(lower, kw.P1) {
		return 1
	}
	return 2
}

// inferLane assigns Frontend or Backend by keyword scan. When both sets
// match, or neither matches and the line talks about transcript/summary/plan
// material, the task goes to Backend; otherwise Frontend.
func inferLane(line string, kw Keywords) string {
	lower := strings.ToLower(line)
	fe := matchesAny(lower, kw.Frontend)
	be := matchesAny(lower, kw.Backend)

	switch {
	case be && fe:
		return LaneBackend
	case be:
		return LaneBackend
	case fe:
		return LaneFrontend
	case matchesAny(lower, []string{"transcript", "summary", "plan"}):
		return LaneBackend
	default:
		return LaneFrontend
	}
}

// matchesAny reports whether any keyword appears as a whole word in the
// lowercased line. Punctuation is flattened to spaces before matching so
// "P0:" still matches "p0".
func matchesAny(lower string, keywords []string) bool {
	padded := " " + nonAlnumRe.ReplaceAllString(lower, " ") + " "
	for _, k := range keywords {
		if strings.Contains(padded, " "+k+" ") {
			return true
		}
	}
	return false
}
