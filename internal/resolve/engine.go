package resolve

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/pfrederiksen/kebiao-ics/internal/schedule"
)

// DefaultSentinel is the portal's "see department notice" placeholder.
const DefaultSentinel = "(场地详见学院通知)"

// TieBreak selects a classroom when a course name has several table entries.
type TieBreak string

const (
	// TieBreakFirst takes the first entry in table order.
	TieBreakFirst TieBreak = "first"
	// TieBreakStrict applies a classroom only when every entry agrees.
	TieBreakStrict TieBreak = "strict"
)

// Rule names which resolution step decided a location.
type Rule string

const (
	RuleFixed       Rule = "fixed"
	RuleUnchanged   Rule = "unchanged"
	RuleTable       Rule = "table"
	RuleNotEnrolled Rule = "not_enrolled"
	RuleNoCandidate Rule = "no_candidate"
)

// FixedLocation pins a course to a location.
type FixedLocation struct {
	CourseName string
	Location   string
}

// Policy is the configurable part of resolution.
type Policy struct {
	Sentinel string
	Fixed    []FixedLocation
	TieBreak TieBreak
}

// DefaultFixedLocations are the courses whose rooms are known up front.
func DefaultFixedLocations() []FixedLocation {
	return []FixedLocation{
		{CourseName: "生物信息学", Location: "钉钉"},
		{CourseName: "知识产权", Location: "瓯江实验室7010"},
		{CourseName: "医学研究方法", Location: "学院路校区综合楼401、402"},
		{CourseName: "现代生物医学工程概论", Location: "茶山6A407"},
	}
}

// DefaultPolicy returns the portal's sentinel, fixed locations and
// first-match tie-break.
func DefaultPolicy() Policy {
	return Policy{
		Sentinel: DefaultSentinel,
		Fixed:    DefaultFixedLocations(),
		TieBreak: TieBreakFirst,
	}
}

// Engine resolves session locations. It is safe for concurrent use once
// built.
type Engine struct {
	sentinel string
	tieBreak TieBreak
	fixed    map[string]string
	rooms    map[string][]string
	rosters  map[string]map[string]struct{}
}

// NewEngine indexes the tables for lookups by normalized course name.
func NewEngine(policy Policy, tables Tables) (*Engine, error) {
	if policy.Sentinel == "" {
		policy.Sentinel = DefaultSentinel
	}
	switch policy.TieBreak {
	case "":
		policy.TieBreak = TieBreakFirst
	case TieBreakFirst, TieBreakStrict:
	default:
		return nil, fmt.Errorf("unknown tie-break policy: %q", policy.TieBreak)
	}

	e := &Engine{
		sentinel: policy.Sentinel,
		tieBreak: policy.TieBreak,
		fixed:    make(map[string]string, len(policy.Fixed)),
		rooms:    make(map[string][]string),
		rosters:  make(map[string]map[string]struct{}),
	}

	for _, f := range policy.Fixed {
		key := courseKey(f.CourseName)
		if _, dup := e.fixed[key]; dup {
			return nil, fmt.Errorf("fixed location for %q defined twice", f.CourseName)
		}
		e.fixed[key] = f.Location
	}

	for _, l := range tables.Locations {
		key := courseKey(l.CourseName)
		e.rooms[key] = append(e.rooms[key], l.Classroom)
	}

	for _, r := range tables.Rosters {
		key := courseKey(r.CourseName)
		ids, ok := e.rosters[key]
		if !ok {
			ids = make(map[string]struct{})
			e.rosters[key] = ids
		}
		for _, s := range r.Enrolled {
			if id := strings.TrimSpace(s.StudentID); id != "" {
				ids[id] = struct{}{}
			}
		}
	}

	return e, nil
}

// Sentinel returns the placeholder location this engine resolves.
func (e *Engine) Sentinel() string {
	return e.sentinel
}

// Resolve returns the location to use for s.
func (e *Engine) Resolve(s schedule.Session, studentID string) string {
	loc, _ := e.resolve(s, studentID)
	return loc
}

// Explain is Resolve plus the rule that decided the result.
func (e *Engine) Explain(s schedule.Session, studentID string) (string, Rule) {
	return e.resolve(s, studentID)
}

func (e *Engine) resolve(s schedule.Session, studentID string) (string, Rule) {
	key := courseKey(s.CourseName)

	if loc, ok := e.fixed[key]; ok {
		return loc, RuleFixed
	}
	if normalize(s.Location) != normalize(e.sentinel) {
		return s.Location, RuleUnchanged
	}

	candidate, ok := e.candidate(key)
	if !ok {
		return s.Location, RuleNoCandidate
	}
	if !e.enrolled(key, studentID) {
		return s.Location, RuleNotEnrolled
	}
	return candidate, RuleTable
}

func (e *Engine) candidate(key string) (string, bool) {
	rooms := e.rooms[key]
	if len(rooms) == 0 {
		return "", false
	}
	if e.tieBreak == TieBreakStrict {
		for _, r := range rooms[1:] {
			if normalize(r) != normalize(rooms[0]) {
				return "", false
			}
		}
	}
	return rooms[0], true
}

func (e *Engine) enrolled(key, studentID string) bool {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return false
	}
	_, ok := e.rosters[key][studentID]
	return ok
}

// ResolveAll returns a copy of sessions with resolved locations. The input
// slice is not modified.
func (e *Engine) ResolveAll(sessions []schedule.Session, studentID string) []schedule.Session {
	out := make([]schedule.Session, len(sessions))
	for i, s := range sessions {
		c := s.Clone()
		c.Location = e.Resolve(s, studentID)
		out[i] = c
	}
	return out
}

func normalize(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

func courseKey(name string) string {
	return normalize(name)
}
