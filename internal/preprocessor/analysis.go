// internal/preprocessor/analysis.go

package preprocessor

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"rgehrsitz/rexchain/internal/rules"
	"rgehrsitz/rexchain/internal/runtime"
	"rgehrsitz/rexchain/internal/vocabulary"
)

// RuleInfo lists the facts a rule reads and writes.
type RuleInfo struct {
	Name     string   `json:"name"`
	Enabled  bool     `json:"enabled"`
	Consumed []string `json:"consumed"`
	Produced []string `json:"produced"`
}

// Analysis summarizes a rule set for validation reports.
type Analysis struct {
	RuleSet  string     `json:"ruleset"`
	Rules    []RuleInfo `json:"rules"`
	Consumed []string   `json:"consumed"`
	Produced []string   `json:"produced"`
	// Duplicates groups rules whose assumption sets are identical.
	Duplicates [][]string `json:"duplicates,omitempty"`
}

// Analyze reports consumed and produced facts per rule and rules with identical
// assumptions.
func Analyze(rs *rules.RuleSet) (*Analysis, error) {
	a := &Analysis{RuleSet: rs.Name}
	consumed := make(map[string]bool)
	produced := make(map[string]bool)

	for _, r := range rs.Rules {
		info := RuleInfo{
			Name:     r.Name,
			Enabled:  r.Enabled,
			Consumed: consumedFacts(r),
			Produced: producedFacts(r),
		}
		for _, f := range info.Consumed {
			consumed[f] = true
		}
		for _, f := range info.Produced {
			produced[f] = true
		}
		a.Rules = append(a.Rules, info)
	}
	a.Consumed = sortedKeys(consumed)
	a.Produced = sortedKeys(produced)

	dups, err := duplicateRules(rs.Rules)
	if err != nil {
		return nil, err
	}
	a.Duplicates = dups
	for _, group := range dups {
		log.Warn().Str("ruleset", rs.Name).Strs("rules", group).Msg("Rules share identical assumptions")
	}
	return a, nil
}

// Optimize drops repeated assumptions within each rule, keeping the first occurrence,
// and returns how many were removed.
func Optimize(rs *rules.RuleSet) int {
	removed := 0
	for _, r := range rs.Rules {
		seen := make(map[rules.Assumption]bool, len(r.Assumptions))
		kept := r.Assumptions[:0:0]
		for _, a := range r.Assumptions {
			if seen[a] {
				removed++
				continue
			}
			seen[a] = true
			kept = append(kept, a)
		}
		if len(kept) != len(r.Assumptions) {
			r.Assumptions = kept
		}
	}
	if removed > 0 {
		log.Info().Str("ruleset", rs.Name).Int("removed", removed).Msg("Removed duplicate assumptions")
	}
	return removed
}

func consumedFacts(r *rules.Rule) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(f string) {
		if f != "" && !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, a := range r.Assumptions {
		add(factOf(a.LeftTerm, true))
		add(factOf(a.RightTerm, false))
	}
	for _, act := range r.Actions {
		for _, arg := range act.Args {
			add(factOf(arg, false))
		}
	}
	return out
}

// factOf returns the working-memory key a term reads. Dotted terms read their base;
// plain terms are counted only on the left side, where they name a fact.
func factOf(term string, left bool) string {
	if term == "" || strings.HasPrefix(term, runtime.VariablePrefix) {
		return ""
	}
	i := strings.LastIndex(term, rules.PathSeparator)
	if i < 0 {
		if left && !isNumeric(term) {
			return term
		}
		return ""
	}
	base := term[:i]
	if isNumeric(term) || isNumeric(base) {
		return ""
	}
	return base
}

func producedFacts(r *rules.Rule) []string {
	seen := make(map[string]bool)
	var out []string
	for _, act := range r.Actions {
		target, ok := act.Target()
		if !ok {
			continue
		}
		// clauses are stored under their own name
		if target == vocabulary.ClauseTypeName && len(act.Args) > 0 {
			switch act.MethodName() {
			case "setClause", "setName":
				target = act.Args[0]
			}
		}
		if !seen[target] {
			seen[target] = true
			out = append(out, target)
		}
	}
	return out
}

// duplicateRules groups rule names by assumption set, in first-seen order.
func duplicateRules(list []*rules.Rule) ([][]string, error) {
	groups := make(map[string][]string)
	var order []string
	for _, r := range list {
		key, err := conditionsKey(r.Assumptions)
		if err != nil {
			return nil, err
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r.Name)
	}

	var dups [][]string
	for _, key := range order {
		if len(groups[key]) > 1 {
			dups = append(dups, groups[key])
		}
	}
	return dups, nil
}

// conditionsKey generates a unique key based on the assumptions of a rule.
func conditionsKey(assumptions []rules.Assumption) (string, error) {
	normalized := normalizeAssumptions(assumptions)

	serialized, err := json.Marshal(normalized)
	if err != nil {
		return "", fmt.Errorf("error marshaling assumptions: %w", err)
	}

	hash := sha256.Sum256(serialized)
	return fmt.Sprintf("%x", hash), nil
}

// normalizeAssumptions returns a sorted, de-duplicated copy.
func normalizeAssumptions(assumptions []rules.Assumption) []rules.Assumption {
	sorted := make([]rules.Assumption, 0, len(assumptions))
	seen := make(map[rules.Assumption]bool, len(assumptions))
	for _, a := range assumptions {
		if !seen[a] {
			seen[a] = true
			sorted = append(sorted, a)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].LeftTerm != sorted[j].LeftTerm {
			return sorted[i].LeftTerm < sorted[j].LeftTerm
		}
		if sorted[i].Operator != sorted[j].Operator {
			return sorted[i].Operator < sorted[j].Operator
		}
		return sorted[i].RightTerm < sorted[j].RightTerm
	})
	return sorted
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
