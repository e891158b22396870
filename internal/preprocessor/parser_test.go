package preprocessor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rgehrsitz/rexchain/internal/memory"
	"rgehrsitz/rexchain/internal/rules"
	"rgehrsitz/rexchain/internal/runtime"
	"rgehrsitz/rexchain/internal/vocabulary"
)

const promotionsJSON = `{
    "name": "promotions",
    "description": "Adult promotion",
    "synonyms": [{"name": "p", "class": "person"}],
    "rules": [
        {
            "name": "promote",
            "description": "adults are promoted",
            "assumptions": [
                {"leftTerm": "p.getAge", "op": ">", "rightTerm": 17},
                {"leftTerm": "vip"}
            ],
            "actions": [
                {"method": "p.setAdult", "arg1": "true"},
                {"method": "Clause.setClause", "arg1": "status", "arg2": "p.getName"}
            ]
        },
        {
            "name": "audit",
            "description": "",
            "enabled": false,
            "assumptions": [{"leftTerm": "status", "op": "=", "rightTerm": "gold"}],
            "actions": [{"method": "audit.log"}]
        }
    ]
}`

const promotionsYAML = `
name: promotions
description: Adult promotion
synonyms:
  - name: p
    class: person
rules:
  - name: promote
    description: adults are promoted
    assumptions:
      - leftTerm: p.getAge
        op: ">"
        rightTerm: 17
      - leftTerm: vip
    actions:
      - method: p.setAdult
        arg1: "true"
      - method: Clause.setClause
        arg1: status
        arg2: p.getName
  - name: audit
    description: ""
    enabled: false
    assumptions:
      - leftTerm: status
        op: "="
        rightTerm: gold
    actions:
      - method: audit.log
`

const promotionsXML = `<?xml version="1.0" encoding="UTF-8"?>
<rule-execution-set>
  <name> promotions </name>
  <description>Adult promotion</description>
  <synonymn name="p" class="person"/>
  <rule name="promote" description="adults are promoted">
    <if leftTerm="p.getAge" op="&gt;" rightTerm="17"/>
    <if leftTerm="vip"/>
    <then method="p.setAdult" arg1="true"/>
    <then method="Clause.setClause" arg1="status" arg2="p.getName"/>
  </rule>
  <rule name="audit" description="" enabled="FALSE">
    <if leftTerm="status" op="=" rightTerm="gold"/>
    <then method="audit.log"/>
  </rule>
</rule-execution-set>`

func expectedPromotionRules() []*rules.Rule {
	promote := rules.NewRule("promote", "adults are promoted",
		[]rules.Assumption{
			rules.NewAssumption("person.getAge", ">", "17"),
			rules.Exists("vip"),
		},
		[]rules.Action{
			{Method: "person.setAdult", Args: []string{"true"}},
			{Method: "Clause.setClause", Args: []string{"status", "person.getName"}},
		})
	audit := rules.NewRule("audit", "",
		[]rules.Assumption{rules.NewAssumption("status", "=", "gold")},
		[]rules.Action{{Method: "audit.log"}})
	audit.Enabled = false
	return []*rules.Rule{promote, audit}
}

func TestParseRuleSet_Formats(t *testing.T) {
	tests := []struct {
		format Format
		data   string
	}{
		{FormatJSON, promotionsJSON},
		{FormatYAML, promotionsYAML},
		{FormatXML, promotionsXML},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			rs, err := ParseRuleSet([]byte(tt.data), tt.format, map[string]string{"owner": "hr"})
			require.NoError(t, err)

			assert.Equal(t, "promotions", rs.Name)
			assert.Equal(t, "Adult promotion", rs.Description)
			assert.Empty(t, rs.URI(), "Parsed sets are unbound until registered")
			assert.Equal(t, map[string]string{
				"owner":       "hr",
				"name":        "promotions",
				"description": "Adult promotion",
			}, rs.Properties())

			if diff := cmp.Diff(expectedPromotionRules(), rs.Rules, cmpopts.IgnoreUnexported(rules.Rule{})); diff != "" {
				t.Errorf("rules mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseRuleSet_InvalidDocuments(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{"malformed json", FormatJSON, `{"name": `},
		{"missing name", FormatJSON, `{"description": "d", "rules": []}`},
		{"missing description", FormatYAML, "name: x\nrules: []\n"},
		{"rule without name", FormatJSON, `{"name": "x", "description": "d", "rules": [{"assumptions": [], "actions": []}]}`},
		{"unsupported operator", FormatJSON, `{"name": "x", "description": "d", "rules": [{"name": "r", "assumptions": [{"leftTerm": "a", "op": "~", "rightTerm": "b"}], "actions": []}]}`},
		{"method without target", FormatJSON, `{"name": "x", "description": "d", "rules": [{"name": "r", "assumptions": [], "actions": [{"method": "fire"}]}]}`},
		{"action not a mapping", FormatYAML, "name: x\ndescription: d\nrules:\n  - name: r\n    actions:\n      - p.fire\n"},
		{"missing left term", FormatXML, `<rule-execution-set><name>x</name><description>d</description><rule name="r"><if op="=" rightTerm="1"/></rule></rule-execution-set>`},
		{"wrong root", FormatXML, `<rules><name>x</name></rules>`},
		{"unknown format", Format("toml"), `name = "x"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRuleSet([]byte(tt.data), tt.format, nil)
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})
	}
}

func TestParseRuleSet_ExistsWhenOperatorOrRightTermMissing(t *testing.T) {
	data := `{"name": "x", "description": "d", "rules": [{"name": "r",
		"assumptions": [{"leftTerm": "a", "op": "="}, {"leftTerm": "b", "rightTerm": "c"}, {"leftTerm": "d", "op": "exists", "rightTerm": null}],
		"actions": []}]}`
	rs, err := ParseRuleSet([]byte(data), FormatJSON, nil)
	require.NoError(t, err)
	assert.Equal(t, []rules.Assumption{rules.Exists("a"), rules.Exists("b"), rules.Exists("d")}, rs.Rules[0].Assumptions)
}

func TestParseRuleSet_ArgumentsStopAtFirstGap(t *testing.T) {
	data := `{"name": "x", "description": "d", "rules": [{"name": "r", "assumptions": [],
		"actions": [{"method": "a.b", "arg1": 1.5, "arg2": "y", "arg4": "skipped"}]}]}`
	rs, err := ParseRuleSet([]byte(data), FormatJSON, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.5", "y"}, rs.Rules[0].Actions[0].Args)
}

func TestExpandSynonym(t *testing.T) {
	synonyms := map[string]string{"p": "person", "a.b": "Alarm"}
	tests := map[string]string{
		"p.getAge":     "person.getAge",
		"p":            "p",
		"q.getAge":     "q.getAge",
		"a.b.getLevel": "Alarm.getLevel",
		"17.5":         "17.5",
	}
	for in, want := range tests {
		assert.Equal(t, want, expandSynonym(in, synonyms), in)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"rules.json":     FormatJSON,
		"rules.YAML":     FormatYAML,
		"dir/rules.yml":  FormatYAML,
		"/etc/rules.xml": FormatXML,
	}
	for path, want := range tests {
		got, err := DetectFormat(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := DetectFormat("rules")
	assert.Error(t, err)
	_, err = DetectFormat("rules.toml")
	assert.Error(t, err)
}

func TestParseFacts(t *testing.T) {
	want := []any{
		vocabulary.NewClause("age", float64(20)),
		vocabulary.NewClause("name", "Rex"),
		vocabulary.NewClause("vip", true),
	}
	facts, err := ParseFacts([]byte(`{"vip": true, "name": "Rex", "age": 20}`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, want, facts)

	facts, err = ParseFacts([]byte("vip: true\nname: Rex\nage: 20\n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, []any{
		vocabulary.NewClause("age", 20),
		vocabulary.NewClause("name", "Rex"),
		vocabulary.NewClause("vip", true),
	}, facts)

	_, err = ParseFacts([]byte(`{"nested": {"a": 1}}`), FormatJSON)
	assert.ErrorIs(t, err, ErrInvalidDocument)
	_, err = ParseFacts([]byte(`<facts/>`), FormatXML)
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestParseFacts_LargeNumbersCompareAsIntegers(t *testing.T) {
	facts, err := ParseFacts([]byte(`{"count": 1000000, "ratio": 0.0000005}`), FormatJSON)
	require.NoError(t, err)

	wm := memory.New(vocabulary.New())
	for _, f := range facts {
		wm.Register(f)
	}
	ev := runtime.NewEvaluator(wm, runtime.NewResolver(wm))

	ok, err := ev.Evaluate(rules.NewAssumption("count", "=", "1000000"), runtime.Bindings{})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.Evaluate(rules.NewAssumption("ratio", "<", "0.000001"), runtime.Bindings{})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoad_FromFiles(t *testing.T) {
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "promotions.yaml")
	factsPath := filepath.Join(dir, "facts.json")
	require.NoError(t, os.WriteFile(rulesPath, []byte(promotionsYAML), 0o600))
	require.NoError(t, os.WriteFile(factsPath, []byte(`{"age": 20}`), 0o600))

	rs, err := LoadRuleSet(rulesPath, "", nil)
	require.NoError(t, err)
	assert.Len(t, rs.Rules, 2)

	facts, err := LoadFacts(factsPath)
	require.NoError(t, err)
	assert.Len(t, facts, 1)

	_, err = LoadRuleSet(filepath.Join(dir, "missing.json"), "", nil)
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{}`), 0o600))
	_, err = LoadRuleSet(bad, "", nil)
	assert.ErrorIs(t, err, ErrInvalidDocument)
	assert.Contains(t, err.Error(), bad)
}
