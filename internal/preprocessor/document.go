// internal/preprocessor/document.go

package preprocessor

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"rgehrsitz/rexchain/internal/rules"
)

// document is the decoded form shared by every rule document format.
type document struct {
	Name        string       `json:"name" yaml:"name" validate:"required"`
	Description string       `json:"description" yaml:"description" validate:"required"`
	Synonyms    []synonymDoc `json:"synonyms" yaml:"synonyms" validate:"dive"`
	Rules       []ruleDoc    `json:"rules" yaml:"rules" validate:"dive"`
}

type synonymDoc struct {
	Name  string `json:"name" yaml:"name" xml:"name,attr" validate:"required"`
	Class string `json:"class" yaml:"class" xml:"class,attr" validate:"required"`
}

type ruleDoc struct {
	Name        string          `json:"name" yaml:"name" validate:"required"`
	Description string          `json:"description" yaml:"description"`
	Enabled     *bool           `json:"enabled" yaml:"enabled"`
	Assumptions []assumptionDoc `json:"assumptions" yaml:"assumptions" validate:"dive"`
	Actions     []actionDoc     `json:"actions" yaml:"actions" validate:"dive"`
}

type assumptionDoc struct {
	LeftTerm  scalar  `json:"leftTerm" yaml:"leftTerm" validate:"required"`
	Op        *scalar `json:"op" yaml:"op" validate:"omitempty,operator"`
	RightTerm *scalar `json:"rightTerm" yaml:"rightTerm"`
}

// actionDoc holds a method path and its positional arguments arg1..argN.
type actionDoc struct {
	Method string `validate:"required,contains=."`
	Args   []string
}

// scalar is a term written as a string, number or boolean.
type scalar string

func (s *scalar) UnmarshalJSON(data []byte) error {
	text, err := rawText(data)
	if err != nil {
		return err
	}
	*s = scalar(text)
	return nil
}

func rawText(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	if len(data) > 0 && (data[0] == '{' || data[0] == '[') {
		return "", fmt.Errorf("expected a scalar, got %s", data)
	}
	if string(data) == "null" {
		return "", nil
	}
	return string(data), nil
}

func (a *actionDoc) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		text, err := rawText(v)
		if err != nil {
			return fmt.Errorf("action field %s: %w", k, err)
		}
		fields[k] = text
	}
	a.fromFields(fields)
	return nil
}

func (a *actionDoc) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: action must be a mapping", node.Line)
	}
	fields := make(map[string]string, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: action field %s must be a scalar", v.Line, k.Value)
		}
		fields[k.Value] = v.Value
	}
	a.fromFields(fields)
	return nil
}

func (a *actionDoc) fromFields(fields map[string]string) {
	a.Method = fields["method"]
	a.Args = nil
	for k := 1; ; k++ {
		arg, ok := fields["arg"+strconv.Itoa(k)]
		if !ok {
			return
		}
		a.Args = append(a.Args, arg)
	}
}

type xmlDocument struct {
	XMLName     xml.Name     `xml:"rule-execution-set"`
	Name        string       `xml:"name"`
	Description string       `xml:"description"`
	Synonyms    []synonymDoc `xml:"synonymn"`
	Rules       []xmlRule    `xml:"rule"`
}

type xmlRule struct {
	Name        string     `xml:"name,attr"`
	Description string     `xml:"description,attr"`
	Enabled     string     `xml:"enabled,attr"`
	Ifs         []xmlAttrs `xml:"if"`
	Thens       []xmlAttrs `xml:"then"`
}

type xmlAttrs struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

func (x xmlAttrs) get(name string) (string, bool) {
	for _, a := range x.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (x *xmlDocument) document() *document {
	doc := &document{
		Name:        strings.TrimSpace(x.Name),
		Description: strings.TrimSpace(x.Description),
		Synonyms:    x.Synonyms,
	}
	for _, xr := range x.Rules {
		r := ruleDoc{Name: xr.Name, Description: xr.Description}
		if xr.Enabled != "" {
			enabled := strings.EqualFold(xr.Enabled, "true")
			r.Enabled = &enabled
		}
		for _, xi := range xr.Ifs {
			left, _ := xi.get("leftTerm")
			a := assumptionDoc{LeftTerm: scalar(left)}
			if op, ok := xi.get("op"); ok {
				s := scalar(op)
				a.Op = &s
			}
			if right, ok := xi.get("rightTerm"); ok {
				s := scalar(right)
				a.RightTerm = &s
			}
			r.Assumptions = append(r.Assumptions, a)
		}
		for _, xt := range xr.Thens {
			fields := make(map[string]string, len(xt.Attrs))
			for _, attr := range xt.Attrs {
				fields[attr.Name.Local] = attr.Value
			}
			var a actionDoc
			a.fromFields(fields)
			r.Actions = append(r.Actions, a)
		}
		doc.Rules = append(doc.Rules, r)
	}
	return doc
}

var documentValidate *validator.Validate

func init() {
	documentValidate = validator.New()
	_ = documentValidate.RegisterValidation("operator", validateOperator)
}

func validateOperator(fl validator.FieldLevel) bool {
	return rules.IsSupportedOperator(fl.Field().String())
}

// decodeDocument decodes and validates a rule document.
func decodeDocument(data []byte, format Format) (*document, error) {
	doc := &document{}
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
	case FormatXML:
		var x xmlDocument
		if err := xml.Unmarshal(data, &x); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		doc = x.document()
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidDocument, format)
	}

	doc.Name = strings.TrimSpace(doc.Name)
	doc.Description = strings.TrimSpace(doc.Description)
	if err := documentValidate.Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc, nil
}

// ruleSet builds the rule set, expanding synonyms in every term and method path.
func (doc *document) ruleSet() *rules.RuleSet {
	synonyms := make(map[string]string, len(doc.Synonyms))
	for _, s := range doc.Synonyms {
		synonyms[s.Name] = s.Class
	}

	list := make([]*rules.Rule, 0, len(doc.Rules))
	for _, rd := range doc.Rules {
		assumptions := make([]rules.Assumption, 0, len(rd.Assumptions))
		for _, ad := range rd.Assumptions {
			left := expandSynonym(string(ad.LeftTerm), synonyms)
			if ad.Op == nil || ad.RightTerm == nil {
				assumptions = append(assumptions, rules.Exists(left))
				continue
			}
			assumptions = append(assumptions, rules.NewAssumption(
				left, string(*ad.Op), expandSynonym(string(*ad.RightTerm), synonyms)))
		}

		actions := make([]rules.Action, 0, len(rd.Actions))
		for _, act := range rd.Actions {
			var args []string
			for _, arg := range act.Args {
				args = append(args, expandSynonym(arg, synonyms))
			}
			actions = append(actions, rules.Action{Method: expandSynonym(act.Method, synonyms), Args: args})
		}

		r := rules.NewRule(rd.Name, rd.Description, assumptions, actions)
		if rd.Enabled != nil {
			r.Enabled = *rd.Enabled
		}
		list = append(list, r)
	}
	return rules.NewRuleSet(doc.Name, doc.Description, list)
}

// expandSynonym replaces the part of a dotted path before the last separator when it
// names a synonym. Undotted text is returned unchanged.
func expandSynonym(path string, synonyms map[string]string) string {
	i := strings.LastIndex(path, rules.PathSeparator)
	if i < 0 {
		return path
	}
	if class, ok := synonyms[path[:i]]; ok {
		return class + path[i:]
	}
	return path
}
