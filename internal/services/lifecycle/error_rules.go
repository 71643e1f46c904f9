package lifecycle

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
)

//go:embed configs/pi_service_error_config.csv
var defaultErrorConfig []byte

// Rule shapes: a detail rule appends a field-targeted entry to the
// response's Details; a message rule replaces the top-level message and
// clears Details.
const (
	shapeDetail  = "detail"
	shapeMessage = "message"
)

// wildcard matches any value in a rule key position.
const wildcard = "*"

// ErrorRule maps one (action, family, type, error code) combination to a
// client-facing message.
type ErrorRule struct {
	Action    string
	Family    string
	Type      string
	ErrorCode string
	Shape     string
	Message   string
	Target    string
}

// RuleTable resolves service error codes to client-facing error rules.
// It is immutable after load and safe for concurrent use.
type RuleTable struct {
	rules map[string]*ErrorRule
}

// NewRuleTable loads the embedded rule configuration.
func NewRuleTable() (*RuleTable, error) {
	return LoadRuleTable(defaultErrorConfig)
}

// LoadRuleTable parses rule rows of
// "action,family,type,error_code,shape,message,target". Any malformed
// row fails the whole load.
func LoadRuleTable(content []byte) (*RuleTable, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = 7

	// Header row
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("read error config header: %w", err)
	}

	table := &RuleTable{rules: make(map[string]*ErrorRule)}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read error config row %d: %w", line, err)
		}

		rule := &ErrorRule{
			Action:    record[0],
			Family:    record[1],
			Type:      record[2],
			ErrorCode: record[3],
			Shape:     record[4],
			Message:   record[5],
			Target:    record[6],
		}
		if rule.Shape != shapeDetail && rule.Shape != shapeMessage {
			return nil, fmt.Errorf("error config row %d: unknown shape %q", line, rule.Shape)
		}
		if rule.Message == "" {
			return nil, fmt.Errorf("error config row %d: empty message", line)
		}

		key := ruleKey(rule.Action, rule.Family, rule.Type, rule.ErrorCode)
		if _, exists := table.rules[key]; exists {
			return nil, fmt.Errorf("error config row %d: duplicate rule %s", line, key)
		}
		table.rules[key] = rule
	}

	if _, ok := table.rules[ruleKey(wildcard, wildcard, wildcard, wildcard)]; !ok {
		return nil, fmt.Errorf("error config: missing generic fallback rule")
	}

	return table, nil
}

func ruleKey(action, family, piType, errorCode string) string {
	return action + "|" + family + "|" + piType + "|" + errorCode
}

// Resolve finds the most specific rule for the given key, relaxing the
// family, type, and finally the error code until something matches. The
// generic row guarantees a match for loaded tables.
func (t *RuleTable) Resolve(action, family, piType, errorCode string) *ErrorRule {
	for _, act := range []string{action, wildcard} {
		candidates := [][4]string{
			{act, family, piType, errorCode},
			{act, family, wildcard, errorCode},
			{act, wildcard, wildcard, errorCode},
			{act, family, piType, wildcard},
			{act, family, wildcard, wildcard},
			{act, wildcard, wildcard, wildcard},
		}
		for _, c := range candidates {
			if rule, ok := t.rules[ruleKey(c[0], c[1], c[2], c[3])]; ok {
				return rule
			}
		}
	}
	return nil
}
