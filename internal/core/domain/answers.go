package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// AnswerKind discriminates the variants an Answer can hold.
type AnswerKind uint8

const (
	AnswerNull AnswerKind = iota
	AnswerBool
	AnswerNumber
	AnswerString
	AnswerList
	AnswerObject
)

func (k AnswerKind) String() string {
	switch k {
	case AnswerBool:
		return "bool"
	case AnswerNumber:
		return "number"
	case AnswerString:
		return "string"
	case AnswerList:
		return "list"
	case AnswerObject:
		return "object"
	default:
		return "null"
	}
}

const maxAnswerDepth = 16

// Answer is a questionnaire response set: a JSON-shaped value that is either
// null, a bool, a number, a string, a list of answers or a keyed map of answers.
// The zero value is null.
type Answer struct {
	kind   AnswerKind
	b      bool
	num    float64
	str    string
	list   []Answer
	fields map[string]Answer
}

func NullAnswer() Answer { return Answer{} }

func BoolAnswer(v bool) Answer { return Answer{kind: AnswerBool, b: v} }

func NumberAnswer(v float64) Answer { return Answer{kind: AnswerNumber, num: v} }

func StringAnswer(v string) Answer { return Answer{kind: AnswerString, str: v} }

func ListAnswer(items ...Answer) Answer {
	list := make([]Answer, len(items))
	copy(list, items)
	return Answer{kind: AnswerList, list: list}
}

func ObjectAnswer(fields map[string]Answer) Answer {
	m := make(map[string]Answer, len(fields))
	for k, v := range fields {
		m[k] = v
	}
	return Answer{kind: AnswerObject, fields: m}
}

func (a Answer) Kind() AnswerKind { return a.kind }

func (a Answer) IsNull() bool { return a.kind == AnswerNull }

func (a Answer) Bool() (bool, bool) { return a.b, a.kind == AnswerBool }

func (a Answer) Number() (float64, bool) { return a.num, a.kind == AnswerNumber }

func (a Answer) Text() (string, bool) { return a.str, a.kind == AnswerString }

// Items returns the elements of a list answer, nil for any other kind.
func (a Answer) Items() []Answer {
	if a.kind != AnswerList {
		return nil
	}
	return a.list
}

// Field looks up a key of an object answer.
func (a Answer) Field(name string) (Answer, bool) {
	if a.kind != AnswerObject {
		return Answer{}, false
	}
	v, ok := a.fields[name]
	return v, ok
}

// Keys returns the keys of an object answer in sorted order.
func (a Answer) Keys() []string {
	if a.kind != AnswerObject {
		return nil
	}
	keys := make([]string, 0, len(a.fields))
	for k := range a.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RequireObject fails unless a is an object, or null when allowNull is set.
func (a Answer) RequireObject(allowNull bool) error {
	if a.kind == AnswerObject || (allowNull && a.kind == AnswerNull) {
		return nil
	}
	return InvalidInput("answers must be an object, got %s", a.kind)
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case AnswerBool:
		return json.Marshal(a.b)
	case AnswerNumber:
		if math.IsNaN(a.num) || math.IsInf(a.num, 0) {
			return nil, fmt.Errorf("answer: non-finite number")
		}
		return json.Marshal(a.num)
	case AnswerString:
		return json.Marshal(a.str)
	case AnswerList:
		if a.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.list)
	case AnswerObject:
		if a.fields == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(a.fields)
	default:
		return []byte("null"), nil
	}
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := answerFromValue(raw, 0)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func answerFromValue(raw any, depth int) (Answer, error) {
	if depth > maxAnswerDepth {
		return Answer{}, InvalidInput("answers nested deeper than %d levels", maxAnswerDepth)
	}
	switch v := raw.(type) {
	case nil:
		return NullAnswer(), nil
	case bool:
		return BoolAnswer(v), nil
	case float64:
		return NumberAnswer(v), nil
	case string:
		return StringAnswer(v), nil
	case []any:
		items := make([]Answer, 0, len(v))
		for _, item := range v {
			a, err := answerFromValue(item, depth+1)
			if err != nil {
				return Answer{}, err
			}
			items = append(items, a)
		}
		return Answer{kind: AnswerList, list: items}, nil
	case map[string]any:
		fields := make(map[string]Answer, len(v))
		for k, item := range v {
			a, err := answerFromValue(item, depth+1)
			if err != nil {
				return Answer{}, err
			}
			fields[k] = a
		}
		return Answer{kind: AnswerObject, fields: fields}, nil
	default:
		return Answer{}, fmt.Errorf("answer: unsupported value %T", raw)
	}
}

// ParseAnswers decodes a stored answer document. An empty string is null.
func ParseAnswers(raw string) (Answer, error) {
	if raw == "" {
		return NullAnswer(), nil
	}
	var a Answer
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return Answer{}, err
	}
	return a, nil
}

// Encode serializes the answer to its stored JSON text form.
func (a Answer) Encode() (string, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
