package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MetaKind discriminates the wire shape of a metadata value
type MetaKind int

const (
	MetaKindNumber MetaKind = iota
	MetaKindString
	MetaKindBool
)

// MetaValue is a loosely-typed metadata value (number | string | bool).
// Connectors send metadata in whatever representation their wire format
// produces, so reads go through total coercion functions instead of type
// switches at call sites.
type MetaValue struct {
	kind MetaKind
	num  float64
	str  string
	b    bool
}

// Metadata is the open, category-specific key/value bag carried by a StateSpan
type Metadata map[string]MetaValue

func MetaNumber(v float64) MetaValue {
	return MetaValue{kind: MetaKindNumber, num: v}
}

func MetaString(v string) MetaValue {
	return MetaValue{kind: MetaKindString, str: v}
}

func MetaBool(v bool) MetaValue {
	return MetaValue{kind: MetaKindBool, b: v}
}

func (v MetaValue) Kind() MetaKind {
	return v.kind
}

// AsFloat coerces the value to a float. Numbers coerce directly, strings are
// parsed, everything else reports false.
func (v MetaValue) AsFloat() (float64, bool) {
	switch v.kind {
	case MetaKindNumber:
		return v.num, true
	case MetaKindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsString renders the value as a string. Total; never fails.
func (v MetaValue) AsString() string {
	switch v.kind {
	case MetaKindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case MetaKindBool:
		return strconv.FormatBool(v.b)
	default:
		return v.str
	}
}

// AsBool coerces to a bool. Strings accept the usual ParseBool spellings,
// numbers are true when non-zero.
func (v MetaValue) AsBool() (bool, bool) {
	switch v.kind {
	case MetaKindBool:
		return v.b, true
	case MetaKindNumber:
		return v.num != 0, true
	default:
		b, err := strconv.ParseBool(strings.TrimSpace(v.str))
		if err != nil {
			return false, false
		}
		return b, true
	}
}

func (v MetaValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case MetaKindNumber:
		return json.Marshal(v.num)
	case MetaKindBool:
		return json.Marshal(v.b)
	default:
		return json.Marshal(v.str)
	}
}

func (v *MetaValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("failed to decode metadata value: %w", err)
	}

	switch t := raw.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			*v = MetaString(t.String())
			return nil
		}
		*v = MetaNumber(f)
	case string:
		*v = MetaString(t)
	case bool:
		*v = MetaBool(t)
	case nil:
		*v = MetaString("")
	default:
		// Arrays and objects have no legacy meaning; keep the raw JSON text
		*v = MetaString(string(data))
	}

	return nil
}

func (v MetaValue) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	switch v.kind {
	case MetaKindNumber:
		return &types.AttributeValueMemberN{Value: strconv.FormatFloat(v.num, 'f', -1, 64)}, nil
	case MetaKindBool:
		return &types.AttributeValueMemberBOOL{Value: v.b}, nil
	default:
		return &types.AttributeValueMemberS{Value: v.str}, nil
	}
}

func (v *MetaValue) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	switch t := av.(type) {
	case *types.AttributeValueMemberN:
		f, err := strconv.ParseFloat(t.Value, 64)
		if err != nil {
			*v = MetaString(t.Value)
			return nil
		}
		*v = MetaNumber(f)
	case *types.AttributeValueMemberS:
		*v = MetaString(t.Value)
	case *types.AttributeValueMemberBOOL:
		*v = MetaBool(t.Value)
	default:
		return fmt.Errorf("unsupported metadata attribute type: %T", av)
	}

	return nil
}

var _ attributevalue.Marshaler = MetaValue{}
var _ attributevalue.Unmarshaler = (*MetaValue)(nil)
