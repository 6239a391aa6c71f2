package mapper

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/mcwdsi/rt2n4j/internal/ir"
)

// converter turns the stored form of a field back into a typed value.
type converter func(raw any) (ir.Value, error)

// decodeTable maps every persisted field to its inverse conversion.
// A field missing here fails with UnknownField rather than being dropped.
var decodeTable = map[ir.Component]converter{
	ir.CompRui:          convertRui,
	ir.CompRuin:         convertRui,
	ir.CompRuir:         convertRui,
	ir.CompRuio:         convertRui,
	ir.CompRuia:         convertRui,
	ir.CompRuid:         convertRui,
	ir.CompRuit:         convertRui,
	ir.CompRuitn:        convertRui,
	ir.CompRuics:        convertRui,
	ir.CompRuidt:        convertRui,
	ir.CompTa:           convertTempRef,
	ir.CompTr:           convertTempRef,
	ir.CompT:            convertTime,
	ir.CompPolarity:     convertBool,
	ir.CompC:            convertFloat,
	ir.CompStatus:       convertEnum(ir.ParseRuiStatus),
	ir.CompUnique:       convertEnum(ir.ParsePorType),
	ir.CompEvent:        convertEnum(ir.ParseEventType),
	ir.CompEventReason:  convertEnum(ir.ParseChangeReason),
	ir.CompR:            convertRelation,
	ir.CompCode:         convertText,
	ir.CompData:         convertBytes,
	ir.CompReplacements: convertIDList,
	ir.CompP:            convertIDList,
}

// DecodeField converts the stored form of one field to a typed value.
func DecodeField(field string, raw any) (ir.Value, error) {
	conv, ok := decodeTable[ir.Component(field)]
	if !ok {
		return nil, NewUnknownFieldError(field)
	}
	v, err := conv(raw)
	if err != nil {
		return nil, fmt.Errorf("decode field %q: %w", field, err)
	}
	return v, nil
}

// DecodeFields converts a row of stored fields to Attributes.
// Null values mean the field is absent and are skipped.
func DecodeFields(fields map[string]any) (ir.Attributes, error) {
	attrs := make(ir.Attributes, len(fields))
	for name, raw := range fields {
		if raw == nil {
			continue
		}
		v, err := DecodeField(name, raw)
		if err != nil {
			return nil, err
		}
		attrs[ir.Component(name)] = v
	}
	return attrs, nil
}

// StoredValue converts a typed value to the form persisted in the graph
// and bound as a query parameter.
func StoredValue(v ir.Value) (any, error) {
	switch x := v.(type) {
	case ir.IDValue:
		return ir.RuiString(x.Rui), nil
	case ir.TimeValue:
		return ir.NormalizeTime(x.Time).Format(ir.ISOLayout), nil
	case ir.BoolValue:
		return bool(x), nil
	case ir.FloatValue:
		return float64(x), nil
	case ir.CodeValue:
		return string(x), nil
	case ir.RelationValue:
		return string(x), nil
	case ir.TextValue:
		return string(x), nil
	case ir.BytesValue:
		return base64.StdEncoding.EncodeToString(x), nil
	case ir.TempRefValue:
		return x.Ref.String(), nil
	case ir.IDListValue:
		out := make([]any, len(x))
		for i, r := range x {
			out[i] = ir.RuiString(r)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}

func asString(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", raw)
	}
	return s, nil
}

func convertRui(raw any) (ir.Value, error) {
	if t, ok := raw.(time.Time); ok {
		return ir.IDValue{Rui: ir.NewISORui(t)}, nil
	}
	s, err := asString(raw)
	if err != nil {
		return nil, err
	}
	r, err := ir.ParseRui(s)
	if err != nil {
		return nil, err
	}
	return ir.IDValue{Rui: r}, nil
}

func convertTempRef(raw any) (ir.Value, error) {
	v, err := convertRui(raw)
	if err != nil {
		return nil, err
	}
	return ir.TempRefValue{Ref: ir.TempRef{Rui: v.(ir.IDValue).Rui}}, nil
}

func convertTime(raw any) (ir.Value, error) {
	if t, ok := raw.(time.Time); ok {
		return ir.TimeValue{Time: ir.NormalizeTime(t)}, nil
	}
	s, err := asString(raw)
	if err != nil {
		return nil, err
	}
	t, err := time.Parse(ir.ISOLayout, s)
	if err != nil {
		return nil, err
	}
	return ir.TimeValue{Time: ir.NormalizeTime(t)}, nil
}

func convertBool(raw any) (ir.Value, error) {
	switch b := raw.(type) {
	case bool:
		return ir.BoolValue(b), nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return nil, err
		}
		return ir.BoolValue(parsed), nil
	}
	return nil, fmt.Errorf("expected bool, got %T", raw)
}

func convertFloat(raw any) (ir.Value, error) {
	v, err := toFloat(raw)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return nil, fmt.Errorf("expected a finite number, got %v", v)
	}
	return v, nil
}

func toFloat(raw any) (ir.FloatValue, error) {
	switch n := raw.(type) {
	case float64:
		return ir.FloatValue(n), nil
	case float32:
		return ir.FloatValue(n), nil
	case int64:
		return ir.FloatValue(n), nil
	case int:
		return ir.FloatValue(n), nil
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, err
		}
		return ir.FloatValue(parsed), nil
	}
	return 0, fmt.Errorf("expected number, got %T", raw)
}

func convertEnum[T ~string](parse func(string) (T, error)) converter {
	return func(raw any) (ir.Value, error) {
		s, err := asString(raw)
		if err != nil {
			return nil, err
		}
		v, err := parse(s)
		if err != nil {
			return nil, err
		}
		return ir.CodeValue(string(v)), nil
	}
}

func convertRelation(raw any) (ir.Value, error) {
	s, err := asString(raw)
	if err != nil {
		return nil, err
	}
	return ir.RelationValue(ir.Relation(s)), nil
}

func convertText(raw any) (ir.Value, error) {
	s, err := asString(raw)
	if err != nil {
		return nil, err
	}
	return ir.TextValue(s), nil
}

func convertBytes(raw any) (ir.Value, error) {
	s, err := asString(raw)
	if err != nil {
		return nil, err
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return ir.BytesValue(nil), nil
	}
	return ir.BytesValue(b), nil
}

func convertIDList(raw any) (ir.Value, error) {
	var items []string
	switch list := raw.(type) {
	case []string:
		items = list
	case []any:
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("[%d]: expected string, got %T", i, item)
			}
			items = append(items, s)
		}
	default:
		return nil, fmt.Errorf("expected list, got %T", raw)
	}

	var ids ir.IDListValue
	for i, s := range items {
		r, err := ir.ParseRui(s)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		ids = append(ids, r)
	}
	return ids, nil
}
