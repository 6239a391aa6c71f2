// Package tuplefile reads and writes tuples as YAML documents.
//
// A tuple document is a mapping with a "type" key naming the variant and
// one key per component, each holding the component's stored form:
//
//	- type: AN
//	  rui: 0190d3c4-7a5e-7b1c-8f00-000000000001
//	  ar: A
//	  unique: singular
//	  ruin: 0190d3c4-7a5e-7b1c-8f00-000000000002
//
// Field values go through the mapper's decode table, so a file accepts
// exactly what the graph stores.
package tuplefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mcwdsi/rt2n4j/internal/ir"
	"github.com/mcwdsi/rt2n4j/internal/mapper"
)

// typeKey holds the variant name in a tuple document.
const typeKey = "type"

// FromFields builds a tuple from a decoded document.
func FromFields(doc map[string]any) (ir.Tuple, error) {
	raw, ok := doc[typeKey]
	if !ok {
		return nil, fmt.Errorf("%s is required", typeKey)
	}
	name, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%s: expected a string, got %T", typeKey, raw)
	}
	tt, err := ir.ParseTupleType(name)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]any, len(doc)-1)
	for k, v := range doc {
		if k != typeKey {
			fields[k] = v
		}
	}
	attrs, err := mapper.DecodeFields(fields)
	if err != nil {
		return nil, err
	}
	return ir.Build(tt, attrs)
}

// Fields returns the document form of t.
func Fields(t ir.Tuple) (map[string]any, error) {
	attrs, err := ir.AttributesOf(t)
	if err != nil {
		return nil, err
	}
	doc := make(map[string]any, len(attrs)+1)
	doc[typeKey] = string(t.TupleType())
	for c, v := range attrs {
		stored, err := mapper.StoredValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c, err)
		}
		doc[string(c)] = stored
	}
	return doc, nil
}

// Decode parses a YAML sequence of tuple documents. Several YAML
// documents separated by "---" are concatenated.
func Decode(data []byte) ([]ir.Tuple, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var out []ir.Tuple
	for n := 0; ; n++ {
		var docs []map[string]any
		err := dec.Decode(&docs)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse YAML document %d: %w", n, err)
		}
		for i, doc := range docs {
			t, err := FromFields(doc)
			if err != nil {
				return nil, fmt.Errorf("tuple %d: %w", len(out)+i, err)
			}
			out = append(out, t)
		}
	}
	return out, nil
}

// Load reads a tuple file.
func Load(path string) ([]ir.Tuple, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tuple file: %w", err)
	}
	return Decode(data)
}

// Encode writes tuples as one YAML sequence.
func Encode(w io.Writer, tuples []ir.Tuple) error {
	docs := make([]map[string]any, 0, len(tuples))
	for _, t := range tuples {
		doc, err := Fields(t)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(docs); err != nil {
		return err
	}
	return enc.Close()
}

// DecodeFilter parses a YAML mapping of filter fields, such as
//
//	types: [NtoR, NtoLackR]
//	ruin: 0190d3c4-7a5e-7b1c-8f00-000000000002
//	polarity: false
func DecodeFilter(data []byte) (mapper.Filter, error) {
	var fields map[string]any
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return mapper.Filter{}, fmt.Errorf("parse filter: %w", err)
	}
	return mapper.FilterFromFields(fields)
}
