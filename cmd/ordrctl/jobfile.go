package main

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"

	"github.com/casperin/ordr"
	"github.com/casperin/ordr/internal/blob"
)

// jobFile is the small HCL schema ordrctl reads to know what to build. The
// authoring layer this stands in for is explicitly out of the core's
// scope; it exists purely to give the demo binary something to parse.
type jobFile struct {
	Targets []string  `hcl:"targets"`
	Seed    cty.Value `hcl:"seed,optional"`
}

// loadJobFile parses path into a jobFile.
func loadJobFile(path string) (*jobFile, error) {
	var jf jobFile
	if err := hclsimple.DecodeFile(path, nil, &jf); err != nil {
		return nil, fmt.Errorf("ordrctl: load job file %q: %w", path, err)
	}
	return &jf, nil
}

// seedSnapshot converts the job file's seed object, if any, into a
// Snapshot: each top-level attribute name is a node Identity, and its
// value is re-encoded as msgpack so it round-trips through the same Store
// that producer invokers write to.
func (jf *jobFile) seedSnapshot() (ordr.Snapshot, error) {
	snap := make(ordr.Snapshot)
	if jf.Seed.IsNull() || !jf.Seed.IsKnown() {
		return snap, nil
	}
	it := jf.Seed.ElementIterator()
	for it.Next() {
		k, v := it.Element()
		native, err := ctyToNative(v)
		if err != nil {
			return nil, fmt.Errorf("ordrctl: seed %q: %w", k.AsString(), err)
		}
		b, err := blob.Encode(native)
		if err != nil {
			return nil, fmt.Errorf("ordrctl: seed %q: %w", k.AsString(), err)
		}
		snap[ordr.Identity(k.AsString())] = ordr.Blob(b)
	}
	return snap, nil
}

// ctyToNative converts a cty.Value into plain Go values (string, float64,
// bool, []any, map[string]any), the same conversion shape the socketio
// modules use to cross the HCL/native boundary.
func ctyToNative(val cty.Value) (any, error) {
	if !val.IsKnown() || val.IsNull() {
		return nil, nil
	}
	t := val.Type()
	switch {
	case t == cty.String:
		return val.AsString(), nil
	case t == cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return f, nil
	case t == cty.Bool:
		return val.True(), nil
	case t.IsObjectType() || t.IsMapType():
		out := make(map[string]any)
		it := val.ElementIterator()
		for it.Next() {
			k, v := it.Element()
			native, err := ctyToNative(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = native
		}
		return out, nil
	case t.IsTupleType() || t.IsListType():
		var out []any
		it := val.ElementIterator()
		for it.Next() {
			_, v := it.Element()
			native, err := ctyToNative(v)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported HCL value type %s", t.FriendlyName())
	}
}
