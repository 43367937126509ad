package contents

import (
	"encoding/json"
	"sort"

	"dagkv/pkg/merge"
)

// JSONBag is a flat string-to-string document, merged field-by-field —
// supplements the spec's built-ins with a structured value type whose
// merge isn't all-or-nothing like String's.
type JSONBag map[string]string

type jsonBagCapability struct {
	fieldMerge func(old, a, b map[string]string) (map[string]string, error)
}

// JSONBagCap is the built-in Contents capability for JSONBag: fields are
// merged independently via assoc_list(default) (spec §4.5), so a change
// to one field never conflicts with a change to another.
var JSONBagCap Capability[JSONBag] = jsonBagCapability{
	fieldMerge: merge.AssocList[string, string](merge.String),
}

func (jsonBagCapability) Encode(v JSONBag) ([]byte, error) {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make(map[string]string, len(v))
	for _, k := range keys {
		ordered[k] = v[k]
	}
	return json.Marshal(ordered)
}

func (jsonBagCapability) Decode(b []byte) (JSONBag, error) {
	var v JSONBag
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (c jsonBagCapability) Merge(old, a, b JSONBag) (JSONBag, error) {
	merged, err := c.fieldMerge(map[string]string(old), map[string]string(a), map[string]string(b))
	if err != nil {
		return nil, err
	}
	return JSONBag(merged), nil
}
