package query

import "encoding/json"

// Project serializes docs and applies the field projection: when include is
// non-empty only those fields survive; otherwise the default exclusions are
// dropped. Unknown include names simply select nothing extra rather than
// erroring.
func Project[T any](docs []T, include []string, defaultExclude ...string) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(docs))
	for i := range docs {
		m, err := ProjectOne(docs[i], include, defaultExclude...)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func ProjectOne[T any](doc T, include []string, defaultExclude ...string) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}

	if len(include) > 0 {
		keep := make(map[string]bool, len(include)+1)
		keep["id"] = true
		for _, f := range include {
			keep[f] = true
		}
		for k := range m {
			if !keep[k] {
				delete(m, k)
			}
		}
		return m, nil
	}

	for _, f := range defaultExclude {
		delete(m, f)
	}
	return m, nil
}
