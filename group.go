package gridfill

import (
	"reflect"
	"strings"
)

// GroupData is a group key plus the items sharing that key, in their
// original relative order. It is bound as the loop variable when an each
// command groups its collection.
type GroupData struct {
	Key   any   // the grouping key
	Item  any   // the first item of the group (representative)
	Items []any // all items in this group
}

// GroupCollection partitions items into key-ordered buckets. The key of
// each item is obtained by binding it under varName and evaluating
// groupByExpr. Buckets keep first-seen key order unless orderSpec requests
// "ASC" or "DESC" ordering by key; incomparable keys under ordering are a
// StructuralError.
func GroupCollection(ctx *Context, items []any, groupByExpr, varName, orderSpec string) ([]*GroupData, error) {
	var groups []*GroupData

	for _, item := range items {
		rv := NewRunVar(ctx, varName)
		rv.Set(item)
		key, err := ctx.Evaluate(groupByExpr)
		rv.Close()
		if err != nil {
			return nil, &EvaluationError{Expression: groupByExpr, Err: err}
		}

		idx := -1
		for i, g := range groups {
			if groupKeysEqual(g.Key, key) {
				idx = i
				break
			}
		}
		if idx >= 0 {
			groups[idx].Items = append(groups[idx].Items, item)
		} else {
			groups = append(groups, &GroupData{Key: key, Item: item, Items: []any{item}})
		}
	}

	if orderSpec != "" {
		if err := sortGroups(groups, orderSpec); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// groupKeysEqual reports whether two group keys identify the same bucket.
// Same-typed keys compare by value; numeric keys of different widths
// compare by numeric value. Keys of unrelated types never share a bucket.
func groupKeysEqual(a, b any) bool {
	if reflect.TypeOf(a) == reflect.TypeOf(b) {
		return reflect.DeepEqual(a, b)
	}
	fa, aNum := toFloat64(a)
	fb, bNum := toFloat64(b)
	return aNum && bNum && fa == fb
}

// sortGroups orders buckets by key according to the order spec.
func sortGroups(groups []*GroupData, orderSpec string) error {
	spec := strings.ToUpper(strings.TrimSpace(orderSpec))
	desc := strings.Contains(spec, "DESC")
	ignoreCase := strings.Contains(spec, "IGNORECASE") || strings.Contains(spec, "IGNORE_CASE")

	// Stable insertion sort; group counts are small.
	for i := 1; i < len(groups); i++ {
		key := groups[i]
		j := i - 1
		for j >= 0 {
			cmp, err := compareGroupKeys(groups[j].Key, key.Key, ignoreCase)
			if err != nil {
				return err
			}
			if desc {
				cmp = -cmp
			}
			if cmp <= 0 {
				break
			}
			groups[j+1] = groups[j]
			j--
		}
		groups[j+1] = key
	}
	return nil
}

// compareGroupKeys compares two group keys. Keys must be mutually
// comparable: both numeric, both strings, or both booleans.
func compareGroupKeys(a, b any, ignoreCase bool) (int, error) {
	if a == nil && b == nil {
		return 0, nil
	}
	if a == nil {
		return -1, nil
	}
	if b == nil {
		return 1, nil
	}

	fa, aNum := toFloat64(a)
	fb, bNum := toFloat64(b)
	if aNum && bNum {
		switch {
		case fa < fb:
			return -1, nil
		case fa > fb:
			return 1, nil
		}
		return 0, nil
	}

	sa, aStr := a.(string)
	sb, bStr := b.(string)
	if aStr && bStr {
		if ignoreCase {
			sa = strings.ToLower(sa)
			sb = strings.ToLower(sb)
		}
		return strings.Compare(sa, sb), nil
	}

	ba, aBool := a.(bool)
	bb, bBool := b.(bool)
	if aBool && bBool {
		switch {
		case !ba && bb:
			return -1, nil
		case ba && !bb:
			return 1, nil
		}
		return 0, nil
	}

	return 0, structuralErrorf("group keys %v (%T) and %v (%T) are not comparable", a, a, b, b)
}

// toFloat64 attempts to convert a value to float64.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
