package reports

import "strings"

// FilterPrefix keeps the rows whose column value starts with any of prefixes.
func FilterPrefix(t *Table, column string, prefixes []string) (*Table, error) {
	idx, err := t.ColumnIndex(column)
	if err != nil {
		return nil, err
	}
	return t.Where(func(row []string) bool {
		return hasAnyPrefix(row[idx], prefixes)
	}), nil
}

// FilterContains keeps the rows whose column value contains any of keywords.
func FilterContains(t *Table, column string, keywords []string) (*Table, error) {
	idx, err := t.ColumnIndex(column)
	if err != nil {
		return nil, err
	}
	return t.Where(func(row []string) bool {
		return containsAny(row[idx], keywords)
	}), nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
