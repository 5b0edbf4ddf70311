// Package records groups and deduplicates the spreadsheet rows that drive notice generation.
package records

// Group is the set of items sharing one key.
type Group[K comparable, T any] struct {
	Key   K
	Items []T
}

// GroupBy partitions items by key. Groups come out in the order their key was first seen and items keep their input
// order within a group.
func GroupBy[K comparable, T any](items []T, key func(T) K) []Group[K, T] {
	var (
		groups []Group[K, T]
		index  = map[K]int{}
	)
	for _, item := range items {
		k := key(item)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[K, T]{Key: k, Items: nil})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// DedupeBy keeps the first item for each distinct id.
func DedupeBy[T any](items []T, id func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := id(item)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Account is a bank account listed in a notice.
type Account struct {
	Number string
	IFSC   string
}

// DedupeAccounts normalizes account numbers with [NormalizeIdentifier] and keeps the first account per number.
func DedupeAccounts(accounts []Account) []Account {
	normalized := make([]Account, len(accounts))
	for i, a := range accounts {
		normalized[i] = Account{Number: NormalizeIdentifier(a.Number), IFSC: a.IFSC}
	}
	return DedupeBy(normalized, func(a Account) string { return a.Number })
}
