package mapreduce

import (
	"fmt"
	"sort"
)

type kv struct {
	Key   string
	Value int
}

// sorted orders counts by value descending, then key ascending.
func sorted(counts map[string]int) []kv {
	ss := make([]kv, 0, len(counts))
	for k, v := range counts {
		ss = append(ss, kv{k, v})
	}
	sort.Slice(ss, func(i, j int) bool {
		if ss[i].Value != ss[j].Value {
			return ss[i].Value > ss[j].Value
		}
		return ss[i].Key < ss[j].Key
	})
	return ss
}

// Top returns the top N entries formatted as "key:count" (e.g. "4C:12").
// A negative n returns every entry.
func Top(counts map[string]int, n int) []string {
	ss := sorted(counts)
	if n >= 0 && len(ss) > n {
		ss = ss[:n]
	}
	out := make([]string, len(ss))
	for i, e := range ss {
		out[i] = fmt.Sprintf("%s:%d", e.Key, e.Value)
	}
	return out
}

// PrintTop prints the top N entries in a numbered list format.
func PrintTop(counts map[string]int, n int) {
	ss := sorted(counts)
	if n >= 0 && len(ss) > n {
		ss = ss[:n]
	}
	for i, e := range ss {
		fmt.Printf("%d. %s: %d\n", i+1, e.Key, e.Value)
	}
}
