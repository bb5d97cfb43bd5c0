// Package model defines core data structures for refscan.
package model

// UsageCounts maps a candidate file name to the number of distinct search
// files containing it.
type UsageCounts map[string]int

// Usage is a single name with its count.
type Usage struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// SkippedFile is a search file that could not be scanned.
type SkippedFile struct {
	Path   string `json:"path" yaml:"path"`
	Reason string `json:"reason" yaml:"reason"`
}

// Report is the complete result of a run, ready for serialization.
type Report struct {
	SourceRoot  string
	SearchRoot  string
	SourceTypes []string
	SearchTypes []string
	SourceFiles []string
	SearchFiles []string
	// Names is sorted case-insensitively and may contain duplicates.
	Names   []string
	Counts  UsageCounts
	Skipped []SkippedFile
}

// Usages returns every name with its count, in Names order, each name once.
func (r *Report) Usages() []Usage {
	seen := make(map[string]struct{}, len(r.Names))
	usages := make([]Usage, 0, len(r.Names))
	for _, name := range r.Names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		usages = append(usages, Usage{Name: name, Count: r.Counts[name]})
	}
	return usages
}

// Unused returns the names with a count of zero, in Names order.
func (r *Report) Unused() []string {
	var unused []string
	for _, u := range r.Usages() {
		if u.Count == 0 {
			unused = append(unused, u.Name)
		}
	}
	return unused
}
