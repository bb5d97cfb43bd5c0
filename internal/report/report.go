// Package report renders a usage report in one of several formats.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/refscan/internal/model"
	"github.com/phobologic/refscan/internal/toon"
)

// Options controls what Write emits.
type Options struct {
	// Format is one of text, json, yaml, toon.
	Format string
	// All reports every name with its count instead of only unused names.
	All bool
	// ListSources includes discovered source paths in structured formats.
	ListSources bool
}

type document struct {
	Source      string              `json:"source" yaml:"source"`
	Search      string              `json:"search" yaml:"search"`
	SourceTypes []string            `json:"sourcetypes" yaml:"sourcetypes"`
	SearchTypes []string            `json:"searchtypes" yaml:"searchtypes"`
	Sources     []string            `json:"sources,omitempty" yaml:"sources,omitempty"`
	Searched    int                 `json:"searched" yaml:"searched"`
	Usages      []model.Usage       `json:"usages,omitempty" yaml:"usages,omitempty"`
	Unused      []string            `json:"unused" yaml:"unused"`
	Skipped     []model.SkippedFile `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Write renders rep to w.
func Write(w io.Writer, rep *model.Report, opts Options) error {
	switch opts.Format {
	case "", "text":
		return writeText(w, rep, opts)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		return enc.Encode(newDocument(rep, opts))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newDocument(rep, opts)); err != nil {
			return err
		}
		return enc.Close()
	case "toon":
		_, err := fmt.Fprintln(w, toon.Encode(rep, toon.Options{All: opts.All, Sources: opts.ListSources}))
		return err
	default:
		return fmt.Errorf("unsupported format %q", opts.Format)
	}
}

func writeText(w io.Writer, rep *model.Report, opts Options) error {
	if opts.All {
		if _, err := fmt.Fprintln(w, "File usage counts:"); err != nil {
			return err
		}
		for _, u := range rep.Usages() {
			if _, err := fmt.Fprintf(w, "    %s: %d\n", u.Name, u.Count); err != nil {
				return err
			}
		}
		return nil
	}

	unused := rep.Unused()
	if _, err := fmt.Fprintf(w, "Found %d files with no usages:\n", len(unused)); err != nil {
		return err
	}
	for _, name := range unused {
		if _, err := fmt.Fprintf(w, "- %s\n", name); err != nil {
			return err
		}
	}
	return nil
}

func newDocument(rep *model.Report, opts Options) document {
	doc := document{
		Source:      rep.SourceRoot,
		Search:      rep.SearchRoot,
		SourceTypes: rep.SourceTypes,
		SearchTypes: rep.SearchTypes,
		Searched:    len(rep.SearchFiles),
		Unused:      rep.Unused(),
		Skipped:     rep.Skipped,
	}
	if doc.Unused == nil {
		doc.Unused = []string{}
	}
	if opts.ListSources {
		doc.Sources = rep.SourceFiles
	}
	if opts.All {
		doc.Usages = rep.Usages()
	}
	return doc
}
