package server

import (
	"reflect"
	"testing"
)

func TestExtractOutline(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantTitle   string
		wantOutline []string
	}{
		{
			name:        "title and nested headings",
			input:       "# Guide\n\nintro\n\n## Setup\n\ntext\n\n### Details\n\nmore\n",
			wantTitle:   "Guide",
			wantOutline: []string{"# Guide", "## Setup", "### Details"},
		},
		{
			name:        "no level one heading",
			input:       "## Only Subsection\n\nbody\n",
			wantTitle:   "",
			wantOutline: []string{"## Only Subsection"},
		},
		{
			name:        "no headings at all",
			input:       "just a paragraph\n",
			wantTitle:   "",
			wantOutline: nil,
		},
		{
			name:        "heading inside code fence ignored",
			input:       "# Real\n\n```\n# not a heading\n```\n",
			wantTitle:   "Real",
			wantOutline: []string{"# Real"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, outline := extractOutline(tt.input)
			if title != tt.wantTitle {
				t.Errorf("title = %q, want %q", title, tt.wantTitle)
			}
			if !reflect.DeepEqual(outline, tt.wantOutline) {
				t.Errorf("outline = %v, want %v", outline, tt.wantOutline)
			}
		})
	}
}

func TestChunkOptions_ApplyTo(t *testing.T) {
	base := chunkerDefaults(t)

	off := false
	tol := 0.2
	opts := &ChunkOptions{
		MaxChunkSize:  1024,
		EnableOverlap: &off,
		Tolerance:     &tol,
	}

	cfg := opts.applyTo(base)
	if cfg.MaxChunkSize != 1024 {
		t.Errorf("max = %d, want 1024", cfg.MaxChunkSize)
	}
	if cfg.EnableOverlap {
		t.Error("enable_overlap override not applied")
	}
	if cfg.Tolerance != 0.2 {
		t.Errorf("tolerance = %v, want 0.2", cfg.Tolerance)
	}
	// Untouched fields keep their configured values.
	if cfg.MinChunkSize != base.MinChunkSize {
		t.Errorf("min = %d, want %d", cfg.MinChunkSize, base.MinChunkSize)
	}
	if !cfg.EnableFallback {
		t.Error("enable_fallback lost its default")
	}
}
