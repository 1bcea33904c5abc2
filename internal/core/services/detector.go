package services

import (
	"fmt"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
	"github.com/custodia-labs/postmetrics/internal/core/ports/driven"
)

// Detection is the outcome of classifying one header.
type Detection struct {
	Layout *domain.Layout

	// Recognised is false when no signature matched and the generic
	// fallback was chosen.
	Recognised bool
}

// Format returns the detected source format.
func (d Detection) Format() domain.SourceFormat {
	return d.Layout.Format
}

// Detector classifies uploads into one of the registered layouts.
// Detection is pure: it never mutates its input and always selects a layout.
type Detector struct {
	registry driven.LayoutRegistry
}

// NewDetector creates a detector over registry.
// The registry must hold a fallback layout.
func NewDetector(registry driven.LayoutRegistry) (*Detector, error) {
	if registry == nil || registry.Fallback() == nil {
		return nil, fmt.Errorf("%w: layout registry has no fallback", domain.ErrInvalidInput)
	}
	return &Detector{registry: registry}, nil
}

// Detect returns the first layout, in priority order, whose signature is
// satisfied by header and whose content checks pass on samples.
func (d *Detector) Detect(header []string, samples [][]string) Detection {
	fallback := d.registry.Fallback()
	for _, layout := range d.registry.Layouts() {
		if layout == fallback || layout.Signature.IsEmpty() {
			continue
		}
		if d.matches(layout, header, samples) {
			return Detection{Layout: layout, Recognised: true}
		}
	}
	return Detection{Layout: fallback}
}

func (d *Detector) matches(layout *domain.Layout, header []string, samples [][]string) bool {
	folded := foldHeader(header, false)
	for _, rule := range layout.Signature.All {
		if !headerHas(folded, rule) {
			return false
		}
	}
	if len(layout.Signature.Any) > 0 {
		found := false
		for _, rule := range layout.Signature.Any {
			if headerHas(folded, rule) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if layout.CheckTimestamps {
		return timestampsParse(layout, header, samples)
	}
	return true
}

// timestampsParse reports whether a majority of the non-blank sampled
// timestamp cells parse under the layout's accepted patterns. Without
// sampled values the header alone decides.
func timestampsParse(layout *domain.Layout, header []string, samples [][]string) bool {
	b := Bind(layout, header)
	if !b.Bound(domain.FieldTimestamp) {
		return false
	}
	var seen, parsed int
	for i, cells := range samples {
		raw, _ := b.Lookup(domain.RawRow{Line: i + 1, Cells: cells}, domain.FieldTimestamp)
		if raw == "" {
			continue
		}
		seen++
		if _, ok := ParseTimestamp(raw, layout.TimestampLayouts); ok {
			parsed++
		}
	}
	return seen == 0 || parsed*2 > seen
}
