package engine

import "proposal-generator/internal/model"

// PageBreakXML is the OOXML paragraph the proposal template expects before
// an optional section that is present.
const PageBreakXML = `<w:p><w:r><w:br w:type="page"/></w:r></w:p>`

// SectionRegistry holds the optional section keys in template order.
type SectionRegistry struct {
	order []string
}

func NewSectionRegistry(services []model.Service) *SectionRegistry {
	r := &SectionRegistry{}
	seen := make(map[string]bool, len(services))
	for _, s := range services {
		if seen[s.Key] {
			continue
		}
		seen[s.Key] = true
		r.order = append(r.order, s.Key)
	}
	return r
}

// Directives returns one directive per registered section. The page break is
// set only for sections present in selected.
func (r *SectionRegistry) Directives(selected []string) []model.SectionDirective {
	present := make(map[string]bool, len(selected))
	for _, s := range selected {
		present[s] = true
	}

	out := make([]model.SectionDirective, 0, len(r.order))
	for _, key := range r.order {
		d := model.SectionDirective{Service: key, Present: present[key]}
		if d.Present {
			d.PageBreak = PageBreakXML
		}
		out = append(out, d)
	}
	return out
}
