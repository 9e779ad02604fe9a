package domain

import (
	"fmt"
	"slices"
	"strings"
)

const (
	OptionColor = "color"
	OptionSize  = "size"
)

type OptionValue struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

type OptionGroup struct {
	Name   string        `json:"name"`
	Type   string        `json:"type"`
	Values []OptionValue `json:"values"`
}

// VariantOption is the single internal shape of a variant's option reference.
// The provider adapter produces it from whatever wire shape the provider sent.
type VariantOption struct {
	Group   string `json:"group"`
	ValueID int    `json:"valueId"`
	Title   string `json:"title"`
}

type Variant struct {
	ID      int             `json:"id"`
	Title   string          `json:"title,omitempty"`
	Price   Money           `json:"-"`
	Enabled bool            `json:"isEnabled"`
	Options []VariantOption `json:"options"`
}

type Image struct {
	Src        string `json:"src"`
	VariantIDs []int  `json:"variantIds"`
	Position   string `json:"position"`
	IsDefault  bool   `json:"isDefault"`
}

type Product struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Tags        []string      `json:"tags,omitempty"`
	Options     []OptionGroup `json:"options"`
	Variants    []Variant     `json:"variants"`
	Images      []Image       `json:"images"`
	Visible     bool          `json:"visible"`
}

type ProductPage struct {
	Page     int
	LastPage int
	Total    int
	Products []Product
}

// OptionGroup returns the first group whose name contains kind, ignoring case.
func (p Product) OptionGroup(kind string) (OptionGroup, bool) {
	kind = strings.ToLower(kind)
	for _, g := range p.Options {
		if strings.Contains(strings.ToLower(g.Name), kind) {
			return g, true
		}
	}
	return OptionGroup{}, false
}

// ValueByTitle is a case-insensitive exact match on the display title.
func (g OptionGroup) ValueByTitle(title string) (OptionValue, bool) {
	title = strings.TrimSpace(title)
	for _, v := range g.Values {
		if strings.EqualFold(strings.TrimSpace(v.Title), title) {
			return v, true
		}
	}
	return OptionValue{}, false
}

func (g OptionGroup) ValueByID(id int) (OptionValue, bool) {
	for _, v := range g.Values {
		if v.ID == id {
			return v, true
		}
	}
	return OptionValue{}, false
}

func (v Variant) HasValue(id int) bool {
	return slices.ContainsFunc(v.Options, func(o VariantOption) bool {
		return o.ValueID == id
	})
}

// OptionTitle returns the title of the variant's value in the group matching kind.
func (v Variant) OptionTitle(kind string) string {
	kind = strings.ToLower(kind)
	for _, o := range v.Options {
		if strings.Contains(strings.ToLower(o.Group), kind) {
			return o.Title
		}
	}
	return ""
}

func (p Product) EnabledVariants() []Variant {
	out := make([]Variant, 0, len(p.Variants))
	for _, v := range p.Variants {
		if v.Enabled {
			out = append(out, v)
		}
	}
	return out
}

func (p Product) Variant(id int) (Variant, bool) {
	i := slices.IndexFunc(p.Variants, func(v Variant) bool { return v.ID == id })
	if i < 0 {
		return Variant{}, false
	}
	return p.Variants[i], true
}

// ResolveVariant finds the enabled variant carrying both the color and size
// option values named by the labels. An empty label leaves that dimension
// unconstrained. It never falls back to an arbitrary variant.
func ResolveVariant(p Product, color, size string) (Variant, error) {
	var want []int

	for _, sel := range []struct{ kind, label string }{
		{OptionColor, color},
		{OptionSize, size},
	} {
		if strings.TrimSpace(sel.label) == "" {
			continue
		}
		g, ok := p.OptionGroup(sel.kind)
		if !ok {
			return Variant{}, NotFound(sel.kind, fmt.Sprintf("product %s has no %s option", p.ID, sel.kind))
		}
		v, ok := g.ValueByTitle(sel.label)
		if !ok {
			return Variant{}, NotFound(sel.kind, fmt.Sprintf("%s %q is not offered for product %s", sel.kind, sel.label, p.ID))
		}
		want = append(want, v.ID)
	}

	disabled := false
	for _, v := range p.Variants {
		if !containsAll(v, want) {
			continue
		}
		if v.Enabled {
			return v, nil
		}
		disabled = true
	}

	if disabled {
		return Variant{}, NotFound("variant", fmt.Sprintf("variant for color %q and size %q of product %s is not available", color, size, p.ID))
	}
	return Variant{}, NotFound("variant", fmt.Sprintf("no variant for color %q and size %q in product %s", color, size, p.ID))
}

// DisplayVariant is ResolveVariant with the display fallback: the first enabled
// variant, else the first variant. Never use it to build an order.
func DisplayVariant(p Product, color, size string) (Variant, bool) {
	if v, err := ResolveVariant(p, color, size); err == nil {
		return v, true
	}
	for _, v := range p.Variants {
		if v.Enabled {
			return v, true
		}
	}
	if len(p.Variants) > 0 {
		return p.Variants[0], true
	}
	return Variant{}, false
}

// AvailableOptions trims color and size groups to values used by an enabled variant.
func AvailableOptions(p Product) []OptionGroup {
	enabled := p.EnabledVariants()
	out := make([]OptionGroup, 0, len(p.Options))
	for _, g := range p.Options {
		name := strings.ToLower(g.Name)
		if !strings.Contains(name, OptionColor) && !strings.Contains(name, OptionSize) {
			out = append(out, g)
			continue
		}
		filtered := OptionGroup{Name: g.Name, Type: g.Type, Values: []OptionValue{}}
		for _, val := range g.Values {
			if slices.ContainsFunc(enabled, func(v Variant) bool { return v.HasValue(val.ID) }) {
				filtered.Values = append(filtered.Values, val)
			}
		}
		out = append(out, filtered)
	}
	return out
}

func (p Product) DefaultImage() string {
	for _, img := range p.Images {
		if img.IsDefault {
			return img.Src
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].Src
	}
	return ""
}

func (p Product) VariantImage(variantID int) string {
	for _, img := range p.Images {
		if slices.Contains(img.VariantIDs, variantID) {
			return img.Src
		}
	}
	return ""
}

func containsAll(v Variant, ids []int) bool {
	for _, id := range ids {
		if !v.HasValue(id) {
			return false
		}
	}
	return true
}
