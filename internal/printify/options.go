package printify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nikolayk812/podstore/internal/domain"
)

// normalizeVariantOptions turns a variant's wire options into the internal shape.
// The provider sends one of three encodings:
//
//	[1, 2]                                   option value ids
//	["Black", "M"]                           titles, positional per option group
//	[{"name": "Color", "value": "Black"}]    named titles
func normalizeVariantOptions(groups []domain.OptionGroup, raw json.RawMessage) ([]domain.VariantOption, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []domain.VariantOption{}, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("variant options are not an array: %w", err)
	}

	out := make([]domain.VariantOption, 0, len(elems))
	for i, elem := range elems {
		elem = bytes.TrimSpace(elem)
		if len(elem) == 0 {
			continue
		}

		var (
			opt domain.VariantOption
			err error
		)
		switch elem[0] {
		case '"':
			opt, err = optionFromTitle(groups, i, elem)
		case '{':
			opt, err = optionFromNamed(groups, elem)
		default:
			opt, err = optionFromID(groups, elem)
		}
		if err != nil {
			return nil, fmt.Errorf("option %d: %w", i, err)
		}
		out = append(out, opt)
	}

	return out, nil
}

func optionFromID(groups []domain.OptionGroup, elem json.RawMessage) (domain.VariantOption, error) {
	var id int
	if err := json.Unmarshal(elem, &id); err != nil {
		return domain.VariantOption{}, fmt.Errorf("unsupported option %s", elem)
	}

	for _, g := range groups {
		if v, ok := g.ValueByID(id); ok {
			return domain.VariantOption{Group: g.Name, ValueID: v.ID, Title: v.Title}, nil
		}
	}
	return domain.VariantOption{ValueID: id}, nil
}

func optionFromTitle(groups []domain.OptionGroup, position int, elem json.RawMessage) (domain.VariantOption, error) {
	var title string
	if err := json.Unmarshal(elem, &title); err != nil {
		return domain.VariantOption{}, err
	}

	if position >= len(groups) {
		return domain.VariantOption{Title: title}, nil
	}

	g := groups[position]
	opt := domain.VariantOption{Group: g.Name, Title: title}
	if v, ok := g.ValueByTitle(title); ok {
		opt.ValueID = v.ID
		opt.Title = v.Title
	}
	return opt, nil
}

func optionFromNamed(groups []domain.OptionGroup, elem json.RawMessage) (domain.VariantOption, error) {
	var named struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(elem, &named); err != nil {
		return domain.VariantOption{}, err
	}

	opt := domain.VariantOption{Group: named.Name, Title: named.Value}

	g, ok := groupByName(groups, named.Name)
	if !ok {
		return opt, nil
	}
	opt.Group = g.Name
	if v, ok := g.ValueByTitle(named.Value); ok {
		opt.ValueID = v.ID
		opt.Title = v.Title
	}
	return opt, nil
}

func groupByName(groups []domain.OptionGroup, name string) (domain.OptionGroup, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return domain.OptionGroup{}, false
	}
	for _, g := range groups {
		if strings.ToLower(g.Name) == name {
			return g, true
		}
	}
	for _, g := range groups {
		gn := strings.ToLower(g.Name)
		if gn != "" && (strings.Contains(name, gn) || strings.Contains(gn, name)) {
			return g, true
		}
	}
	return domain.OptionGroup{}, false
}
