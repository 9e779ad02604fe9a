package printify

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testGroups = []domain.OptionGroup{
	{
		Name: "Colors",
		Type: "color",
		Values: []domain.OptionValue{
			{ID: 521, Title: "White"},
			{ID: 418, Title: "Black"},
		},
	},
	{
		Name: "Sizes",
		Type: "size",
		Values: []domain.OptionValue{
			{ID: 14, Title: "M"},
			{ID: 15, Title: "L"},
		},
	},
}

func TestNormalizeVariantOptions(t *testing.T) {
	blackM := []domain.VariantOption{
		{Group: "Colors", ValueID: 418, Title: "Black"},
		{Group: "Sizes", ValueID: 14, Title: "M"},
	}

	tests := []struct {
		name      string
		raw       string
		want      []domain.VariantOption
		wantError bool
	}{
		{
			name: "value ids",
			raw:  `[418, 14]`,
			want: blackM,
		},
		{
			name: "positional titles",
			raw:  `["black", "M"]`,
			want: blackM,
		},
		{
			name: "named titles",
			raw:  `[{"name": "Color", "value": "Black"}, {"name": "Size", "value": "m"}]`,
			want: blackM,
		},
		{
			name: "missing options",
			raw:  `null`,
			want: []domain.VariantOption{},
		},
		{
			name: "unknown id kept without group",
			raw:  `[999]`,
			want: []domain.VariantOption{{ValueID: 999}},
		},
		{
			name: "unknown title kept without value id",
			raw:  `[{"name": "Color", "value": "Teal"}]`,
			want: []domain.VariantOption{{Group: "Colors", Title: "Teal"}},
		},
		{
			name:      "not an array",
			raw:       `{"color": 418}`,
			wantError: true,
		},
		{
			name:      "unsupported element",
			raw:       `[true]`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeVariantOptions(testGroups, json.RawMessage(tt.raw))
			if tt.wantError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.want, got))
		})
	}
}

func TestNormalizedShapesResolveTheSameVariant(t *testing.T) {
	for _, raw := range []string{`[418, 14]`, `["Black", "M"]`, `[{"name":"Colors","value":"Black"},{"name":"Sizes","value":"M"}]`} {
		opts, err := normalizeVariantOptions(testGroups, json.RawMessage(raw))
		require.NoError(t, err)

		p := domain.Product{
			ID:      "p1",
			Options: testGroups,
			Variants: []domain.Variant{
				{ID: 1, Enabled: true, Options: []domain.VariantOption{{ValueID: 521}, {ValueID: 14}}},
				{ID: 2, Enabled: true, Options: opts},
			},
		}

		v, err := domain.ResolveVariant(p, "Black", "M")
		require.NoError(t, err, raw)
		assert.Equal(t, 2, v.ID, raw)
	}
}
