package promotion

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name             string
		basePrice        decimal.Decimal
		promotions       []Promotion
		wantEffective    decimal.Decimal
		wantPercent      decimal.Decimal
		wantIsDiscounted bool
	}{
		{
			name:             "no promotions",
			basePrice:        d("200"),
			promotions:       nil,
			wantEffective:    d("200"),
			wantPercent:      d("0"),
			wantIsDiscounted: false,
		},
		{
			name:      "percent promotion",
			basePrice: d("200"),
			promotions: []Promotion{
				{Name: "autumn", Basis: ByValue, Kind: Percent, Amount: d("10")},
			},
			wantEffective:    d("180"),
			wantPercent:      d("10"),
			wantIsDiscounted: true,
		},
		{
			name:      "flat amount promotion",
			basePrice: d("200"),
			promotions: []Promotion{
				{Name: "voucher", Basis: ByValue, Kind: FlatAmount, Amount: d("50")},
			},
			wantEffective:    d("150"),
			wantPercent:      d("25"),
			wantIsDiscounted: true,
		},
		{
			name:      "by item promotions are ignored",
			basePrice: d("200"),
			promotions: []Promotion{
				{Name: "buy2get1", Basis: ByItem, Kind: Percent, Amount: d("100")},
			},
			wantEffective:    d("200"),
			wantPercent:      d("0"),
			wantIsDiscounted: false,
		},
		{
			name:      "first by-value promotion wins",
			basePrice: d("100"),
			promotions: []Promotion{
				{Name: "small", Basis: ByValue, Kind: Percent, Amount: d("5")},
				{Name: "big", Basis: ByValue, Kind: Percent, Amount: d("50")},
			},
			wantEffective:    d("95"),
			wantPercent:      d("5"),
			wantIsDiscounted: true,
		},
		{
			name:      "first by-value wins after reordering",
			basePrice: d("100"),
			promotions: []Promotion{
				{Name: "big", Basis: ByValue, Kind: Percent, Amount: d("50")},
				{Name: "small", Basis: ByValue, Kind: Percent, Amount: d("5")},
			},
			wantEffective:    d("50"),
			wantPercent:      d("50"),
			wantIsDiscounted: true,
		},
		{
			name:      "by-item promotion does not shadow a later by-value one",
			basePrice: d("100"),
			promotions: []Promotion{
				{Name: "bundle", Basis: ByItem, Kind: FlatAmount, Amount: d("99")},
				{Name: "sale", Basis: ByValue, Kind: Percent, Amount: d("20")},
			},
			wantEffective:    d("80"),
			wantPercent:      d("20"),
			wantIsDiscounted: true,
		},
		{
			name:      "flat amount above base price goes negative",
			basePrice: d("30"),
			promotions: []Promotion{
				{Name: "overshoot", Basis: ByValue, Kind: FlatAmount, Amount: d("50")},
			},
			wantEffective:    d("-20"),
			wantPercent:      d("166.66666666666667"),
			wantIsDiscounted: true,
		},
		{
			name:      "zero base price guards the percent division",
			basePrice: d("0"),
			promotions: []Promotion{
				{Name: "freebie", Basis: ByValue, Kind: FlatAmount, Amount: d("10")},
			},
			wantEffective:    d("-10"),
			wantPercent:      d("0"),
			wantIsDiscounted: true,
		},
		{
			name:      "unknown promotion kind degrades to no discount",
			basePrice: d("200"),
			promotions: []Promotion{
				{Name: "corrupt", Basis: ByValue, Kind: Kind("mystery"), Amount: d("10")},
			},
			wantEffective:    d("200"),
			wantPercent:      d("0"),
			wantIsDiscounted: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.basePrice, tt.promotions)

			assert.True(t, got.EffectivePrice.Equal(tt.wantEffective),
				"effective price: got %s want %s", got.EffectivePrice, tt.wantEffective)
			assert.True(t, got.DiscountPercent.Equal(tt.wantPercent),
				"discount percent: got %s want %s", got.DiscountPercent, tt.wantPercent)
			assert.Equal(t, tt.wantIsDiscounted, got.IsDiscounted)
			assert.True(t, got.DiscountAmount.Equal(tt.basePrice.Sub(got.EffectivePrice)))
		})
	}
}

func TestResolveIsPure(t *testing.T) {
	base := d("149.90")
	promos := []Promotion{
		{Name: "spring", Basis: ByValue, Kind: Percent, Amount: d("15")},
	}

	first := Resolve(base, promos)
	for i := 0; i < 10; i++ {
		again := Resolve(base, promos)
		assert.True(t, first.EffectivePrice.Equal(again.EffectivePrice))
		assert.True(t, first.DiscountAmount.Equal(again.DiscountAmount))
		assert.True(t, first.DiscountPercent.Equal(again.DiscountPercent))
		assert.Equal(t, first.IsDiscounted, again.IsDiscounted)
	}
}

func TestResolveDiscountedEvenWhenDiscountIsZero(t *testing.T) {
	got := Resolve(d("200"), []Promotion{
		{Name: "noop", Basis: ByValue, Kind: FlatAmount, Amount: d("0")},
	})

	assert.True(t, got.IsDiscounted)
	assert.True(t, got.EffectivePrice.Equal(d("200")))
	assert.True(t, got.DiscountAmount.IsZero())
}
