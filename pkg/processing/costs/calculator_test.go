package costs

import (
	"math"
	"sync"
	"testing"

	"pathfinder-hq/waypoint/pkg/config"
	"pathfinder-hq/waypoint/pkg/proxy/types"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalculator_Price(t *testing.T) {
	calc := NewCalculator(map[string]config.ModelPrice{
		"claude-sonnet-4-5": {Input: 2, Output: 10},
		"custom-model":      {Input: 1, Output: 1},
	})

	tests := []struct {
		model     string
		wantIn    float64
		wantOut   float64
		wantFound bool
	}{
		{"claude-sonnet-4-5", 2, 10, true},
		{"claude-sonnet-4-5-20250929", 2, 10, true}, // longest prefix beats claude-sonnet-4
		{"claude-sonnet-4-20250514", 3, 15, true},
		{"claude-opus-4-1", 15, 75, true},
		{"claude-haiku-4-5", 1, 5, true},
		{"custom-model", 1, 1, true},
		{"gpt-4o", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			p, ok := calc.Price(tt.model)
			if ok != tt.wantFound {
				t.Fatalf("Price() found = %v, want %v", ok, tt.wantFound)
			}
			if p.Input != tt.wantIn || p.Output != tt.wantOut {
				t.Errorf("Price() = %+v, want %v/%v", p, tt.wantIn, tt.wantOut)
			}
		})
	}
}

func TestCalculator_Cost(t *testing.T) {
	calc := NewCalculator(nil)

	cost := calc.Cost("claude-sonnet-4-5", types.Usage{InputTokens: 12000, OutputTokens: 800})
	if !cost.Priced {
		t.Fatal("expected priced cost")
	}
	// 12000 * 3 / 1e6 = 0.036; 800 * 15 / 1e6 = 0.012
	if !almostEqual(cost.Input, 0.036) || !almostEqual(cost.Output, 0.012) || !almostEqual(cost.Total, 0.048) {
		t.Errorf("Cost() = %+v", cost)
	}

	unpriced := calc.Cost("unknown", types.Usage{InputTokens: 100, OutputTokens: 100})
	if unpriced.Priced || unpriced.Total != 0 || unpriced.Model != "unknown" {
		t.Errorf("unknown model Cost() = %+v", unpriced)
	}

	zero := calc.Cost("claude-sonnet-4-5", types.Usage{})
	if !zero.Priced || zero.Total != 0 {
		t.Errorf("zero usage Cost() = %+v", zero)
	}
}

func TestCalculator_UpdatePrices(t *testing.T) {
	calc := NewCalculator(map[string]config.ModelPrice{"claude-sonnet-4": {Input: 1, Output: 1}})
	if p, _ := calc.Price("claude-sonnet-4-5"); p.Input != 1 {
		t.Fatalf("override not applied: %+v", p)
	}

	calc.UpdatePrices(nil)
	if p, _ := calc.Price("claude-sonnet-4-5"); p.Input != 3 {
		t.Errorf("defaults not restored after update: %+v", p)
	}
	if DefaultPrices["claude-sonnet-4"].Input != 3 {
		t.Error("overrides must not modify DefaultPrices")
	}
}

func TestCalculator_Concurrent(t *testing.T) {
	calc := NewCalculator(nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				calc.UpdatePrices(map[string]config.ModelPrice{"x": {Input: float64(i)}})
				return
			}
			calc.Cost("claude-opus-4", types.Usage{InputTokens: i, OutputTokens: i})
		}(i)
	}
	wg.Wait()
}
