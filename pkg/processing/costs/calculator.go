package costs

import (
	"strings"
	"sync"

	"pathfinder-hq/waypoint/pkg/config"
	"pathfinder-hq/waypoint/pkg/proxy/types"
)

// tokensPerUnit is the token count prices are quoted for.
const tokensPerUnit = 1_000_000

// DefaultPrices are the published Anthropic list prices in USD per million
// tokens, keyed by model family prefix.
var DefaultPrices = map[string]config.ModelPrice{
	"claude-opus-4":     {Input: 15, Output: 75},
	"claude-sonnet-4":   {Input: 3, Output: 15},
	"claude-3-7-sonnet": {Input: 3, Output: 15},
	"claude-3-5-sonnet": {Input: 3, Output: 15},
	"claude-haiku-4-5":  {Input: 1, Output: 5},
	"claude-3-5-haiku":  {Input: 0.8, Output: 4},
	"claude-3-haiku":    {Input: 0.25, Output: 1.25},
}

// Cost is the USD cost of one completion.
type Cost struct {
	Model  string
	Input  float64
	Output float64
	Total  float64

	// Priced is false when no price matched the model; all amounts are
	// then zero.
	Priced bool
}

// Calculator prices provider usage. It is safe for concurrent use and its
// price table can be replaced at runtime.
type Calculator struct {
	mu     sync.RWMutex
	prices map[string]config.ModelPrice
}

// NewCalculator creates a calculator from DefaultPrices with overrides
// applied on top.
func NewCalculator(overrides map[string]config.ModelPrice) *Calculator {
	c := &Calculator{}
	c.UpdatePrices(overrides)
	return c
}

// UpdatePrices replaces the override table. DefaultPrices stay in effect
// for models the overrides do not name.
func (c *Calculator) UpdatePrices(overrides map[string]config.ModelPrice) {
	prices := make(map[string]config.ModelPrice, len(DefaultPrices)+len(overrides))
	for k, v := range DefaultPrices {
		prices[k] = v
	}
	for k, v := range overrides {
		prices[k] = v
	}

	c.mu.Lock()
	c.prices = prices
	c.mu.Unlock()
}

// Price returns the price of model: an exact entry first, otherwise the
// longest prefix entry, so "claude-sonnet-4-5-20250929" matches
// "claude-sonnet-4".
func (c *Calculator) Price(model string) (config.ModelPrice, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if p, ok := c.prices[model]; ok {
		return p, true
	}
	best := ""
	for prefix := range c.prices {
		if len(prefix) > len(best) && strings.HasPrefix(model, prefix) {
			best = prefix
		}
	}
	if best == "" {
		return config.ModelPrice{}, false
	}
	return c.prices[best], true
}

// Cost prices the usage reported for one completion by model.
func (c *Calculator) Cost(model string, usage types.Usage) Cost {
	price, ok := c.Price(model)
	if !ok {
		return Cost{Model: model}
	}

	in := tokenCost(usage.InputTokens, price.Input)
	out := tokenCost(usage.OutputTokens, price.Output)
	return Cost{
		Model:  model,
		Input:  in,
		Output: out,
		Total:  in + out,
		Priced: true,
	}
}

func tokenCost(tokens int, perUnit float64) float64 {
	if tokens <= 0 {
		return 0
	}
	return float64(tokens) * perUnit / tokensPerUnit
}
