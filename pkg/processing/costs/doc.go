// Package costs prices completed LLM calls in USD.
//
// Prices are quoted per million tokens, separately for input and output.
// The built-in table covers the Claude model families; llm.pricing in the
// configuration adds models or overrides list prices:
//
//	llm:
//	  pricing:
//	    claude-sonnet-4-5:
//	      input_per_mtok: 3
//	      output_per_mtok: 15
//
// Model names resolve by exact match first and longest prefix second, so a
// dated snapshot such as claude-sonnet-4-5-20250929 uses the family price.
//
// # Usage
//
//	calc := costs.NewCalculator(cfg.LLM.Pricing)
//	cost := calc.Cost(completion.Model, completion.Usage)
//	if cost.Priced {
//		fmt.Printf("$%.6f\n", cost.Total)
//	}
//
// The admission pipeline stores the total with each usage record and adds
// it to the waypoint_http_cost_usd_total counter.
package costs
