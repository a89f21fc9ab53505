package agent

import (
	"fmt"
	"strings"

	"github.com/sunpeak/dispatchd/core/knowledge"
	"github.com/sunpeak/dispatchd/core/model"
)

// renderOffline formats the pipeline outputs as a plain-text analysis for
// callers running without a language model.
func renderOffline(query string, fc, rag, plan toolResult) string {
	var b strings.Builder
	b.WriteString("=== OFFLINE DISPATCH ANALYSIS ===\n")
	fmt.Fprintf(&b, "Query: %s\n\n", query)

	b.WriteString("Solar forecast:\n")
	if errMsg, ok := fc["error"]; ok {
		fmt.Fprintf(&b, "  unavailable: %v\n", errMsg)
	} else {
		fmt.Fprintf(&b, "  expected output: %.1f MW (confidence %.2f)\n", asFloat(fc["mw"]), asFloat(fc["confidence"]))
	}

	b.WriteString("\nGrounded insights:\n")
	if errMsg, ok := rag["error"]; ok {
		fmt.Fprintf(&b, "  unavailable: %v\n", errMsg)
	} else if hits, ok := rag["results"].([]knowledge.Hit); ok && len(hits) > 0 {
		for _, h := range hits {
			fmt.Fprintf(&b, "  [%d] %s p.%d: %s\n", h.Rank, h.Source, h.Page, firstLine(h.Text))
		}
	} else {
		b.WriteString("  no matching documents\n")
	}

	b.WriteString("\nOptimized dispatch:\n")
	if errMsg, ok := plan["error"]; ok {
		fmt.Fprintf(&b, "  unavailable: %v\n", errMsg)
	} else {
		fmt.Fprintf(&b, "  next interval: export %.1f MW, charge %.1f MW, discharge %.1f MW, curtail %.1f MW\n",
			asFloat(plan["dispatch_mw"]), asFloat(plan["charge_mw"]),
			asFloat(plan["discharge_mw"]), asFloat(plan["curtailment_mw"]))
		fmt.Fprintf(&b, "  horizon curtailment: %.1f MW, final SoC %.1f MWh\n",
			asFloat(plan["total_curtailment_mw"]), asFloat(plan["soc_mwh"]))
		if ivs, ok := plan["intervals"].([]model.IntervalResult); ok {
			for _, iv := range ivs {
				fmt.Fprintf(&b, "    %s: dispatch %.1f / charge %.1f / discharge %.1f / curtail %.1f / soc %.1f\n",
					iv.Label, iv.DispatchMW, iv.ChargeMW, iv.DischargeMW, iv.CurtailmentMW, iv.SoCMWhEnd)
			}
		}
	}

	b.WriteString("\nRecommendation: combine the forecast, grounded insights and optimized schedule above to minimize curtailment while respecting battery limits.\n")
	return b.String()
}

func asFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
