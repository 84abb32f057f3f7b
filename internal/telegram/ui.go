package telegram

import (
	"fmt"
	"strings"

	"github.com/3xyy/Sortify/internal/classify"
)

func categoryEmoji(category string) string {
	switch category {
	case classify.CategoryRecycle:
		return "♻️"
	case classify.CategoryCompost:
		return "🌱"
	case classify.CategoryHazardous:
		return "⚠️"
	default:
		return "🗑"
	}
}

func formatResult(res classify.Result, city string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", categoryEmoji(res.Category), res.ItemName)
	fmt.Fprintf(&b, "Category: %s (%d%% sure)\n", res.Category, res.Confidence)
	if res.MaterialType != "" {
		fmt.Fprintf(&b, "Material: %s\n", res.MaterialType)
	}
	if res.Contamination != "" {
		fmt.Fprintf(&b, "Condition: %s\n", res.Contamination)
	}

	if len(res.Instructions) > 0 {
		b.WriteString("\nWhat to do:\n")
		for i, step := range res.Instructions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
	}

	if res.LocalRule != "" {
		fmt.Fprintf(&b, "\n📍 %s: %s\n", city, res.LocalRule)
	}
	if res.CO2Saved != "" {
		fmt.Fprintf(&b, "🌍 %s", res.CO2Saved)
	}
	return b.String()
}
