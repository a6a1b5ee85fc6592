package agent

// Chart is a renderer-agnostic chart suggestion derived from tool output.
type Chart struct {
	Type    string `json:"type"` // pie, bar, or line
	Data    any    `json:"data"`
	DataKey string `json:"data_key"`
	NameKey string `json:"name_key"`
}

// suggestChart maps structured tool results onto a chart shape. Row-shaped
// and scalar results get no chart; the answer text carries those.
func suggestChart(result *ToolResult) (Chart, bool) {
	switch result.Kind {
	case ResultCategories:
		if len(result.Categories) < 2 {
			return Chart{}, false
		}
		return Chart{
			Type:    "pie",
			Data:    result.Categories,
			DataKey: "total",
			NameKey: "category",
		}, true

	case ResultMonths:
		if len(result.Months) < 2 {
			return Chart{}, false
		}
		return Chart{
			Type:    "line",
			Data:    result.Months,
			DataKey: "expenses",
			NameKey: "month",
		}, true

	case ResultMerchants:
		if len(result.Merchants) < 2 {
			return Chart{}, false
		}
		return Chart{
			Type:    "bar",
			Data:    result.Merchants,
			DataKey: "total",
			NameKey: "merchant",
		}, true

	default:
		return Chart{}, false
	}
}
