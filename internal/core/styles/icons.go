package styles

// Tip: To find icons use https://github.com/loichyan/nerdfix

var (
	IconCheckList = " "
	IconCalendar  = " "
	IconSearch    = " "
	IconSort      = "󰒺 "
	IconFilter    = " "
	IconSpinner   = "󰔟 "
	IconSuccess   = " "
)

// Priority markers keep their width in plain terminals.
var (
	MarkerHigh   = "▲"
	MarkerMedium = "■"
	MarkerLow    = "▼"
)

// PriorityBadge renders a priority label with its marker and color. Unknown
// priorities render muted.
func PriorityBadge(priority, label string) string {
	switch priority {
	case "high":
		return PriorityHighStyle.Render(MarkerHigh + " " + label)
	case "medium":
		return PriorityMediumStyle.Render(MarkerMedium + " " + label)
	case "low":
		return PriorityLowStyle.Render(MarkerLow + " " + label)
	}
	return MutedStyle.Render(label)
}
