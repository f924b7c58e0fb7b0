package shub

// shortcutMargin is the number of API key characters kept visible on each
// side of the ellipsis.
const shortcutMargin = 4

// ShortcutAPIKey hides most of an API key so it can appear in logs.
// Keys short enough to be fully revealed by the margins are masked
// entirely.
func ShortcutAPIKey(apiKey string) string {
	if len(apiKey) <= 2*shortcutMargin {
		return "…"
	}
	return apiKey[:shortcutMargin] + "…" + apiKey[len(apiKey)-shortcutMargin:]
}
