package bridge

// AdBlockPatterns blocks ad, analytics and consent-banner hosts. Their
// content changes between loads and would otherwise show up as pixel noise
// in screenshot comparisons.
var AdBlockPatterns = []string{
	"*google-analytics.com/*",
	"*googletagmanager.com/*",
	"*googletagservices.com/*",
	"*googlesyndication.com/*",
	"*googleadservices.com/*",
	"*doubleclick.net/*",
	"*connect.facebook.net/*",
	"*amazon-adsystem.com/*",
	"*adnxs.com/*",
	"*criteo.com/*",
	"*taboola.com/*",
	"*outbrain.com/*",
	"*hotjar.com/*",
	"*segment.io/*",
	"*mixpanel.com/*",
	"*scorecardresearch.com/*",
	"*optimizely.com/*",

	// Consent banners overlay the page at random points during load.
	"*cookielaw.org/*",
	"*cookiebot.com/*",
	"*onetrust.com/*",
	"*trustarc.com/*",
	"*usercentrics.com/*",

	"*/pixel?*",
	"*/collect?*",
}

// CombineBlockPatterns merges pattern lists, dropping duplicates and empty
// entries while keeping first-seen order.
func CombineBlockPatterns(patterns ...[]string) []string {
	var result []string
	seen := make(map[string]bool)

	for _, list := range patterns {
		for _, pattern := range list {
			if pattern == "" || seen[pattern] {
				continue
			}
			seen[pattern] = true
			result = append(result, pattern)
		}
	}

	return result
}
