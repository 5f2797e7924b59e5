package scrape

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of anti-bot wall a page put up.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockRateLimit  BlockType = "rate_limit"
	BlockJSShell    BlockType = "js_shell"
)

// bodyMarkers identify challenge pages. maxLen bounds the body size a
// marker applies to: contact forms embed reCAPTCHA on real pages.
var bodyMarkers = []struct {
	marker string
	kind   BlockType
	maxLen int
}{
	{"checking your browser", BlockCloudflare, 0},
	{"cf-browser-verification", BlockCloudflare, 0},
	{"just a moment...", BlockCloudflare, 10_000},
	{"captcha", BlockCaptcha, 5_000},
}

// DetectBlock reports whether a response is an anti-bot interstitial
// rather than the page itself.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return true, BlockRateLimit
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || strings.EqualFold(resp.Header.Get("server"), "cloudflare") {
			return true, BlockCloudflare
		}
	}

	lower := strings.ToLower(string(body))
	for _, m := range bodyMarkers {
		if m.maxLen > 0 && len(body) > m.maxLen {
			continue
		}
		if strings.Contains(lower, m.marker) {
			return true, m.kind
		}
	}

	// A tiny page that only tells the browser to run scripts or redirect.
	if len(body) < 2000 {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return true, BlockJSShell
		}
		if strings.Contains(lower, `http-equiv="refresh"`) {
			return true, BlockJSShell
		}
	}

	return false, BlockNone
}
