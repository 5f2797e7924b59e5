package scrape

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectBlock(t *testing.T) {
	bigForm := "<html><body><h1>Contact us</h1>" + strings.Repeat("<p>Call sales any time.</p>", 400) +
		`<div class="g-recaptcha"></div></body></html>`

	tests := []struct {
		name    string
		resp    *http.Response
		body    string
		blocked bool
		kind    BlockType
	}{
		{
			name:    "cloudflare 403 ray header",
			resp:    &http.Response{StatusCode: 403, Header: http.Header{"Cf-Ray": {"abc123"}}},
			blocked: true, kind: BlockCloudflare,
		},
		{
			name:    "cloudflare 503 server header",
			resp:    &http.Response{StatusCode: 503, Header: http.Header{"Server": {"cloudflare"}}},
			blocked: true, kind: BlockCloudflare,
		},
		{
			name:    "rate limited",
			resp:    &http.Response{StatusCode: 429, Header: http.Header{}},
			blocked: true, kind: BlockRateLimit,
		},
		{
			name:    "challenge body",
			resp:    &http.Response{StatusCode: 200, Header: http.Header{}},
			body:    "<html><body>Checking your browser before accessing acme.com</body></html>",
			blocked: true, kind: BlockCloudflare,
		},
		{
			name:    "captcha interstitial",
			resp:    &http.Response{StatusCode: 200, Header: http.Header{}},
			body:    "<html><body>Please complete the reCAPTCHA to continue</body></html>",
			blocked: true, kind: BlockCaptcha,
		},
		{
			name: "contact form with recaptcha",
			resp: &http.Response{StatusCode: 200, Header: http.Header{}},
			body: bigForm,
		},
		{
			name:    "js shell",
			resp:    &http.Response{StatusCode: 200, Header: http.Header{}},
			body:    "<html><noscript>Enable JavaScript to continue</noscript></html>",
			blocked: true, kind: BlockJSShell,
		},
		{
			name:    "meta refresh",
			resp:    &http.Response{StatusCode: 200, Header: http.Header{}},
			body:    `<html><head><meta http-equiv="refresh" content="0;url=/x"></head></html>`,
			blocked: true, kind: BlockJSShell,
		},
		{
			name: "nil response",
		},
		{
			name: "clean page",
			resp: &http.Response{StatusCode: 200, Header: http.Header{}},
			body: "<html><body>Welcome to Acme Corp. Email sales@acme.com.</body></html>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocked, kind := DetectBlock(tt.resp, []byte(tt.body))
			assert.Equal(t, tt.blocked, blocked)
			assert.Equal(t, tt.kind, kind)
		})
	}
}
