package services

import (
	"bytes"
	"fmt"
	"html/template"
	"sync"

	"github.com/kendall-kelly/storefront-api/models"
)

// PixelSnippet is a rendered analytics snippet for the storefront page head
type PixelSnippet struct {
	Provider string `json:"provider"`
	PixelID  string `json:"pixel_id"`
	HTML     string `json:"html"`
}

const facebookPixelTemplate = `<script>
!function(f,b,e,v,n,t,s){if(f.fbq)return;n=f.fbq=function(){n.callMethod?
n.callMethod.apply(n,arguments):n.queue.push(arguments)};if(!f._fbq)f._fbq=n;
n.push=n;n.loaded=!0;n.version='2.0';n.queue=[];t=b.createElement(e);t.async=!0;
t.src=v;s=b.getElementsByTagName(e)[0];s.parentNode.insertBefore(t,s)}(window,
document,'script','https://connect.facebook.net/en_US/fbevents.js');
fbq('init', {{.}});
fbq('track', 'PageView');
</script>`

const tiktokPixelTemplate = `<script>
!function (w, d, t) {
w.TiktokAnalyticsObject=t;var ttq=w[t]=w[t]||[];ttq.methods=["page","track","identify","instances","debug","on","off","once","ready","alias","group","enableCookie","disableCookie"];
ttq.setAndDefer=function(t,e){t[e]=function(){t.push([e].concat(Array.prototype.slice.call(arguments,0)))}};
for(var i=0;i<ttq.methods.length;i++)ttq.setAndDefer(ttq,ttq.methods[i]);
ttq.load=function(e,n){var i="https://analytics.tiktok.com/i18n/pixel/events.js";ttq._i=ttq._i||{};ttq._i[e]=[];ttq._i[e]._u=i;ttq._t=ttq._t||{};ttq._t[e]=+new Date;ttq._o=ttq._o||{};ttq._o[e]=n||{};var o=d.createElement("script");o.type="text/javascript";o.async=!0;o.src=i+"?sdkid="+e+"&lib="+t;var a=d.getElementsByTagName("script")[0];a.parentNode.insertBefore(o,a)};
ttq.load({{.}});
ttq.page();
}(window, document, 'ttq');
</script>`

// PixelRenderer renders Facebook and TikTok pixel snippets. It is a process-wide
// singleton: templates are parsed once by InitPixelRenderer and dropped by
// ResetPixelRenderer.
type PixelRenderer struct {
	templates map[string]*template.Template
}

var (
	pixelMu       sync.RWMutex
	pixelRenderer *PixelRenderer
)

// InitPixelRenderer parses the snippet templates and installs the renderer
func InitPixelRenderer() (*PixelRenderer, error) {
	r := &PixelRenderer{templates: make(map[string]*template.Template)}
	for provider, src := range map[string]string{
		models.PixelProviderFacebook: facebookPixelTemplate,
		models.PixelProviderTikTok:   tiktokPixelTemplate,
	} {
		tpl, err := template.New(provider).Parse(src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s pixel template: %w", provider, err)
		}
		r.templates[provider] = tpl
	}

	pixelMu.Lock()
	pixelRenderer = r
	pixelMu.Unlock()
	return r, nil
}

// GetPixelRenderer returns the installed renderer, nil before InitPixelRenderer
func GetPixelRenderer() *PixelRenderer {
	pixelMu.RLock()
	defer pixelMu.RUnlock()
	return pixelRenderer
}

// ResetPixelRenderer uninstalls the renderer
func ResetPixelRenderer() {
	pixelMu.Lock()
	pixelRenderer = nil
	pixelMu.Unlock()
}

// Render returns one snippet per distinct enabled provider/pixel pair, platform pixels
// first, then the store's own pixels. Each pair is rendered at most once per page.
func (r *PixelRenderer) Render(platform []models.TrackingPixel, settings *models.StoreSettings) ([]PixelSnippet, error) {
	type key struct{ provider, id string }
	seen := make(map[key]bool)
	var snippets []PixelSnippet

	add := func(provider, id string) error {
		if id == "" || seen[key{provider, id}] {
			return nil
		}
		tpl, ok := r.templates[provider]
		if !ok {
			return nil
		}
		var buf bytes.Buffer
		if err := tpl.Execute(&buf, id); err != nil {
			return fmt.Errorf("failed to render %s pixel: %w", provider, err)
		}
		seen[key{provider, id}] = true
		snippets = append(snippets, PixelSnippet{Provider: provider, PixelID: id, HTML: buf.String()})
		return nil
	}

	for _, p := range platform {
		if !p.Enabled {
			continue
		}
		if err := add(p.Provider, p.PixelID); err != nil {
			return nil, err
		}
	}
	if settings != nil {
		if err := add(models.PixelProviderFacebook, settings.FacebookPixelID); err != nil {
			return nil, err
		}
		if err := add(models.PixelProviderTikTok, settings.TikTokPixelID); err != nil {
			return nil, err
		}
	}
	return snippets, nil
}
