package webview

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/GriffinCanCode/portalconnect/internal/webview/sandbox"
	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// parsedPage is a portal page ready to run
type parsedPage struct {
	dom     *sandbox.DOM
	title   string
	scripts []sandbox.Script
	skipped []string
}

// scriptTypes are the <script type> values a browser executes
var scriptTypes = map[string]bool{
	"":                       true,
	"text/javascript":        true,
	"application/javascript": true,
	"module":                 true,
}

// parsePage extracts title and inline scripts in document order
func parsePage(html []byte, pageURL string, logger *zap.Logger) (*parsedPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	page := &parsedPage{dom: sandbox.NewDOM(doc, pageURL)}
	page.title = page.dom.Title()

	doc.Find("script").Each(func(i int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			logger.Debug("Skipping external script", zap.String("src", src))
			page.skipped = append(page.skipped, src)
			return
		}

		typ, _ := s.Attr("type")
		if !scriptTypes[strings.ToLower(strings.TrimSpace(typ))] {
			return
		}

		source := s.Text()
		if strings.TrimSpace(source) == "" {
			return
		}
		page.scripts = append(page.scripts, sandbox.Script{
			Name:   fmt.Sprintf("inline-%d", i),
			Source: source,
		})
	})

	return page, nil
}
