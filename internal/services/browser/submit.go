package browser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// submitLabels are tried in order; an unlabelled first button is the last resort
var submitLabels = []string{"login", "sign in"}

// findSubmitControl picks the login submit control from rendered page HTML and
// returns an XPath that addresses it in document order.
func findSubmitControl(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse login page: %w", err)
	}

	buttons := doc.Find("button")
	if buttons.Length() == 0 {
		return "", fmt.Errorf("login button not found")
	}

	for _, label := range submitLabels {
		index := -1
		buttons.EachWithBreak(func(i int, s *goquery.Selection) bool {
			text := strings.ToLower(strings.Join(strings.Fields(s.Text()), " "))
			if strings.Contains(text, label) {
				index = i
				return false
			}
			return true
		})
		if index >= 0 {
			return buttonXPath(index), nil
		}
	}

	return buttonXPath(0), nil
}

func buttonXPath(index int) string {
	return fmt.Sprintf("(//button)[%d]", index+1)
}
