package intake

import (
	"fmt"
	"html"
	"strings"

	"github.com/ashureev/briefbot/internal/domain"
	"github.com/ashureev/briefbot/internal/wizard"
)

// RenderBrief renders the compiled brief in the graph's field order.
// Unanswered and empty fields show a dash.
func RenderBrief(g *wizard.Graph, s *domain.Session, resend bool) string {
	var b strings.Builder

	title := briefTitle
	if resend {
		title = briefTitleResend
	}
	fmt.Fprintf(&b, "%s <code>%s</code>\n\n", title, html.EscapeString(s.BriefNumber))

	fmt.Fprintf(&b, "👤 Имя: %s\n", orDash(s.Profile.FullName()))
	fmt.Fprintf(&b, "🆔 ID: %s\n", orDash(s.UserID))
	fmt.Fprintf(&b, "🔗 @: %s\n\n", orDash(s.Profile.Handle()))

	for _, f := range g.Brief {
		v, _ := g.DisplayValue(f.Field, s.Answers)
		fmt.Fprintf(&b, "%s: %s\n", f.Label, orDash(v))
	}
	return strings.TrimRight(b.String(), "\n")
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return placeholder
	}
	return html.EscapeString(v)
}
