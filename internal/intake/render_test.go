package intake

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ashureev/briefbot/internal/domain"
	"github.com/ashureev/briefbot/internal/wizard"
)

func TestRenderBriefDashesAndEscaping(t *testing.T) {
	s := domain.NewSession("42", "contact", domain.Profile{FirstName: "Ann", LastName: "Lee"})
	s.BriefNumber = "BRF-007"
	s.Record("type", domain.TextAnswer("Лендинг"))
	s.Record("features", domain.SetAnswer([]string{"Чат-бот", "Админка"}))
	s.Record("company", domain.TextAnswer(""))
	s.Record("niche", domain.TextAnswer("<b>кофе</b> & чай"))

	out := RenderBrief(wizard.Default(), s, false)

	assert.True(t, strings.HasPrefix(out, briefTitle))
	assert.Contains(t, out, "<code>BRF-007</code>")
	assert.Contains(t, out, "Имя: Ann Lee")
	assert.Contains(t, out, "ID: 42")
	assert.Contains(t, out, "@: "+placeholder, "missing username renders a dash")
	assert.Contains(t, out, "Функции: Чат-бот, Админка")
	assert.Contains(t, out, "О компании: "+placeholder)
	assert.Contains(t, out, "Сроки: "+placeholder)
	assert.Contains(t, out, "Ниша: &lt;b&gt;кофе&lt;/b&gt; &amp; чай")
	assert.NotContains(t, out, "<b>кофе</b>")
}

func TestRenderBriefFollowsBriefOrder(t *testing.T) {
	g := wizard.Default()
	s := domain.NewSession("1", "contact", domain.Profile{})

	out := RenderBrief(g, s, true)

	assert.True(t, strings.HasPrefix(out, briefTitleResend))
	last := -1
	for _, f := range g.Brief {
		i := strings.Index(out, f.Label+": ")
		assert.Greater(t, i, last, f.Field)
		last = i
	}
}
