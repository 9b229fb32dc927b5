package risk

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders percentages with the decimal conventions of a locale.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter falls back to English when tag cannot be parsed.
func NewFormatter(tag string) *Formatter {
	lang, err := language.Parse(tag)
	if err != nil {
		lang = language.English
	}
	return &Formatter{printer: message.NewPrinter(lang)}
}

// Percent formats v (already in percent) with two decimals, as in the result
// headline.
func (f *Formatter) Percent(v float64) string {
	return f.printer.Sprintf("%.2f%%", v)
}

// BarPercent formats v with one decimal, as on the chart.
func (f *Formatter) BarPercent(v float64) string {
	return f.printer.Sprintf("%.1f%%", v)
}
