package http

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"

	"heartrisk/chart"
	"heartrisk/risk"
)

//go:embed templates/*.html
var templateFS embed.FS

// leftColumn is the number of fields shown in the first form column.
const leftColumn = 6

// PageConfig carries the configurable page chrome.
type PageConfig struct {
	Title     string
	AboutHTML string
	Footer    string
}

// Renderer renders the form page with pongo2.
type Renderer struct {
	page  *pongo2.Template
	title string
	about string
	foot  string
}

type optionView struct {
	Label    string
	Selected bool
}

type fieldView struct {
	Name     string
	Label    string
	IsSelect bool
	Value    string
	Min      string
	Max      string
	Step     string
	Options  []optionView
	Error    string
}

type resultView struct {
	High     bool
	Headline string
	Advice   string
	Chart    string
	LowText  string
	HighText string
}

func NewRenderer(cfg PageConfig) (*Renderer, error) {
	set := pongo2.NewSet("heartrisk", pongo2.NewFSLoader(templateFS))
	page, err := set.FromFile("templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	// The about text comes from configuration; only basic formatting survives.
	policy := bluemonday.UGCPolicy()
	return &Renderer{
		page:  page,
		title: cfg.Title,
		about: policy.Sanitize(cfg.AboutHTML),
		foot:  policy.Sanitize(cfg.Footer),
	}, nil
}

// RenderPage writes the form, populated from state, and the result section
// when result is non-nil.
func (r *Renderer) RenderPage(w io.Writer, state risk.FormState, result *risk.Result, formError string) error {
	fields := fieldViews(state)
	ctx := pongo2.Context{
		"title":      r.title,
		"about":      r.about,
		"footer":     r.foot,
		"left":       fields[:leftColumn],
		"right":      fields[leftColumn:],
		"form_error": formError,
		"result":     nil,
	}
	if result != nil {
		view, err := newResultView(*result)
		if err != nil {
			return err
		}
		ctx["result"] = view
	}
	var buf bytes.Buffer
	if err := r.page.ExecuteWriter(ctx, &buf); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func newResultView(result risk.Result) (*resultView, error) {
	svg, err := chart.Render(chartData(result), chart.DefaultOptions())
	if err != nil {
		return nil, err
	}
	return &resultView{
		High:     result.High(),
		Headline: result.Headline,
		Advice:   result.Advice,
		Chart:    "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(svg),
		LowText:  result.Bars.LowText,
		HighText: result.Bars.HighText,
	}, nil
}

func chartData(result risk.Result) chart.Data {
	return chart.Data{
		Low:      result.Bars.Low,
		High:     result.Bars.High,
		LowText:  result.Bars.LowText,
		HighText: result.Bars.HighText,
	}
}

func fieldViews(state risk.FormState) []fieldView {
	catalogue := risk.Fields()
	views := make([]fieldView, len(catalogue))
	for i, f := range catalogue {
		view := fieldView{
			Name:     f.Name,
			Label:    f.Label,
			IsSelect: f.Kind == risk.KindSelect,
			Value:    state.Values[f.Name],
			Error:    state.Errors[f.Name],
		}
		if view.IsSelect {
			for _, option := range f.Options {
				view.Options = append(view.Options, optionView{
					Label:    option.Label,
					Selected: strings.EqualFold(option.Label, view.Value),
				})
			}
		} else {
			view.Min = strconv.FormatFloat(f.Min, 'f', -1, 64)
			view.Max = strconv.FormatFloat(f.Max, 'f', -1, 64)
			view.Step = strconv.FormatFloat(f.Step, 'f', -1, 64)
		}
		views[i] = view
	}
	return views
}
