// Command heartrisk-cli asks for the thirteen clinical inputs on the terminal,
// or reads them from a JSON file, and prints the risk assessment.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"net/url"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"heartrisk/config"
	"heartrisk/ml"
	"heartrisk/risk"
)

const barWidth = 40

func main() {
	configFlag := flag.String("config", "config.yaml", "path to the YAML configuration")
	jsonFlag := flag.String("json", "", "read the inputs from a JSON file instead of prompting (- for stdin)")
	flag.Parse()

	if err := run(context.Background(), *configFlag, *jsonFlag, os.Stdout); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, jsonPath string, out io.Writer) error {
	cfg, err := config.Load(config.Locate(configPath))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	artifacts, err := ml.LoadArtifacts(cfg.ScalerFile(), cfg.ClassifierFile())
	if err != nil {
		return err
	}
	predictor, err := risk.NewPredictor(artifacts, risk.Options{
		PositiveClass: cfg.Model.PositiveClass,
		Language:      cfg.UI.Language,
	})
	if err != nil {
		return err
	}

	var input risk.Input
	if jsonPath != "" {
		input, err = readInputFile(jsonPath)
	} else {
		input, err = prompt(ctx)
	}
	if err != nil {
		return err
	}

	result, err := predictor.Predict(ctx, input)
	if err != nil {
		return err
	}
	printResult(out, result)
	return nil
}

func readInputFile(path string) (risk.Input, error) {
	if path == "-" {
		return readInput(os.Stdin)
	}
	file, err := os.Open(path)
	if err != nil {
		return risk.Input{}, err
	}
	defer file.Close()
	return readInput(file)
}

// readInput decodes a JSON object over the form defaults.
func readInput(r io.Reader) (risk.Input, error) {
	input := risk.DefaultInput()
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&input); err != nil {
		return risk.Input{}, fmt.Errorf("decode input: %w", err)
	}
	return input, nil
}

func prompt(ctx context.Context) (risk.Input, error) {
	values := url.Values{}
	for _, field := range risk.Fields() {
		if err := ctx.Err(); err != nil {
			return risk.Input{}, err
		}
		answer, err := ask(field)
		if err != nil {
			return risk.Input{}, err
		}
		values.Set(field.Name, answer)
	}
	return risk.ParseValues(values)
}

func ask(field risk.Field) (string, error) {
	var out string
	if field.Kind == risk.KindSelect {
		prompt := &survey.Select{
			Message: field.Label,
			Options: field.OptionLabels(),
			Default: field.Default,
		}
		if err := survey.AskOne(prompt, &out); err != nil {
			return "", err
		}
		return out, nil
	}

	prompt := &survey.Input{
		Message: field.Label,
		Help:    fmt.Sprintf("between %s and %s", field.Format(field.Min), field.Format(field.Max)),
		Default: field.Default,
	}
	validate := func(answer interface{}) error {
		s, _ := answer.(string)
		if _, err := field.Parse(s); err != nil {
			return fmt.Errorf("%s %v", field.Label, err)
		}
		return nil
	}
	if err := survey.AskOne(prompt, &out, survey.WithValidator(validate)); err != nil {
		return "", err
	}
	return out, nil
}

func printResult(w io.Writer, result risk.Result) {
	fmt.Fprintln(w, result.Headline)
	fmt.Fprintln(w, result.Advice)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-10s |%s| %s\n", "Low Risk", bar(result.Bars.Low), result.Bars.LowText)
	fmt.Fprintf(w, "%-10s |%s| %s\n", "High Risk", bar(result.Bars.High), result.Bars.HighText)
}

func bar(percent float64) string {
	filled := int(math.Round(percent / 100 * barWidth))
	if filled < 0 {
		filled = 0
	}
	if filled > barWidth {
		filled = barWidth
	}
	return strings.Repeat("#", filled) + strings.Repeat(" ", barWidth-filled)
}
