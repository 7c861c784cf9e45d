package tasks

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strconv"

	"github.com/verbalab/lingbench/internal/benchmark"
	"github.com/verbalab/lingbench/internal/evaluator"
	"github.com/verbalab/lingbench/internal/llm"
)

const unitConversionCode = "0022_unit_conversion"

type conversionRule struct {
	from      string
	to        string
	factor    float64
	precision int
	temp      bool
}

var conversionRules = []conversionRule{
	{from: "pounds", to: "kilograms", factor: 0.45359237, precision: 1},
	{from: "kilograms", to: "pounds", factor: 2.20462262, precision: 1},
	{from: "miles", to: "kilometers", factor: 1.60934, precision: 1},
	{from: "kilometers", to: "miles", factor: 0.621371, precision: 2},
	{from: "inches", to: "centimeters", factor: 2.54, precision: 1},
	{from: "centimeters", to: "inches", factor: 0.393701, precision: 2},
	{from: "gallons", to: "liters", factor: 3.78541, precision: 1},
	{from: "liters", to: "gallons", factor: 0.264172, precision: 2},
	{from: "fahrenheit", to: "celsius", precision: 1, temp: true},
	{from: "celsius", to: "fahrenheit", precision: 1, temp: true},
}

// Value ranges keep the questions in everyday magnitudes.
var conversionRanges = map[string][2]float64{
	"pounds":      {1, 500},
	"kilograms":   {1, 200},
	"miles":       {1, 1000},
	"kilometers":  {1, 1000},
	"inches":      {1, 100},
	"centimeters": {1, 200},
	"gallons":     {1, 50},
	"liters":      {1, 100},
	"fahrenheit":  {-20, 120},
	"celsius":     {-30, 50},
}

func (c conversionRule) convert(v float64) float64 {
	if c.temp {
		if c.from == "fahrenheit" {
			return (v - 32) * 5 / 9
		}
		return v*9/5 + 32
	}
	return v * c.factor
}

func (c conversionRule) difficulty() benchmark.Difficulty {
	if c.temp || c.precision > 1 {
		return benchmark.DifficultyMedium
	}
	return benchmark.DifficultyEasy
}

// tolerance allows 1% relative error with an absolute floor of one
// unit at the answer's precision. Temperature conversions use a fixed
// band instead, since answers near zero make relative error useless.
func (c conversionRule) tolerance(answer float64) float64 {
	if c.temp {
		return 1.5
	}
	tol := math.Pow(10, -float64(c.precision))
	if rel := math.Abs(answer) * 0.01; rel > tol {
		tol = rel
	}
	return tol
}

func registerUnitConversion(reg *benchmark.Registry, deps Deps) {
	md := benchmark.NewMetadata(unitConversionCode, "Unit Conversion",
		"Convert quantities between everyday units of weight, length, volume and temperature.")
	md.Tags = []string{"arithmetic", "units"}
	reg.RegisterMetadata(md)
	reg.RegisterGenerator(md.Code, func(md benchmark.Metadata, store benchmark.QuestionStore) *benchmark.Generator {
		return benchmark.NewGenerator(md, store, deps.Log,
			benchmark.NewLocalStrategy(newConversionProducer(newRand())))
	})
	reg.RegisterRunner(md.Code, func(model string, md benchmark.Metadata) benchmark.Runner {
		return &unitConversionRunner{BaseRunner: benchmark.NewBaseRunner(model, md)}
	})
}

func newConversionProducer(rng *rand.Rand) func() (*benchmark.Question, error) {
	return func() (*benchmark.Question, error) {
		rule := conversionRules[rng.Intn(len(conversionRules))]
		lo, hi := conversionRange(rule.from)
		value := roundTo(lo+rng.Float64()*(hi-lo), 1)
		answer := roundTo(rule.convert(value), rule.precision)
		return &benchmark.Question{
			Text: fmt.Sprintf("How many %s is %s %s?",
				rule.to, strconv.FormatFloat(value, 'f', 1, 64), rule.from),
			AnswerType:    benchmark.AnswerNumeric,
			CorrectAnswer: answer,
			Category:      "unit_conversion",
			Difficulty:    rule.difficulty(),
			Tags:          []string{rule.from, rule.to},
			Criteria: benchmark.Criteria{
				ExactMatch: true,
				Tolerance:  rule.tolerance(answer),
			},
		}, nil
	}
}

func conversionRange(unit string) (float64, float64) {
	if r, ok := conversionRanges[unit]; ok {
		return r[0], r[1]
	}
	return 1, 100
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

const unitConversionContext = `You are performing unit conversions.
Answer with just the numeric value after conversion.
Be as precise as possible and follow standard conversion formulas.`

type unitConversionRunner struct {
	benchmark.BaseRunner
}

func (r *unitConversionRunner) PreparePrompt(q *benchmark.Question) (*benchmark.Prompt, error) {
	if q == nil {
		return nil, errors.New("tasks: nil question")
	}
	return &benchmark.Prompt{
		Text:    q.Text,
		Schema:  numberSchema("value"),
		Context: unitConversionContext,
	}, nil
}

func (r *unitConversionRunner) EvaluateResponse(q *benchmark.Question, resp *llm.Response) bool {
	if q == nil {
		return false
	}
	expected, ok := benchmark.NumericAnswer(q.CorrectAnswer)
	if !ok {
		return false
	}
	actual, ok := responseFloat(resp, "value")
	if !ok {
		return false
	}
	return evaluator.WithinTolerance(actual, expected, evaluator.ToleranceOrDefault(q.Criteria.Tolerance))
}

func (r *unitConversionRunner) BuildDebugInfo(q *benchmark.Question, resp *llm.Response, correct bool) map[string]any {
	info := map[string]any{
		"question":       q.Text,
		"expected_value": q.CorrectAnswer,
		"tolerance":      evaluator.ToleranceOrDefault(q.Criteria.Tolerance),
		"full_response":  responseDump(resp),
		"is_correct":     correct,
	}
	if actual, ok := responseFloat(resp, "value"); ok {
		info["actual_value"] = actual
	}
	return info
}
