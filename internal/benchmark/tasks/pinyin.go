package tasks

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"unicode/utf8"

	"github.com/verbalab/lingbench/internal/benchmark"
	"github.com/verbalab/lingbench/internal/llm"
)

const pinyinCode = "0051_pinyin_letters"

type pinyinPair struct {
	Sentence string `json:"sentence"`
	Pinyin   string `json:"pinyin"`
}

// Fixed beginner sentences with tone-free uppercase transcriptions.
var pinyinSamples = []pinyinPair{
	{Sentence: "我喜欢学习中文", Pinyin: "WO XI HUAN XUE XI ZHONG WEN"},
	{Sentence: "北京是中国的首都", Pinyin: "BEI JING SHI ZHONG GUO DE SHOU DU"},
	{Sentence: "今天天气很好", Pinyin: "JIN TIAN TIAN QI HEN HAO"},
	{Sentence: "他的哥哥八岁了", Pinyin: "TA DE GE GE BA SUI LE"},
	{Sentence: "我们一起去公园吧", Pinyin: "WO MEN YI QI QU GONG YUAN BA"},
	{Sentence: "这本书非常有趣", Pinyin: "ZHE BEN SHU FEI CHANG YOU QU"},
	{Sentence: "你明天有什么计划", Pinyin: "NI MING TIAN YOU SHEN ME JI HUA"},
	{Sentence: "我的猫喜欢睡觉", Pinyin: "WO DE MAO XI HUAN SHUI JIAO"},
	{Sentence: "中国有很长的历史", Pinyin: "ZHONG GUO YOU HEN CHANG DE LI SHI"},
	{Sentence: "昨天我去了图书馆", Pinyin: "ZUO TIAN WO QU LE TU SHU GUAN"},
}

func registerPinyinLetters(reg *benchmark.Registry, deps Deps) {
	md := benchmark.NewMetadata(pinyinCode, "Pinyin Letter Count",
		"Count letters in the Pinyin romanization of Chinese sentences.")
	md.Tags = []string{"chinese", "counting"}
	reg.RegisterMetadata(md)
	reg.RegisterGenerator(md.Code, func(md benchmark.Metadata, store benchmark.QuestionStore) *benchmark.Generator {
		strategies := []benchmark.Strategy{
			benchmark.NewLocalStrategy(newPinyinProducer(newRand())),
		}
		if deps.Chat != nil {
			strategies = append(strategies,
				benchmark.NewLLMStrategy(deps.Log, newPinyinFetch(deps, newRand())))
		}
		return benchmark.NewGenerator(md, store, deps.Log, strategies...)
	})
	reg.RegisterRunner(md.Code, func(model string, md benchmark.Metadata) benchmark.Runner {
		return &pinyinRunner{BaseRunner: benchmark.NewBaseRunner(model, md)}
	})
}

func newPinyinProducer(rng *rand.Rand) func() (*benchmark.Question, error) {
	return func() (*benchmark.Question, error) {
		pair := pinyinSamples[rng.Intn(len(pinyinSamples))]
		return pinyinQuestion(rng, pair, false)
	}
}

func pinyinQuestion(rng *rand.Rand, pair pinyinPair, generated bool) (*benchmark.Question, error) {
	letters := pinyinLetters(pair.Pinyin)
	if len(letters) == 0 {
		return nil, fmt.Errorf("tasks: no letters in pinyin %q", pair.Pinyin)
	}
	letter := letters[rng.Intn(len(letters))]
	tags := []string{"chinese", "pinyin", "letter_count"}
	if generated {
		tags = append(tags, "llm_generated")
	}
	return &benchmark.Question{
		Text: fmt.Sprintf("Count how many times the letter '%s' appears in the Pinyin representation of the following Chinese sentence: %s",
			letter, pair.Sentence),
		AnswerType:    benchmark.AnswerNumeric,
		CorrectAnswer: strings.Count(pair.Pinyin, letter),
		Category:      "pinyin_letter_count",
		Difficulty:    benchmark.DifficultyMedium,
		Tags:          tags,
		Criteria:      benchmark.Criteria{ExactMatch: true},
	}, nil
}

// pinyinLetters returns the distinct letters of a transcription, in
// first-seen order so letter choice is reproducible under a seeded
// rand.
func pinyinLetters(pinyin string) []string {
	seen := make(map[rune]bool)
	var letters []string
	for _, r := range pinyin {
		if r >= 'A' && r <= 'Z' && !seen[r] {
			seen[r] = true
			letters = append(letters, string(r))
		}
	}
	return letters
}

func validPinyin(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != ' ' && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

const pinyinGenContext = `You are a Chinese language teacher preparing Pinyin exercises. Produce simple everyday sentences suitable for beginners, with accurate Pinyin romanization in uppercase letters and no tone marks.`

func pinyinGenSchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": objectSchema(map[string]any{
			"sentence": map[string]any{"type": "string"},
			"pinyin":   map[string]any{"type": "string"},
		}, "sentence", "pinyin"),
	}
}

func newPinyinFetch(deps Deps, rng *rand.Rand) func(ctx context.Context) ([]*benchmark.Question, error) {
	return func(ctx context.Context) ([]*benchmark.Question, error) {
		resp, err := deps.Chat.GenerateChat(ctx, &llm.ChatRequest{
			Prompt: "Generate 5 simple Chinese sentences, each between 4 and 15 characters long. " +
				"For each sentence provide its Pinyin romanization in uppercase letters without tone marks, one space between syllables.",
			Model:   deps.GenModel,
			Context: pinyinGenContext,
			Schema:  pinyinGenSchema(),
		})
		if err != nil {
			return nil, fmt.Errorf("tasks: pinyin generation: %w", err)
		}
		var questions []*benchmark.Question
		for _, item := range resp.Items {
			pair := pinyinPair{
				Sentence: stringItem(item, "sentence"),
				Pinyin:   strings.ToUpper(stringItem(item, "pinyin")),
			}
			if n := utf8.RuneCountInString(pair.Sentence); n < 4 || n > 15 {
				deps.Log.Warn("dropping generated sentence outside length bounds", "sentence", pair.Sentence)
				continue
			}
			if !validPinyin(pair.Pinyin) {
				deps.Log.Warn("dropping generated sentence with invalid pinyin", "pinyin", pair.Pinyin)
				continue
			}
			q, err := pinyinQuestion(rng, pair, true)
			if err != nil {
				continue
			}
			questions = append(questions, q)
		}
		if len(questions) == 0 {
			return nil, errors.New("tasks: pinyin generation produced no usable sentences")
		}
		return questions, nil
	}
}

const pinyinRunContext = `You are counting letters in the Pinyin romanization of Chinese text.
Convert the sentence to Pinyin without tone marks, then count how many times the target letter appears, ignoring case.
For example, the Pinyin of 你好 is NI HAO, which contains the letter 'N' exactly once.
Provide your answer as a single integer in the specified JSON format.`

type pinyinRunner struct {
	benchmark.BaseRunner
}

func (r *pinyinRunner) PreparePrompt(q *benchmark.Question) (*benchmark.Prompt, error) {
	if q == nil {
		return nil, errors.New("tasks: nil question")
	}
	return &benchmark.Prompt{
		Text:    q.Text,
		Schema:  intSchema("letter_count"),
		Context: pinyinRunContext,
	}, nil
}

func (r *pinyinRunner) EvaluateResponse(q *benchmark.Question, resp *llm.Response) bool {
	if q == nil {
		return false
	}
	expected, ok := benchmark.NumericAnswer(q.CorrectAnswer)
	if !ok {
		return false
	}
	actual, ok := responseInt(resp, "letter_count")
	return ok && actual == int(expected)
}

func (r *pinyinRunner) BuildDebugInfo(q *benchmark.Question, resp *llm.Response, correct bool) map[string]any {
	info := map[string]any{
		"question":       q.Text,
		"expected_count": q.CorrectAnswer,
		"is_correct":     correct,
	}
	if actual, ok := responseInt(resp, "letter_count"); ok {
		info["actual_count"] = actual
	} else {
		info["full_response"] = responseDump(resp)
	}
	return info
}
