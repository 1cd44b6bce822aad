package analyzer

import (
	"bufio"
	_ "embed"
	"regexp"
	"strconv"
	"strings"
)

//go:embed afinn.tsv
var afinnTSV string

// lexicon maps a lowercase word to its valence in [-5, 5].
var lexicon = parseLexicon(afinnTSV)

var negators = map[string]struct{}{
	"not": {}, "no": {}, "non": {}, "never": {}, "without": {},
	"don't": {}, "dont": {}, "doesn't": {}, "doesnt": {}, "didn't": {}, "didnt": {},
	"can't": {}, "cant": {}, "cannot": {}, "won't": {}, "wont": {},
	"isn't": {}, "isnt": {}, "wasn't": {}, "wasnt": {}, "aren't": {}, "arent": {},
}

var lexiconTokenRegex = regexp.MustCompile(`[a-z0-9']+`)

func parseLexicon(tsv string) map[string]int {
	words := make(map[string]int)
	scanner := bufio.NewScanner(strings.NewReader(tsv))
	for scanner.Scan() {
		word, value, ok := strings.Cut(scanner.Text(), "\t")
		if !ok {
			continue
		}
		score, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			continue
		}
		words[strings.TrimSpace(word)] = score
	}
	return words
}

// lexicalSum adds the valence of every lexicon word in text. A negator directly
// before a scored word flips its sign. text is expected to be lowercase.
func lexicalSum(text string) int {
	text = strings.ReplaceAll(text, "’", "'")
	tokens := lexiconTokenRegex.FindAllString(text, -1)

	sum := 0
	for i, token := range tokens {
		score, ok := lexicon[strings.Trim(token, "'")]
		if !ok {
			continue
		}
		if i > 0 {
			if _, negated := negators[strings.Trim(tokens[i-1], "'")]; negated {
				score = -score
			}
		}
		sum += score
	}
	return sum
}
