// Package verify checks that a captured answer sheet belongs to the
// student it was filed under by reading the roll number and subject name
// printed on it.
package verify

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"
)

var ErrNothingToVerify = errors.New("expectation has neither roll number nor subject name")

// TextRecognizer extracts text from an encoded image.
type TextRecognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Expectation is what the sheet should show.
type Expectation struct {
	RollNumber  string `json:"roll_number"`
	SubjectName string `json:"subject_name,omitempty"`
}

// Result reports what was found. SubjectWER is -1 when no subject name
// was expected.
type Result struct {
	Text           string  `json:"text"`
	RollNumberSeen string  `json:"roll_number_seen,omitempty"`
	RollDistance   int     `json:"roll_distance"`
	RollMatched    bool    `json:"roll_matched"`
	SubjectWER     float64 `json:"subject_wer"`
	SubjectMatched bool    `json:"subject_matched"`
	Verified       bool    `json:"verified"`
}

// Verifier matches OCR output against an expectation.
type Verifier struct {
	recognizer      TextRecognizer
	maxRollDistance int
	maxSubjectWER   float64
}

// New returns a verifier accepting one character of OCR noise in the roll
// number and a subject word error rate up to 0.34.
func New(r TextRecognizer) *Verifier {
	return &Verifier{recognizer: r, maxRollDistance: 1, maxSubjectWER: 0.34}
}

func (v *Verifier) Verify(ctx context.Context, image []byte, exp Expectation) (Result, error) {
	roll := normalizeToken(exp.RollNumber)
	subject := tokenize(exp.SubjectName)
	if roll == "" && len(subject) == 0 {
		return Result{}, ErrNothingToVerify
	}

	text, err := v.recognizer.Recognize(ctx, image)
	if err != nil {
		return Result{}, err
	}
	tokens := tokenize(text)

	res := Result{Text: text, RollDistance: -1, SubjectWER: -1}

	rollOK := true
	if roll != "" {
		res.RollNumberSeen, res.RollDistance = closestToken(roll, withAdjacentPairs(tokens))
		res.RollMatched = res.RollDistance >= 0 && res.RollDistance <= v.maxRollDistance
		rollOK = res.RollMatched
	}

	subjectOK := true
	if len(subject) > 0 {
		res.SubjectWER = bestWindowWER(subject, tokens)
		res.SubjectMatched = res.SubjectWER <= v.maxSubjectWER
		subjectOK = res.SubjectMatched
	}

	res.Verified = rollOK && subjectOK
	return res, nil
}

// closestToken returns the token with the smallest edit distance to want,
// or ("", -1) when there are no tokens.
func closestToken(want string, tokens []string) (string, int) {
	best, bestDist := "", -1
	for _, tok := range tokens {
		d := levenshtein.Distance(want, tok)
		if bestDist < 0 || d < bestDist {
			best, bestDist = tok, d
			if d == 0 {
				break
			}
		}
	}
	return best, bestDist
}

// withAdjacentPairs adds each pair of neighbouring tokens joined together,
// since roll numbers are often printed with a dash or space inside.
func withAdjacentPairs(tokens []string) []string {
	out := make([]string, 0, 2*len(tokens))
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+tokens[i+1])
	}
	return out
}

// bestWindowWER slides the reference over the recognized words and keeps
// the lowest word error rate.
func bestWindowWER(ref, tokens []string) float64 {
	if len(tokens) == 0 {
		return 1
	}
	n := len(ref)
	if n > len(tokens) {
		n = len(tokens)
	}
	best := 1.0
	for i := 0; i+n <= len(tokens); i++ {
		rate, _ := wer.WER(ref, tokens[i:i+n])
		if rate < best {
			best = rate
		}
	}
	return best
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, f := range fields {
		fields[i] = strings.ToUpper(f)
	}
	return fields
}

func normalizeToken(s string) string {
	return strings.Join(tokenize(s), "")
}
