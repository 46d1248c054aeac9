package suites

import (
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"

	"github.com/justjake/fntimer/pkg/timer"
)

// unicodeInput mixes astral-plane symbols, a precomposed and a decomposed
// ñ, and a flag built from a ZWJ sequence.
const unicodeInput = "foo \U0001D306 bar \U0001D7D9\U0001D7DA\U0001D7DB\U0001F60E ma\u00f1ana man\u0303ana \U0001F3F3\uFE0F\u200D\U0001F308"

var unicodeSuite = Suite{
	Name:         "unicode",
	Description:  "Split Unicode text into characters joined by dashes; byte-wise methods mangle wide characters",
	DefaultInput: unicodeInput,
	build: func(s string) []Group {
		return []Group{{
			Title: "character parsing",
			Args:  timer.Single(norm.NFC.String(s)),
			Candidates: []timer.Candidate{
				timer.Unary("", dashBytes),
				timer.Unary("", dashSplit),
				timer.Unary("", dashDecodeRune),
				timer.Unary("", dashRuneSlice),
				timer.Unary("", dashGraphemes),
			},
		}}
	},
}

// dashBytes indexes bytes, so every multi-byte sequence is cut apart.
func dashBytes(s string) string {
	s2 := ""
	n := len(s)
	for i := 0; i < n; i++ {
		s2 += s[i:i+1] + "-"
	}
	return s2
}

func dashSplit(s string) string {
	s2 := ""
	a := strings.Split(s, "")
	for i := 0; i < len(a); i++ {
		s2 += a[i] + "-"
	}
	return s2
}

func dashDecodeRune(s string) string {
	s2 := ""
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		s2 += string(r) + "-"
		i += size
	}
	return s2
}

func dashRuneSlice(s string) string {
	s2 := ""
	a := []rune(s)
	for i := 0; i < len(a); i++ {
		s2 += string(a[i]) + "-"
	}
	return s2
}

// dashGraphemes keeps user-perceived characters such as emoji ZWJ
// sequences together.
func dashGraphemes(s string) string {
	s2 := ""
	state := -1
	var cluster string
	for s != "" {
		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		s2 += cluster + "-"
	}
	return s2
}
