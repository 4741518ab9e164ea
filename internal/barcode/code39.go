// Package barcode renders identifiers as Code-39 linear barcodes.
//
// Geometry is expressed in narrow units: a narrow element is 1 unit wide and a
// wide element 3 units. Callers scale the units to pixels when drawing.
package barcode

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// Sentinel wraps every encoded payload and is never a payload character.
	Sentinel = '*'
	// Substitute replaces characters outside the Code-39 alphabet.
	Substitute = '-'

	NarrowWidth = 1
	WideWidth   = 3 * NarrowWidth
	// CharGap is the space inserted after each character.
	CharGap = NarrowWidth
)

// patterns lists the nine elements of each character, alternating bar and
// space and starting with a bar. 'n' is narrow, 'w' is wide.
var patterns = map[rune]string{
	'0': "nnnwwnwnn",
	'1': "wnnwnnnnw",
	'2': "nnwwnnnnw",
	'3': "wnwwnnnnn",
	'4': "nnnwwnnnw",
	'5': "wnnwwnnnn",
	'6': "nnwwwnnnn",
	'7': "nnnwnnwnw",
	'8': "wnnwnnwnn",
	'9': "nnwwnnwnn",
	'A': "wnnnnwnnw",
	'B': "nnwnnwnnw",
	'C': "wnwnnwnnn",
	'D': "nnnnwwnnw",
	'E': "wnnnwwnnn",
	'F': "nnwnwwnnn",
	'G': "nnnnnwwnw",
	'H': "wnnnnwwnn",
	'I': "nnwnnwwnn",
	'J': "nnnnwwwnn",
	'K': "wnnnnnnww",
	'L': "nnwnnnnww",
	'M': "wnwnnnnwn",
	'N': "nnnnwnnww",
	'O': "wnnnwnnwn",
	'P': "nnwnwnnwn",
	'Q': "nnnnnnwww",
	'R': "wnnnnnwwn",
	'S': "nnwnnnwwn",
	'T': "nnnnwnwwn",
	'U': "wwnnnnnnw",
	'V': "nwwnnnnnw",
	'W': "wwwnnnnnn",
	'X': "nwnnwnnnw",
	'Y': "wwnnwnnnn",
	'Z': "nwwnwnnnn",
	'-': "nwnnnnwnw",
	'.': "wwnnnnwnn",
	' ': "nwwnnnwnn",
	'$': "nwnwnwnnn",
	'/': "nwnwnnnwn",
	'+': "nwnnnwnwn",
	'%': "nnnwnwnwn",
	'*': "nwnnwnwnn",
}

var byPattern = func() map[string]rune {
	m := make(map[string]rune, len(patterns))
	for r, p := range patterns {
		m[p] = r
	}
	return m
}()

// Bar is one filled rectangle of the symbol.
type Bar struct {
	Offset int `json:"offset"`
	Width  int `json:"width"`
}

// Barcode is the rendered geometry of a single Code-39 symbol.
type Barcode struct {
	// Text is the caller's input, used as the human readable label.
	Text string `json:"text"`
	// Normalized is the encoded string including both sentinels.
	Normalized string `json:"normalized"`
	Bars       []Bar  `json:"bars"`
	// Width is the cursor position after the last character gap.
	Width int `json:"width"`
	// ViewWidth adds one narrow unit of right margin to Width.
	ViewWidth int `json:"viewWidth"`
}

// InAlphabet reports whether r can be carried as payload.
func InAlphabet(r rune) bool {
	if r == Sentinel {
		return false
	}
	_, ok := patterns[r]
	return ok
}

// Normalize uppercases text, substitutes unsupported characters and wraps the
// result in sentinels.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 2)
	b.WriteRune(Sentinel)
	for _, r := range strings.ToUpper(text) {
		if !InAlphabet(r) {
			r = Substitute
		}
		b.WriteRune(r)
	}
	b.WriteRune(Sentinel)
	return b.String()
}

// Encode lays out the bars for text. It never fails: characters outside the
// alphabet are encoded as Substitute.
func Encode(text string) Barcode {
	normalized := Normalize(text)
	bars := make([]Bar, 0, 5*len(normalized))

	x := 0
	for _, r := range normalized {
		pattern := patterns[r]
		for i := 0; i < len(pattern); i++ {
			width := NarrowWidth
			if pattern[i] == 'w' {
				width = WideWidth
			}
			if i%2 == 0 {
				bars = append(bars, Bar{Offset: x, Width: width})
			}
			x += width
		}
		x += CharGap
	}

	return Barcode{
		Text:       text,
		Normalized: normalized,
		Bars:       bars,
		Width:      x,
		ViewWidth:  x + NarrowWidth,
	}
}

var ErrMalformed = errors.New("malformed code39 geometry")

// Decode reads bar geometry back into the normalized string, sentinels
// included.
func Decode(bars []Bar) (string, error) {
	if len(bars) == 0 || len(bars)%5 != 0 {
		return "", fmt.Errorf("%w: %d bars", ErrMalformed, len(bars))
	}

	var out strings.Builder
	var pattern [9]byte
	for c := 0; c < len(bars); c += 5 {
		group := bars[c : c+5]
		for i, bar := range group {
			sym, err := symbol(bar.Width)
			if err != nil {
				return "", fmt.Errorf("char %d bar %d: %w", c/5, i, err)
			}
			pattern[2*i] = sym
			if i == len(group)-1 {
				break
			}
			space := group[i+1].Offset - (bar.Offset + bar.Width)
			sym, err = symbol(space)
			if err != nil {
				return "", fmt.Errorf("char %d space %d: %w", c/5, i, err)
			}
			pattern[2*i+1] = sym
		}
		r, ok := byPattern[string(pattern[:])]
		if !ok {
			return "", fmt.Errorf("%w: unknown pattern %s", ErrMalformed, pattern[:])
		}
		out.WriteRune(r)
	}
	return out.String(), nil
}

func symbol(width int) (byte, error) {
	switch width {
	case NarrowWidth:
		return 'n', nil
	case WideWidth:
		return 'w', nil
	default:
		return 0, fmt.Errorf("%w: element width %d", ErrMalformed, width)
	}
}
