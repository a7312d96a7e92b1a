// Package markup implements the &-code color and style mini-language carried
// inside message payloads. The codes travel over the wire as literal
// characters and are interpreted by whatever is displaying the message; the
// server only renders them for its own console echo.
//
// Supported codes:
//
//	&r          resets all open styling
//	&0 ... &f   sets the foreground color, replacing any open color
//	&l &o &n &m toggles bold/italic/underline/strikethrough (closed by &r)
package markup

import "strings"

const escReset = "\033[0m"

// Foreground colors indexed by their hex code character.
var colorCodes = map[rune]string{
	'0': "\033[30m", '1': "\033[34m", '2': "\033[32m", '3': "\033[36m",
	'4': "\033[31m", '5': "\033[35m", '6': "\033[33m", '7': "\033[37m",
	'8': "\033[90m", '9': "\033[94m", 'a': "\033[92m", 'b': "\033[96m",
	'c': "\033[91m", 'd': "\033[95m", 'e': "\033[93m", 'f': "\033[97m",
}

var styleCodes = map[rune]string{
	'l': "\033[1m", // bold
	'o': "\033[3m", // italic
	'n': "\033[4m", // underline
	'm': "\033[9m", // strikethrough
}

// Render translates the &-codes in text into ANSI escape sequences for
// display on a terminal. Any styling still open at the end of the string is
// closed. Unrecognized codes are passed through untouched.
func Render(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	runes := []rune(text)
	styled := false

	for i := 0; i < len(runes); i++ {
		if runes[i] != '&' || i+1 >= len(runes) {
			b.WriteRune(runes[i])
			continue
		}

		code := runes[i+1]
		switch {
		case code == 'r':
			b.WriteString(escReset)
			styled = false
		case colorCodes[code] != "":
			b.WriteString(colorCodes[code])
			styled = true
		case styleCodes[code] != "":
			b.WriteString(styleCodes[code])
			styled = true
		default:
			b.WriteRune(runes[i])
			continue
		}
		i++
	}

	if styled {
		b.WriteString(escReset)
	}
	return b.String()
}
