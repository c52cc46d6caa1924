package textutil

import "strings"

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of leading/trailing
// whitespace. Returns "print" for input that sanitizes to nothing, so job
// names straight off the printer always yield a usable path component.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name != "" {
		name = strings.TrimSpace(fileNameReplacer.Replace(name))
	}
	if name == "" {
		return "print"
	}
	return name
}
