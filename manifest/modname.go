package manifest

import (
	"strings"
	"unicode"
)

// ToModuleName converts a package name to the snake_case identifier it is
// imported under.
// "meu-pacote" -> "meu_pacote", "MeuPacote" -> "meu_pacote", "HTTPUtil" -> "httputil"
func ToModuleName(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '-' || r == '_' || r == ' ':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
		case unicode.IsUpper(r):
			if i > 0 && unicode.IsLower(runes[i-1]) && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// reservedModules lists path roots the generated Rust already binds.
var reservedModules = map[string]bool{
	"std":        true,
	"core":       true,
	"alloc":      true,
	"crate":      true,
	"self":       true,
	"super":      true,
	"proc_macro": true,
	"test":       true,
	"main":       true,
}

// IsReservedModule reports whether name cannot be used as the root segment
// of a dependency's module path. Only the root is checked: "pbr::std" is
// fine because the root is "pbr".
func IsReservedModule(name string) bool {
	root := name
	if idx := strings.Index(name, "::"); idx >= 0 {
		root = name[:idx]
	}
	return reservedModules[root]
}
