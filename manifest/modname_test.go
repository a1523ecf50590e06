package manifest

import "testing"

func TestToModuleName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"modelos", "modelos"},
		{"meu-app", "meu_app"},
		{"meu_app", "meu_app"},
		{"meuApp", "meu_app"},
		{"MeuApp", "meu_app"},
		{"HTTP", "http"},
		{"a", "a"},
		{"", ""},
		{"foo--bar", "foo_bar"},
		{"_inicio", "inicio"},
		{"fim-", "fim"},
	}

	for _, tc := range tests {
		got := ToModuleName(tc.input)
		if got != tc.want {
			t.Errorf("ToModuleName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestIsReservedModule(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"std", true},
		{"core", true},
		{"alloc", true},
		{"crate", true},
		{"main", true},
		{"meu_app", false},
		{"rede", false},
		// Multi-segment: only root checked
		{"pbr::std", false},
		{"std::fmt", true},
	}

	for _, tc := range tests {
		got := IsReservedModule(tc.name)
		if got != tc.want {
			t.Errorf("IsReservedModule(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}
