package textextract

import (
	"reflect"
	"testing"
)

func TestRepairBracketedTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"[A study of worms].", "A study of worms."},
		{"A study of worms.", "A study of worms."},
		{"[Bracketed but no period]", "[Bracketed but no period]"},
		{"  [Padded title].  ", "Padded title."},
		{"", ""},
		{"[.", "[."},
	}
	for _, tt := range tests {
		if got := RepairBracketedTitle(tt.in); got != tt.want {
			t.Errorf("RepairBracketedTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRemoveVacatedBrackets(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Results ( )", "Results  "},
		{"Results [ ] done", "Results   done"},
		{"Keep (these words)", "Keep (these words)"},
		{"Nested ( [ ] )", "Nested  "},
		{"Braces { } here", "Braces   here"},
	}
	for _, tt := range tests {
		if got := RemoveVacatedBrackets(tt.in); got != tt.want {
			t.Errorf("RemoveVacatedBrackets(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanBlock(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a b", "a b"},                  // no-break space is a separator
		{"tab\there", "tab here"},            // control char
		{"&gt; five", "> five"},              // entity
		{"zero​width", "zero width"},    // format char
		{"  padded   out  ", "padded out"},   // whitespace runs collapse
		{"empty ( [1] ) stays", "empty ( [1] ) stays"},
	}
	for _, tt := range tests {
		if got := CleanBlock(tt.in); got != tt.want {
			t.Errorf("CleanBlock(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanBlocks_DropsEmpties(t *testing.T) {
	got := CleanBlocks([]string{"keep", "   ", "( )", "also keep"})
	want := []string{"keep", "also keep"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CleanBlocks = %v, want %v", got, want)
	}
}
