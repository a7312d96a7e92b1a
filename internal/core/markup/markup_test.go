package markup

import "testing"

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "no codes",
			text: "hello there",
			want: "hello there",
		},
		{
			name: "color with reset",
			text: "&2#lobby&r rest",
			want: "\033[32m#lobby\033[0m rest",
		},
		{
			name: "color replaced by another color",
			text: "&4red&9blue",
			want: "\033[31mred\033[94mblue\033[0m",
		},
		{
			name: "stacked styles closed by reset",
			text: "&l&nshout&r done",
			want: "\033[1m\033[4mshout\033[0m done",
		},
		{
			name: "open styling closed at end of string",
			text: "&etail",
			want: "\033[93mtail\033[0m",
		},
		{
			name: "unknown code passed through",
			text: "tom&&jerry &z",
			want: "tom&&jerry &z",
		},
		{
			name: "trailing ampersand",
			text: "meet @ 5&",
			want: "meet @ 5&",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.text); got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
