package phone

import (
	"slices"
	"testing"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "parenthesized area code with mobile prefix",
			text: "me liga (11) 98888-7777",
			want: []string{"5511988887777", "551188887777"},
		},
		{
			name: "bare area code without mobile prefix",
			text: "anota ai 11 8888-7777",
			want: []string{"551188887777", "5511988887777"},
		},
		{
			name: "explicit country code",
			text: "chama no +55 21 99999-0000 depois",
			want: []string{"5521999990000", "552199990000"},
		},
		{
			name: "raw digit run",
			text: "meu numero eh 11988887777 ta",
			want: []string{"5511988887777", "551188887777"},
		},
		{
			name: "two distinct numbers keep first-seen order",
			text: "(11) 98888-7777 ou (21) 97777-6666",
			want: []string{
				"5511988887777", "551188887777",
				"5521977776666", "552177776666",
			},
		},
		{
			name: "same number twice is deduplicated",
			text: "(11) 98888-7777 repito (11) 98888-7777",
			want: []string{"5511988887777", "551188887777"},
		},
		{
			name: "unknown area code is not expanded",
			text: "tenta 2088887777",
			want: []string{"552088887777"},
		},
		{
			name: "no digits",
			text: "oi, tudo bem por ai?",
			want: nil,
		},
		{
			name: "short digit runs are discarded",
			text: "a resposta eh 42 e o ramal 1234",
			want: nil,
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Extract(tc.text)
			if !slices.Equal(got, tc.want) {
				t.Errorf("Extract(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestNormalize_TooLong(t *testing.T) {
	t.Parallel()
	// A 14+ digit run is not a phone number this heuristic understands.
	if got := normalize("55119888877771"); got != nil {
		t.Errorf("normalize(14 digits) = %v, want nil", got)
	}
}
