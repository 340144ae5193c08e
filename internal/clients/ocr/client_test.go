package ocr

import (
	"reflect"
	"testing"
)

func TestNormalizeLanguages(t *testing.T) {
	cases := []struct {
		in   []string
		want []string
	}{
		{nil, []string{"en"}},
		{[]string{}, []string{"en"}},
		{[]string{"  "}, []string{"en"}},
		{[]string{"fr", "ar"}, []string{"fr", "ar"}},
		{[]string{"FR", " Ja "}, []string{"fr", "ja"}},
		{[]string{"klingon"}, []string{"en"}},
		{[]string{"zh", "klingon", "elvish"}, []string{"zh", "en"}},
		{[]string{"en", "en", "de"}, []string{"en", "de"}},
	}
	for _, tc := range cases {
		if got := normalizeLanguages(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("normalizeLanguages(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
