package registrar

import "testing"

func TestContains(t *testing.T) {
	cases := []struct {
		ss     []string
		target string
		want   bool
	}{
		{nil, "a", false},
		{[]string{"a", "b"}, "b", true},
		{[]string{"a", "b"}, "c", false},
		{[]string{}, "", false},
	}
	for _, c := range cases {
		if got := contains(c.ss, c.target); got != c.want {
			t.Errorf("contains(%v, %q) = %v, want %v", c.ss, c.target, got, c.want)
		}
	}
}
