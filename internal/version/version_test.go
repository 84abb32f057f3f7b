package version

import "testing"

func TestOutdated(t *testing.T) {
	const minimum = "12.12.25.04.50"

	cases := []struct {
		name   string
		client string
		want   bool
	}{
		{"equal to minimum", "12.12.25.04.50", false},
		{"minute below", "12.12.25.04.49", true},
		{"minute above", "12.12.25.04.51", false},
		{"hour above, minute below", "12.12.25.05.01", false},
		{"month below", "11.30.25.23.59", true},
		{"month above", "01.01.26.00.00", true}, // month is most significant, 01 < 12
		{"year above in third segment", "12.12.26.00.00", false},
		{"empty", "", true},
		{"whitespace", "   ", true},
		{"garbage", "not.a.version", true},
		{"partial garbage", "12.12.xx.04.50", true},
		{"too few segments", "12.12", true}, // missing segments compare as 0
		{"extra segments ignored", "12.12.25.04.50.99", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Outdated(tc.client, minimum); got != tc.want {
				t.Errorf("Outdated(%q, %q) = %v, want %v", tc.client, minimum, got, tc.want)
			}
		})
	}
}

func TestOutdatedEachSegmentBoundary(t *testing.T) {
	const minimum = "10.10.10.10.10"

	// Lowering any single segment (earlier ones equal) must reject.
	below := []string{
		"09.10.10.10.10",
		"10.09.10.10.10",
		"10.10.09.10.10",
		"10.10.10.09.10",
		"10.10.10.10.09",
	}
	for _, v := range below {
		if !Outdated(v, minimum) {
			t.Errorf("Outdated(%q) = false, want true", v)
		}
	}

	// Raising any single segment must accept.
	above := []string{
		"11.00.00.00.00",
		"10.11.00.00.00",
		"10.10.11.00.00",
		"10.10.10.11.00",
		"10.10.10.10.11",
	}
	for _, v := range above {
		if Outdated(v, minimum) {
			t.Errorf("Outdated(%q) = true, want false", v)
		}
	}
}

func TestOutdatedMalformedMinimum(t *testing.T) {
	// A broken minimum is a config error; the gate fails closed.
	if !Outdated("12.12.25.04.50", "bogus") {
		t.Error("malformed minimum should reject")
	}
}
