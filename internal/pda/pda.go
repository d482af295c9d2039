// Package pda compares Samsung build identifiers (PDA strings).
//
// Only the trailing four characters of a PDA string are meaningful: major
// version, build year, build month and build sequence, read right to left.
// This positional rule is a documented contract with the sources; a string
// shorter than four characters is treated as indeterminate and sorts before
// everything else. Any change to the source format requires revisiting this
// package rather than reinterpreting positions silently.
package pda

// MajorVersion returns the OS major-version character of the build.
func MajorVersion(pda string) byte {
	return pda[len(pda)-4]
}

// BuildYear returns the build-year character of the build.
func BuildYear(pda string) byte {
	return pda[len(pda)-3]
}

// BuildMonth returns the build-month character of the build.
func BuildMonth(pda string) byte {
	return pda[len(pda)-2]
}

// BuildSequence returns the build-sequence character of the build.
func BuildSequence(pda string) byte {
	return pda[len(pda)-1]
}

// IsNewer reports whether candidate is a strictly newer build than baseline.
//
// A baseline shorter than four characters is treated as unknown, so any
// candidate advances it. A candidate shorter than four characters never
// advances a known baseline. Otherwise the four trailing characters are
// compared in priority order (major, year, month, sequence) by ordinary
// byte ordering; equal identifiers are never newer.
func IsNewer(candidate, baseline string) bool {
	if len(baseline) < 4 {
		return true
	}
	if len(candidate) < 4 {
		return false
	}

	pairs := [4][2]byte{
		{MajorVersion(candidate), MajorVersion(baseline)},
		{BuildYear(candidate), BuildYear(baseline)},
		{BuildMonth(candidate), BuildMonth(baseline)},
		{BuildSequence(candidate), BuildSequence(baseline)},
	}
	for _, p := range pairs {
		if p[0] != p[1] {
			return p[0] > p[1]
		}
	}
	return false
}
