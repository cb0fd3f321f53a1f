package utils

import "strings"

// SplitSeats splits a stored seat_number value into individual seat
// codes. A reservation row holds either a single code ("A1") or a
// comma-joined group ("A1,A2,A3"); empty fragments from stray commas
// are dropped and codes are trimmed.
func SplitSeats(stored string) []string {
	parts := strings.Split(stored, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinSeats builds the stored seat_number value for a multi-seat group.
// Input order is preserved; downstream queries split on comma.
func JoinSeats(seats []string) string {
	return strings.Join(seats, ",")
}

// DedupeSeats trims and de-duplicates seat codes while preserving the
// order of first occurrence. Empty codes are dropped.
func DedupeSeats(seats []string) []string {
	seen := make(map[string]struct{}, len(seats))
	out := make([]string, 0, len(seats))
	for _, s := range seats {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
