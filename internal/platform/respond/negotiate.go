package respond

import (
	"strconv"
	"strings"
)

type mediaRange struct {
	typ     string
	subtype string
	q       float64
}

// parseAccept splits an Accept header into media ranges. Missing, malformed or
// out-of-range q values count as 1. A bare type is read as type/*.
func parseAccept(header string) []mediaRange {
	var ranges []mediaRange
	for part := range strings.SplitSeq(header, ",") {
		params := strings.Split(part, ";")
		mt := strings.ToLower(strings.TrimSpace(params[0]))
		if mt == "" {
			continue
		}
		mr := mediaRange{typ: mt, subtype: "*", q: 1}
		if typ, sub, ok := strings.Cut(mt, "/"); ok {
			mr.typ, mr.subtype = typ, sub
		}
		for _, p := range params[1:] {
			k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
			if !ok || strings.TrimSpace(k) != "q" {
				continue
			}
			q, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil || q < 0 || q > 1 {
				q = 1
			}
			mr.q = q
		}
		ranges = append(ranges, mr)
	}
	return ranges
}

// specificity ranks how closely mr names application/<subtype>, or -1 when it
// does not match.
func (mr mediaRange) specificity(subtype string) int {
	switch {
	case mr.typ == "*" && mr.subtype == "*":
		return 0
	case mr.typ != "application":
		return -1
	case mr.subtype == "*":
		return 1
	case strings.HasPrefix(mr.subtype, "*+"):
		if strings.HasSuffix(subtype, mr.subtype[1:]) {
			return 2
		}
		return -1
	case mr.subtype == subtype:
		if strings.Contains(subtype, "+") {
			return 4
		}
		return 3
	}
	return -1
}

type preference struct {
	q    float64
	rank int
}

// preferenceFor returns the q value of the most specific range matching any of
// subtypes.
func preferenceFor(ranges []mediaRange, subtypes ...string) preference {
	best := preference{rank: -1}
	for _, mr := range ranges {
		for _, st := range subtypes {
			s := mr.specificity(st)
			if s < 0 {
				continue
			}
			if s > best.rank || (s == best.rank && mr.q > best.q) {
				best = preference{q: mr.q, rank: s}
			}
		}
	}
	return best
}

// selectFormat reports whether accept prefers CBOR over JSON. The q value
// ranks first and specificity breaks ties. JSON wins any remaining tie.
func selectFormat(accept string) bool {
	ranges := parseAccept(accept)
	cborPref := preferenceFor(ranges, "problem+cbor", "cbor")
	if cborPref.rank < 0 || cborPref.q <= 0 {
		return false
	}
	jsonPref := preferenceFor(ranges, "problem+json", "json")
	if jsonPref.rank < 0 || jsonPref.q <= 0 {
		return true
	}
	if cborPref.q != jsonPref.q {
		return cborPref.q > jsonPref.q
	}
	return cborPref.rank > jsonPref.rank
}
