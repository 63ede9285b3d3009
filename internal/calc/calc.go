// Package calc derives numeric tile/box/pallet properties from the fixed
// dependency graph over nine catalog properties plus the tile dimensions.
// All functions are pure; an unsatisfiable calculation is "no value", not
// an error.
package calc

import (
	"math"
	"strconv"
	"strings"

	"github.com/starford/tessera/internal/catalog"
	"github.com/starford/tessera/internal/template"
)

// Truncate floors v to two decimal places. This is the one rounding policy
// used everywhere a derived value is produced.
func Truncate(v float64) float64 {
	return math.Floor(v*100) / 100
}

// ParseDecimal parses a decimal string accepting either "," or "." as the
// separator. Returns false for empty, malformed, or non-finite input.
func ParseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Calculate derives the value of target from the known sibling properties
// and the tile dimensions (centimeters). Each target tries its input
// combinations in a fixed priority order; the first combination whose
// inputs are all present and valid wins. Divisors must be positive.
// The result is truncated to two decimals. ok is false when no combination
// is satisfiable or target is not a calculable property.
func Calculate(target int, props []template.Property, length, width string) (result float64, ok bool) {
	get := func(id int) (float64, bool) {
		for _, p := range props {
			if p.ID == id {
				s, isStr := p.Value.AsString()
				if !isStr {
					return 0, false
				}
				return ParseDecimal(s)
			}
		}
		return 0, false
	}

	switch target {
	case catalog.PropTileArea:
		l, lok := ParseDecimal(length)
		w, wok := ParseDecimal(width)
		if lok && wok && l > 0 && w > 0 {
			return Truncate((l / 100) * (w / 100)), true
		}

	case catalog.PropTileWeight:
		if m2w, aok := get(catalog.PropM2Weight); aok {
			if area, bok := get(catalog.PropTileArea); bok {
				return Truncate(m2w * area), true
			}
		}
		if bw, aok := get(catalog.PropBoxWeight); aok {
			if pieces, bok := get(catalog.PropPiecesPerBox); bok && pieces > 0 {
				return Truncate(bw / pieces), true
			}
		}

	case catalog.PropM2Weight:
		if bw, aok := get(catalog.PropBoxWeight); aok {
			if m2box, bok := get(catalog.PropM2PerBox); bok && m2box > 0 {
				return Truncate(bw / m2box), true
			}
		}
		if tw, aok := get(catalog.PropTileWeight); aok {
			if area, bok := get(catalog.PropTileArea); bok && area > 0 {
				return Truncate(tw / area), true
			}
		}

	case catalog.PropBoxWeight:
		if m2w, aok := get(catalog.PropM2Weight); aok {
			if m2box, bok := get(catalog.PropM2PerBox); bok {
				return Truncate(m2w * m2box), true
			}
		}
		if tw, aok := get(catalog.PropTileWeight); aok {
			if pieces, bok := get(catalog.PropPiecesPerBox); bok {
				return Truncate(tw * pieces), true
			}
		}
		if pw, aok := get(catalog.PropPalletWeight); aok {
			if boxes, bok := get(catalog.PropBoxesPerPallet); bok && boxes > 0 {
				return Truncate(pw / boxes), true
			}
		}

	case catalog.PropM2PerBox:
		if pieces, aok := get(catalog.PropPiecesPerBox); aok {
			if area, bok := get(catalog.PropTileArea); bok {
				return Truncate(pieces * area), true
			}
		}

	case catalog.PropPiecesPerBox:
		if m2box, aok := get(catalog.PropM2PerBox); aok {
			if area, bok := get(catalog.PropTileArea); bok && area > 0 {
				return Truncate(m2box / area), true
			}
		}
		if bw, aok := get(catalog.PropBoxWeight); aok {
			if tw, bok := get(catalog.PropTileWeight); bok && tw > 0 {
				return Truncate(bw / tw), true
			}
		}

	case catalog.PropM2PerPallet:
		if boxes, aok := get(catalog.PropBoxesPerPallet); aok {
			if m2box, bok := get(catalog.PropM2PerBox); bok {
				return Truncate(boxes * m2box), true
			}
		}

	case catalog.PropBoxesPerPallet:
		if m2pallet, aok := get(catalog.PropM2PerPallet); aok {
			if m2box, bok := get(catalog.PropM2PerBox); bok && m2box > 0 {
				return Truncate(m2pallet / m2box), true
			}
		}

	case catalog.PropPalletWeight:
		if bw, aok := get(catalog.PropBoxWeight); aok {
			if boxes, bok := get(catalog.PropBoxesPerPallet); bok {
				return Truncate(bw * boxes), true
			}
		}
	}

	return 0, false
}

// CalculateString is Calculate with the result formatted the way values
// are stored in templates and written into the form.
func CalculateString(target int, props []template.Property, length, width string) (string, bool) {
	v, ok := Calculate(target, props, length, width)
	if !ok {
		return "", false
	}
	return Format(v), true
}

// Format renders a truncated value without trailing zeros ("3", "0.36").
func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Shape returns the shape option id for the given dimensions: square when
// length equals width, rectangular otherwise. Computed only on explicit
// operator request; it is not part of the dependency graph.
func Shape(length, width string) string {
	l, lok := ParseDecimal(length)
	w, wok := ParseDecimal(width)
	if lok && wok && l == w {
		return catalog.OptShapeSquare
	}
	return catalog.OptShapeRectangular
}
