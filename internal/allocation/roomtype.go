package allocation

import "strings"

// Code is a canonical room-type code used for occupancy accounting.
type Code string

const (
	// CodeDouble is a double room shared by two guests.
	CodeDouble Code = "DBL"
	// CodeTwin is a twin room shared by two guests.
	CodeTwin Code = "TWN"
	// CodeSingle is a single-occupancy room.
	CodeSingle Code = "SNGL"
	// CodeTriple is a triple-occupancy room billed per room.
	CodeTriple Code = "TRPL"
	// CodePax bills per person rather than per room.
	CodePax Code = "PAX"
)

// synonyms maps the free-text spellings seen in roster data onto canonical codes.
var synonyms = map[string]Code{
	"DBL":    CodeDouble,
	"DOUBLE": CodeDouble,
	"DZ":     CodeDouble,
	"TWN":    CodeTwin,
	"TWIN":   CodeTwin,
	"SNGL":   CodeSingle,
	"SINGLE": CodeSingle,
	"EZ":     CodeSingle,
	"TRPL":   CodeTriple,
	"TRIPLE": CodeTriple,
	"PAX":    CodePax,
}

// Normalize maps a free-text room preference onto a canonical code. Strings
// outside the known synonym set map to themselves; such codes carry no
// occupancy factor and are skipped during cost computation rather than
// rejected, since roster entry routinely contains stray or legacy values.
func Normalize(pref string) Code {
	cleaned := strings.ToUpper(strings.TrimSpace(pref))
	if code, ok := synonyms[cleaned]; ok {
		return code
	}
	return Code(cleaned)
}

// Canonical reports whether the code belongs to the closed canonical set.
func (c Code) Canonical() bool {
	switch c {
	case CodeDouble, CodeTwin, CodeSingle, CodeTriple, CodePax:
		return true
	}
	return false
}

// guestsPerRoom returns the occupancy factor used to convert guest-nights to
// room-nights. PAX is handled separately by the allocator.
func guestsPerRoom(c Code) int {
	switch c {
	case CodeDouble, CodeTwin:
		return 2
	default:
		return 1
	}
}
