package sqltext

import "strings"

// Kind identifies the statement family of prepared text.
type Kind int

const (
	Unknown Kind = iota
	Select
	Insert
	Update
	Delete
	Merge
	Create
	Alter
	Drop
	Begin
	Declare
)

var kindTokens = map[string]Kind{
	"SELECT":  Select,
	"WITH":    Select,
	"INSERT":  Insert,
	"UPDATE":  Update,
	"DELETE":  Delete,
	"MERGE":   Merge,
	"CREATE":  Create,
	"ALTER":   Alter,
	"DROP":    Drop,
	"BEGIN":   Begin,
	"DECLARE": Declare,
}

// String renders DML and DDL kinds as their lowercase keyword and
// procedural blocks as PL/SQL(<keyword>).
func (k Kind) String() string {
	switch k {
	case Select:
		return "select"
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Delete:
		return "delete"
	case Merge:
		return "merge"
	case Create:
		return "create"
	case Alter:
		return "alter"
	case Drop:
		return "drop"
	case Begin:
		return "PL/SQL(begin)"
	case Declare:
		return "PL/SQL(declare)"
	default:
		return "unknown"
	}
}

// IsQuery reports whether statements of this kind produce rows.
func (k Kind) IsQuery() bool { return k == Select }

// IsDML reports whether the kind modifies table data.
func (k Kind) IsDML() bool {
	return k == Insert || k == Update || k == Delete || k == Merge
}

// IsDDL reports whether the kind changes schema objects.
func (k Kind) IsDDL() bool {
	return k == Create || k == Alter || k == Drop
}

// IsPLSQL reports whether the kind is an anonymous procedural block.
func (k Kind) IsPLSQL() bool {
	return k == Begin || k == Declare
}

// Classify returns the kind of the statement from its first keyword.
// Leading whitespace, comments and opening parentheses are skipped.
// Text that does not start with a known keyword is Unknown.
func Classify(text string) Kind {
	i := skipInsignificant(text, 0)
	start := i
	for i < len(text) && isASCIILetter(text[i]) {
		i++
	}
	if start == i {
		return Unknown
	}
	if k, ok := kindTokens[strings.ToUpper(text[start:i])]; ok {
		return k
	}
	return Unknown
}

func skipInsignificant(text string, i int) int {
	for i < len(text) {
		c := text[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '(':
			i++
		case hasPrefixAt(text, i, "--"):
			i = skipLine(text, i)
		case hasPrefixAt(text, i, "/*"):
			i = skipBlock(text, i)
		default:
			return i
		}
	}
	return i
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
