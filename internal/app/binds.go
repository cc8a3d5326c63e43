package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joacominatel/minastmt/internal/statement"
)

// ParseBindValue turns user input into a bind value. NULL (any case) binds
// SQL NULL, integers and floats bind as numbers, text in single quotes binds
// the quoted text verbatim and anything else binds as a string.
func ParseBindValue(s string) any {
	t := strings.TrimSpace(s)
	switch {
	case strings.EqualFold(t, "null"):
		return nil
	case len(t) >= 2 && t[0] == '\'' && t[len(t)-1] == '\'':
		return strings.ReplaceAll(t[1:len(t)-1], "''", "'")
	}
	if n, err := strconv.ParseInt(t, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return f
	}
	return s
}

// ParseBindArg parses a "name=value" pair.
func ParseBindArg(arg string) (statement.NamedArg, error) {
	name, value, ok := strings.Cut(arg, "=")
	name = strings.TrimPrefix(strings.TrimSpace(name), ":")
	if !ok || name == "" {
		return statement.NamedArg{}, &ErrConfig{Cause: fmt.Errorf("bind %q: want name=value", arg)}
	}
	return statement.Named(name, ParseBindValue(value)), nil
}

// BindArgs builds named binds from the statement's slots and the input
// strings keyed by upper-cased name. Slots without input are left alone.
func BindArgs(stmt *statement.Statement, inputs map[string]string) []statement.NamedArg {
	var args []statement.NamedArg
	for _, slot := range stmt.BindSlots() {
		if v, ok := inputs[slot.Name]; ok {
			args = append(args, statement.Named(slot.Name, ParseBindValue(v)))
		}
	}
	return args
}
