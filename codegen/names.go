package codegen

import (
	"strconv"
	"strings"
)

// reservedWords may not be used as generated identifiers: keywords of the
// target language, its builtins, and the host intrinsics.
var reservedWords = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true,
	"do": true, "else": true, "export": true, "extends": true, "finally": true,
	"for": true, "function": true, "if": true, "import": true, "in": true,
	"instanceof": true, "let": true, "new": true, "return": true,
	"super": true, "switch": true, "this": true, "throw": true, "try": true,
	"typeof": true, "var": true, "void": true, "while": true, "with": true,
	"yield": true, "true": true, "false": true, "null": true,
	"undefined": true, "NaN": true, "Infinity": true,

	"Math": true, "Number": true, "String": true,
	"print": true, "prompt": true,
}

// nameDB maps user-facing names to safe, distinct identifiers.
type nameDB struct {
	byUser map[string]string
	taken  map[string]bool
}

func newNameDB() *nameDB {
	return &nameDB{
		byUser: make(map[string]string),
		taken:  make(map[string]bool),
	}
}

// Name categories. Variables and procedures live in one runtime namespace,
// so they share the taken set but are looked up separately.
const (
	categoryVariable  = "variable"
	categoryProcedure = "procedure"
)

// get returns the identifier for a user name in a category, allocating one
// on first use.
func (db *nameDB) get(category, name string) string {
	key := category + "\x00" + name
	if id, ok := db.byUser[key]; ok {
		return id
	}
	id := db.distinct(name)
	db.byUser[key] = id
	return id
}

// has reports whether a user name has been allocated in a category.
func (db *nameDB) has(category, name string) bool {
	_, ok := db.byUser[category+"\x00"+name]
	return ok
}

// fresh returns a new identifier derived from base that collides with no
// user name or earlier fresh name.
func (db *nameDB) fresh(base string) string {
	return db.distinct(base)
}

func (db *nameDB) distinct(name string) string {
	safe := safeName(name)
	candidate := safe
	for i := 2; reservedWords[candidate] || db.taken[candidate]; i++ {
		candidate = safe + strconv.Itoa(i)
	}
	db.taken[candidate] = true
	return candidate
}

// safeName replaces characters that cannot appear in an identifier.
func safeName(name string) string {
	if name == "" {
		return "unnamed"
	}
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r == '_' || r == '$',
			r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	s := sb.String()
	if s[0] >= '0' && s[0] <= '9' {
		s = "my_" + s
	}
	return s
}
