package diff

import (
	"errors"
	"strconv"
	"strings"
)

// Dialect parameterizes all SQL the engine emits: the per-field
// NULL-coalescing template, the multi-field concatenation template, the
// scalar checksum function and the XOR-style aggregate (§4.1).
//
// Substitution is purely lexical. Templates are operator-controlled
// configuration, never caller/user data, so Dialect does not attempt to
// escape anything beyond validating the single-%s contract (§9).
type Dialect struct {
	Null      string // e.g. "COALESCE(%s,'null')"
	Concat    string // e.g. "CONCAT_WS(':',%s)"
	Checksum  string // scalar function name, e.g. "CRC32"
	Aggregate string // XOR-like aggregate function name, e.g. "BIT_XOR"
}

// DefaultDialect returns the templates documented as defaults in §3.
func DefaultDialect() Dialect {
	return Dialect{
		Null:      "COALESCE(%s,'null')",
		Concat:    "CONCAT_WS(':',%s)",
		Checksum:  "CRC32",
		Aggregate: "BIT_XOR",
	}
}

// validateTemplate rejects a template that does not contain exactly one
// "%s" substitution point, or that contains a ";" statement separator, per
// §4.1's contract and §9's rearchitecture of the printf-style templates
// into a validating renderer.
func validateTemplate(name, tmpl string) error {
	if strings.Count(tmpl, "%s") != 1 {
		return errors.New("diff: " + name + " template must contain exactly one %s: " + tmpl)
	}
	if strings.ContainsAny(tmpl, ";") {
		return errors.New("diff: " + name + " template must not contain statement separators: " + tmpl)
	}
	return nil
}

// validate checks both templates and that the checksum/aggregate names
// are bare SQL identifiers (no parens, no whitespace), since they are
// spliced directly in front of "(" by this package.
func (d Dialect) validate() error {
	if err := validateTemplate("null", d.Null); err != nil {
		return err
	}
	if err := validateTemplate("concat", d.Concat); err != nil {
		return err
	}
	if err := validateIdent("checksum", d.Checksum); err != nil {
		return err
	}
	if err := validateIdent("aggregate", d.Aggregate); err != nil {
		return err
	}
	return nil
}

func validateIdent(name, ident string) error {
	if ident == "" {
		return errors.New("diff: " + name + " function name cannot be empty")
	}
	for _, r := range ident {
		if !(r == '_' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '.') {
			return errors.New("diff: " + name + " function name is not a bare SQL identifier: " + ident)
		}
	}
	return nil
}

// coalesced wraps a single column reference with the NULL template.
func (d Dialect) coalesced(col string) string {
	return strings.Replace(d.Null, "%s", col, 1)
}

// concatKey builds the textual-key expression over an ordered column list.
func (d Dialect) concatKey(cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = d.coalesced(c)
	}
	return strings.Replace(d.Concat, "%s", strings.Join(parts, ","), 1)
}

// concatAll builds the textual key||cols expression used for cks (§3: the
// key must be included in cks so a value-swap between two keys is caught).
func (d Dialect) concatAll(keys, cols []string) string {
	all := make([]string, 0, len(keys)+len(cols))
	all = append(all, keys...)
	all = append(all, cols...)
	return d.concatKey(all)
}

// checksumOf wraps an expression with the scalar checksum function.
func (d Dialect) checksumOf(expr string) string {
	return d.Checksum + "(" + expr + ")"
}

// aggregateOf wraps a column name with the aggregate function.
func (d Dialect) aggregateOf(col string) string {
	return d.Aggregate + "(" + col + ")"
}

// temporaryKeyword returns "TEMPORARY " or "" depending on the option.
func temporaryKeyword(isTemporary bool) string {
	if isTemporary {
		return "TEMPORARY "
	}
	return ""
}

// quoteMaskLiteral renders a uint32 mask value as a SQL integer literal.
// The query builders use it for every mask they emit; the idc values in
// investigateWhere and bulkPredicate are formatted with strconv directly.
func quoteMaskLiteral(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}
