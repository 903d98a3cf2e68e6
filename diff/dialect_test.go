// Copyright (c) 2016 OpenM++
// This code is licensed under the MIT license (see LICENSE.txt for details)

package diff

import "testing"

func TestDefaultDialectValidates(t *testing.T) {
	if err := DefaultDialect().validate(); err != nil {
		t.Fatalf("default dialect must validate: %v", err)
	}
}

func TestValidateTemplateRejectsWrongSubstitutionCountOrSeparator(t *testing.T) {
	cases := []string{
		"COALESCE(%s,%s)",
		"'null'",
		"COALESCE(%s,'null');DROP TABLE x",
	}
	for _, tmpl := range cases {
		if err := validateTemplate("null", tmpl); err == nil {
			t.Errorf("expected rejection of template %q", tmpl)
		}
	}
}

func TestValidateIdentRejectsNonBareIdentifiers(t *testing.T) {
	cases := []string{"", "CRC32()", "CRC32; DROP TABLE x", "CR C32"}
	for _, ident := range cases {
		if err := validateIdent("checksum", ident); err == nil {
			t.Errorf("expected rejection of identifier %q", ident)
		}
	}
	if err := validateIdent("checksum", "my_schema.CRC32"); err != nil {
		t.Errorf("schema-qualified identifier should be accepted: %v", err)
	}
}

func TestConcatKeyAndConcatAll(t *testing.T) {
	d := DefaultDialect()

	key := d.concatKey([]string{"a", "b"})
	want := "CONCAT_WS(':',COALESCE(a,'null'),COALESCE(b,'null'))"
	if key != want {
		t.Errorf("concatKey = %q, want %q", key, want)
	}

	all := d.concatAll([]string{"a"}, []string{"x", "y"})
	wantAll := "CONCAT_WS(':',COALESCE(a,'null'),COALESCE(x,'null'),COALESCE(y,'null'))"
	if all != wantAll {
		t.Errorf("concatAll = %q, want %q", all, wantAll)
	}
}

func TestChecksumAndAggregateOf(t *testing.T) {
	d := DefaultDialect()
	if got := d.checksumOf("x"); got != "CRC32(x)" {
		t.Errorf("checksumOf = %q", got)
	}
	if got := d.aggregateOf("cks"); got != "BIT_XOR(cks)" {
		t.Errorf("aggregateOf = %q", got)
	}
}

func TestTemporaryKeyword(t *testing.T) {
	if temporaryKeyword(true) != "TEMPORARY " {
		t.Errorf("expected TEMPORARY keyword")
	}
	if temporaryKeyword(false) != "" {
		t.Errorf("expected empty keyword")
	}
}
