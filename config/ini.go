// Copyright (c) 2016 OpenM++
// This code is licensed under the MIT license (see LICENSE.txt for details)

package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tablecmp/tablecmp/helper"
)

/*
NewIni reads ini-file content into a map of (section.key)=>value.

It is very light and able to parse:

	dsn = "DSN='server'; UID='user'; PWD='pas#word';"   ; comments are # here

Section and key are trimmed and cannot contain comments ; or # chars inside.
Key and values are trimmed and "unquoted". Key or value escaped with
"double" or 'single' quotes can include spaces or ; or # chars.

Example:

	; comments can start from ; or
	# from # and empty lines are skipped

	 [section test]  ; section comment
	 val = no comment
	 rem = ; comment only and empty value
	 nul =
	 dsn = "DSN='server'; UID='user'; PWD='pas#word';" ; quoted value
	 t w = the "# quick #" brown 'fox ; jumps' over    ; escaped: ; and # chars
	 " key "" 'quoted' here " = some value
	 qts = " allow ' unbalanced quotes                 ; with comment

Only UTF-8 ini-files are supported: unlike the reference stack's
config.NewIni, there is no encoding-name parameter, so files in other
encodings must be converted before use.
*/
func NewIni(iniPath string) (map[string]string, error) {

	if iniPath == "" {
		return nil, nil // no ini-file
	}

	b, err := os.ReadFile(iniPath)
	if err != nil {
		return nil, errors.New("reading ini-file failed: " + err.Error())
	}
	if !utf8.Valid(b) {
		return nil, errors.New("ini-file is not valid utf-8: " + iniPath)
	}
	s := strings.TrimPrefix(string(b), "\xef\xbb\xbf") // drop BOM, if any

	kvIni, err := loadIni(s)
	if err != nil {
		return nil, errors.New("parsing ini-file failed: " + err.Error())
	}
	return kvIni, nil
}

// iniKey returns the ini-file key as the concatenation: section.key
func iniKey(section, key string) string { return section + "." + key }

// loadIni parses ini-file content into a strings map of (section.key)=>value
func loadIni(iniContent string) (map[string]string, error) {
	kvIni := make(map[string]string)
	var section, key, val string

	for nLine, nStart := 0, 0; nStart < len(iniContent); {
		nextPos := strings.IndexAny(iniContent[nStart:], "\r\n")
		if nextPos < 0 {
			nextPos = len(iniContent)
		}
		nextPos += 1 + nStart
		if nextPos > len(iniContent) {
			nextPos = len(iniContent)
		}

		line := strings.TrimSpace(iniContent[nStart:nextPos])
		nStart = nextPos
		nLine++

		if len(line) < 1 || line[0] == ';' || line[0] == '#' {
			continue
		}

		if len(line) < 2 {
			return nil, errors.New("line " + strconv.Itoa(nLine) + " too short")
		}
		if section == "" && line[0] != '[' {
			return nil, errors.New("line " + strconv.Itoa(nLine) + ": only comments or empty lines can be before first section")
		}

		if line[0] == '[' {
			nEnd := strings.IndexRune(line, ']')
			nRem := strings.IndexAny(line, ";#")
			if nEnd < 2 || nRem > 0 && nRem < nEnd {
				return nil, errors.New("line " + strconv.Itoa(nLine) + ": invalid section name")
			}
			section = strings.TrimSpace(line[1:nEnd])
			continue
		}
		if section == "" {
			continue
		}

		isQuote := false
		var cQuote rune
		nEq := 0
		for k, c := range line {
			if !isQuote && (c == '"' || c == '\'') || isQuote && c == cQuote {
				isQuote = !isQuote
				if isQuote {
					cQuote = c
				} else {
					cQuote = 0
				}
				continue
			}
			if !isQuote && c == '=' {
				nEq = k
				break
			}
			if !isQuote && (c == ';' || c == '#') {
				break
			}
		}
		if nEq < 1 || nEq >= len(line) {
			return nil, errors.New("line " + strconv.Itoa(nLine) + ": expected key=...")
		}

		key = helper.UnQuote(line[:nEq])
		val = line[nEq+1:]

		isQuote = false
		cQuote = 0
		nQuote := 0
		nRem := 0
		for k, c := range val {
			if c == ';' || c == '#' {
				nRem = k
				if !isQuote {
					break
				}
			}
			if !isQuote && (c == '"' || c == '\'') || isQuote && c == cQuote {
				isQuote = !isQuote
				nQuote = k
				if isQuote {
					cQuote = c
				} else {
					cQuote = 0
				}
				continue
			}
		}
		if nRem > nQuote {
			val = val[:nRem]
		}

		if section != "" && key != "" {
			kvIni[iniKey(section, key)] = helper.UnQuote(val)
		}
		key, val = "", ""
	}

	return kvIni, nil
}
