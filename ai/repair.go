// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import (
	"strings"
	"unicode"
)

// repairJSON quotes object keys that a model emitted bare or half-quoted.
// Examples: `{answer: "x"}` and `{answer": "x"}` both become `{"answer": "x"}`.
// String literals are copied untouched.
func repairJSON(s string) string {
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 16)

	inString, escaped, keyPos := false, false, false
	for i := 0; i < len(rs); i++ {
		ch := rs[i]
		if inString {
			b.WriteRune(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		if keyPos && isIdentStart(ch) {
			j := i
			for j < len(rs) && isIdentPart(rs[j]) {
				j++
			}
			k := skipSpace(rs, j)
			if k < len(rs) && rs[k] == ':' {
				b.WriteString(`"` + string(rs[i:j]) + `"`)
				i = j - 1
				keyPos = false
				continue
			}
			if k < len(rs) && rs[k] == '"' {
				if m := skipSpace(rs, k+1); m < len(rs) && rs[m] == ':' {
					b.WriteString(`"` + string(rs[i:j]) + `"`)
					i = k
					keyPos = false
					continue
				}
			}
		}

		switch ch {
		case '"':
			inString = true
		case '{', ',':
			keyPos = true
			b.WriteRune(ch)
			continue
		}
		if !unicode.IsSpace(ch) {
			keyPos = false
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func skipSpace(rs []rune, i int) int {
	for i < len(rs) && unicode.IsSpace(rs[i]) {
		i++
	}
	return i
}

func isIdentStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}
