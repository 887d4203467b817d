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

package core

import (
	"fmt"
	"strings"
)

// Locale is a supported conversation language tag.
type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleHindi   Locale = "hi"
	LocaleChinese Locale = "zh"
	LocaleSpanish Locale = "es"

	// DefaultLocale is used when a request carries no language.
	DefaultLocale = LocaleEnglish
)

// Locales lists every supported locale.
var Locales = []Locale{LocaleEnglish, LocaleHindi, LocaleChinese, LocaleSpanish}

// Valid reports whether l is a supported locale.
func (l Locale) Valid() bool {
	switch l {
	case LocaleEnglish, LocaleHindi, LocaleChinese, LocaleSpanish:
		return true
	}
	return false
}

// ParseLocale normalizes s and checks it against the supported locales.
// Region suffixes such as "es-MX" are accepted.
func ParseLocale(s string) (Locale, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexAny(s, "-_"); i > 0 {
		s = s[:i]
	}
	l := Locale(s)
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLocale, s)
	}
	return l, nil
}

// Resolve returns l when valid, otherwise DefaultLocale.
func (l Locale) Resolve() Locale {
	if l.Valid() {
		return l
	}
	return DefaultLocale
}
