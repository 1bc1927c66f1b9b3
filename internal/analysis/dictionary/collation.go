package dictionary

import (
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	apperrors "github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/errors"
)

// CompareFunc is a total order over term texts. It returns a negative value
// when a sorts before b, zero when they are the same term and a positive
// value otherwise.
type CompareFunc func(a, b string) int

// ByteOrder compares terms byte-wise.
func ByteOrder(a, b string) int {
	return strings.Compare(a, b)
}

// NewComparator returns a collation-aware comparator for a POSIX-style
// ("tr_TR.utf8") or BCP 47 ("tr-TR") locale. An empty locale, "C" or "POSIX"
// select byte order without error. When the locale is unknown to the
// collation tables the byte-order comparator is returned together with an
// error wrapping ErrConfigurationDegraded; the comparator is always usable.
//
// The returned comparator is not safe for concurrent use.
func NewComparator(locale string) (CompareFunc, error) {
	name := normalizeLocale(locale)
	switch name {
	case "", "C", "POSIX":
		return ByteOrder, nil
	}

	tag, err := language.Parse(name)
	if err != nil {
		return ByteOrder, apperrors.Newf(apperrors.ErrConfigurationDegraded, apperrors.ExitOK,
			"locale %q is not a valid language tag, falling back to byte order: %v", locale, err)
	}

	matcher := language.NewMatcher(collate.Supported())
	_, _, confidence := matcher.Match(tag)
	if confidence == language.No {
		return ByteOrder, apperrors.Newf(apperrors.ErrConfigurationDegraded, apperrors.ExitOK,
			"collation for locale %q is not available, falling back to byte order", locale)
	}

	col := collate.New(tag)
	return col.CompareString, nil
}

// normalizeLocale strips the codeset and modifier ("tr_TR.utf8@euro") and
// turns POSIX underscores into BCP 47 hyphens.
func normalizeLocale(locale string) string {
	name := strings.TrimSpace(locale)
	if i := strings.IndexAny(name, ".@"); i >= 0 {
		name = name[:i]
	}
	return strings.ReplaceAll(name, "_", "-")
}
