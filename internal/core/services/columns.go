package services

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/custodia-labs/postmetrics/internal/core/domain"
)

// foldColumn case-folds a header name for exact comparison.
// A Caser is stateful, so one is built per call.
func foldColumn(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// fuzzyColumn folds a header name and collapses separators to single
// underscores, so "Like Count", "like-count" and "LIKE_COUNT" compare equal.
func fuzzyColumn(name string) string {
	folded := foldColumn(name)
	var b strings.Builder
	b.Grow(len(folded))
	pendingSep := false
	for _, r := range folded {
		switch r {
		case ' ', '-', '_', '.', '/', '\t':
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// matchesRule reports whether a folded header column satisfies rule.
func matchesRule(folded string, rule domain.ColumnRule) bool {
	name := foldColumn(rule.Name)
	if rule.Contains {
		return strings.Contains(folded, name)
	}
	return folded == name
}

// headerHas reports whether any folded column satisfies rule.
func headerHas(folded []string, rule domain.ColumnRule) bool {
	for _, col := range folded {
		if matchesRule(col, rule) {
			return true
		}
	}
	return false
}

func foldHeader(header []string, fuzzy bool) []string {
	out := make([]string, len(header))
	for i, col := range header {
		if fuzzy {
			out[i] = fuzzyColumn(col)
		} else {
			out[i] = foldColumn(col)
		}
	}
	return out
}
