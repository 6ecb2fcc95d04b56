package discovery

import (
	"git.home.luguber.info/inful/dist/internal/foundation/errors"
	"git.home.luguber.info/inful/dist/internal/foundation/normalization"
)

// Kind is the discovery filter requested by a command.
type Kind string

const (
	KindAny    Kind = "any"
	KindCSS    Kind = "css"
	KindHTML   Kind = "html"
	KindAssets Kind = "assets"
)

var kindNormalizer = normalization.NewNormalizer("kind", map[string]Kind{
	"any":    KindAny,
	"all":    KindAny,
	"css":    KindCSS,
	"html":   KindHTML,
	"assets": KindAssets,
	"other":  KindAssets,
}, KindAny)

// ParseKind normalizes raw into a Kind. Empty input means KindAny.
func ParseKind(raw string) (Kind, error) {
	k, err := kindNormalizer.NormalizeWithError(raw)
	if err != nil {
		return "", errors.ValidationError("unknown discovery kind").
			WithCause(err).WithContext("kind", raw).Build()
	}
	return k, nil
}

// Selects reports whether files of category c are kept for this kind.
func (k Kind) Selects(c Category) bool {
	switch k {
	case KindAny:
		return true
	case KindCSS:
		return c == CategoryCSS
	case KindHTML:
		return c == CategoryHTML
	case KindAssets:
		return c == CategoryOther
	default:
		return false
	}
}
