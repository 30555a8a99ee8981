// Package i18n holds the storefront message catalog.
package i18n

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. The English text doubles as the key.
const (
	keyWelcomeName  = "Welcome, %s!"
	keyWelcome      = "Welcome!"
	keyOrdersLinked = "Your previous %d orders have been linked to this account."
	keyViewOrders   = "View Orders"
)

// Supported lists the languages the catalog has translations for.
// The first entry is the fallback.
var Supported = []language.Tag{language.English, language.German, language.French}

type translation struct {
	welcomeName string
	welcome     string
	linkedOne   string
	linkedOther string
	viewOrders  string
}

var translations = map[language.Tag]translation{
	language.English: {
		welcomeName: "Welcome, %s!",
		welcome:     "Welcome!",
		linkedOne:   "Your previous order has been linked to this account.",
		linkedOther: "Your previous %[1]d orders have been linked to this account.",
		viewOrders:  "View Orders",
	},
	language.German: {
		welcomeName: "Willkommen, %s!",
		welcome:     "Willkommen!",
		linkedOne:   "Ihre frühere Bestellung wurde mit diesem Konto verknüpft.",
		linkedOther: "Ihre %[1]d früheren Bestellungen wurden mit diesem Konto verknüpft.",
		viewOrders:  "Bestellungen ansehen",
	},
	language.French: {
		welcomeName: "Bienvenue, %s !",
		welcome:     "Bienvenue !",
		linkedOne:   "Votre commande précédente a été associée à ce compte.",
		linkedOther: "Vos %[1]d commandes précédentes ont été associées à ce compte.",
		viewOrders:  "Voir les commandes",
	},
}

// Messages composes localized storefront strings.
type Messages struct {
	catalog  *catalog.Builder
	matcher  language.Matcher
	fallback language.Tag
}

// New builds the catalog. defaultLang must be one of Supported; unknown
// values fall back to English.
func New(defaultLang string) (*Messages, error) {
	fallback := language.English
	if defaultLang != "" {
		tag, err := language.Parse(defaultLang)
		if err != nil {
			return nil, fmt.Errorf("parse default language %q: %w", defaultLang, err)
		}
		if _, ok := translations[tag]; ok {
			fallback = tag
		}
	}

	b := catalog.NewBuilder(catalog.Fallback(fallback))
	for tag, tr := range translations {
		if err := b.Set(tag, keyWelcomeName, catalog.String(tr.welcomeName)); err != nil {
			return nil, fmt.Errorf("set %s welcome: %w", tag, err)
		}
		if err := b.Set(tag, keyWelcome, catalog.String(tr.welcome)); err != nil {
			return nil, fmt.Errorf("set %s generic welcome: %w", tag, err)
		}
		err := b.Set(tag, keyOrdersLinked, plural.Selectf(1, "%d",
			plural.One, tr.linkedOne,
			plural.Other, tr.linkedOther,
		))
		if err != nil {
			return nil, fmt.Errorf("set %s orders linked: %w", tag, err)
		}
		if err := b.Set(tag, keyViewOrders, catalog.String(tr.viewOrders)); err != nil {
			return nil, fmt.Errorf("set %s view orders: %w", tag, err)
		}
	}

	// Fallback first so an empty Accept-Language resolves to it.
	tags := []language.Tag{fallback}
	for _, tag := range Supported {
		if tag != fallback {
			tags = append(tags, tag)
		}
	}

	return &Messages{
		catalog:  b,
		matcher:  language.NewMatcher(tags),
		fallback: fallback,
	}, nil
}

// Match picks the best supported language for an Accept-Language header.
func (m *Messages) Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return m.fallback
	}
	tag, _, _ := m.matcher.Match(tags...)
	base, _ := tag.Base()
	for _, supported := range Supported {
		if b, _ := supported.Base(); b == base {
			return supported
		}
	}
	return m.fallback
}

// Welcome greets by first name, or generically when firstName is empty.
func (m *Messages) Welcome(ctx context.Context, firstName string) string {
	p := m.printer(ctx)
	if firstName == "" {
		return p.Sprintf(keyWelcome)
	}
	return p.Sprintf(keyWelcomeName, firstName)
}

// OrdersLinked states how many earlier orders were linked, with plural forms.
func (m *Messages) OrdersLinked(ctx context.Context, count int) string {
	return m.printer(ctx).Sprintf(keyOrdersLinked, count)
}

// ViewOrders is the label of the link to the orders page.
func (m *Messages) ViewOrders(ctx context.Context) string {
	return m.printer(ctx).Sprintf(keyViewOrders)
}

func (m *Messages) printer(ctx context.Context) *message.Printer {
	tag, ok := LanguageFromContext(ctx)
	if !ok {
		tag = m.fallback
	}
	return message.NewPrinter(tag, message.Catalog(m.catalog))
}

type contextKey struct{}

// ContextWithLanguage stores the request language in ctx.
func ContextWithLanguage(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, contextKey{}, tag)
}

// LanguageFromContext returns the request language, if one was set.
func LanguageFromContext(ctx context.Context) (language.Tag, bool) {
	tag, ok := ctx.Value(contextKey{}).(language.Tag)
	return tag, ok
}

// Middleware resolves the request language from Accept-Language.
func Middleware(m *Messages) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tag := m.Match(r.Header.Get("Accept-Language"))
			w.Header().Set("Content-Language", tag.String())
			next.ServeHTTP(w, r.WithContext(ContextWithLanguage(r.Context(), tag)))
		})
	}
}
