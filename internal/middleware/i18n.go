package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/infra/geoip"
)

type localeContextKey struct{}
type placeContextKey struct{}

var (
	LocaleKey = localeContextKey{}
	PlaceKey  = placeContextKey{}
)

// I18N picks "en" or "fr" for the request. Quebec callers without an explicit
// preference get French.
func I18N(defaultLocale string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			province := PlaceFromContext(r.Context()).Province
			locale := detectLocale(r, defaultLocale, province)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Geo resolves the caller's coarse location once per request. Edge headers win
// over the database lookup.
func Geo(resolver geoip.LocationResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			place := ResolvePlace(r, resolver)
			ctx := context.WithValue(r.Context(), PlaceKey, place)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLocale(r *http.Request, fallback string, province string) string {
	if v := r.Header.Get("X-Locale"); v != "" {
		return normalizeLocale(v)
	}
	if v := parseAcceptLanguage(r.Header.Get("Accept-Language")); v != "" {
		return v
	}
	if strings.EqualFold(province, "QC") {
		return "fr"
	}
	if fallback != "" {
		return normalizeLocale(fallback)
	}
	return "en"
}

func parseAcceptLanguage(header string) string {
	parts := strings.Split(header, ",")
	for _, part := range parts {
		locale := strings.TrimSpace(strings.Split(part, ";")[0])
		if locale == "" || locale == "*" {
			continue
		}
		return normalizeLocale(locale)
	}
	return ""
}

func normalizeLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if strings.HasPrefix(locale, "fr") {
		return "fr"
	}
	return "en"
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	return geoip.ClientIP(r.Header.Get("X-Forwarded-For"), r.RemoteAddr)
}

func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok {
		return v
	}
	return "en"
}

// PlaceFromContext returns the location stored by Geo, or the zero Place.
func PlaceFromContext(ctx context.Context) geoip.Place {
	if v, ok := ctx.Value(PlaceKey).(geoip.Place); ok {
		return v
	}
	return geoip.Place{}
}

// ResolvePlace resolves a best-effort city and province for the request.
func ResolvePlace(r *http.Request, resolver geoip.LocationResolver) geoip.Place {
	if r == nil {
		return geoip.Place{}
	}
	place := geoip.Place{
		City:     strings.TrimSpace(r.Header.Get("X-Client-City")),
		Province: strings.ToUpper(strings.TrimSpace(firstHeader(r, "X-Client-Region", "CF-Region-Code"))),
		Country:  strings.ToUpper(strings.TrimSpace(firstHeader(r, "X-Country-Code", "CF-IPCountry"))),
	}
	if place.City != "" && place.Province != "" {
		return place
	}
	if resolver == nil {
		return place
	}
	ip := ClientIP(r)
	if ip == "" {
		return place
	}
	found, err := resolver.Locate(ip)
	if err != nil {
		return place
	}
	if place.City == "" {
		place.City = found.City
	}
	if place.Province == "" {
		place.Province = found.Province
	}
	if place.Country == "" {
		place.Country = found.Country
	}
	return place
}

func firstHeader(r *http.Request, keys ...string) string {
	for _, key := range keys {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" {
			return val
		}
	}
	return ""
}
