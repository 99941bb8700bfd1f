package feedpub

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
	"golang.org/x/net/publicsuffix"
)

// Normalizes an entry link for use as a ledger key, so trivially different spellings of the same URL match.
func NormalizeURL(raw string) string {
	clean, err := purell.NormalizeURLString(raw, purell.FlagsSafe|purell.FlagRemoveFragment|purell.FlagRemoveDuplicateSlashes|purell.FlagSortQuery)
	if err != nil {
		return raw
	}
	return clean
}

// Registrable domain ("eTLD+1") of a URL, eg "bbc.co.uk" for "https://www.bbc.co.uk/news".
func BaseDomain(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("no host in URL: %q", raw)
	}
	return publicsuffix.EffectiveTLDPlusOne(host)
}
