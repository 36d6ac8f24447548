package arthive

import (
	"fmt"
	"strings"

	"github.com/pocgg/arthivescrape/download"
)

// DefaultBaseURL is the image host used when none is configured.
const DefaultBaseURL = "https://arthive.com"

// Keys are the enumeration axes of an image variant. A variant is named by
// the concatenation of one key from each axis, e.g. "ox100".
type Keys struct {
	Versions    []string
	Axes        []string
	Resolutions []string
}

// DefaultKeys returns every variant axis the image host is known to serve.
func DefaultKeys() Keys {
	return Keys{
		Versions: []string{"o", "h", "s", "v"},
		Axes:     []string{"x", "y"},
		Resolutions: []string{"0", "10", "20", "40", "80", "100", "200", "400", "800",
			"1000", "1200", "1400", "1800", "2000", "2200", "2400", "2800"},
	}
}

// Count returns the number of urls Expand produces for records and keys.
func Count(records []Media, keys Keys) int {
	versions := 0
	for _, m := range records {
		versions += len(m.Versions)
	}
	return versions * len(keys.Versions) * len(keys.Axes) * len(keys.Resolutions)
}

// AssetURL returns the url of one image variant.
func AssetURL(baseURL, variant, version, id string) string {
	return strings.TrimSuffix(baseURL, "/") + "/res/media/img/" + variant + "/work/" + version + "/" + id + ".jpg"
}

// Expand returns a url for every combination of record, version key, axis
// key, resolution key and record version, nested in that order. The result
// depends only on the arguments.
func Expand(baseURL string, records []Media, keys Keys) ([]string, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no media records to expand", download.ErrEmptyInput)
	}

	urls := make([]string, 0, Count(records, keys))
	for _, m := range records {
		for _, v := range keys.Versions {
			for _, a := range keys.Axes {
				for _, r := range keys.Resolutions {
					variant := v + a + r
					for _, version := range m.Versions {
						urls = append(urls, AssetURL(baseURL, variant, version, m.ID))
					}
				}
			}
		}
	}

	return urls, nil
}
