// Package arthive knows the shape of the arthive catalogue API and the url
// layout of its image host.
package arthive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pocgg/arthivescrape/download"
	log "github.com/sirupsen/logrus"
)

// DefaultEndpoint is the catalogue query used when none is configured.
const DefaultEndpoint = "https://api.arthive.com/v2.0/works.search?offset=0&extends=works" +
	".alt_media_ids,works.media_id,works.counters,works.properties,works.collection_id,works.infos,works" +
	".description,filters.uri,works.aset_ids,works.artist_ids&count=10&artist_id=65&order=default&"

// Media is one catalogued artwork image.
type Media struct {
	ID string

	// Versions holds the current, big and original version identifiers, in
	// that order.
	Versions []string
}

// ParseError reports catalogue json that lacks a required field.
type ParseError struct {
	Index int    // Entry index within data.media; -1 for the envelope.
	Field string // Missing or malformed field.
	Err   error  // Underlying decode error, if any.
}

func (e *ParseError) Error() string {
	where := "envelope"
	if e.Index >= 0 {
		where = fmt.Sprintf("media entry %d", e.Index)
	}
	if e.Err != nil {
		return fmt.Sprintf("malformed catalogue: %s: field %s: %v", where, e.Field, e.Err)
	}
	return fmt.Sprintf("malformed catalogue: %s: missing field %s", where, e.Field)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// text is a json scalar (string or number) kept as its textual form.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		err := json.Unmarshal(b, &s)
		if err != nil {
			return err
		}
		*t = text(s)
		return nil
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	err := dec.Decode(&n)
	if err != nil {
		return fmt.Errorf("want string or number, have %s", b)
	}
	*t = text(n)
	return nil
}

type envelopeJSON struct {
	Data *struct {
		Media *[]json.RawMessage `json:"media"`
	} `json:"data"`
}

type mediaJSON struct {
	MediaID *text `json:"media_id"`
	Data    *struct {
		Version     *text `json:"version"`
		VersionBig  *text `json:"version_big"`
		VersionOrig *text `json:"version_orig"`
	} `json:"data"`
}

// Fetch retrieves the catalogue at endpoint and returns its media records.
// The request is bounded by timeout. It returns an empty result and no error
// if ctx is done before the request is sent or by the time the response has
// arrived, whatever that response was. The request itself is not interrupted
// by ctx.
func Fetch(ctx context.Context, hc *http.Client, endpoint string, timeout time.Duration) ([]Media, error) {
	if ctx.Err() != nil {
		log.Info("catalogue fetch stopped before request")
		return nil, nil
	}

	log.Infof("fetching catalogue: %s", endpoint)

	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	b, err := download.Get(reqCtx, hc, endpoint, http.Header{"Accept": []string{"application/json"}})
	if ctx.Err() != nil {
		log.Info("catalogue fetch stopped after response")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalogue: %w", err)
	}

	return ParseCatalogue(ctx, bytes.NewReader(b))
}

// ParseCatalogue decodes a catalogue response body. It checks ctx before
// decoding and before each entry, and returns an empty result and no error
// once ctx is done.
func ParseCatalogue(ctx context.Context, r io.Reader) ([]Media, error) {
	if ctx.Err() != nil {
		log.Info("catalogue parse stopped")
		return nil, nil
	}

	var env envelopeJSON
	err := json.NewDecoder(r).Decode(&env)
	if err != nil {
		return nil, &ParseError{Index: -1, Field: "data", Err: err}
	}
	if env.Data == nil {
		return nil, &ParseError{Index: -1, Field: "data"}
	}
	if env.Data.Media == nil {
		return nil, &ParseError{Index: -1, Field: "data.media"}
	}

	entries := *env.Data.Media
	records := make([]Media, 0, len(entries))
	for i, raw := range entries {
		if ctx.Err() != nil {
			log.Info("catalogue parse stopped")
			return nil, nil
		}

		m, err := parseEntry(i, raw)
		if err != nil {
			return nil, err
		}
		records = append(records, m)
	}

	log.Infof("parsed catalogue: media=%d", len(records))
	return records, nil
}

func parseEntry(i int, raw json.RawMessage) (Media, error) {
	var mj mediaJSON
	err := json.Unmarshal(raw, &mj)
	if err != nil {
		return Media{}, &ParseError{Index: i, Field: "media", Err: err}
	}

	if mj.MediaID == nil {
		return Media{}, &ParseError{Index: i, Field: "media_id"}
	}
	if mj.Data == nil {
		return Media{}, &ParseError{Index: i, Field: "data"}
	}

	fields := []struct {
		name string
		val  *text
	}{
		{"data.version", mj.Data.Version},
		{"data.version_big", mj.Data.VersionBig},
		{"data.version_orig", mj.Data.VersionOrig},
	}

	m := Media{ID: string(*mj.MediaID)}
	for _, f := range fields {
		if f.val == nil {
			return Media{}, &ParseError{Index: i, Field: f.name}
		}
		m.Versions = append(m.Versions, string(*f.val))
	}

	log.Debugf("parsed media: id=%s versions=%v", m.ID, m.Versions)
	return m, nil
}
