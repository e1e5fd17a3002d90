package jetbrains

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"

	"github.com/3leaps/jbi/internal/model"
)

//go:embed schema/releases.schema.json
var releasesSchemaJSON []byte

const (
	releasesSchemaURL = "releases.schema.json"
	maxMetadataBytes  = 16 << 20
)

var (
	releasesSchemaOnce sync.Once
	releasesSchema     *jsonschema.Schema
	releasesSchemaErr  error
)

func loadReleasesSchema() (*jsonschema.Schema, error) {
	releasesSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(releasesSchemaJSON))
		if err != nil {
			releasesSchemaErr = errors.Wrap(err, "parse embedded releases schema")
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(releasesSchemaURL, doc); err != nil {
			releasesSchemaErr = errors.Wrap(err, "add releases schema")
			return
		}
		releasesSchema, releasesSchemaErr = c.Compile(releasesSchemaURL)
	})
	return releasesSchema, releasesSchemaErr
}

// Releases fetches release metadata for products.
type Releases struct {
	BaseURL   string
	UserAgent string
	HTTP      *http.Client
	Log       *zap.Logger
}

// ReleasesURL is the metadata query for a product short code.
func (r *Releases) ReleasesURL(code string) string {
	return fmt.Sprintf("%s/products/releases?code=%s&latest=true&type=release", r.BaseURL, url.QueryEscape(code))
}

// FetchLatest performs one request for the product's release list and
// returns its first record. Any failure is marked ErrMetadataUnavailable.
func (r *Releases) FetchLatest(ctx context.Context, code string) (*model.ReleaseInfo, error) {
	link := r.ReleasesURL(code)
	r.logger().Debug("fetching release metadata", zap.String("url", link))

	resp, err := Get(ctx, r.HTTP, link, r.UserAgent)
	if err != nil {
		return nil, model.Mark(err, model.ErrMetadataUnavailable, "fetch release metadata")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, model.Mark(StatusError(resp, link), model.ErrMetadataUnavailable, "fetch release metadata")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataBytes))
	if err != nil {
		return nil, model.Mark(err, model.ErrMetadataUnavailable, "read release metadata")
	}
	return ParseLatest(body, code)
}

// ParseLatest validates a metadata document against the embedded schema and
// returns the first release listed under code.
func ParseLatest(body []byte, code string) (*model.ReleaseInfo, error) {
	schema, err := loadReleasesSchema()
	if err != nil {
		return nil, err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return nil, model.Mark(err, model.ErrMetadataUnavailable, "parse release metadata")
	}
	if err := schema.Validate(inst); err != nil {
		return nil, model.Mark(err, model.ErrMetadataUnavailable, "invalid release metadata")
	}

	var doc map[string][]model.ReleaseInfo
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, model.Mark(err, model.ErrMetadataUnavailable, "decode release metadata")
	}
	releases, ok := doc[code]
	if !ok {
		return nil, model.Markf(model.ErrMetadataUnavailable, "no releases for product code %s", code)
	}
	if len(releases) == 0 {
		return nil, model.Markf(model.ErrMetadataUnavailable, "empty release list for product code %s", code)
	}
	rel := releases[0]
	if rel.Downloads == nil {
		rel.Downloads = map[string]model.DownloadDescriptor{}
	}
	return &rel, nil
}

func (r *Releases) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}
