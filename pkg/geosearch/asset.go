package geosearch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"

	"github.com/sells-group/indicator-cli/pkg/tabular"
)

// AssetEndpoint is the datascience endpoint listing indicators for an asset.
const AssetEndpoint = "indicators_given_asset"

func (c *httpClient) IndicatorsForAsset(ctx context.Context, asset string) ([]tabular.Record, error) {
	ep := DataScience(AssetEndpoint)
	params := url.Values{
		"asset":         {asset},
		"model":         {"Actual"},
		"output_format": {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Settings(ep).URL()+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrapf(err, "geosearch: create %s request", ep)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(ctx, ep, req)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, &DecodeError{Stage: StageAsset, Endpoint: ep.Path(), Body: string(body), Err: errors.New("response is not valid JSON")}
	}

	// The endpoint answers with either a bare array or {responses: [...]}.
	doc := gjson.ParseBytes(body)
	if !doc.IsArray() {
		doc = doc.Get(responsesField)
	}
	if !doc.Exists() {
		return []tabular.Record{}, nil
	}

	var out []tabular.Record
	if err := json.Unmarshal([]byte(doc.Raw), &out); err != nil {
		return nil, &DecodeError{Stage: StageAsset, Endpoint: ep.Path(), Body: string(body), Err: err}
	}
	return out, nil
}
