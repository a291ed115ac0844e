package geosearch

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// DefaultFolder searches every folder.
const DefaultFolder = "Any"

var validate = validator.New()

// DistanceQuery describes a radius search around a location.
type DistanceQuery struct {
	// Location is sent to the server's geocoder: a city, an address, etc.
	Location string
	// Distance is the search radius.
	Distance float64
	// DistanceType is "km" or "miles", case-insensitive.
	DistanceType string
	// IncludeIndicatorsWithAssets selects indicators with (true) or without
	// (false) an associated asset. Nil means true.
	IncludeIndicatorsWithAssets *bool
	// FolderName is one of Any, Retail, Residential, Country Specific,
	// Office. Empty means Any.
	FolderName string
	// Indicator restricts the search to one indicator name id when set.
	Indicator string
}

// Bool returns a pointer to b, for optional query fields.
func Bool(b bool) *bool { return &b }

type distanceRequest struct {
	LocationName                string  `json:"location_name"`
	Distance                    float64 `json:"distance"`
	DistanceType                string  `json:"distance_type" validate:"oneof=km miles"`
	FolderName                  string  `json:"folder_name"`
	IncludeIndicatorsWithAssets bool    `json:"include_indicators_with_assets"`
	IndicatorNameID             string  `json:"indicator_name_id,omitempty"`
}

func (q DistanceQuery) request() (distanceRequest, error) {
	req := distanceRequest{
		LocationName:                q.Location,
		Distance:                    q.Distance,
		DistanceType:                strings.ToLower(q.DistanceType),
		FolderName:                  q.FolderName,
		IncludeIndicatorsWithAssets: true,
		IndicatorNameID:             q.Indicator,
	}
	if req.FolderName == "" {
		req.FolderName = DefaultFolder
	}
	if q.IncludeIndicatorsWithAssets != nil {
		req.IncludeIndicatorsWithAssets = *q.IncludeIndicatorsWithAssets
	}

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return req, &ValidationError{
				Field:  "distance_type",
				Value:  q.DistanceType,
				Reason: "must be either 'km' or 'miles'",
			}
		}
		return req, err
	}
	return req, nil
}

func (c *httpClient) SearchByDistance(ctx context.Context, q DistanceQuery) (*ResultSet, error) {
	req, err := q.request()
	if err != nil {
		return nil, err
	}

	ep := Geosearch()
	c.log.Debug("geosearch: distance search",
		zap.String("location", req.LocationName),
		zap.Float64("distance", req.Distance),
		zap.String("distance_type", req.DistanceType),
		zap.String("folder", req.FolderName),
	)

	body, err := c.postJSON(ctx, ep, req)
	if err != nil {
		return nil, err
	}

	responses, err := c.stageOne(ep, body)
	if err != nil {
		return nil, err
	}

	hits, ok := lookupTag(responses, req.FolderName)
	if !ok {
		c.log.Warn("geosearch: folder missing from response", zap.String("folder", req.FolderName))
		return NewResultSet(), nil
	}

	results := NewResultSet()
	err = c.resolveHits(ctx, ep, hits, func(searchKey string, ind ResolvedIndicator) {
		results.Set(searchKey, ind)
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// stageOne validates a search response body and returns its responses object.
// Undecodable bodies, and bodies without a responses object, are logged raw
// and reported as a stage-1 DecodeError.
func (c *httpClient) stageOne(ep Endpoint, body []byte) (gjson.Result, error) {
	var cause error
	var responses gjson.Result
	if !gjson.ValidBytes(body) {
		cause = errors.New("response is not valid JSON")
	} else if responses = gjson.GetBytes(body, responsesField); !responses.IsObject() {
		cause = errors.New("response has no responses object")
	}
	if cause == nil {
		return responses, nil
	}

	c.log.Error("geosearch: undecodable search response",
		zap.String("endpoint", ep.Path()),
		zap.ByteString("body", body),
		zap.Error(cause),
	)
	return gjson.Result{}, &DecodeError{
		Stage:    StageSearch,
		Endpoint: ep.Path(),
		Body:     string(body),
		Err:      cause,
	}
}

// lookupTag finds responses[tag] without interpreting the tag as a path.
func lookupTag(responses gjson.Result, tag string) (gjson.Result, bool) {
	var hits gjson.Result
	found := false
	responses.ForEach(func(k, v gjson.Result) bool {
		if k.String() == tag {
			hits, found = v, true
			return false
		}
		return true
	})
	return hits, found
}

// resolveHits parses and resolves each hit's search key in document order,
// one stage-2 call per hit.
func (c *httpClient) resolveHits(ctx context.Context, ep Endpoint, hits gjson.Result, emit func(string, ResolvedIndicator)) error {
	var firstErr error
	hits.ForEach(func(_, hit gjson.Result) bool {
		sk := hit.Get("search_key")
		if !sk.Exists() {
			firstErr = &DecodeError{
				Stage:    StageSearch,
				Endpoint: ep.Path(),
				Body:     hit.Raw,
				Err:      errors.New("hit has no search_key"),
			}
			return false
		}
		searchKey := sk.String()

		meta, err := ParseSearchKey(searchKey)
		if err != nil {
			firstErr = err
			return false
		}

		values, err := c.ResolveKey(ctx, searchKey)
		if err != nil {
			firstErr = err
			return false
		}

		emit(searchKey, ResolvedIndicator{IndicatorMetadata: meta, Responses: values})
		return true
	})
	return firstErr
}
