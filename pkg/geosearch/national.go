package geosearch

import (
	"context"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/sells-group/indicator-cli/pkg/tabular"
)

// DefaultNationalLocation is the location used when none is given. National
// lookups currently only cover Australia.
const DefaultNationalLocation = "Sydney"

// FolderField tags flattened national rows with their response tag.
const FolderField = "folder_name"

// NationalQuery selects the country whose national indicators are wanted.
type NationalQuery struct {
	// Location is any city or place inside the target country.
	Location string
}

type nationalRequest struct {
	LocationName  string `json:"location_name"`
	DistanceType  string `json:"distance_type"`
	OnlyNationals bool   `json:"only_nationals"`
}

// NationalIndicators returns one entry per response tag. When a tag holds
// several hits the last one resolved is kept.
func (c *httpClient) NationalIndicators(ctx context.Context, q NationalQuery) (*ResultSet, error) {
	loc := q.Location
	if loc == "" {
		loc = DefaultNationalLocation
	}

	ep := Geosearch()
	c.log.Debug("geosearch: national search", zap.String("location", loc))

	body, err := c.postJSON(ctx, ep, nationalRequest{
		LocationName:  loc,
		DistanceType:  "km",
		OnlyNationals: true,
	})
	if err != nil {
		return nil, err
	}

	responses, err := c.stageOne(ep, body)
	if err != nil {
		return nil, err
	}

	results := NewResultSet()
	var firstErr error
	responses.ForEach(func(tag, hits gjson.Result) bool {
		name := tag.String()
		firstErr = c.resolveHits(ctx, ep, hits, func(_ string, ind ResolvedIndicator) {
			results.Set(name, ind)
		})
		return firstErr == nil
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// NationalIndicatorsTable flattens NationalIndicators into rows of
// actual_value and date carrying the indicator metadata and folder_name.
func (c *httpClient) NationalIndicatorsTable(ctx context.Context, q NationalQuery) ([]tabular.Record, error) {
	results, err := c.NationalIndicators(ctx, q)
	if err != nil {
		return nil, err
	}
	return results.Flatten(FolderField), nil
}
