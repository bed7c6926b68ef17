package station_test

import (
	"context"
	"strconv"

	stationDatamodel "github.com/frahmantamala/pos-helpdesk/internal/core/datamodel/station"
	"github.com/frahmantamala/pos-helpdesk/internal/station"
)

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

// staleLookupRepository misses every code lookup, as when another request
// inserts the same station id between the check and the write.
type staleLookupRepository struct {
	station.RepositoryAPI
}

func (staleLookupRepository) GetByCode(context.Context, string) (*stationDatamodel.Station, error) {
	return nil, nil
}
