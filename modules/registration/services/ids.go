package services

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/campsite-dev/campseed/modules/registration/domain"
	"github.com/campsite-dev/campseed/pkg/ingest"
)

// Generated ids are name-based (UUIDv5) so re-running the pipeline over the
// same exports yields the same identifiers.
var (
	districtSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("campseed:district"))
	userSpace     = uuid.NewSHA1(uuid.NameSpaceURL, []byte("campseed:user"))
	campiteSpace  = uuid.NewSHA1(uuid.NameSpaceURL, []byte("campseed:campite"))
)

func DistrictID(name string) domain.ID {
	return domain.ID(uuid.NewSHA1(districtSpace, []byte(ingest.DedupKey(name))).String())
}

func UserID(email string) domain.ID {
	return domain.ID(uuid.NewSHA1(userSpace, []byte(ingest.DedupKey(email))).String())
}

// CampiteID is derived from the owning user and the source line of the
// registration row.
func CampiteID(userID domain.ID, line int) domain.ID {
	key := userID.String() + "#" + strconv.Itoa(line)
	return domain.ID(uuid.NewSHA1(campiteSpace, []byte(key)).String())
}
