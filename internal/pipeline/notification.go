package pipeline

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/JakeFAU/rollcall-crawler/internal/ingest"
	"github.com/JakeFAU/rollcall-crawler/internal/model"
)

// Notification announces one committed roll call.
type Notification struct {
	RunID    string    `json:"run_id"`
	Chamber  string    `json:"chamber"`
	Congress int       `json:"congress"`
	Session  int       `json:"session"`
	Number   int       `json:"number"`
	When     time.Time `json:"when"`
	Question string    `json:"question,omitempty"`
	Votes    int       `json:"votes"`
	// DocumentSHA256 is the hex digest of the source document, when hashed.
	DocumentSHA256 string `json:"document_sha256,omitempty"`
}

func newNotification(runID uuid.UUID, rc model.RollCall, res ingest.Result, digest string) Notification {
	return Notification{
		RunID:    runID.String(),
		Chamber:  string(rc.Chamber),
		Congress: rc.Congress,
		Session:  rc.Session,
		Number:   rc.Number,
		When:     rc.When,
		Question: rc.Question,
		Votes:    res.Votes,

		DocumentSHA256: digest,
	}
}

// Attributes exposes filterable message attributes.
func (n Notification) Attributes() map[string]string {
	return map[string]string{
		"chamber":  n.Chamber,
		"congress": strconv.Itoa(n.Congress),
	}
}
