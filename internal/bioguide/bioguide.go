// Package bioguide reads Biographical Directory JSON records.
//
// Records are accepted either wrapped as {"data": {...}} or bare. By default
// fields this package does not know about are kept in Entry.Unrecognized so
// schema drift upstream never drops a record; strict mode rejects them.
package bioguide

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid marks a record that decoded but failed validation.
var ErrInvalid = errors.New("invalid biography record")

// Image is a portrait reference.
type Image struct {
	ContentURL string `json:"contentUrl,omitempty"`
	Caption    string `json:"caption,omitempty"`
	Name       string `json:"name,omitempty"`
}

// Asset is an attached media file.
type Asset struct {
	Name          string   `json:"name"`
	AssetType     string   `json:"assetType"`
	ContentURL    string   `json:"contentUrl"`
	CreditLine    string   `json:"creditLine,omitempty"`
	UsageRight    []string `json:"usageRight,omitempty"`
	UploadDate    string   `json:"uploadDate,omitempty"`
	UploadDateISO string   `json:"uploadDateISO,omitempty"`
}

// Party is a party name as published.
type Party struct {
	Name string `json:"name"`
}

// PartyAffiliation wraps a party.
type PartyAffiliation struct {
	Party Party `json:"party"`
}

// Congress is a numbered congress with its term dates.
type Congress struct {
	Name           string `json:"name,omitempty"`
	CongressNumber int    `json:"congressNumber"`
	CongressType   string `json:"congressType,omitempty"`
	StartDate      string `json:"startDate,omitempty"`
	EndDate        string `json:"endDate,omitempty"`
}

// Represents is the region a position represents.
type Represents struct {
	RegionType string `json:"regionType"`
	RegionCode string `json:"regionCode"`
}

// CongressAffiliation ties a position to a congress, parties and region.
type CongressAffiliation struct {
	Congress         *Congress          `json:"congress,omitempty"`
	PartyAffiliation []PartyAffiliation `json:"partyAffiliation,omitempty"`
	Represents       *Represents        `json:"represents,omitempty"`
}

// Job names a position.
type Job struct {
	Name    string `json:"name"`
	JobType string `json:"jobType"`
}

// JobPosition is one term of service.
type JobPosition struct {
	Job                 Job                 `json:"job"`
	CongressAffiliation CongressAffiliation `json:"congressAffiliation"`
	StartCirca          bool                `json:"startCirca,omitempty"`
	EndCirca            bool                `json:"endCirca,omitempty"`
}

// CreativeWork is a bibliography citation.
type CreativeWork struct {
	FreeFormCitationText string `json:"freeFormCitationText,omitempty"`
}

// ResearchRecordLocation is where an archive is held.
type ResearchRecordLocation struct {
	Name            string `json:"name"`
	AddressLocality string `json:"addressLocality,omitempty"`
	AddressRegion   string `json:"addressRegion,omitempty"`
}

// ResearchRecord is an archival collection.
type ResearchRecord struct {
	Name           string                 `json:"name,omitempty"`
	RecordType     []string               `json:"recordType,omitempty"`
	RecordLocation ResearchRecordLocation `json:"recordLocation"`
	Description    string                 `json:"description,omitempty"`
}

// RelatedTo references another biography.
type RelatedTo struct {
	USCongressBioID string `json:"usCongressBioId" validate:"required"`
}

// Relationship is a family tie, e.g. "father" or "second cousin".
type Relationship struct {
	RelationshipType string    `json:"relationshipType" validate:"required"`
	RelatedTo        RelatedTo `json:"relatedTo"`
}

// Entry is a single biography.
type Entry struct {
	USCongressBioID      string           `json:"usCongressBioId" validate:"required"`
	FamilyName           string           `json:"familyName" validate:"required"`
	GivenName            string           `json:"givenName" validate:"required"`
	MiddleName           string           `json:"middleName,omitempty"`
	UnaccentedFamilyName string           `json:"unaccentedFamilyName,omitempty"`
	UnaccentedGivenName  string           `json:"unaccentedGivenName,omitempty"`
	UnaccentedMiddleName string           `json:"unaccentedMiddleName,omitempty"`
	NickName             string           `json:"nickName,omitempty"`
	HonorificPrefix      string           `json:"honorificPrefix,omitempty"`
	HonorificSuffix      string           `json:"honorificSuffix,omitempty"`
	BirthDate            string           `json:"birthDate,omitempty"`
	BirthCirca           bool             `json:"birthCirca,omitempty"`
	BirthDateUnknown     bool             `json:"birthDateUnknown,omitempty"`
	DeathDate            string           `json:"deathDate,omitempty"`
	DeathCirca           bool             `json:"deathCirca,omitempty"`
	DeathDateUnknown     bool             `json:"deathDateUnknown,omitempty"`
	Image                []Image          `json:"image,omitempty"`
	ProfileText          string           `json:"profileText,omitempty"`
	Asset                []Asset          `json:"asset,omitempty"`
	JobPositions         []JobPosition    `json:"jobPositions,omitempty"`
	CreativeWork         []CreativeWork   `json:"creativeWork,omitempty"`
	ResearchRecord       []ResearchRecord `json:"researchRecord,omitempty"`
	Deleted              bool             `json:"deleted,omitempty"`
	Relationship         []Relationship   `json:"relationship,omitempty" validate:"dive"`

	// Unrecognized holds top-level fields not modeled above.
	Unrecognized map[string]json.RawMessage `json:"-"`
}

// Options controls decoding.
type Options struct {
	// Strict rejects any field not modeled by Entry, including keys beside
	// "data" in a wrapped document.
	Strict bool
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
	knownOnce    sync.Once
	knownFields  map[string]struct{}
)

// Parse decodes one biography document.
func Parse(data []byte, opts Options) (Entry, error) {
	body, envelope, err := unwrap(data)
	if err != nil {
		return Entry{}, err
	}
	if opts.Strict && len(envelope) > 0 {
		return Entry{}, fmt.Errorf("decode biography: unknown envelope field(s) %s", strings.Join(slices.Sorted(maps.Keys(envelope)), ", "))
	}

	var entry Entry
	dec := json.NewDecoder(bytes.NewReader(body))
	if opts.Strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&entry); err != nil {
		return Entry{}, fmt.Errorf("decode biography: %w", err)
	}
	if !opts.Strict {
		unknown, err := unrecognized(body)
		if err != nil {
			return Entry{}, err
		}
		for name, raw := range envelope {
			if _, taken := unknown[name]; taken {
				continue
			}
			if unknown == nil {
				unknown = make(map[string]json.RawMessage)
			}
			unknown[name] = raw
		}
		entry.Unrecognized = unknown
	}

	validateOnce.Do(func() { validate = validator.New() })
	if err := validate.Struct(entry); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Namespace())
			}
			return Entry{}, fmt.Errorf("%w: missing %s", ErrInvalid, strings.Join(fields, ", "))
		}
		return Entry{}, fmt.Errorf("validate biography: %w", err)
	}
	return entry, nil
}

// unwrap strips a {"data": {...}} envelope when present and returns the
// envelope's other keys.
func unwrap(data []byte) ([]byte, map[string]json.RawMessage, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, nil, fmt.Errorf("decode biography: %w", err)
	}
	inner, wrapped := top["data"]
	if _, bare := top["usCongressBioId"]; !wrapped || bare {
		return data, nil, nil
	}
	delete(top, "data")
	if len(top) == 0 {
		top = nil
	}
	return inner, top, nil
}

func unrecognized(body []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("decode biography: %w", err)
	}
	knownOnce.Do(func() { knownFields = jsonFieldNames(reflect.TypeOf(Entry{})) })
	var out map[string]json.RawMessage
	for name, raw := range fields {
		if _, ok := knownFields[name]; ok {
			continue
		}
		if out == nil {
			out = make(map[string]json.RawMessage)
		}
		out[name] = raw
	}
	return out, nil
}

func jsonFieldNames(t reflect.Type) map[string]struct{} {
	names := make(map[string]struct{}, t.NumField())
	for i := range t.NumField() {
		tag := t.Field(i).Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		if name == "" || name == "-" {
			continue
		}
		names[name] = struct{}{}
	}
	return names
}
