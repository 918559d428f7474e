package canonical

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/JakeFAU/rollcall-crawler/internal/bioguide"
	"github.com/JakeFAU/rollcall-crawler/internal/model"
)

const bioDateLayout = "2006-01-02"

// FromBioguide maps a biography entry. Job positions become congress
// memberships; the position in the latest congress sets the current state and
// party.
func FromBioguide(e bioguide.Entry) (model.BiographyRecord, error) {
	if e.Deleted {
		return model.BiographyRecord{}, fmt.Errorf("%s: %w", e.USCongressBioID, ErrDeleted)
	}

	leg := model.Legislator{
		BioguideID:           strings.TrimSpace(e.USCongressBioID),
		FamilyName:           e.FamilyName,
		GivenName:            e.GivenName,
		MiddleName:           e.MiddleName,
		UnaccentedFamilyName: orUnaccent(e.UnaccentedFamilyName, e.FamilyName),
		UnaccentedGivenName:  orUnaccent(e.UnaccentedGivenName, e.GivenName),
		UnaccentedMiddleName: orUnaccent(e.UnaccentedMiddleName, e.MiddleName),
		NickName:             e.NickName,
		HonorificPrefix:      e.HonorificPrefix,
		HonorificSuffix:      e.HonorificSuffix,
		ProfileText:          e.ProfileText,
		BirthDate:            e.BirthDate,
		BirthCirca:           e.BirthCirca,
		BirthDateUnknown:     e.BirthDateUnknown,
		DeathDate:            e.DeathDate,
		DeathCirca:           e.DeathCirca,
		DeathDateUnknown:     e.DeathDateUnknown,
	}
	for _, img := range e.Image {
		if img.ContentURL != "" {
			leg.ImageURL = img.ContentURL
			break
		}
	}

	record := model.BiographyRecord{Legislator: leg}

	byCongress := make(map[int]*model.Membership)
	latest := 0
	var latestPos bioguide.JobPosition
	for _, pos := range e.JobPositions {
		aff := pos.CongressAffiliation
		if aff.Congress == nil || aff.Congress.CongressNumber <= 0 {
			continue
		}
		number := aff.Congress.CongressNumber
		m, ok := byCongress[number]
		if !ok {
			congress, err := mapCongress(*aff.Congress)
			if err != nil {
				return model.BiographyRecord{}, fmt.Errorf("%s: %w", leg.BioguideID, err)
			}
			m = &model.Membership{Congress: congress}
			byCongress[number] = m
		}
		for _, pa := range aff.PartyAffiliation {
			name := strings.TrimSpace(pa.Party.Name)
			if name != "" && !slices.Contains(m.Parties, name) {
				m.Parties = append(m.Parties, name)
			}
		}
		if aff.Represents != nil && aff.Represents.RegionCode != "" {
			m.State = model.NewState(aff.Represents.RegionCode)
		}
		if number >= latest {
			latest, latestPos = number, pos
		}
	}

	numbers := make([]int, 0, len(byCongress))
	for n := range byCongress {
		numbers = append(numbers, n)
	}
	slices.Sort(numbers)
	for _, n := range numbers {
		record.Memberships = append(record.Memberships, *byCongress[n])
	}

	if latest > 0 {
		aff := latestPos.CongressAffiliation
		if aff.Represents != nil && aff.Represents.RegionCode != "" {
			state := model.NewState(aff.Represents.RegionCode)
			record.CurrentState = &state
		}
		if n := len(aff.PartyAffiliation); n > 0 && aff.PartyAffiliation[n-1].Party.Name != "" {
			party := model.PartyFromName(aff.PartyAffiliation[n-1].Party.Name)
			record.CurrentParty = &party
		}
	}

	for _, rel := range e.Relationship {
		id := strings.TrimSpace(rel.RelatedTo.USCongressBioID)
		if id == "" || id == leg.BioguideID {
			continue
		}
		record.Relations = append(record.Relations, model.Relation{
			BioguideID: id,
			Type:       strings.TrimSpace(rel.RelationshipType),
		})
	}
	return record, nil
}

func mapCongress(c bioguide.Congress) (model.Congress, error) {
	out := model.Congress{Number: c.CongressNumber}
	var err error
	if out.Start, err = parseBioDate(c.StartDate); err != nil {
		return model.Congress{}, fmt.Errorf("congress %d start: %w", c.CongressNumber, err)
	}
	if out.End, err = parseBioDate(c.EndDate); err != nil {
		return model.Congress{}, fmt.Errorf("congress %d end: %w", c.CongressNumber, err)
	}
	return out, nil
}

func parseBioDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(bioDateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", raw, err)
	}
	return t, nil
}

func orUnaccent(given, fallback string) string {
	if given != "" {
		return given
	}
	return Unaccent(fallback)
}
