// Package fotmob maps FotMob player page state onto canonical provider types.
//
// A player page's __NEXT_DATA__ keeps its SWR fallback cache under
// props.pageProps.fallback. The keys are request URLs that change with every
// deploy, and the same cache also holds the player's team and competition
// objects, so the player is found by signature rather than by key.
package fotmob

import (
	"fmt"
	"time"

	"github.com/albapepper/gemscout-data/internal/normalize"
	"github.com/albapepper/gemscout-data/internal/provider"
	"github.com/albapepper/gemscout-data/internal/snapshot"
)

const imageURLFormat = "https://images.fotmob.com/image_resources/playerimages/%d.png"

// PlayerSignature identifies the main player profile: a "name" plus either
// lifecycle date. Teams and leagues in the same cache only carry the name.
var PlayerSignature = provider.Signature{
	Identity: "name",
	AnyOf:    []string{"contractEnd", "birthDate"},
}

// Labels used in playerInformation, in either title shape.
var (
	marketValueLabels = []string{"Market value", "Transfer value", "marketvalue", "transfervalue"}
	countryLabels     = []string{"Country", "Nationality"}
	heightLabels      = []string{"Height", "height_sentencecase"}
	footLabels        = []string{"Preferred foot", "preferred_foot"}
)

// ExtractPlayer locates the player profile in doc and normalizes it.
// containerPath may be empty for the default Next.js fallback location.
// Returns provider.ErrEntityNotFound when the page has no player profile.
func ExtractPlayer(doc *snapshot.Document, containerPath string) (provider.PlayerProfile, error) {
	cand, err := provider.Locate(doc.Entries(containerPath), PlayerSignature)
	if err != nil {
		return provider.PlayerProfile{}, err
	}
	return ProfileFromCandidate(cand), nil
}

// ProfileFromCandidate normalizes an already located player object. Fields
// that are missing or malformed are left absent.
func ProfileFromCandidate(cand provider.Candidate) provider.PlayerProfile {
	info := provider.ParseInfoItems(cand.Get("playerInformation"))

	p := provider.PlayerProfile{
		ExternalID: cand.Get("id").Int(),
		Name:       cand.Get("name").String(),
		TeamName:   cand.Get("primaryTeam.teamName").String(),
	}
	if p.ExternalID > 0 {
		p.ImageURL = fmt.Sprintf(imageURLFormat, p.ExternalID)
	}

	p.BirthDate = datePtr(provider.Scalar(cand.Get("birthDate")))
	p.ContractExpiry = datePtr(provider.Scalar(cand.Get("contractEnd")))

	if raw, ok := provider.Resolve(info, marketValueLabels...); ok {
		if v, ok := normalize.Money(raw); ok {
			p.MarketValue = &v
		}
	}

	p.NationalityName = cand.Get("meta.personJSONLD.nationality.name").String()
	if p.NationalityName == "" {
		p.NationalityName, _ = provider.ResolveString(info, countryLabels...)
	}

	p.PositionLabel = cand.Get("positionDescription.primaryPosition.label").String()
	if p.PositionLabel == "" {
		p.PositionLabel = cand.Get("positionDescription.strPos.label").String()
	}
	if g, ok := normalize.Position(p.PositionLabel); ok {
		p.PositionGroup = &g
	}

	if raw, ok := provider.Resolve(info, heightLabels...); ok {
		if h, ok := normalize.HeightCM(raw); ok {
			p.HeightCM = &h
		}
	}
	if raw, ok := provider.Resolve(info, footLabels...); ok {
		p.PreferredFoot, _ = normalize.Foot(raw)
	}

	return p
}

func datePtr(raw any) *time.Time {
	d, ok := normalize.Date(raw)
	if !ok {
		return nil
	}
	return &d
}
