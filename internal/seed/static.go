package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/albapepper/gemscout-data/internal/store"
)

//go:embed static.yaml
var defaultCatalogue []byte

// Catalogue is the static reference data: countries, then competitions with
// their member teams.
type Catalogue struct {
	Countries    []CountrySeed     `yaml:"countries"`
	Competitions []CompetitionSeed `yaml:"competitions"`
}

// CountrySeed is one catalogue country.
type CountrySeed struct {
	Name      string `yaml:"name"`
	ISOCode   string `yaml:"iso_code"`
	Continent string `yaml:"continent"`
	FlagURL   string `yaml:"flag_url"`
}

// CompetitionSeed is one catalogue competition. Teams inherit its country.
type CompetitionSeed struct {
	Name    string                `yaml:"name"`
	Type    store.CompetitionType `yaml:"type"`
	Country string                `yaml:"country"`
	LogoURL string                `yaml:"logo_url"`
	Teams   []string              `yaml:"teams"`
}

// DefaultCatalogue returns the embedded catalogue.
func DefaultCatalogue() (*Catalogue, error) {
	return ParseCatalogue(defaultCatalogue)
}

// ParseCatalogue decodes and validates a YAML catalogue.
func ParseCatalogue(data []byte) (*Catalogue, error) {
	var cat Catalogue
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks names, types and team countries, defaulting an empty
// competition type to league.
func (cat *Catalogue) Validate() error {
	for i, c := range cat.Countries {
		if c.Name == "" {
			return fmt.Errorf("catalogue country #%d has no name", i+1)
		}
	}
	for i := range cat.Competitions {
		c := &cat.Competitions[i]
		if c.Name == "" {
			return fmt.Errorf("catalogue competition #%d has no name", i+1)
		}
		if c.Type == "" {
			c.Type = store.League
		}
		if !c.Type.Valid() {
			return fmt.Errorf("competition %q: unknown type %q", c.Name, c.Type)
		}
		if c.Country == "" && len(c.Teams) > 0 {
			return fmt.Errorf("competition %q lists teams but no country", c.Name)
		}
	}
	return nil
}

// SeedStatic validates the catalogue, then get-or-creates every row in one
// transaction. Rows that already exist are left untouched, so re-running is a
// no-op.
func SeedStatic(ctx context.Context, st store.Store, cat *Catalogue, logger *slog.Logger) (SeedResult, error) {
	var result SeedResult
	if cat == nil {
		return result, errors.New("nil catalogue")
	}
	if err := cat.Validate(); err != nil {
		return result, err
	}

	err := inTx(ctx, st, func(tx store.Tx) error {
		return seedStaticTx(ctx, tx, cat, &result, logger)
	})
	if err != nil {
		return SeedResult{}, err
	}
	return result, nil
}

func seedStaticTx(ctx context.Context, tx store.Tx, cat *Catalogue, result *SeedResult, logger *slog.Logger) error {
	for _, c := range cat.Countries {
		_, created, err := tx.EnsureCountry(ctx, store.Country{
			Name: c.Name, ISOCode: c.ISOCode, Continent: c.Continent, FlagURL: c.FlagURL,
		})
		if err != nil {
			return storageErr("ensure country "+c.Name, err)
		}
		if created {
			result.CountriesCreated++
			logger.Info("Created country", "name", c.Name)
		}
	}

	for _, comp := range cat.Competitions {
		var countryID *int64
		if comp.Country != "" {
			id, found, err := tx.CountryIDByName(ctx, comp.Country)
			if err != nil {
				return storageErr("country lookup", err)
			}
			if !found {
				return fmt.Errorf("competition %q: %w", comp.Name, reject(0, PreconditionCountry, comp.Country))
			}
			countryID = &id
		}

		compID, created, err := tx.EnsureCompetition(ctx, store.Competition{
			Name: comp.Name, Type: comp.Type, CountryID: countryID, LogoURL: comp.LogoURL,
		})
		if err != nil {
			return storageErr("ensure competition "+comp.Name, err)
		}
		if created {
			result.CompetitionsCreated++
			logger.Info("Created competition", "name", comp.Name)
		}

		for _, name := range comp.Teams {
			_, created, err := tx.EnsureTeam(ctx, store.Team{
				Name: name, CountryID: *countryID, CurrentCompetitionID: &compID,
			})
			if err != nil {
				return storageErr("ensure team "+name, err)
			}
			if created {
				result.TeamsCreated++
				logger.Debug("Added team", "name", name, "competition", comp.Name)
			}
		}
	}
	return nil
}
