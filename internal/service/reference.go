package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
)

// ReferenceService serves partner charities and location needs data.
type ReferenceService struct {
	charities domain.CharityRepository
	needs     domain.NeedsRepository
	now       func() time.Time
}

func NewReferenceService(charities domain.CharityRepository, needs domain.NeedsRepository) *ReferenceService {
	return &ReferenceService{charities: charities, needs: needs, now: time.Now}
}

func (s *ReferenceService) Charities(ctx context.Context, category string) ([]domain.Charity, error) {
	return s.charities.List(ctx, strings.ToLower(strings.TrimSpace(category)))
}

func (s *ReferenceService) Charity(ctx context.Context, slug string) (*domain.Charity, error) {
	return s.charities.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
}

func (s *ReferenceService) Needs(ctx context.Context, loc domain.Location) (*domain.NeedsData, error) {
	loc = loc.Normalize()
	if loc.IsZero() {
		return nil, domain.Invalid("location", "city and province are required")
	}
	return s.needs.ForLocation(ctx, loc)
}

func (s *ReferenceService) AllNeeds(ctx context.Context) ([]domain.NeedsData, error) {
	return s.needs.List(ctx)
}

// UpsertNeeds validates and stores needs data for one location.
func (s *ReferenceService) UpsertNeeds(ctx context.Context, n *domain.NeedsData) error {
	normalizeNeeds(n)
	switch {
	case n.City == "" || n.Province == "":
		return domain.Invalid("location", "city and province are required")
	case n.HouseholdsInNeed < 0 || n.AverageBillCents < 0:
		return domain.Invalid("needs", "counts must not be negative")
	case n.EnergyPovertyRate < 0 || n.EnergyPovertyRate > 1:
		return domain.Invalid("energyPovertyRate", "must be between 0 and 1")
	}
	n.UpdatedAt = s.now().UTC()
	return s.needs.Upsert(ctx, n)
}

// SeedFile is the YAML document read by the seed command.
type SeedFile struct {
	Charities []domain.Charity   `yaml:"charities"`
	Needs     []domain.NeedsData `yaml:"needs"`
}

// LoadSeed decodes a seed document, rejecting unknown keys.
func LoadSeed(r io.Reader) (*SeedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var seed SeedFile
	if err := dec.Decode(&seed); err != nil {
		if err == io.EOF {
			return &seed, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &seed, nil
}

// Seed upserts every charity and needs record in seed.
func (s *ReferenceService) Seed(ctx context.Context, seed *SeedFile) (charities, needs int, err error) {
	for i := range seed.Charities {
		c := seed.Charities[i]
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return charities, needs, domain.Invalid(fmt.Sprintf("charities[%d].name", i), "is required")
		}
		if strings.TrimSpace(c.Slug) == "" {
			c.Slug = Slugify(c.Name)
		}
		c.Slug = strings.ToLower(strings.TrimSpace(c.Slug))
		c.Category = strings.ToLower(strings.TrimSpace(c.Category))
		c.City = titleCity(c.City)
		c.Province = strings.ToUpper(strings.TrimSpace(c.Province))
		if err := s.charities.Upsert(ctx, &c); err != nil {
			return charities, needs, fmt.Errorf("charity %s: %w", c.Slug, err)
		}
		charities++
	}
	for i := range seed.Needs {
		n := seed.Needs[i]
		if err := s.UpsertNeeds(ctx, &n); err != nil {
			return charities, needs, fmt.Errorf("needs %s, %s: %w", n.City, n.Province, err)
		}
		needs++
	}
	return charities, needs, nil
}

func normalizeNeeds(n *domain.NeedsData) {
	n.City = titleCity(n.City)
	n.Province = strings.ToUpper(strings.TrimSpace(n.Province))
	n.Source = strings.TrimSpace(n.Source)
}

// titleCity turns "TROIS-RIVIÈRES" or "saint john" into a display form.
func titleCity(city string) string {
	city = strings.TrimSpace(city)
	if city == "" {
		return ""
	}
	return cases.Title(language.Und).String(strings.ToLower(city))
}
