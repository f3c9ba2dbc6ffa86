package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/live"
)

const (
	maxSlugLength    = 60
	slugSuffixLength = 6
	slugAttempts     = 10
	fallbackSlug     = "campaign"
	anonymousName    = "Anonymous neighbour"
	qrSize           = 256
	maxTitleLength   = 120
	maxStoryLength   = 10000
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// Slugify folds accents, lower-cases and joins alphanumeric runs with '-'.
func Slugify(title string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), title)
	if err != nil {
		folded = title
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

func randomSuffix() string {
	buf := make([]byte, slugSuffixLength)
	for i := range buf {
		buf[i] = base36[rand.IntN(len(base36))]
	}
	return string(buf)
}

type CampaignDeps struct {
	Campaigns    domain.CampaignRepository
	Donations    domain.CampaignDonationRepository
	Bills        domain.BillRepository
	Users        domain.UserRepository
	Publisher    live.Publisher
	PublicAppURL string
	Logger       zerolog.Logger
	Now          func() time.Time
	// Suffix overrides the random slug suffix generator.
	Suffix func() string
}

// CampaignService runs recipient fundraising pages.
type CampaignService struct {
	campaigns    domain.CampaignRepository
	donations    domain.CampaignDonationRepository
	bills        domain.BillRepository
	users        domain.UserRepository
	publisher    live.Publisher
	publicAppURL string
	logger       zerolog.Logger
	now          func() time.Time
	suffix       func() string
}

func NewCampaignService(d CampaignDeps) *CampaignService {
	suffix := d.Suffix
	if suffix == nil {
		suffix = randomSuffix
	}
	return &CampaignService{
		campaigns:    d.Campaigns,
		donations:    d.Donations,
		bills:        d.Bills,
		users:        d.Users,
		publisher:    publisherOrNop(d.Publisher),
		publicAppURL: strings.TrimRight(d.PublicAppURL, "/"),
		logger:       d.Logger,
		now:          clockOrNow(d.Now),
		suffix:       suffix,
	}
}

// UniqueSlug returns the slug for title, adding a random suffix when it is taken.
func (s *CampaignService) UniqueSlug(ctx context.Context, title string) (string, error) {
	base := Slugify(title)
	taken, err := s.campaigns.SlugExists(ctx, base)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}
	stem := base
	if len(stem) > maxSlugLength-slugSuffixLength-1 {
		stem = strings.TrimRight(stem[:maxSlugLength-slugSuffixLength-1], "-")
	}
	for i := 0; i < slugAttempts; i++ {
		candidate := stem + "-" + s.suffix()
		taken, err := s.campaigns.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", domain.ErrSlugExhausted
}

// CampaignInput creates a campaign.
type CampaignInput struct {
	Title             string
	Story             string
	GoalCents         int64
	BillID            *string
	HideRecipientName bool
	HideAmounts       bool
	EndsAt            *time.Time
}

func validateCampaignText(title, story string) error {
	switch {
	case title == "":
		return domain.Invalid("title", "is required")
	case len(title) > maxTitleLength:
		return domain.Invalid("title", "is too long")
	case len(story) > maxStoryLength:
		return domain.Invalid("story", "is too long")
	}
	return nil
}

// Create opens a campaign for a recipient. A linked bill must be their own.
func (s *CampaignService) Create(ctx context.Context, userID string, in CampaignInput) (*domain.Campaign, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsRecipient() {
		return nil, fmt.Errorf("%w: only recipients can create campaigns", domain.ErrForbidden)
	}
	title := strings.TrimSpace(in.Title)
	story := strings.TrimSpace(in.Story)
	if err := validateCampaignText(title, story); err != nil {
		return nil, err
	}
	if in.GoalCents <= 0 {
		return nil, domain.Invalid("goalCents", "must be greater than zero")
	}
	if in.EndsAt != nil && !in.EndsAt.After(s.now()) {
		return nil, domain.Invalid("endsAt", "must be in the future")
	}
	var billID *string
	if id := trimmed(in.BillID); id != "" {
		bill, err := s.bills.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.Invalid("billId", "bill not found")
			}
			return nil, err
		}
		if bill.UserID != userID {
			return nil, fmt.Errorf("%w: bill belongs to another user", domain.ErrForbidden)
		}
		billID = &id
	}

	c := &domain.Campaign{
		UserID:            userID,
		BillID:            billID,
		Title:             title,
		Story:             story,
		GoalCents:         in.GoalCents,
		Status:            domain.CampaignActive,
		HideRecipientName: in.HideRecipientName,
		HideAmounts:       in.HideAmounts,
		EndsAt:            in.EndsAt,
	}
	// A concurrent create can still take the slug between the check and the
	// insert; retry once with a fresh one.
	for attempt := 0; attempt < 2; attempt++ {
		c.Slug, err = s.UniqueSlug(ctx, title)
		if err != nil {
			return nil, err
		}
		err = s.campaigns.Create(ctx, c)
		if !errors.Is(err, domain.ErrDuplicateOperation) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("campaign_id", c.ID).Str("slug", c.Slug).Msg("campaign created")
	return c, nil
}

// CampaignPatch edits a campaign; nil fields are left alone.
type CampaignPatch struct {
	Title             *string
	Story             *string
	GoalCents         *int64
	HideRecipientName *bool
	HideAmounts       *bool
	EndsAt            *time.Time
	Status            *domain.CampaignStatus
}

// Update edits the owner's campaign. The slug never changes so shared links keep
// working; the only status an owner can set is closed.
func (s *CampaignService) Update(ctx context.Context, userID, id string, patch CampaignPatch) (*domain.Campaign, error) {
	c, err := s.campaigns.Edit(ctx, id, func(c *domain.Campaign) error {
		if c.UserID != userID {
			return domain.ErrForbidden
		}
		return applyCampaignPatch(c, patch)
	})
	if err != nil {
		return nil, err
	}
	publishCampaign(s.publisher, c)
	return c, nil
}

// applyCampaignPatch runs against the locked row so the totals it keeps are
// the ones settled donations last wrote.
func applyCampaignPatch(c *domain.Campaign, patch CampaignPatch) error {
	if patch.Title != nil {
		c.Title = trimmed(patch.Title)
	}
	if patch.Story != nil {
		c.Story = trimmed(patch.Story)
	}
	if err := validateCampaignText(c.Title, c.Story); err != nil {
		return err
	}
	if patch.HideRecipientName != nil {
		c.HideRecipientName = *patch.HideRecipientName
	}
	if patch.HideAmounts != nil {
		c.HideAmounts = *patch.HideAmounts
	}
	if patch.EndsAt != nil {
		c.EndsAt = patch.EndsAt
	}
	if patch.Status != nil && *patch.Status != c.Status {
		if *patch.Status != domain.CampaignClosed {
			return fmt.Errorf("%w: campaigns can only be closed", domain.ErrInvalidTransition)
		}
		c.Status = domain.CampaignClosed
	}
	if patch.GoalCents != nil {
		if *patch.GoalCents <= 0 {
			return domain.Invalid("goalCents", "must be greater than zero")
		}
		c.GoalCents = *patch.GoalCents
		*c = c.Settle(0, 0)
	}
	return nil
}

// PublicCampaign is the anonymous view of a campaign with privacy flags applied.
type PublicCampaign struct {
	ID                 string                `json:"id"`
	Slug               string                `json:"slug"`
	Title              string                `json:"title"`
	Story              string                `json:"story"`
	RecipientName      string                `json:"recipientName"`
	GoalCents          *int64                `json:"goalCents,omitempty"`
	CurrentCents       *int64                `json:"currentCents,omitempty"`
	ProgressPercent    int                   `json:"progressPercent"`
	DonationCount      int                   `json:"donationCount"`
	Status             domain.CampaignStatus `json:"status"`
	AcceptingDonations bool                  `json:"acceptingDonations"`
	EndsAt             *time.Time            `json:"endsAt,omitempty"`
	CreatedAt          time.Time             `json:"createdAt"`
}

func (s *CampaignService) publicView(ctx context.Context, c *domain.Campaign) PublicCampaign {
	view := PublicCampaign{
		ID:                 c.ID,
		Slug:               c.Slug,
		Title:              c.Title,
		Story:              c.Story,
		RecipientName:      anonymousName,
		ProgressPercent:    c.ProgressPercent(),
		DonationCount:      c.DonationCount,
		Status:             c.Status,
		AcceptingDonations: c.AcceptsDonations(s.now()),
		EndsAt:             c.EndsAt,
		CreatedAt:          c.CreatedAt,
	}
	if !c.HideAmounts {
		goal, current := c.GoalCents, c.CurrentCents
		view.GoalCents, view.CurrentCents = &goal, &current
	}
	if !c.HideRecipientName {
		if u, err := s.users.GetByID(ctx, c.UserID); err == nil && strings.TrimSpace(u.Name) != "" {
			view.RecipientName = firstName(u.Name)
		}
	}
	return view
}

// firstName keeps public pages to a given name only.
func firstName(full string) string {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return anonymousName
	}
	return fields[0]
}

func (s *CampaignService) GetBySlug(ctx context.Context, slug string) (*PublicCampaign, error) {
	c, err := s.campaigns.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, err
	}
	view := s.publicView(ctx, c)
	return &view, nil
}

func (s *CampaignService) ListActive(ctx context.Context, limit int) ([]PublicCampaign, error) {
	items, err := s.campaigns.ListActive(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]PublicCampaign, 0, len(items))
	for i := range items {
		out = append(out, s.publicView(ctx, &items[i]))
	}
	return out, nil
}

// ListMine returns the owner's campaigns without privacy filtering.
func (s *CampaignService) ListMine(ctx context.Context, userID string) ([]domain.Campaign, error) {
	return s.campaigns.ListByUser(ctx, userID)
}

// PublicDonation is one settled donation as shown on the campaign page.
type PublicDonation struct {
	DonorName   string    `json:"donorName"`
	Message     string    `json:"message,omitempty"`
	AmountCents *int64    `json:"amountCents,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Donations lists the settled donations of a campaign, honouring anonymity and
// the campaign's hide-amounts flag.
func (s *CampaignService) Donations(ctx context.Context, slug string, limit int) ([]PublicDonation, error) {
	c, err := s.campaigns.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	items, err := s.donations.ListByCampaign(ctx, c.ID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]PublicDonation, 0, len(items))
	for _, d := range items {
		if d.Status != domain.DonationSucceeded {
			continue
		}
		pd := PublicDonation{DonorName: d.PublicDonorName(), Message: d.Message, CreatedAt: d.CreatedAt}
		if !c.HideAmounts {
			amount := d.AmountCents
			pd.AmountCents = &amount
		}
		out = append(out, pd)
	}
	return out, nil
}

// PublicURL is the shareable page for slug.
func (s *CampaignService) PublicURL(slug string) string {
	return s.publicAppURL + "/c/" + url.PathEscape(slug)
}

// QRCode renders a PNG linking to the campaign's public page.
func (s *CampaignService) QRCode(ctx context.Context, slug string) ([]byte, error) {
	c, err := s.campaigns.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(s.PublicURL(c.Slug), qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// SetDonationStatus settles a campaign donation. The campaign total moves only
// when the donation crosses into or out of succeeded.
func (s *CampaignService) SetDonationStatus(ctx context.Context, donationID string, status domain.DonationStatus, paymentIntentID string) (*domain.CampaignDonation, *domain.Campaign, error) {
	if !status.Valid() {
		return nil, nil, domain.Invalid("status", "unknown donation status")
	}
	d, c, err := s.donations.SetStatus(ctx, donationID, status, paymentIntentID)
	if err != nil {
		return nil, nil, err
	}
	publishCampaign(s.publisher, c)
	return d, c, nil
}
