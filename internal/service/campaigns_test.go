package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Help Marie pay her Hydro bill!", "help-marie-pay-her-hydro-bill"},
		{"Électricité à Montréal", "electricite-a-montreal"},
		{"Crème brûlée 2025", "creme-brulee-2025"},
		{"  --spaced   out--  ", "spaced-out"},
		{"!!!", "campaign"},
		{"", "campaign"},
		{strings.Repeat("a", 70), strings.Repeat("a", 60)},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type campaignFixture struct {
	db  *memDB
	pub *recordingPublisher
	svc *CampaignService
}

func newCampaignFixture(t *testing.T, suffix func() string) *campaignFixture {
	t.Helper()
	db := newMemDB()
	pub := &recordingPublisher{}
	db.seedUser(domain.User{ID: "u-rec", Role: domain.UserRoleRecipient, Name: "Marie Tremblay"})
	db.seedUser(domain.User{ID: "u-con", Role: domain.UserRoleContributor, Name: "Sam"})
	return &campaignFixture{
		db:  db,
		pub: pub,
		svc: NewCampaignService(CampaignDeps{
			Campaigns:    memCampaigns{db},
			Donations:    memCampaignDonations{db},
			Bills:        memBills{db},
			Users:        memUsers{db},
			Publisher:    pub,
			PublicAppURL: "https://app.test/",
			Logger:       zerolog.Nop(),
			Now:          fixedNow,
			Suffix:       suffix,
		}),
	}
}

func counterSuffix() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%06d", n)
	}
}

func (f *campaignFixture) create(t *testing.T, title string, goal int64) *domain.Campaign {
	t.Helper()
	c, err := f.svc.Create(context.Background(), "u-rec", CampaignInput{Title: title, Story: "Winter heating", GoalCents: goal})
	if err != nil {
		t.Fatalf("Create(%q): %v", title, err)
	}
	return c
}

func TestCreateGeneratesUniqueSlugs(t *testing.T) {
	f := newCampaignFixture(t, counterSuffix())

	seen := map[string]bool{}
	want := []string{"rent-help", "rent-help-000001", "rent-help-000002"}
	for i, w := range want {
		c := f.create(t, "Rent help", 50000)
		if c.Slug != w {
			t.Fatalf("campaign %d slug = %q, want %q", i, c.Slug, w)
		}
		if seen[c.Slug] {
			t.Fatalf("duplicate slug %q", c.Slug)
		}
		seen[c.Slug] = true
		if c.Status != domain.CampaignActive {
			t.Fatalf("status = %s", c.Status)
		}
	}
}

func TestUniqueSlugExhausted(t *testing.T) {
	f := newCampaignFixture(t, func() string { return "zzzzzz" })
	f.create(t, "Rent help", 50000)
	f.create(t, "Rent help", 50000)

	_, err := f.svc.Create(context.Background(), "u-rec", CampaignInput{Title: "Rent help", GoalCents: 50000})
	if !errors.Is(err, domain.ErrSlugExhausted) {
		t.Fatalf("err = %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newCampaignFixture(t, nil)
	other := f.db.seedBill(domain.BillSubmission{UserID: "u-someone"})
	own := f.db.seedBill(domain.BillSubmission{UserID: "u-rec"})
	past := testNow.Add(-time.Hour)

	tests := []struct {
		name    string
		userID  string
		in      CampaignInput
		wantErr error
	}{
		{"contributor", "u-con", CampaignInput{Title: "x", GoalCents: 100}, domain.ErrForbidden},
		{"no title", "u-rec", CampaignInput{Title: "  ", GoalCents: 100}, domain.ErrValidation},
		{"zero goal", "u-rec", CampaignInput{Title: "x"}, domain.ErrValidation},
		{"past end", "u-rec", CampaignInput{Title: "x", GoalCents: 100, EndsAt: &past}, domain.ErrValidation},
		{"foreign bill", "u-rec", CampaignInput{Title: "x", GoalCents: 100, BillID: &other.ID}, domain.ErrForbidden},
		{"missing bill", "u-rec", CampaignInput{Title: "x", GoalCents: 100, BillID: ptr("nope")}, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Create(context.Background(), tt.userID, tt.in); !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	c, err := f.svc.Create(context.Background(), "u-rec", CampaignInput{Title: "Gas bill", GoalCents: 100, BillID: &own.ID})
	if err != nil || c.BillID == nil || *c.BillID != own.ID {
		t.Fatalf("own bill campaign = %+v, %v", c, err)
	}
}

func ptr[T any](v T) *T { return &v }

func (f *campaignFixture) pendingDonation(t *testing.T, c *domain.Campaign, amount int64, donor string, anonymous bool) *domain.CampaignDonation {
	t.Helper()
	d := &domain.CampaignDonation{CampaignID: c.ID, AmountCents: amount, DonorName: donor, Anonymous: anonymous, StripeSessionID: "cs_" + donor}
	if err := (memCampaignDonations{f.db}).CreatePending(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestDonationSettlesOnce(t *testing.T) {
	ctx := context.Background()
	f := newCampaignFixture(t, nil)
	c := f.create(t, "Heating", 10000)
	d := f.pendingDonation(t, c, 2500, "Ali", false)

	_, got, err := f.svc.SetDonationStatus(ctx, d.ID, domain.DonationSucceeded, "pi_1")
	if err != nil {
		t.Fatalf("SetDonationStatus: %v", err)
	}
	if got.CurrentCents != 2500 || got.DonationCount != 1 {
		t.Fatalf("after success = %d/%d", got.CurrentCents, got.DonationCount)
	}

	_, got, _ = f.svc.SetDonationStatus(ctx, d.ID, domain.DonationSucceeded, "pi_1")
	if got.CurrentCents != 2500 || got.DonationCount != 1 {
		t.Fatalf("after replay = %d/%d", got.CurrentCents, got.DonationCount)
	}

	_, got, _ = f.svc.SetDonationStatus(ctx, d.ID, domain.DonationRefunded, "pi_1")
	if got.CurrentCents != 0 || got.DonationCount != 0 {
		t.Fatalf("after refund = %d/%d", got.CurrentCents, got.DonationCount)
	}

	if _, _, err := f.svc.SetDonationStatus(ctx, d.ID, "lost", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("bad status err = %v", err)
	}
}

func TestDonationCompletesAndReopensCampaign(t *testing.T) {
	ctx := context.Background()
	f := newCampaignFixture(t, nil)
	c := f.create(t, "Heating", 5000)
	d := f.pendingDonation(t, c, 5000, "Ali", false)

	_, got, _ := f.svc.SetDonationStatus(ctx, d.ID, domain.DonationSucceeded, "")
	if got.Status != domain.CampaignCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}
	_, got, _ = f.svc.SetDonationStatus(ctx, d.ID, domain.DonationRefunded, "")
	if got.Status != domain.CampaignActive || got.CurrentCents != 0 {
		t.Fatalf("after refund = %s %d", got.Status, got.CurrentCents)
	}
}

func TestPublicViewHonoursPrivacy(t *testing.T) {
	ctx := context.Background()
	f := newCampaignFixture(t, nil)
	open := f.create(t, "Open book", 10000)
	private, err := f.svc.Create(ctx, "u-rec", CampaignInput{Title: "Private", GoalCents: 10000, HideAmounts: true, HideRecipientName: true})
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range []*domain.Campaign{open, private} {
		d := f.pendingDonation(t, c, 2000, "Ali-"+c.Slug, false)
		f.svc.SetDonationStatus(ctx, d.ID, domain.DonationSucceeded, "")
		a := f.pendingDonation(t, c, 1000, "Hidden-"+c.Slug, true)
		f.svc.SetDonationStatus(ctx, a.ID, domain.DonationSucceeded, "")
		f.pendingDonation(t, c, 9000, "Pending-"+c.Slug, false)
	}

	view, err := f.svc.GetBySlug(ctx, " OPEN-BOOK ")
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if view.RecipientName != "Marie" || view.GoalCents == nil || *view.CurrentCents != 3000 || view.ProgressPercent != 30 {
		t.Fatalf("open view = %+v", view)
	}
	if !view.AcceptingDonations {
		t.Fatal("open campaign should accept donations")
	}

	view, _ = f.svc.GetBySlug(ctx, private.Slug)
	if view.RecipientName != anonymousName || view.GoalCents != nil || view.CurrentCents != nil {
		t.Fatalf("private view = %+v", view)
	}
	if view.ProgressPercent != 30 || view.DonationCount != 2 {
		t.Fatalf("private progress = %d count = %d", view.ProgressPercent, view.DonationCount)
	}

	donations, err := f.svc.Donations(ctx, open.Slug, 50)
	if err != nil {
		t.Fatalf("Donations: %v", err)
	}
	if len(donations) != 2 {
		t.Fatalf("donations = %d, want settled only", len(donations))
	}
	names := []string{donations[0].DonorName, donations[1].DonorName}
	if !(names[0] == "Ali-open-book" && names[1] == "Anonymous") {
		t.Fatalf("names = %v", names)
	}
	if donations[0].AmountCents == nil || *donations[0].AmountCents != 2000 {
		t.Fatal("open campaign should show amounts")
	}

	hidden, _ := f.svc.Donations(ctx, private.Slug, 50)
	for _, d := range hidden {
		if d.AmountCents != nil {
			t.Fatalf("private campaign leaked amount %d", *d.AmountCents)
		}
	}
}

// racingCampaigns settles a donation the moment the campaign is first read or
// edited, the way a webhook landing mid-edit would.
type racingCampaigns struct {
	memCampaigns
	settle func()
	once   *sync.Once
}

func (r racingCampaigns) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	c, err := r.memCampaigns.GetByID(ctx, id)
	r.once.Do(r.settle)
	return c, err
}

func (r racingCampaigns) Edit(ctx context.Context, id string, edit func(*domain.Campaign) error) (*domain.Campaign, error) {
	r.once.Do(r.settle)
	return r.memCampaigns.Edit(ctx, id, edit)
}

func TestUpdateKeepsConcurrentSettlement(t *testing.T) {
	ctx := context.Background()
	f := newCampaignFixture(t, nil)
	c := f.create(t, "Heating", 10000)
	d := f.pendingDonation(t, c, 2500, "Ali", false)

	svc := NewCampaignService(CampaignDeps{
		Campaigns: racingCampaigns{
			memCampaigns: memCampaigns{f.db},
			once:         &sync.Once{},
			settle: func() {
				if _, _, err := (memCampaignDonations{f.db}).SetStatus(ctx, d.ID, domain.DonationSucceeded, "pi_1"); err != nil {
					t.Errorf("settle: %v", err)
				}
			},
		},
		Donations: memCampaignDonations{f.db},
		Bills:     memBills{f.db},
		Users:     memUsers{f.db},
		Logger:    zerolog.Nop(),
		Now:       fixedNow,
	})

	title := "Heating for February"
	got, err := svc.Update(ctx, "u-rec", c.ID, CampaignPatch{Title: &title})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Title != title || got.CurrentCents != 2500 || got.DonationCount != 1 {
		t.Fatalf("updated = %q %d/%d", got.Title, got.CurrentCents, got.DonationCount)
	}
	stored, _ := memCampaigns{f.db}.GetByID(ctx, c.ID)
	if stored.CurrentCents != 2500 || stored.DonationCount != 1 {
		t.Fatalf("settled donation lost: current_cents=%d count=%d", stored.CurrentCents, stored.DonationCount)
	}
}

func TestUpdateCampaign(t *testing.T) {
	ctx := context.Background()
	f := newCampaignFixture(t, nil)
	c := f.create(t, "Heating", 10000)

	title := "Heating for February"
	got, err := f.svc.Update(ctx, "u-rec", c.ID, CampaignPatch{Title: &title})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Slug != c.Slug || got.Title != title {
		t.Fatalf("updated = %q %q", got.Slug, got.Title)
	}

	if _, err := f.svc.Update(ctx, "u-con", c.ID, CampaignPatch{Title: &title}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("stranger err = %v", err)
	}
	completed := domain.CampaignCompleted
	if _, err := f.svc.Update(ctx, "u-rec", c.ID, CampaignPatch{Status: &completed}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("complete err = %v", err)
	}

	d := f.pendingDonation(t, c, 4000, "Ali", false)
	f.svc.SetDonationStatus(ctx, d.ID, domain.DonationSucceeded, "")
	goal := int64(4000)
	got, _ = f.svc.Update(ctx, "u-rec", c.ID, CampaignPatch{GoalCents: &goal})
	if got.Status != domain.CampaignCompleted {
		t.Fatalf("lowering goal below total should complete, got %s", got.Status)
	}

	closed := domain.CampaignClosed
	got, err = f.svc.Update(ctx, "u-rec", c.ID, CampaignPatch{Status: &closed})
	if err != nil || got.Status != domain.CampaignClosed {
		t.Fatalf("close = %v, %v", got, err)
	}
	view, _ := f.svc.GetBySlug(ctx, c.Slug)
	if view.AcceptingDonations {
		t.Fatal("closed campaign accepts donations")
	}
}

func TestQRCode(t *testing.T) {
	f := newCampaignFixture(t, nil)
	c := f.create(t, "Heating", 10000)

	if got := f.svc.PublicURL(c.Slug); got != "https://app.test/c/heating" {
		t.Fatalf("PublicURL = %q", got)
	}
	png, err := f.svc.QRCode(context.Background(), c.Slug)
	if err != nil {
		t.Fatalf("QRCode: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatal("not a png")
	}
	if _, err := f.svc.QRCode(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing err = %v", err)
	}
}
