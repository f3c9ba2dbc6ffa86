package sqlinline

const QInsertCampaign = `--sql 0397cdec-c64a-40af-8519-3c5797312ec6
insert into campaigns (
    id, user_id, bill_id, title, slug, story, goal_cents, status,
    hide_recipient_name, hide_amounts, ends_at, created_at, updated_at
) values (
    gen_random_uuid(), $1::uuid, nullif($2::text, '')::uuid, $3::text, $4::text, $5::text, $6::bigint, 'active',
    $7::bool, $8::bool, $9::timestamptz, now(), now()
)
returning id, current_cents, donation_count, status, created_at, updated_at;
`

const QCampaignSlugExists = `--sql 45fb2cd0-0314-4d70-8b3c-6a86f74aef32
select exists(select 1 from campaigns where slug = $1::text);
`

const QSelectCampaignByID = `--sql 9b7fe8f5-38dc-47e9-bc9b-8325e5704990
select id, user_id, bill_id, title, slug, story, goal_cents, current_cents, donation_count, status,
    hide_recipient_name, hide_amounts, ends_at, created_at, updated_at
from campaigns
where id = $1::uuid
limit 1;
`

const QSelectCampaignBySlug = `--sql 8ee5e141-737b-4447-9ce6-ddfc33f2355d
select id, user_id, bill_id, title, slug, story, goal_cents, current_cents, donation_count, status,
    hide_recipient_name, hide_amounts, ends_at, created_at, updated_at
from campaigns
where slug = $1::text
limit 1;
`

const QLockCampaign = `--sql 1935088e-c57b-49d7-88fa-6e18b1bb4566
select id, user_id, bill_id, title, slug, story, goal_cents, current_cents, donation_count, status,
    hide_recipient_name, hide_amounts, ends_at, created_at, updated_at
from campaigns
where id = $1::uuid
for update;
`

const QUpdateCampaign = `--sql 7f62ed96-6304-44fb-9eed-23586ba2d756
update campaigns set
    title = $2::text,
    story = $3::text,
    goal_cents = $4::bigint,
    current_cents = $5::bigint,
    donation_count = $6::int,
    status = $7::text,
    hide_recipient_name = $8::bool,
    hide_amounts = $9::bool,
    ends_at = $10::timestamptz,
    updated_at = now()
where id = $1::uuid
returning updated_at;
`

const QListActiveCampaigns = `--sql f366a999-6928-4772-8f74-45f6305f08c0
select id, user_id, bill_id, title, slug, story, goal_cents, current_cents, donation_count, status,
    hide_recipient_name, hide_amounts, ends_at, created_at, updated_at
from campaigns
where status = 'active' and (ends_at is null or ends_at > now())
order by created_at desc
limit $1::int;
`

const QListCampaignsByUser = `--sql 400fa0a2-4a40-4471-8a08-131bc2699b6e
select id, user_id, bill_id, title, slug, story, goal_cents, current_cents, donation_count, status,
    hide_recipient_name, hide_amounts, ends_at, created_at, updated_at
from campaigns
where user_id = $1::uuid
order by created_at desc;
`

const QInsertCampaignDonation = `--sql cfc11e91-4522-4724-aa67-851d7b22af9b
insert into campaign_donations (
    id, campaign_id, donor_name, message, anonymous, amount_cents, stripe_session_id, status, created_at, updated_at
) values (
    gen_random_uuid(), $1::uuid, $2::text, $3::text, $4::bool, $5::bigint, $6::text, 'pending', now(), now()
)
returning id, status, created_at, updated_at;
`

const QSelectCampaignDonationBySession = `--sql 52c09532-6ec9-489d-bc8c-fd06e088a4c3
select id, campaign_id, donor_name, message, anonymous, amount_cents, stripe_session_id,
    stripe_payment_intent_id, status, created_at, updated_at
from campaign_donations
where stripe_session_id = $1::text
limit 1;
`

const QSelectCampaignDonationByPaymentIntent = `--sql 6d2bbb60-6170-4988-9eb2-1bed87d8175b
select id, campaign_id, donor_name, message, anonymous, amount_cents, stripe_session_id,
    stripe_payment_intent_id, status, created_at, updated_at
from campaign_donations
where stripe_payment_intent_id = $1::text
limit 1;
`

const QLockCampaignDonation = `--sql 36259ac9-2b91-4c7a-8dd1-600d6c829b43
select id, campaign_id, donor_name, message, anonymous, amount_cents, stripe_session_id,
    stripe_payment_intent_id, status, created_at, updated_at
from campaign_donations
where id = $1::uuid
for update;
`

const QUpdateCampaignDonationStatus = `--sql 6dab9e9d-cdc3-473a-a8df-169254693861
update campaign_donations set
    status = $2::text,
    stripe_payment_intent_id = coalesce(nullif($3::text, ''), stripe_payment_intent_id),
    updated_at = now()
where id = $1::uuid
returning updated_at;
`

const QListCampaignDonations = `--sql 8cd1c229-2d2b-4a79-965b-883ed18a31fb
select id, campaign_id, donor_name, message, anonymous, amount_cents, stripe_session_id,
    stripe_payment_intent_id, status, created_at, updated_at
from campaign_donations
where campaign_id = $1::uuid and status = 'succeeded'
order by created_at desc
limit $2::int;
`
