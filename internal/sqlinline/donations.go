package sqlinline

const QInsertDonation = `--sql 15df63ab-4307-46fe-b05c-efc69407d45b
insert into one_time_donations (id, user_id, pool_id, stripe_session_id, amount_cents, status, created_at, updated_at)
values (gen_random_uuid(), nullif($1::text, '')::uuid, $2::uuid, $3::text, $4::bigint, 'pending', now(), now())
returning id, status, created_at, updated_at;
`

const QSelectDonationBySession = `--sql e3b11e38-0c68-41ac-b59d-f0a422a59b2b
select id, user_id, pool_id, stripe_session_id, stripe_payment_intent_id, amount_cents, status, created_at, updated_at
from one_time_donations
where stripe_session_id = $1::text
limit 1;
`

const QSelectDonationByPaymentIntent = `--sql 44ff864d-2624-403b-83ba-49cc092e4654
select id, user_id, pool_id, stripe_session_id, stripe_payment_intent_id, amount_cents, status, created_at, updated_at
from one_time_donations
where stripe_payment_intent_id = $1::text
limit 1;
`

const QLockDonation = `--sql 9d409999-3d98-4372-9671-0e967dc02597
select id, user_id, pool_id, stripe_session_id, stripe_payment_intent_id, amount_cents, status, created_at, updated_at
from one_time_donations
where id = $1::uuid
for update;
`

const QUpdateDonationStatus = `--sql 749f2969-95e4-4a14-9bc5-f12d2cd645f9
update one_time_donations set
    status = $2::text,
    stripe_payment_intent_id = coalesce(nullif($3::text, ''), stripe_payment_intent_id),
    updated_at = now()
where id = $1::uuid
returning updated_at;
`

const QListDonationsByUser = `--sql edb85fe1-691f-4ab5-b64e-2d6717d37f65
select id, user_id, pool_id, stripe_session_id, stripe_payment_intent_id, amount_cents, status, created_at, updated_at
from one_time_donations
where user_id = $1::uuid
order by created_at desc;
`
