package sqlinline

const QInsertBill = `--sql 2e611b01-ac1e-4163-8f64-aba25e42ecca
insert into bill_submissions (
    id, user_id, pool_id, utility_type, provider_name, account_number, amount_due_cents,
    due_date, image_key, verification_status, payment_status, created_at, updated_at
) values (
    gen_random_uuid(), $1::uuid, $2::uuid, $3::text, $4::text, $5::text, $6::bigint,
    $7::date, $8::text, 'pending', 'pending', now(), now()
)
returning id, created_at, updated_at;
`

const QSelectPaidBillDates = `--sql f8019160-49b3-4467-a8e1-01a667191ff7
select paid_at
from bill_submissions
where user_id = $1::uuid
  and payment_status = 'paid'
  and paid_at >= $2::timestamptz
order by paid_at asc;
`

const QSelectBillByID = `--sql f2b73cf6-fe86-418e-8035-3c61d92405da
select id, user_id, pool_id, utility_type, provider_name, account_number, amount_due_cents, due_date,
    image_key, verification_status, payment_status, analysis, admin_notes, reviewed_by, reviewed_at,
    paid_at, created_at, updated_at
from bill_submissions
where id = $1::uuid
limit 1;
`

const QLockBill = `--sql 71b31e97-820f-4f45-8888-40159fde473b
select id, user_id, pool_id, utility_type, provider_name, account_number, amount_due_cents, due_date,
    image_key, verification_status, payment_status, analysis, admin_notes, reviewed_by, reviewed_at,
    paid_at, created_at, updated_at
from bill_submissions
where id = $1::uuid
for update;
`

const QListBillsByUser = `--sql da574dff-1bb7-4124-8be2-c87a538046b6
select id, user_id, pool_id, utility_type, provider_name, account_number, amount_due_cents, due_date,
    image_key, verification_status, payment_status, analysis, admin_notes, reviewed_by, reviewed_at,
    paid_at, created_at, updated_at
from bill_submissions
where user_id = $1::uuid
order by created_at desc;
`

const QListBills = `--sql c96da358-4315-4ab4-8890-584018e957fe
select id, user_id, pool_id, utility_type, provider_name, account_number, amount_due_cents, due_date,
    image_key, verification_status, payment_status, analysis, admin_notes, reviewed_by, reviewed_at,
    paid_at, created_at, updated_at
from bill_submissions
where ($1::text = '' or verification_status = $1::text)
  and ($2::text = '' or payment_status = $2::text)
  and ($3::text = '' or pool_id = nullif($3::text, '')::uuid)
order by created_at asc
limit $4::int;
`

const QSetBillVerification = `--sql 3fd0a846-fc15-4a48-8898-af83485dad3e
update bill_submissions set
    verification_status = $2::text,
    analysis = coalesce($3::jsonb, analysis),
    updated_at = now()
where id = $1::uuid;
`

const QClaimBillForVerification = `--sql a2a11219-c6ab-4767-b5f6-e5460981b34d
with next_bill as (
    select id
    from bill_submissions
    where verification_status = 'pending'
        or (verification_status = 'analyzing' and updated_at < $1::timestamptz)
    order by created_at asc
    for update skip locked
    limit 1
)
update bill_submissions b
set verification_status = 'analyzing', updated_at = now()
from next_bill
where b.id = next_bill.id
returning b.id, b.user_id, b.pool_id, b.utility_type, b.provider_name, b.account_number, b.amount_due_cents,
    b.due_date, b.image_key, b.verification_status, b.payment_status, b.analysis, b.admin_notes,
    b.reviewed_by, b.reviewed_at, b.paid_at, b.created_at, b.updated_at;
`

const QUpdateBillReview = `--sql 23a7e5bf-bfeb-484e-9704-6d9e7ee444e1
update bill_submissions set
    payment_status = $2::text,
    admin_notes = $3::text,
    reviewed_by = $4::uuid,
    reviewed_at = $5::timestamptz,
    updated_at = now()
where id = $1::uuid
returning id, user_id, pool_id, utility_type, provider_name, account_number, amount_due_cents, due_date,
    image_key, verification_status, payment_status, analysis, admin_notes, reviewed_by, reviewed_at,
    paid_at, created_at, updated_at;
`

const QMarkBillPaid = `--sql 42541742-1741-4c1b-bf75-f4e808c27fd8
update bill_submissions set
    payment_status = 'paid',
    paid_at = $2::timestamptz,
    updated_at = now()
where id = $1::uuid and payment_status = 'approved';
`
