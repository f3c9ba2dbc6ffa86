package sqlinline

const QInsertPayment = `--sql afea5d85-8f0f-4735-b4f4-77e32f73b28a
insert into payments (id, bill_id, pool_id, admin_id, amount_cents, utility_provider, confirmation_number, method, created_at)
values (gen_random_uuid(), $1::uuid, $2::uuid, $3::uuid, $4::bigint, $5::text, $6::text, $7::text, $8::timestamptz)
returning id, created_at;
`

const QSelectPaymentByBill = `--sql 1f999e84-9f62-49b1-b781-359f0ec08707
select id, bill_id, pool_id, admin_id, amount_cents, utility_provider, confirmation_number, method, created_at
from payments
where bill_id = $1::uuid
limit 1;
`

const QListPaymentsByPool = `--sql 0a6c064b-7d51-46e6-817a-e2b1a49bd0d1
select id, bill_id, pool_id, admin_id, amount_cents, utility_provider, confirmation_number, method, created_at
from payments
where pool_id = $1::uuid
order by created_at desc
limit $2::int;
`
