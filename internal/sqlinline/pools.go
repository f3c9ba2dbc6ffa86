package sqlinline

const QGetOrCreatePool = `--sql f7b94547-cd14-45cd-b94d-44ff25b7c2f5
insert into community_pools (id, city, province, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, now(), now())
on conflict ((lower(city)), province) do update set updated_at = community_pools.updated_at
returning id, city, province, total_funds_available_cents, weekly_contributions_cents,
    total_amount_distributed_cents, total_contributors, total_families_helped, created_at, updated_at;
`

const QSelectPoolByID = `--sql 59b87a0f-39e8-4fe0-811f-1491a1b55411
select id, city, province, total_funds_available_cents, weekly_contributions_cents,
    total_amount_distributed_cents, total_contributors, total_families_helped, created_at, updated_at
from community_pools
where id = $1::uuid
limit 1;
`

const QSelectPoolByLocation = `--sql bb61dc65-acbb-497d-a3bf-a95924d73459
select id, city, province, total_funds_available_cents, weekly_contributions_cents,
    total_amount_distributed_cents, total_contributors, total_families_helped, created_at, updated_at
from community_pools
where lower(city) = lower($1::text) and province = $2::text
limit 1;
`

const QListPools = `--sql 440f9a6c-02b9-4a07-b7ec-959d41fda895
select id, city, province, total_funds_available_cents, weekly_contributions_cents,
    total_amount_distributed_cents, total_contributors, total_families_helped, created_at, updated_at
from community_pools
order by total_funds_available_cents desc, city asc;
`

const QLockPool = `--sql 8fb2c263-fe84-4c1b-8339-6525aed0ed3a
select id
from community_pools
where id = $1::uuid
for update;
`

const QInsertLedgerEntry = `--sql b5f7eb72-5240-4c2f-a00c-dfd09505faea
insert into pool_ledger (id, pool_id, kind, amount_cents, weekly_delta_cents, ref_type, ref_id, created_at)
values (gen_random_uuid(), $1::uuid, $2::text, $3::bigint, $4::bigint, $5::text, $6::text, now())
on conflict (kind, ref_type, ref_id) do nothing
returning id, created_at;
`

const QApplyPoolCounters = `--sql 500dbd92-c883-44c4-879a-865748e7221f
update community_pools set
    total_funds_available_cents = total_funds_available_cents + $2::bigint,
    weekly_contributions_cents = greatest(0, weekly_contributions_cents + $3::bigint),
    total_amount_distributed_cents = total_amount_distributed_cents + $4::bigint,
    total_contributors = greatest(0, total_contributors + $5::int),
    total_families_helped = total_families_helped + $6::int,
    updated_at = now()
where id = $1::uuid
  and total_funds_available_cents + $2::bigint >= 0
returning id, city, province, total_funds_available_cents, weekly_contributions_cents,
    total_amount_distributed_cents, total_contributors, total_families_helped, created_at, updated_at;
`

const QListLedger = `--sql 3a704509-ffe2-4911-b5d4-1eefb031f2f8
select id, pool_id, kind, amount_cents, weekly_delta_cents, ref_type, ref_id, created_at
from pool_ledger
where pool_id = $1::uuid
order by created_at desc
limit $2::int;
`
