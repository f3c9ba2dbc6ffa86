package sqlinline

const QAggregateImpact = `--sql 926d216a-f9a9-4daf-aa80-a954dcebe0b7
select
    coalesce(sum(case when kind in ('contribution', 'donation') then amount_cents
                      when kind = 'donation_refunded' then -amount_cents
                      else 0 end), 0)::bigint as contributions_cents,
    coalesce(sum(case when kind = 'bill_payment' then amount_cents else 0 end), 0)::bigint as distributed_cents,
    count(*) filter (where kind = 'bill_payment')::int as bills_paid,
    count(*) filter (where kind = 'subscription_started')::int as new_contributors
from pool_ledger
where pool_id = $1::uuid
  and created_at >= $2::timestamptz
  and created_at < $3::timestamptz;
`

const QUpsertImpactReport = `--sql 70d41f62-2d46-41bc-8327-96edce85ea41
insert into impact_reports (
    id, pool_id, period_start, period_end, contributions_cents, distributed_cents,
    families_helped, bills_paid, new_contributors, created_at
) values (
    gen_random_uuid(), $1::uuid, $2::timestamptz, $3::timestamptz, $4::bigint, $5::bigint,
    $6::int, $7::int, $8::int, now()
)
on conflict (pool_id, period_start) do update set
    period_end = excluded.period_end,
    contributions_cents = excluded.contributions_cents,
    distributed_cents = excluded.distributed_cents,
    families_helped = excluded.families_helped,
    bills_paid = excluded.bills_paid,
    new_contributors = excluded.new_contributors
returning id, created_at;
`

const QListImpactReports = `--sql a597674c-5427-4071-8f07-6939d9bef86a
select id, pool_id, period_start, period_end, contributions_cents, distributed_cents,
    families_helped, bills_paid, new_contributors, created_at
from impact_reports
where pool_id = $1::uuid
order by period_start desc
limit $2::int;
`

const QImpactSummary = `--sql 1b2e6f89-5822-4f11-9157-b86aad6b00dd
with pools as (
    select
        count(*)::int as pools,
        coalesce(sum(total_funds_available_cents), 0)::bigint as funds,
        coalesce(sum(weekly_contributions_cents), 0)::bigint as weekly,
        coalesce(sum(total_amount_distributed_cents), 0)::bigint as distributed,
        coalesce(sum(total_contributors), 0)::int as contributors,
        coalesce(sum(total_families_helped), 0)::int as families
    from community_pools
),
camps as (
    select
        count(*) filter (where status = 'active')::int as active,
        coalesce(sum(current_cents), 0)::bigint as raised
    from campaigns
),
waiting as (
    select count(*)::int as bills
    from bill_submissions
    where payment_status in ('pending', 'approved')
)
select pools.pools, pools.funds, pools.weekly, pools.distributed, pools.contributors, pools.families,
    camps.active, camps.raised, waiting.bills
from pools, camps, waiting;
`
