package sqlinline

const QLockSubscriptionByStripeID = `--sql 88789111-2e4f-4cb2-900a-834fe3c92e01
select id, user_id, pool_id, stripe_subscription_id, stripe_customer_id, amount_cents, interval, status,
    current_period_end, cancel_at_period_end, total_contributed_cents, created_at, updated_at
from subscriptions
where stripe_subscription_id = $1::text
for update;
`

const QSelectSubscriptionByStripeID = `--sql 586c5a77-4301-4e71-86b4-a5475dc79997
select id, user_id, pool_id, stripe_subscription_id, stripe_customer_id, amount_cents, interval, status,
    current_period_end, cancel_at_period_end, total_contributed_cents, created_at, updated_at
from subscriptions
where stripe_subscription_id = $1::text
limit 1;
`

const QInsertSubscription = `--sql 822f30e9-e0f3-4bb9-875e-d56cad5828d3
insert into subscriptions (
    id, user_id, pool_id, stripe_subscription_id, stripe_customer_id, amount_cents, interval, status,
    current_period_end, cancel_at_period_end, created_at, updated_at
) values (
    gen_random_uuid(), $1::uuid, $2::uuid, $3::text, $4::text, $5::bigint, $6::text, $7::text,
    $8::timestamptz, $9::bool, now(), now()
)
on conflict (stripe_subscription_id) do nothing
returning id, total_contributed_cents, created_at, updated_at;
`

const QUpdateSubscription = `--sql 1bb2cdd8-02eb-4ee4-a03a-c2ac7e65d38a
update subscriptions set
    stripe_customer_id = coalesce(nullif($2::text, ''), stripe_customer_id),
    amount_cents = $3::bigint,
    interval = $4::text,
    status = $5::text,
    current_period_end = $6::timestamptz,
    cancel_at_period_end = $7::bool,
    updated_at = now()
where stripe_subscription_id = $1::text
returning updated_at;
`

const QAddSubscriptionContribution = `--sql b116c389-2668-4678-a823-d8d96541daa0
update subscriptions set
    total_contributed_cents = total_contributed_cents + $2::bigint,
    updated_at = now()
where id = $1::uuid
returning total_contributed_cents, updated_at;
`

const QListSubscriptionsByUser = `--sql 71da2cfd-525d-43ac-b190-f19aa7231eb2
select id, user_id, pool_id, stripe_subscription_id, stripe_customer_id, amount_cents, interval, status,
    current_period_end, cancel_at_period_end, total_contributed_cents, created_at, updated_at
from subscriptions
where user_id = $1::uuid
order by created_at desc;
`
