package sqlinline

const QWebhookEventSeen = `--sql d8fa53fc-8c26-4f2c-9e9a-f3d04b26183b
select exists(select 1 from webhook_events where id = $1::text);
`

const QInsertWebhookEvent = `--sql 1fef20e4-89b3-43f0-856e-c439a422b17d
insert into webhook_events (id, type, received_at)
values ($1::text, $2::text, now())
on conflict (id) do nothing;
`
