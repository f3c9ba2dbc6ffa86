package sqlinline

// Provider API keys set through poolctl. Blank tokens count as unset.

const QSelectProviderKey = `--sql 0455a852-e883-4756-b974-3eccbde892a7
select token
from integration_tokens
where provider = $1::text and btrim(token) <> '';
`

const QUpsertProviderKey = `--sql 164b0fc8-d358-4a81-9e53-341ebeabfef9
insert into integration_tokens (provider, token, properties)
values ($1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb))
on conflict (provider) do update
set token = excluded.token,
    properties = excluded.properties,
    updated_at = now();
`

const QDeleteProviderKey = `--sql 59e622ed-b908-4f3b-b577-c6c03c646c4b
delete from integration_tokens
where provider = $1::text;
`
