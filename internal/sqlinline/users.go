package sqlinline

const QUpsertUserByAuthSubject = `--sql 7c9a6f71-06a1-4489-b49c-7830f4550d53
insert into users (id, auth_subject, email, name, role, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, $3::text, $4::text, now(), now())
on conflict (auth_subject) do update set
    email = excluded.email,
    name = case when excluded.name = '' then users.name else excluded.name end,
    role = case when $5::bool then 'admin' else users.role end,
    updated_at = now()
returning id, auth_subject, email, name, role, city, province, postal_code, charity_preferences, created_at, updated_at;
`

const QSelectUserByID = `--sql b1e5fe39-e7e1-4469-8045-355cf6ea12c5
select id, auth_subject, email, name, role, city, province, postal_code, charity_preferences, created_at, updated_at
from users
where id = $1::uuid
limit 1;
`

const QLockUser = `--sql 28b9f527-6c2a-4bfb-b6f5-67e15c70154e
select id
from users
where id = $1::uuid
for update;
`

const QUpdateUser = `--sql fdaa94ad-fc80-46a7-8a33-7f99f0784106
update users set
    name = $2::text,
    role = $3::text,
    city = $4::text,
    province = $5::text,
    postal_code = $6::text,
    charity_preferences = coalesce($7::text[], '{}'::text[]),
    updated_at = now()
where id = $1::uuid
returning id, auth_subject, email, name, role, city, province, postal_code, charity_preferences, created_at, updated_at;
`

const QSetUserRoleByEmail = `--sql 9ac3c2c4-688b-4bf2-a2f4-5e89aee87f23
update users set role = $2::text, updated_at = now()
where lower(email) = lower($1::text)
returning id, auth_subject, email, name, role, city, province, postal_code, charity_preferences, created_at, updated_at;
`
