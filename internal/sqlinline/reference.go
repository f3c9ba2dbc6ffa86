package sqlinline

const QListCharities = `--sql b05ce2f3-95ba-4460-8419-f830546f9ba8
select id, name, slug, description, website, category, city, province
from charities
where ($1::text = '' or category = $1::text)
order by name asc;
`

const QSelectCharityBySlug = `--sql 06b9ec2f-3062-40e6-b17a-f7677229bfc7
select id, name, slug, description, website, category, city, province
from charities
where slug = $1::text
limit 1;
`

const QUpsertCharity = `--sql 985d9599-98f5-4458-a5d8-9ef3339ab9fd
insert into charities (id, name, slug, description, website, category, city, province)
values (gen_random_uuid(), $1::text, $2::text, $3::text, $4::text, $5::text, $6::text, $7::text)
on conflict (slug) do update set
    name = excluded.name,
    description = excluded.description,
    website = excluded.website,
    category = excluded.category,
    city = excluded.city,
    province = excluded.province
returning id;
`

const QSelectNeedsForLocation = `--sql 694054f7-a263-4a54-b3ff-6262a00f6dad
select id, city, province, households_in_need, average_bill_cents, energy_poverty_rate, source, updated_at
from needs_data
where lower(city) = lower($1::text) and province = $2::text
limit 1;
`

const QListNeeds = `--sql dec2674d-c2c9-4913-b491-823993c9238e
select id, city, province, households_in_need, average_bill_cents, energy_poverty_rate, source, updated_at
from needs_data
order by province asc, city asc;
`

const QUpsertNeeds = `--sql fc495d3d-50ce-4ff9-9b0f-424260b98f05
insert into needs_data (id, city, province, households_in_need, average_bill_cents, energy_poverty_rate, source, updated_at)
values (gen_random_uuid(), $1::text, $2::text, $3::int, $4::bigint, $5::float8, $6::text, now())
on conflict (city, province) do update set
    households_in_need = excluded.households_in_need,
    average_bill_cents = excluded.average_bill_cents,
    energy_poverty_rate = excluded.energy_poverty_rate,
    source = excluded.source,
    updated_at = now()
returning id, updated_at;
`
