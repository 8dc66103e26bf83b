package sqlinline

const QCreateIntegrationTokens = `--sql 2c6b1f0e-93d4-4a57-8e12-6f0b3a9d4c21
create table if not exists integration_tokens (
    provider text primary key,
    token text not null,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
`

const QSelectIntegrationToken = `--sql 8a8e0d52-7f5d-4f21-8b7d-f7d4b821eed7
select token
from integration_tokens
where provider = $1::text
limit 1;
`

const QUpsertIntegrationToken = `--sql 6d4f5660-0f7c-4f73-a1f3-9ab6d5e6c7a3
insert into integration_tokens (provider, token, created_at, updated_at)
values ($1::text, $2::text, now(), now())
on conflict (provider) do update set
    token = excluded.token,
    updated_at = now();
`
