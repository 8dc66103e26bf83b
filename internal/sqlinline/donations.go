package sqlinline

const QCreateDonations = `--sql 5e1d3c4b-8a2f-4f6e-9b7c-1d2e3f4a5b6c
create table if not exists donations (
    id text primary key,
    donor_name text not null,
    donor_email text not null,
    amount double precision not null,
    currency text not null,
    frequency text not null,
    message text not null default '',
    payment_id text not null,
    status text not null,
    country text not null default '',
    created_at timestamptz not null,
    updated_at timestamptz not null
);
create index if not exists donations_donor_email_idx on donations (donor_email, created_at);
`

const QInsertDonation = `--sql 9b79c57c-3615-48a2-9d85-3426d5b3f7eb
insert into donations (id, donor_name, donor_email, amount, currency, frequency, message, payment_id, status, country, created_at, updated_at)
values ($1::text, $2::text, $3::text, $4::double precision, $5::text, $6::text, $7::text, $8::text, $9::text, $10::text, $11::timestamptz, $12::timestamptz);
`

const QListDonations = `--sql 7a08e4f6-cb8a-42c4-bd7f-291d6e913edc
select id, donor_name, donor_email, amount, currency, frequency, message, payment_id, status, country, created_at, updated_at
from donations
order by created_at asc, id asc;
`

const QSelectDonationByID = `--sql 3f9a6c1d-2b4e-4d7f-8a1c-9e0b2d4f6a8c
select id, donor_name, donor_email, amount, currency, frequency, message, payment_id, status, country, created_at, updated_at
from donations
where id = $1::text;
`

const QListDonationsByEmail = `--sql c4d2e8f1-6a3b-4c9d-b7e5-0f1a2b3c4d5e
select id, donor_name, donor_email, amount, currency, frequency, message, payment_id, status, country, created_at, updated_at
from donations
where donor_email = $1::text
order by created_at asc, id asc;
`
