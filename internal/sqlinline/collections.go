package sqlinline

const QEnsureCollections = `--sql 3f1d8a52-7c40-4e0b-9b8e-2a51c6d9e7f3
create table if not exists ledger_collections (
  key text primary key,
  items jsonb not null default '[]'::jsonb,
  next_id bigint not null default 1,
  updated_at timestamptz not null default now()
);
`

const QSeedCollection = `--sql 8e2b4c17-0d9a-4f6e-a3c5-71b8e0f4d2a6
insert into ledger_collections(key) values ($1::text)
on conflict (key) do nothing;
`

const QSelectCollection = `--sql c5a07e93-41bd-4c28-8f1a-d6e3b92a5c04
select items, next_id
from ledger_collections
where key = $1::text;
`

const QSelectCollectionForUpdate = `--sql 16d4f8b0-9e2c-4a73-b5d1-0c8e7a3f6b29
select items, next_id
from ledger_collections
where key = $1::text
for update;
`

const QUpsertCollection = `--sql a9c3e6d1-2f85-4b07-9e4a-5d1b7c0f8e32
insert into ledger_collections(key, items, next_id, updated_at)
values ($1::text, $2::jsonb, $3::bigint, now())
on conflict (key) do update
set items = excluded.items, next_id = excluded.next_id, updated_at = now();
`
