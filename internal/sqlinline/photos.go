package sqlinline

const QCountPhotosCreatedOn = `--sql 9c6a9a96-f0f0-45d5-88bd-d7b33976e318
select count(*)::int
from ai_generated_photos
where created_at::date = $1::date;
`

// Catalog photos are replace-latest: the delete and insert share one statement.
const QReplaceCatalogPhoto = `--sql 9ee2f4dc-1022-4129-a118-3b1c85559413
with removed as (
  delete from ai_generated_photos
  where product_id = $1::uuid
    and customer_id is null
)
insert into ai_generated_photos(customer_id, product_id, image_url, ai_model_version)
values (null, $1::uuid, $2::text, $3::text)
returning photo_id::text, image_url, coalesce(ai_model_version, ''), created_at;
`

const QInsertUserPhoto = `--sql 5e224233-1f59-4048-be19-1bed3512567d
insert into ai_generated_photos(customer_id, product_id, image_url, ai_model_version)
values ($2::uuid, $1::uuid, $3::text, $4::text)
returning photo_id::text, image_url, coalesce(ai_model_version, ''), created_at;
`

const QDeleteUserPhoto = `--sql 42654c7e-e8d4-4210-b450-9053c747efaf
delete from ai_generated_photos
where photo_id = $1::uuid
  and customer_id = $2::uuid
returning photo_id::text;
`

const QListUserPhotos = `--sql bfd9149e-f232-4040-b010-33d94c41dd47
select
  photo_id::text,
  product_id::text,
  image_url,
  coalesce(ai_model_version, ''),
  created_at
from ai_generated_photos
where customer_id = $1::uuid
order by created_at desc
limit $2::int;
`
