package sqlinline

// An empty gender selects the newest image of any gender.
const QLatestBaseModel = `--sql cf8ff0bf-9878-4e91-8c89-fa1d1fecaf13
select id::text, image_url, coalesce(gender, 'unspecified'), created_at
from ai_base_models
where ($1::text = '' or gender = $1::text)
order by created_at desc
limit 1;
`

const QInsertBaseModel = `--sql 126ca3ed-8cc3-4b66-87ac-505426c17ee2
insert into ai_base_models(image_url, gender)
values ($1::text, nullif($2::text, 'unspecified'))
returning id::text, image_url, coalesce(gender, 'unspecified'), created_at;
`
